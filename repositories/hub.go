package repositories

import (
	"sync"

	"github.com/quickchat/sync-core/reactive"
)

type convWatcher struct {
	uid string
	fn  func()
}

type msgWatcher struct {
	conversationID string
	fn             func()
}

// watchHub is the subscription bookkeeping behind the repository's live
// queries. Watchers are recompute closures: on every relevant mutation
// the hub replays the full query and hands the watcher a fresh snapshot,
// so deliveries are always wholesale, never incremental.
type watchHub struct {
	mu           sync.Mutex
	next         int
	convWatchers map[int]convWatcher
	msgWatchers  map[int]msgWatcher
}

func newWatchHub() *watchHub {
	return &watchHub{
		convWatchers: make(map[int]convWatcher),
		msgWatchers:  make(map[int]msgWatcher),
	}
}

func (h *watchHub) addConvWatcher(uid string, fn func()) reactive.Disposer {
	h.mu.Lock()
	id := h.next
	h.next++
	h.convWatchers[id] = convWatcher{uid: uid, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.convWatchers, id)
		})
	}
}

func (h *watchHub) addMsgWatcher(conversationID string, fn func()) reactive.Disposer {
	h.mu.Lock()
	id := h.next
	h.next++
	h.msgWatchers[id] = msgWatcher{conversationID: conversationID, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.msgWatchers, id)
		})
	}
}

// notifyConversations replays conversation watchers whose uid is among
// the affected participants.
func (h *watchHub) notifyConversations(participants []string) {
	affected := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		affected[p] = struct{}{}
	}

	h.mu.Lock()
	var fns []func()
	for _, w := range h.convWatchers {
		if _, ok := affected[w.uid]; ok {
			fns = append(fns, w.fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (h *watchHub) notifyMessages(conversationID string) {
	h.mu.Lock()
	var fns []func()
	for _, w := range h.msgWatchers {
		if w.conversationID == conversationID {
			fns = append(fns, w.fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
