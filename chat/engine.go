package chat

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/lo/parallel"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/media"
	"github.com/quickchat/sync-core/reactive"
)

// ImageCaption is the summary text written for image messages.
const ImageCaption = "📷 Image"

// DefaultSearchDebounce is the coalescing window for the search input.
const DefaultSearchDebounce = 300 * time.Millisecond

// Engine keeps the client's conversation and message views in sync with
// the document store. Snapshot deliveries replace state wholesale: the
// message list is rebuilt in timestamp order on every delivery, so no
// insertion can land out of order even under overlapping deliveries.
//
// At most one conversation-list subscription and one message subscription
// are active at a time; switching scope detaches the old handle
// synchronously before attaching the new one, and a generation counter
// drops deliveries from a detached scope that were already in flight.
type Engine struct {
	log      *slog.Logger
	convs    contract.IConversationRepository
	profiles contract.IProfileRepository
	resolver *Resolver
	uploader *media.Uploader

	conversations *reactive.Cell[[]domain.Conversation]
	filtered      *reactive.Cell[[]domain.Conversation]
	activeID      *reactive.Cell[string]
	messages      *reactive.Cell[[]domain.Message]

	mu         sync.Mutex
	searchTerm string
	debounce   *reactive.Debouncer[string]
	convUnsub  reactive.Disposer
	msgUnsub   reactive.Disposer
	convGen    int
	msgGen     int
}

func NewEngine(
	log *slog.Logger,
	convs contract.IConversationRepository,
	profiles contract.IProfileRepository,
	resolver *Resolver,
	uploader *media.Uploader,
	searchDebounce time.Duration,
) *Engine {
	if searchDebounce <= 0 {
		searchDebounce = DefaultSearchDebounce
	}
	e := &Engine{
		log:           log,
		convs:         convs,
		profiles:      profiles,
		resolver:      resolver,
		uploader:      uploader,
		conversations: reactive.NewCell[[]domain.Conversation](nil),
		filtered:      reactive.NewCell[[]domain.Conversation](nil),
		activeID:      reactive.NewCell(""),
		messages:      reactive.NewCell[[]domain.Message](nil),
	}
	e.debounce = reactive.NewDebouncer(searchDebounce, e.applySearchTerm)
	return e
}

// Reactive read models exposed to consumers.
func (e *Engine) Conversations() *reactive.Cell[[]domain.Conversation] { return e.conversations }
func (e *Engine) Filtered() *reactive.Cell[[]domain.Conversation]      { return e.filtered }
func (e *Engine) ActiveConversationID() *reactive.Cell[string]         { return e.activeID }
func (e *Engine) Messages() *reactive.Cell[[]domain.Message]           { return e.messages }

// ActiveConversation looks up the active conversation in the current
// list, nil when none is selected or the list has no entry for it.
func (e *Engine) ActiveConversation() *domain.Conversation {
	id := e.activeID.Get()
	if id == "" {
		return nil
	}
	conv, ok := lo.Find(e.conversations.Get(), func(c domain.Conversation) bool {
		return c.ID == id
	})
	if !ok {
		return nil
	}
	return &conv
}

// ListenToConversations opens the live conversation-list query for uid,
// detaching any previously active one first. Every snapshot resolves
// participant metadata for the whole batch in parallel, then replaces the
// list wholesale.
func (e *Engine) ListenToConversations(ctx context.Context, uid string) {
	e.mu.Lock()
	if e.convUnsub != nil {
		e.convUnsub()
		e.convUnsub = nil
	}
	e.convGen++
	gen := e.convGen
	e.mu.Unlock()

	unsub := e.convs.WatchConversations(ctx, uid, func(batch []domain.Conversation) {
		enriched := parallel.Map(batch, func(c domain.Conversation, _ int) domain.Conversation {
			c.ParticipantNames, c.ParticipantPhotos, c.ParticipantBios =
				e.resolver.ResolveMany(ctx, c.Participants)
			return c
		})

		e.mu.Lock()
		stale := gen != e.convGen
		e.mu.Unlock()
		if stale {
			return
		}
		e.conversations.Set(enriched)
		e.refilter()
	})

	e.mu.Lock()
	if gen == e.convGen {
		e.convUnsub = unsub
	} else {
		unsub()
	}
	e.mu.Unlock()
}

// ListenToMessages marks conversationID active and opens its live message
// query, detaching any prior message subscription first. Deliveries are
// rebuilt in ascending timestamp order and replace the list wholesale.
func (e *Engine) ListenToMessages(ctx context.Context, conversationID string) {
	e.mu.Lock()
	if e.msgUnsub != nil {
		e.msgUnsub()
		e.msgUnsub = nil
	}
	e.msgGen++
	gen := e.msgGen
	e.mu.Unlock()

	e.activeID.Set(conversationID)

	unsub := e.convs.WatchMessages(ctx, conversationID, func(batch []domain.Message) {
		sort.SliceStable(batch, func(i, j int) bool {
			return batch[i].Timestamp.Before(batch[j].Timestamp)
		})

		e.mu.Lock()
		stale := gen != e.msgGen
		e.mu.Unlock()
		if stale {
			return
		}
		e.messages.Set(batch)
	})

	e.mu.Lock()
	if gen == e.msgGen {
		e.msgUnsub = unsub
	} else {
		unsub()
	}
	e.mu.Unlock()
}

// SendMessage appends the message and updates the conversation summary
// with the same timestamp value, never two independent clock reads.
func (e *Engine) SendMessage(ctx context.Context, conversationID, senderID, text string) error {
	at := time.Now().UTC()
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Timestamp:      at,
	}
	if err := e.convs.AppendMessage(ctx, msg); err != nil {
		return err
	}
	return e.convs.UpdateSummary(ctx, conversationID, text, at)
}

// SendImageMessage uploads the image first; a validation or upload
// failure aborts before any document write. The summary carries a fixed
// placeholder caption.
func (e *Engine) SendImageMessage(ctx context.Context, conversationID, senderID string, file media.File) error {
	url, err := e.uploader.Upload(ctx, conversationID, file)
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ImageURL:       url,
		Timestamp:      at,
	}
	if err := e.convs.AppendMessage(ctx, msg); err != nil {
		return err
	}
	return e.convs.UpdateSummary(ctx, conversationID, ImageCaption, at)
}

// CreateNewChat resolves the target user by email and returns the id of
// the conversation shared with them, creating one only when none exists.
// Creation is idempotent: calling it twice for the same pair returns the
// same id.
func (e *Engine) CreateNewChat(ctx context.Context, callerUID, participantEmail string) (string, error) {
	if callerUID == "" {
		return "", qerrors.Validation("You must be logged in to create a chat")
	}

	target, err := e.profiles.FindByEmail(ctx, participantEmail)
	if err != nil {
		return "", err
	}
	if target.UID == callerUID {
		return "", qerrors.Conflict("Cannot create chat with yourself")
	}

	existing, err := e.convs.ConversationsFor(ctx, callerUID)
	if err != nil {
		return "", err
	}
	if conv, ok := lo.Find(existing, func(c domain.Conversation) bool {
		return c.Includes(target.UID)
	}); ok {
		return conv.ID, nil
	}

	return e.convs.CreateConversation(ctx, []string{callerUID, target.UID}, time.Now().UTC())
}

// SetSearchTerm feeds the search box. Rapid input is coalesced over the
// debounce window; only the newest value is applied.
func (e *Engine) SetSearchTerm(term string) {
	e.debounce.Push(term)
}

// Close detaches every live subscription and stops the debouncer. Calling
// it more than once is harmless.
func (e *Engine) Close() {
	e.debounce.Stop()

	e.mu.Lock()
	convUnsub, msgUnsub := e.convUnsub, e.msgUnsub
	e.convUnsub, e.msgUnsub = nil, nil
	e.convGen++
	e.msgGen++
	e.mu.Unlock()

	if convUnsub != nil {
		convUnsub()
	}
	if msgUnsub != nil {
		msgUnsub()
	}
}

func (e *Engine) applySearchTerm(term string) {
	e.mu.Lock()
	e.searchTerm = term
	e.mu.Unlock()
	e.refilter()
}

// refilter recomputes the filtered view from the full list and the
// current search term, matching on resolved participant names.
func (e *Engine) refilter() {
	e.mu.Lock()
	term := strings.ToLower(e.searchTerm)
	e.mu.Unlock()

	all := e.conversations.Get()
	if term == "" {
		e.filtered.Set(all)
		return
	}
	e.filtered.Set(lo.Filter(all, func(c domain.Conversation, _ int) bool {
		for _, name := range c.ParticipantNames {
			if strings.Contains(strings.ToLower(name), term) {
				return true
			}
		}
		return false
	}))
}
