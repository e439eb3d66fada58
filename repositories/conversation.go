package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/reactive"
)

const (
	convPrefix = "conv:"
	msgPrefix  = "msg:"
)

// ConversationRepository stores conversation documents under "conv:<id>"
// and their messages under "msg:<conversation_id>:<timestamp>:<uuid>".
// The timestamp is zero-padded to 19 digits so a forward prefix scan
// yields messages in chronological order; the uuid suffix disambiguates
// two messages landing on the same nanosecond.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
	hub *watchHub
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log, hub: newWatchHub()}
}

var _ contract.IConversationRepository = (*ConversationRepository)(nil)

// convRecord is the persisted shape. Resolved participant metadata is
// never stored; it is recomputed on every snapshot delivery.
type convRecord struct {
	Participants         []string  `json:"participants"`
	LastMessage          string    `json:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, participants []string, at time.Time) (string, error) {
	id := uuid.New().String()
	data, err := json.Marshal(convRecord{
		Participants:         participants,
		LastMessage:          "",
		LastMessageTimestamp: at,
	})
	if err != nil {
		return "", qerrors.Storage("conversation encoding failed", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(convPrefix+id), data)
	})
	if err != nil {
		return "", qerrors.Storage("conversation write failed", err)
	}

	r.hub.notifyConversations(participants)
	return id, nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var rec convRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(convPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, qerrors.NotFound(fmt.Sprintf("no conversation %s", id))
	}
	if err != nil {
		return nil, qerrors.Storage("conversation read failed", err)
	}
	conv := toConversation(id, rec)
	return &conv, nil
}

// ConversationsFor lists the conversations containing uid, most recent
// summary first.
func (r *ConversationRepository) ConversationsFor(ctx context.Context, uid string) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(convPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(convPrefix):])
			var rec convRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			conv := toConversation(id, rec)
			if conv.Includes(uid) {
				convs = append(convs, conv)
			}
		}
		return nil
	})
	if err != nil {
		return nil, qerrors.Storage("conversation scan failed", err)
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageTimestamp.After(convs[j].LastMessageTimestamp)
	})
	return convs, nil
}

// Messages returns the conversation's messages ascending by timestamp;
// the key layout makes the forward scan chronological by construction.
func (r *ConversationRepository) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(msgPrefix + conversationID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var msg domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	})
	if err != nil {
		return nil, qerrors.Storage("message scan failed", err)
	}
	return msgs, nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, msg domain.Message) error {
	key := fmt.Sprintf("%s%s:%019d:%s", msgPrefix, msg.ConversationID, msg.Timestamp.UnixNano(), msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return qerrors.Storage("message encoding failed", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return qerrors.Storage("message write failed", err)
	}

	r.hub.notifyMessages(msg.ConversationID)
	return nil
}

// UpdateSummary rewrites the conversation's summary fields with the
// message's own timestamp value.
func (r *ConversationRepository) UpdateSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	var participants []string
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(convPrefix + conversationID)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var rec convRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}

		rec.LastMessage = lastMessage
		rec.LastMessageTimestamp = at
		participants = rec.Participants

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return qerrors.NotFound(fmt.Sprintf("no conversation %s", conversationID))
	}
	if err != nil {
		return qerrors.Storage("summary update failed", err)
	}

	r.hub.notifyConversations(participants)
	return nil
}

// WatchConversations registers a live query for uid's conversation list.
// The initial snapshot is delivered synchronously before the registration
// returns; every subsequent relevant mutation replays the query and
// pushes a fresh snapshot.
func (r *ConversationRepository) WatchConversations(ctx context.Context, uid string, fn func([]domain.Conversation)) reactive.Disposer {
	replay := func() {
		convs, err := r.ConversationsFor(ctx, uid)
		if err != nil {
			r.log.Error("conversation watch replay failed", "uid", uid, "error", err)
			return
		}
		fn(convs)
	}
	disposer := r.hub.addConvWatcher(uid, replay)
	replay()
	return disposer
}

// WatchMessages registers a live query for a conversation's message
// stream, same snapshot discipline as WatchConversations.
func (r *ConversationRepository) WatchMessages(ctx context.Context, conversationID string, fn func([]domain.Message)) reactive.Disposer {
	replay := func() {
		msgs, err := r.Messages(ctx, conversationID)
		if err != nil {
			r.log.Error("message watch replay failed", "conversation", conversationID, "error", err)
			return
		}
		fn(msgs)
	}
	disposer := r.hub.addMsgWatcher(conversationID, replay)
	replay()
	return disposer
}

func toConversation(id string, rec convRecord) domain.Conversation {
	return domain.Conversation{
		ID:                   id,
		Participants:         rec.Participants,
		LastMessage:          rec.LastMessage,
		LastMessageTimestamp: rec.LastMessageTimestamp,
	}
}
