// Package firestore implements the document-store contracts on Cloud
// Firestore, using the same collection layout as the original client:
// "users" for profile documents, "chats" with a "messages" subcollection
// for conversations.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/reactive"
)

type Store struct {
	client *firestore.Client
	log    *slog.Logger
}

func NewStore(ctx context.Context, projectID string, log *slog.Logger) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for firestore store")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client, log: log}, nil
}

func (s *Store) Close() error { return s.client.Close() }

var (
	_ contract.IProfileRepository      = (*Store)(nil)
	_ contract.IConversationRepository = (*Store)(nil)
)

func (s *Store) usersCol() *firestore.CollectionRef { return s.client.Collection("users") }
func (s *Store) chatsCol() *firestore.CollectionRef { return s.client.Collection("chats") }

func (s *Store) messagesCol(conversationID string) *firestore.CollectionRef {
	return s.chatsCol().Doc(conversationID).Collection("messages")
}

type profileDoc struct {
	UID         string `firestore:"uid"`
	Email       string `firestore:"email"`
	DisplayName string `firestore:"displayName"`
	Bio         string `firestore:"bio"`
	PhotoURL    string `firestore:"photoURL"`
}

type chatDoc struct {
	Participants         []string  `firestore:"participants"`
	LastMessage          string    `firestore:"lastMessage"`
	LastMessageTimestamp time.Time `firestore:"lastMessageTimestamp"`
}

type messageDoc struct {
	ConversationID string    `firestore:"conversationId"`
	SenderID       string    `firestore:"senderId"`
	Text           string    `firestore:"text"`
	ImageURL       string    `firestore:"imageUrl"`
	Timestamp      time.Time `firestore:"timestamp"`
}

// Profile repository.

func (s *Store) CreateProfile(ctx context.Context, session domain.Session) error {
	doc := profileDoc{
		UID:         session.UID,
		Email:       session.Email,
		DisplayName: session.DisplayName,
		Bio:         session.Bio,
		PhotoURL:    session.PhotoURL,
	}
	if _, err := s.usersCol().Doc(session.UID).Set(ctx, doc); err != nil {
		return qerrors.Storage("firestore profile write failed", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*domain.Session, error) {
	snap, err := s.usersCol().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, qerrors.NotFound(fmt.Sprintf("no profile for uid %s", uid))
		}
		return nil, qerrors.Storage("firestore profile read failed", err)
	}
	return decodeProfile(snap)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Session, error) {
	iter := s.usersCol().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, qerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, qerrors.Storage("firestore profile query failed", err)
	}
	return decodeProfile(snap)
}

func (s *Store) UpdateProfile(ctx context.Context, uid string, fields contract.ProfileFields) error {
	updates := make([]firestore.Update, 0, len(fields))
	for name, value := range fields {
		switch name {
		case "displayName", "bio", "photoURL":
			updates = append(updates, firestore.Update{Path: name, Value: value})
		default:
			return qerrors.Validation(fmt.Sprintf("unknown profile field %q", name))
		}
	}

	if _, err := s.usersCol().Doc(uid).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return qerrors.NotFound(fmt.Sprintf("no profile for uid %s", uid))
		}
		return qerrors.Storage("firestore profile update failed", err)
	}
	return nil
}

// Conversation repository.

func (s *Store) CreateConversation(ctx context.Context, participants []string, at time.Time) (string, error) {
	ref, _, err := s.chatsCol().Add(ctx, chatDoc{
		Participants:         participants,
		LastMessage:          "",
		LastMessageTimestamp: at,
	})
	if err != nil {
		return "", qerrors.Storage("firestore conversation write failed", err)
	}
	return ref.ID, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	snap, err := s.chatsCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, qerrors.NotFound(fmt.Sprintf("no conversation %s", id))
		}
		return nil, qerrors.Storage("firestore conversation read failed", err)
	}
	conv, err := decodeConversation(snap)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) ConversationsFor(ctx context.Context, uid string) ([]domain.Conversation, error) {
	iter := s.conversationsQuery(uid).Documents(ctx)
	defer iter.Stop()
	return collectConversations(iter)
}

func (s *Store) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	iter := s.messagesQuery(conversationID).Documents(ctx)
	defer iter.Stop()
	return collectMessages(iter)
}

func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	doc := messageDoc{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		ImageURL:       msg.ImageURL,
		Timestamp:      msg.Timestamp,
	}
	if _, err := s.messagesCol(msg.ConversationID).Doc(msg.ID.String()).Set(ctx, doc); err != nil {
		return qerrors.Storage("firestore message write failed", err)
	}
	return nil
}

func (s *Store) UpdateSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	_, err := s.chatsCol().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: lastMessage},
		{Path: "lastMessageTimestamp", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return qerrors.NotFound(fmt.Sprintf("no conversation %s", conversationID))
		}
		return qerrors.Storage("firestore summary update failed", err)
	}
	return nil
}

// WatchConversations streams query snapshots from firestore and pushes a
// wholesale conversation list on each one. The disposer cancels the
// snapshot stream; the pump goroutine exits on the next iterator error.
func (s *Store) WatchConversations(ctx context.Context, uid string, fn func([]domain.Conversation)) reactive.Disposer {
	watchCtx, cancel := context.WithCancel(ctx)
	snaps := s.conversationsQuery(uid).Snapshots(watchCtx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					s.log.Error("conversation snapshot stream ended", "uid", uid, "error", err)
				}
				return
			}
			convs, err := collectConversations(snap.Documents)
			if err != nil {
				s.log.Error("conversation snapshot decode failed", "uid", uid, "error", err)
				continue
			}
			fn(convs)
		}
	}()

	return func() { cancel() }
}

func (s *Store) WatchMessages(ctx context.Context, conversationID string, fn func([]domain.Message)) reactive.Disposer {
	watchCtx, cancel := context.WithCancel(ctx)
	snaps := s.messagesQuery(conversationID).Snapshots(watchCtx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					s.log.Error("message snapshot stream ended", "conversation", conversationID, "error", err)
				}
				return
			}
			msgs, err := collectMessages(snap.Documents)
			if err != nil {
				s.log.Error("message snapshot decode failed", "conversation", conversationID, "error", err)
				continue
			}
			fn(msgs)
		}
	}()

	return func() { cancel() }
}

func (s *Store) conversationsQuery(uid string) firestore.Query {
	return s.chatsCol().
		Where("participants", "array-contains", uid).
		OrderBy("lastMessageTimestamp", firestore.Desc)
}

func (s *Store) messagesQuery(conversationID string) firestore.Query {
	return s.messagesCol(conversationID).OrderBy("timestamp", firestore.Asc)
}

func decodeProfile(snap *firestore.DocumentSnapshot) (*domain.Session, error) {
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, qerrors.Storage("decode profile document", err)
	}
	return &domain.Session{
		UID:         doc.UID,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		Bio:         doc.Bio,
		PhotoURL:    doc.PhotoURL,
	}, nil
}

func decodeConversation(snap *firestore.DocumentSnapshot) (domain.Conversation, error) {
	var doc chatDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Conversation{}, qerrors.Storage("decode conversation document", err)
	}
	return domain.Conversation{
		ID:                   snap.Ref.ID,
		Participants:         doc.Participants,
		LastMessage:          doc.LastMessage,
		LastMessageTimestamp: doc.LastMessageTimestamp,
	}, nil
}

func collectConversations(iter *firestore.DocumentIterator) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return convs, nil
		}
		if err != nil {
			return nil, qerrors.Storage("conversation iteration failed", err)
		}
		conv, err := decodeConversation(snap)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
}

func collectMessages(iter *firestore.DocumentIterator) ([]domain.Message, error) {
	var msgs []domain.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return msgs, nil
		}
		if err != nil {
			return nil, qerrors.Storage("message iteration failed", err)
		}
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, qerrors.Storage("decode message document", err)
		}
		id, err := uuid.Parse(snap.Ref.ID)
		if err != nil {
			id = uuid.Nil
		}
		msgs = append(msgs, domain.Message{
			ID:             id,
			ConversationID: doc.ConversationID,
			SenderID:       doc.SenderID,
			Text:           doc.Text,
			ImageURL:       doc.ImageURL,
			Timestamp:      doc.Timestamp,
		})
	}
}
