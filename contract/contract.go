//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"time"

	"github.com/quickchat/sync-core/domain"
	"github.com/quickchat/sync-core/reactive"
)

// Credential is the provider-level identity, before any profile document
// has been consulted.
type Credential struct {
	UID   string
	Email string
}

// ICredentialService is the credential provider: account creation,
// sign-in/out, and a change feed. Errors carry provider codes from the
// errors package so caller flows can map them to user-facing messages.
//
// OnChange delivers the current credential immediately on subscribe, then
// once per subsequent state change; nil means signed out.
type ICredentialService interface {
	CreateAccount(ctx context.Context, email, password string) (Credential, error)
	SignIn(ctx context.Context, email, password string) (Credential, error)
	SignOut(ctx context.Context) error
	OnChange(fn func(*Credential)) reactive.Disposer
}

// ProfileFields is a partial profile update keyed by document field name
// (displayName, bio, photoURL).
type ProfileFields map[string]string

// IProfileRepository is the profile document store. GetProfile and
// FindByEmail return a NotFound error when no document exists.
type IProfileRepository interface {
	CreateProfile(ctx context.Context, session domain.Session) error
	GetProfile(ctx context.Context, uid string) (*domain.Session, error)
	FindByEmail(ctx context.Context, email string) (*domain.Session, error)
	UpdateProfile(ctx context.Context, uid string, fields ProfileFields) error
}

// IConversationRepository is the conversation/message document store with
// live queries. Watch registrations deliver an initial snapshot
// synchronously, then push a fresh snapshot after every relevant change;
// the returned disposer detaches the watcher.
type IConversationRepository interface {
	CreateConversation(ctx context.Context, participants []string, at time.Time) (string, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	ConversationsFor(ctx context.Context, uid string) ([]domain.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
	AppendMessage(ctx context.Context, msg domain.Message) error
	UpdateSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error
	WatchConversations(ctx context.Context, uid string, fn func([]domain.Conversation)) reactive.Disposer
	WatchMessages(ctx context.Context, conversationID string, fn func([]domain.Message)) reactive.Disposer
}

// IObjectStorage is the media blob store.
type IObjectStorage interface {
	Put(ctx context.Context, path string, data []byte) error
	PublicURL(path string) string
	Remove(ctx context.Context, path string) error
}

// ISessionCache persists the last authoritative session snapshot between
// process runs. Load returns (nil, nil) when no snapshot exists or the
// entry has expired.
type ISessionCache interface {
	Save(session domain.Session) error
	Load() (*domain.Session, error)
	Clear() error
}
