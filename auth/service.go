package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quickchat/sync-core/contract"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/reactive"
)

const accountPrefix = "account:"

// account is the stored credential record, keyed by email.
type account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

type changeSub struct {
	id int
	fn func(*contract.Credential)
}

// Service is the badger-backed credential provider. It owns account
// records and the signed-in credential, and fans out every credential
// state change to subscribers, delivering the current state on attach.
type Service struct {
	db            *badger.DB
	log           *slog.Logger
	secret        []byte
	tokenLifetime time.Duration

	mu      sync.Mutex
	current *contract.Credential
	token   string
	subs    []changeSub
	next    int
}

func NewService(db *badger.DB, log *slog.Logger, secret []byte, tokenLifetime time.Duration) *Service {
	return &Service{db: db, log: log, secret: secret, tokenLifetime: tokenLifetime}
}

// CreateAccount validates input, hashes the password, and persists the
// account. The duplicate check and the write share one transaction so two
// concurrent sign-ups cannot both claim an email. On success the caller
// is signed in and subscribers are notified.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (contract.Credential, error) {
	if err := validateSignUp(email, password); err != nil {
		return contract.Credential{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return contract.Credential{}, qerrors.Auth("", "password hashing failed", err)
	}

	acc := account{
		UID:          uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return contract.Credential{}, qerrors.Auth("", "account encoding failed", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(accountPrefix + email)
		if _, err := txn.Get(key); err == nil {
			return qerrors.Auth(qerrors.CodeEmailAlreadyInUse, "email already in use", nil)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return contract.Credential{}, err
	}

	return s.signedIn(acc)
}

// SignIn verifies the password against the stored hash. Lookup and
// comparison failures surface as distinct provider codes; collapsing them
// into one user-facing message is the caller's concern.
func (s *Service) SignIn(ctx context.Context, email, password string) (contract.Credential, error) {
	var acc account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(accountPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &acc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return contract.Credential{}, qerrors.Auth(qerrors.CodeUserNotFound, "no account for email", err)
	}
	if err != nil {
		return contract.Credential{}, qerrors.Auth("", "account lookup failed", err)
	}

	if acc.Disabled {
		return contract.Credential{}, qerrors.Auth(qerrors.CodeUserDisabled, "account disabled", nil)
	}

	match, err := ComparePassword(password, acc.PasswordHash)
	if err != nil || !match {
		return contract.Credential{}, qerrors.Auth(qerrors.CodeWrongPassword, "password mismatch", err)
	}

	return s.signedIn(acc)
}

// SignOut clears the signed-in credential and notifies subscribers with
// nil. It never fails locally.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.token = ""
	subs := append([]changeSub(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(nil)
	}
	return nil
}

// OnChange registers fn on the credential change feed and invokes it
// immediately with the current state.
func (s *Service) OnChange(fn func(*contract.Credential)) reactive.Disposer {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, changeSub{id: id, fn: fn})
	current := s.current
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Token returns the current signed session token, "" when signed out.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Service) signedIn(acc account) (contract.Credential, error) {
	token, err := GenerateToken(s.secret, acc.UID, acc.Email, s.tokenLifetime)
	if err != nil {
		return contract.Credential{}, qerrors.Auth("", "token generation failed", err)
	}

	cred := contract.Credential{UID: acc.UID, Email: acc.Email}
	s.mu.Lock()
	s.current = &cred
	s.token = token
	subs := append([]changeSub(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(&cred)
	}
	return cred, nil
}
