package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
)

const sessionCacheKey = "session:current"

// DefaultSessionTTL matches the 7-day cookie the original client used.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionCache persists the last authoritative session snapshot as a
// single TTL'd entry, the local equivalent of a Secure/Strict cookie.
// It is a mirror of the authoritative profile document, never a source
// of truth once the credential check has settled.
type SessionCache struct {
	db  *badger.DB
	ttl time.Duration
}

func NewSessionCache(db *badger.DB, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCache{db: db, ttl: ttl}
}

var _ contract.ISessionCache = (*SessionCache)(nil)

func (c *SessionCache) Save(session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return qerrors.Storage("session encoding failed", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionCacheKey), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return qerrors.Storage("session cache write failed", err)
	}
	return nil
}

// Load returns (nil, nil) when no snapshot exists or the entry expired.
func (c *SessionCache) Load() (*domain.Session, error) {
	var session domain.Session
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionCacheKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, qerrors.Storage("session cache read failed", err)
	}
	return &session, nil
}

func (c *SessionCache) Clear() error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionCacheKey))
	})
	if err != nil {
		return qerrors.Storage("session cache clear failed", err)
	}
	return nil
}
