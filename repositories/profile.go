// Package repositories implements the document-store contracts on
// BadgerDB, with a watch hub providing live queries for the sync engine.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
)

const (
	profilePrefix      = "profile:"
	profileEmailPrefix = "pemail:"
)

// ProfileRepository stores profile documents under "profile:<uid>" with a
// secondary "pemail:<email>" index for lookup by email.
type ProfileRepository struct {
	db *badger.DB
}

func NewProfileRepository(db *badger.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ contract.IProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) CreateProfile(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return qerrors.Storage("profile encoding failed", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(profilePrefix+session.UID), data); err != nil {
			return err
		}
		return txn.Set([]byte(profileEmailPrefix+session.Email), []byte(session.UID))
	})
	if err != nil {
		return qerrors.Storage("profile write failed", err)
	}
	return nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, uid string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + uid))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, qerrors.NotFound(fmt.Sprintf("no profile for uid %s", uid))
	}
	if err != nil {
		return nil, qerrors.Storage("profile read failed", err)
	}
	return &session, nil
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Session, error) {
	var uid string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileEmailPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			uid = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, qerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, qerrors.Storage("profile index read failed", err)
	}
	return r.GetProfile(ctx, uid)
}

// UpdateProfile applies a partial field update inside one transaction,
// read-modify-write. Unknown field names are rejected before any write.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, uid string, fields contract.ProfileFields) error {
	for name := range fields {
		switch name {
		case "displayName", "bio", "photoURL":
		default:
			return qerrors.Validation(fmt.Sprintf("unknown profile field %q", name))
		}
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(profilePrefix + uid)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var session domain.Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return err
		}

		for name, value := range fields {
			switch name {
			case "displayName":
				session.DisplayName = value
			case "bio":
				session.Bio = value
			case "photoURL":
				session.PhotoURL = value
			}
		}

		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return qerrors.NotFound(fmt.Sprintf("no profile for uid %s", uid))
	}
	if err != nil {
		return qerrors.Storage("profile update failed", err)
	}
	return nil
}
