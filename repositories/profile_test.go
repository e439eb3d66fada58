package repositories

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Profile_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()

	profile := domain.Session{
		UID:         "u1",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Bio:         domain.DefaultBio,
		PhotoURL:    domain.DefaultAvatar,
	}
	req.NoError(repo.CreateProfile(ctx, profile))

	got, err := repo.GetProfile(ctx, "u1")
	req.NoError(err)
	req.Equal(&profile, got)
}

func Test_Profile_Get_Unknown_Uid_Is_NotFound(t *testing.T) {
	req := require.New(t)
	repo := NewProfileRepository(openTestDB(t))

	_, err := repo.GetProfile(context.Background(), "ghost")
	req.ErrorIs(err, qerrors.ErrNotFound)
}

func Test_Profile_Find_By_Email(t *testing.T) {
	req := require.New(t)
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()

	req.NoError(repo.CreateProfile(ctx, domain.Session{UID: "u1", Email: "alice@example.com"}))

	got, err := repo.FindByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal("u1", got.UID)

	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	req.ErrorIs(err, qerrors.ErrNotFound)
}

func Test_Profile_Partial_Update(t *testing.T) {
	req := require.New(t)
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()

	req.NoError(repo.CreateProfile(ctx, domain.Session{
		UID: "u1", Email: "alice@example.com", DisplayName: "Alice", Bio: "old bio",
	}))

	req.NoError(repo.UpdateProfile(ctx, "u1", contract.ProfileFields{"bio": "new bio"}))

	got, err := repo.GetProfile(ctx, "u1")
	req.NoError(err)
	req.Equal("new bio", got.Bio)
	req.Equal("Alice", got.DisplayName) // untouched fields survive
}

func Test_Profile_Update_Rejects_Unknown_Field(t *testing.T) {
	req := require.New(t)
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()

	req.NoError(repo.CreateProfile(ctx, domain.Session{UID: "u1", Email: "alice@example.com"}))

	err := repo.UpdateProfile(ctx, "u1", contract.ProfileFields{"uid": "u2"})
	req.ErrorIs(err, qerrors.ErrValidation)
}
