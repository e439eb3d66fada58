package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/quickchat/sync-core/contract"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/observability"
)

var testSecret = []byte("test_secret_key_for_auth_service_tests")

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, observability.NewLogger("error"), testSecret, time.Hour)
}

func TestService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("should create account and sign the caller in", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		cred, err := svc.CreateAccount(ctx, "alice@example.com", "secret1")
		req.NoError(err)
		req.NotEmpty(cred.UID)
		req.Equal("alice@example.com", cred.Email)

		claims, err := ValidateToken(testSecret, svc.Token())
		req.NoError(err)
		req.Equal(cred.UID, claims.UID)
	})

	t.Run("should reject a duplicate email with the provider code", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		_, err := svc.CreateAccount(ctx, "alice@example.com", "secret1")
		req.NoError(err)

		_, err = svc.CreateAccount(ctx, "alice@example.com", "another1")
		req.ErrorIs(err, qerrors.ErrAuth)
		req.Equal(qerrors.CodeEmailAlreadyInUse, qerrors.CodeOf(err))
	})

	t.Run("should reject a malformed email before any write", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		_, err := svc.CreateAccount(ctx, "not-an-email", "secret1")
		req.Equal(qerrors.CodeInvalidEmail, qerrors.CodeOf(err))
	})

	t.Run("should reject a short password with the weak-password code", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		_, err := svc.CreateAccount(ctx, "alice@example.com", "abc")
		req.Equal(qerrors.CodeWeakPassword, qerrors.CodeOf(err))
	})
}

func TestService_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("should sign in with correct credentials", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		created, err := svc.CreateAccount(ctx, "alice@example.com", "secret1")
		req.NoError(err)
		req.NoError(svc.SignOut(ctx))

		cred, err := svc.SignIn(ctx, "alice@example.com", "secret1")
		req.NoError(err)
		req.Equal(created.UID, cred.UID)
	})

	t.Run("should report user-not-found for an unknown email", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		_, err := svc.SignIn(ctx, "ghost@example.com", "secret1")
		req.Equal(qerrors.CodeUserNotFound, qerrors.CodeOf(err))
	})

	t.Run("should report wrong-password on a bad password", func(t *testing.T) {
		req := require.New(t)
		svc := newTestService(t)

		_, err := svc.CreateAccount(ctx, "alice@example.com", "secret1")
		req.NoError(err)

		_, err = svc.SignIn(ctx, "alice@example.com", "wrong-pass")
		req.Equal(qerrors.CodeWrongPassword, qerrors.CodeOf(err))
	})

	t.Run("should not report user-not-found on a storage failure", func(t *testing.T) {
		req := require.New(t)
		db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
		req.NoError(err)
		svc := NewService(db, observability.NewLogger("error"), testSecret, time.Hour)

		_, err = svc.CreateAccount(ctx, "alice@example.com", "secret1")
		req.NoError(err)
		req.NoError(db.Close())

		_, err = svc.SignIn(ctx, "alice@example.com", "secret1")
		req.ErrorIs(err, qerrors.ErrAuth)
		req.Empty(qerrors.CodeOf(err))
	})
}

func TestService_OnChange(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	svc := newTestService(t)

	var changes []*contract.Credential
	disposer := svc.OnChange(func(c *contract.Credential) {
		changes = append(changes, c)
	})
	defer disposer()

	// Current state (signed out) is delivered on attach.
	req.Len(changes, 1)
	req.Nil(changes[0])

	cred, err := svc.CreateAccount(ctx, "alice@example.com", "secret1")
	req.NoError(err)
	req.Len(changes, 2)
	req.Equal(cred.UID, changes[1].UID)

	req.NoError(svc.SignOut(ctx))
	req.Len(changes, 3)
	req.Nil(changes[2])

	// A detached subscriber sees nothing further.
	disposer()
	_, err = svc.SignIn(ctx, "alice@example.com", "secret1")
	req.NoError(err)
	req.Len(changes, 3)
}

func Test_Password_Hash_Roundtrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("secret1")
	req.NoError(err)

	match, err := ComparePassword("secret1", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("not-it", hash)
	req.NoError(err)
	req.False(match)
}
