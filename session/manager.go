// Package session owns the authenticated session: a speculative snapshot
// restored from the local cache at startup, replaced by the authoritative
// profile document once the credential check settles, and the sign-up /
// login / logout / profile-update flows that mutate it.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/media"
	"github.com/quickchat/sync-core/reactive"
)

// Manager is the identity session state machine:
// Uninitialized → Loading → {Authenticated, Anonymous}. Loading is
// re-entered on every credential change, even after earlier settling.
type Manager struct {
	log      *slog.Logger
	creds    contract.ICredentialService
	profiles contract.IProfileRepository
	cache    contract.ISessionCache
	uploader *media.Uploader

	session     *reactive.Cell[*domain.Session]
	loading     *reactive.Cell[bool]
	initialized *reactive.Cell[bool]

	ctx   context.Context
	unsub reactive.Disposer
}

func NewManager(
	log *slog.Logger,
	creds contract.ICredentialService,
	profiles contract.IProfileRepository,
	cache contract.ISessionCache,
	uploader *media.Uploader,
) *Manager {
	return &Manager{
		log:         log,
		creds:       creds,
		profiles:    profiles,
		cache:       cache,
		uploader:    uploader,
		session:     reactive.NewCell[*domain.Session](nil),
		loading:     reactive.NewCell(false),
		initialized: reactive.NewCell(false),
	}
}

// Reactive read models exposed to consumers.
func (m *Manager) Session() *reactive.Cell[*domain.Session] { return m.session }
func (m *Manager) Loading() *reactive.Cell[bool]            { return m.loading }
func (m *Manager) Initialized() *reactive.Cell[bool]        { return m.initialized }

// Start bootstraps the speculative session from the cache, then attaches
// to the credential change feed. The feed delivers the current credential
// synchronously, so the first settle happens before Start returns.
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx
	m.Bootstrap()
	m.unsub = m.creds.OnChange(m.onCredentialChange)
}

// Close detaches the credential subscription. Must be called exactly once
// on scope teardown.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Bootstrap restores the cached session snapshot, if any. The value is
// speculative: it lets the UI render an identity before any network round
// trip, and holds no authority once the credential check completes.
func (m *Manager) Bootstrap() {
	cached, err := m.cache.Load()
	if err != nil {
		m.log.Warn("session cache read failed during bootstrap", "error", err)
		return
	}
	if cached != nil {
		m.session.Set(cached)
	}
}

// onCredentialChange settles the session against the profile store. A
// present credential with a missing profile document leaves the
// speculative value untouched; the session may therefore be absent even
// when the account legitimately exists.
func (m *Manager) onCredentialChange(cred *contract.Credential) {
	m.loading.Set(true)
	defer func() {
		m.loading.Set(false)
		m.initialized.Set(true)
	}()

	if cred == nil {
		if err := m.cache.Clear(); err != nil {
			m.log.Warn("session cache clear failed", "error", err)
		}
		m.session.Set(nil)
		return
	}

	profile, err := m.profiles.GetProfile(m.ctx, cred.UID)
	switch {
	case err == nil:
		if err := m.cache.Save(*profile); err != nil {
			m.log.Warn("session cache refresh failed", "error", err)
		}
		m.session.Set(profile)
	case errors.Is(err, qerrors.ErrNotFound):
		m.log.Warn("credential present but profile document missing", "uid", cred.UID)
	default:
		m.log.Error("profile fetch failed on credential change", "uid", cred.UID, "error", err)
	}
}

// SignUp creates a credential, then the profile document with defaults.
// If the document write fails the whole operation fails and the session
// is never set from it.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName, bio, photoURL string) error {
	cred, err := m.creds.CreateAccount(ctx, email, password)
	if err != nil {
		return qerrors.SignUpError(err)
	}

	if bio == "" {
		bio = domain.DefaultBio
	}
	if photoURL == "" {
		photoURL = domain.DefaultAvatar
	}
	profile := domain.Session{
		UID:         cred.UID,
		Email:       email,
		DisplayName: displayName,
		Bio:         bio,
		PhotoURL:    photoURL,
	}
	if err := m.profiles.CreateProfile(ctx, profile); err != nil {
		return qerrors.SignUpError(err)
	}

	m.settle(ctx, cred.UID)
	return nil
}

// Login verifies the credential and loads the profile document. The whole
// invalid-credential family collapses to one generic message. A missing
// profile yields an absent session, not an error.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	cred, err := m.creds.SignIn(ctx, email, password)
	if err != nil {
		return qerrors.LoginError(err)
	}

	profile, err := m.profiles.GetProfile(ctx, cred.UID)
	switch {
	case err == nil:
		if err := m.cache.Save(*profile); err != nil {
			m.log.Warn("session cache refresh failed", "error", err)
		}
		m.session.Set(profile)
	case errors.Is(err, qerrors.ErrNotFound):
		m.log.Warn("login succeeded but profile document missing", "uid", cred.UID)
		m.session.Set(nil)
	default:
		return qerrors.LoginError(err)
	}
	return nil
}

// Logout clears the cache and the session before signing out remotely, so
// the caller always observes an absent session even when the remote call
// fails.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.cache.Clear(); err != nil {
		m.log.Warn("session cache clear failed on logout", "error", err)
	}
	m.session.Set(nil)

	if err := m.creds.SignOut(ctx); err != nil {
		return qerrors.LogoutError(err)
	}
	return nil
}

// UpdateProfile applies a partial profile update. When a photo is given
// it is validated and uploaded before any document field is touched; an
// upload failure aborts the whole update. The superseded photo is deleted
// best-effort after a successful upload.
func (m *Manager) UpdateProfile(ctx context.Context, uid string, fields contract.ProfileFields, photo *media.File) error {
	if photo != nil {
		var oldURL string
		if current, err := m.profiles.GetProfile(ctx, uid); err == nil {
			oldURL = current.PhotoURL
		}

		url, err := m.uploader.Upload(ctx, uid, *photo)
		if err != nil {
			return err
		}
		if fields == nil {
			fields = contract.ProfileFields{}
		}
		fields["photoURL"] = url

		if oldURL != "" && oldURL != domain.DefaultAvatar {
			m.uploader.RemoveIfPresent(ctx, oldURL)
		}
	}

	if len(fields) > 0 {
		if err := m.profiles.UpdateProfile(ctx, uid, fields); err != nil {
			return qerrors.Storage("Failed to update profile", err)
		}
	}

	m.settle(ctx, uid)
	return nil
}

// settle refreshes the session and cache from the authoritative document.
func (m *Manager) settle(ctx context.Context, uid string) {
	profile, err := m.profiles.GetProfile(ctx, uid)
	if err != nil {
		m.log.Warn("session refresh failed", "uid", uid, "error", err)
		return
	}
	if err := m.cache.Save(*profile); err != nil {
		m.log.Warn("session cache refresh failed", "error", err)
	}
	m.session.Set(profile)
}
