package chat

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/mocks"
)

func TestResolveMany(t *testing.T) {
	t.Run("should align resolved metadata with the input ids", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		profiles := mocks.NewMockIProfileRepository(ctrl)

		profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(&domain.Session{
			UID: "u1", DisplayName: "Alice", Bio: "hi", PhotoURL: "http://x/a.png",
		}, nil)
		profiles.EXPECT().GetProfile(gomock.Any(), "u2").Return(&domain.Session{
			UID: "u2", DisplayName: "Bob", Bio: "yo", PhotoURL: "http://x/b.png",
		}, nil)

		resolver := NewResolver(profiles, slog.New(slog.DiscardHandler))
		names, photos, bios := resolver.ResolveMany(context.Background(), []string{"u1", "u2"})

		req.Equal([]string{"Alice", "Bob"}, names)
		req.Equal([]string{"http://x/a.png", "http://x/b.png"}, photos)
		req.Equal([]string{"hi", "yo"}, bios)
	})

	t.Run("should substitute fallbacks for a missing profile", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		profiles := mocks.NewMockIProfileRepository(ctrl)

		profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(&domain.Session{
			UID: "u1", DisplayName: "Alice",
		}, nil)
		profiles.EXPECT().GetProfile(gomock.Any(), "ghost").
			Return(nil, qerrors.NotFound("no profile for uid ghost"))

		resolver := NewResolver(profiles, slog.New(slog.DiscardHandler))
		names, photos, bios := resolver.ResolveMany(context.Background(), []string{"u1", "ghost"})

		req.Equal([]string{"Alice", domain.UnknownUserName}, names)
		req.Equal([]string{domain.DefaultAvatar, domain.DefaultAvatar}, photos)
		req.Equal([]string{"", ""}, bios)
	})

	t.Run("should not propagate lookup failures", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		profiles := mocks.NewMockIProfileRepository(ctrl)

		profiles.EXPECT().GetProfile(gomock.Any(), "u1").
			Return(nil, qerrors.Storage("read failed", nil))

		resolver := NewResolver(profiles, slog.New(slog.DiscardHandler))
		names, photos, _ := resolver.ResolveMany(context.Background(), []string{"u1"})

		req.Equal([]string{domain.UnknownUserName}, names)
		req.Equal([]string{domain.DefaultAvatar}, photos)
	})

	t.Run("should fall back to the email when the name is empty", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		profiles := mocks.NewMockIProfileRepository(ctrl)

		profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(&domain.Session{
			UID: "u1", Email: "alice@example.com",
		}, nil)

		resolver := NewResolver(profiles, slog.New(slog.DiscardHandler))
		names, _, _ := resolver.ResolveMany(context.Background(), []string{"u1"})

		req.Equal([]string{"alice@example.com"}, names)
	})
}
