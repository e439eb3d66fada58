// Package chat owns the live conversation list, the active conversation's
// message stream, message sending, and conversation creation.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo/parallel"

	"github.com/quickchat/sync-core/contract"
	"github.com/quickchat/sync-core/domain"
	qerrors "github.com/quickchat/sync-core/errors"
)

type participantMeta struct {
	name  string
	photo string
	bio   string
}

// Resolver fans out per-id profile lookups and combines them into
// index-aligned display metadata. Absence is represented by fallback
// values, never by an error: a broken lookup must not take down the
// conversation list.
type Resolver struct {
	profiles contract.IProfileRepository
	log      *slog.Logger
}

func NewResolver(profiles contract.IProfileRepository, log *slog.Logger) *Resolver {
	return &Resolver{profiles: profiles, log: log}
}

// ResolveMany resolves display metadata for each id in parallel. The
// returned slices are index-aligned with ids.
func (r *Resolver) ResolveMany(ctx context.Context, ids []string) (names, photos, bios []string) {
	metas := parallel.Map(ids, func(id string, _ int) participantMeta {
		return r.resolve(ctx, id)
	})

	names = make([]string, len(metas))
	photos = make([]string, len(metas))
	bios = make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.name
		photos[i] = m.photo
		bios[i] = m.bio
	}
	return names, photos, bios
}

func (r *Resolver) resolve(ctx context.Context, id string) participantMeta {
	profile, err := r.profiles.GetProfile(ctx, id)
	if err != nil {
		if !errors.Is(err, qerrors.ErrNotFound) {
			r.log.Warn("participant lookup failed", "uid", id, "error", err)
		}
		return participantMeta{name: domain.UnknownUserName, photo: domain.DefaultAvatar, bio: ""}
	}

	photo := profile.PhotoURL
	if photo == "" {
		photo = domain.DefaultAvatar
	}
	return participantMeta{name: profile.DisplayLabel(), photo: photo, bio: profile.Bio}
}
