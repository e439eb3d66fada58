// Package media validates and uploads image payloads (profile photos,
// chat images) and best-effort deletes superseded objects.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/quickchat/sync-core/contract"
	qerrors "github.com/quickchat/sync-core/errors"
)

// MaxUploadBytes is the upload size ceiling (5MB).
const MaxUploadBytes = 5 * 1024 * 1024

// File is an in-memory upload payload.
type File struct {
	Name string
	Data []byte
}

type Uploader struct {
	storage contract.IObjectStorage
	log     *slog.Logger
}

func NewUploader(storage contract.IObjectStorage, log *slog.Logger) *Uploader {
	return &Uploader{storage: storage, log: log}
}

// Upload validates the payload, stores it under
// "<scopeID>/<unix_millis>_<filename>", and returns the public URL.
// Validation failures surface before any storage call is made.
func (u *Uploader) Upload(ctx context.Context, scopeID string, file File) (string, error) {
	if len(file.Data) > MaxUploadBytes {
		return "", qerrors.Validation("File size too large. Maximum size is 5MB.")
	}
	if !isImage(file) {
		return "", qerrors.Validation("Invalid file type. Only images are allowed.")
	}

	path := fmt.Sprintf("%s/%d_%s", scopeID, time.Now().UnixMilli(), file.Name)
	if err := u.storage.Put(ctx, path, file.Data); err != nil {
		return "", qerrors.Storage("image upload failed", err)
	}
	return u.storage.PublicURL(path), nil
}

// RemoveIfPresent deletes the object behind a previously returned public
// URL. Deletion is best-effort: failures are logged, never propagated.
func (u *Uploader) RemoveIfPresent(ctx context.Context, url string) {
	if url == "" {
		return
	}
	path := objectPath(url)
	if path == "" {
		return
	}
	if err := u.storage.Remove(ctx, path); err != nil {
		u.log.Warn("failed to delete superseded object", "path", path, "error", err)
	}
}

// isImage sniffs the payload content, falling back to the declared
// extension for formats the sniffer does not know.
func isImage(file File) bool {
	if strings.HasPrefix(mimetype.Detect(file.Data).String(), "image/") {
		return true
	}
	return strings.HasPrefix(mime.TypeByExtension(path.Ext(file.Name)), "image/")
}

// objectPath recovers "<scope>/<object>" from a public URL, the last two
// path segments.
func objectPath(url string) string {
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
