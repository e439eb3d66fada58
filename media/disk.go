package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quickchat/sync-core/contract"
)

// DiskStorage is the local object-storage backend: objects live under a
// root directory and public URLs are baseURL-prefixed object paths.
type DiskStorage struct {
	root    string
	baseURL string
}

func NewDiskStorage(root, baseURL string) *DiskStorage {
	return &DiskStorage{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

var _ contract.IObjectStorage = (*DiskStorage)(nil)

func (d *DiskStorage) Put(ctx context.Context, path string, data []byte) error {
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (d *DiskStorage) PublicURL(path string) string {
	return d.baseURL + "/" + path
}

func (d *DiskStorage) Remove(ctx context.Context, path string) error {
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// resolve maps an object path into the root dir, rejecting traversal.
func (d *DiskStorage) resolve(path string) (string, error) {
	full := filepath.Join(d.root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(d.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("object path %q escapes storage root", path)
	}
	return full, nil
}
