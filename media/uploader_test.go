package media

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	qerrors "github.com/quickchat/sync-core/errors"
	"github.com/quickchat/sync-core/mocks"
)

func pngPayload(size int) []byte {
	return append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, size)...)
}

func TestUpload(t *testing.T) {
	t.Run("should store under scope slash millis underscore filename", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)

		var storedPath string
		storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, path string, _ []byte) error {
				storedPath = path
				return nil
			})
		storage.EXPECT().PublicURL(gomock.Any()).
			DoAndReturn(func(path string) string { return "http://cdn/" + path })

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		url, err := uploader.Upload(context.Background(), "conv-1", File{Name: "pic.png", Data: pngPayload(16)})
		req.NoError(err)

		req.Regexp(regexp.MustCompile(`^conv-1/\d+_pic\.png$`), storedPath)
		req.Equal("http://cdn/"+storedPath, url)
	})

	t.Run("should reject oversized payloads before any storage call", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		_, err := uploader.Upload(context.Background(), "u1", File{Name: "big.png", Data: pngPayload(MaxUploadBytes)})

		req.ErrorIs(err, qerrors.ErrValidation)
		req.Equal("File size too large. Maximum size is 5MB.", qerrors.MessageOf(err))
	})

	t.Run("should reject non image payloads before any storage call", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		_, err := uploader.Upload(context.Background(), "u1", File{Name: "notes.txt", Data: []byte("plain text")})

		req.ErrorIs(err, qerrors.ErrValidation)
		req.Equal("Invalid file type. Only images are allowed.", qerrors.MessageOf(err))
	})

	t.Run("should trust the extension when the content is not sniffable", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		storage.EXPECT().PublicURL(gomock.Any()).Return("http://cdn/u1/1_raw.png")

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		_, err := uploader.Upload(context.Background(), "u1", File{Name: "raw.png", Data: []byte{0x00, 0x01, 0x02}})

		req.NoError(err)
	})

	t.Run("should classify a storage failure as such", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("disk full"))

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		_, err := uploader.Upload(context.Background(), "u1", File{Name: "pic.png", Data: pngPayload(16)})

		req.ErrorIs(err, qerrors.ErrStorage)
	})
}

func TestRemoveIfPresent(t *testing.T) {
	t.Run("should remove the last two url segments as object path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Remove(gomock.Any(), "u1/123_old.png").Return(nil)

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		uploader.RemoveIfPresent(context.Background(), "http://cdn/media/u1/123_old.png")
	})

	t.Run("should swallow deletion failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(errors.New("gone already"))

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		uploader.RemoveIfPresent(context.Background(), "http://cdn/u1/123_old.png")
	})

	t.Run("should ignore empty urls", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		storage := mocks.NewMockIObjectStorage(ctrl)
		storage.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

		uploader := NewUploader(storage, slog.New(slog.DiscardHandler))
		uploader.RemoveIfPresent(context.Background(), "")
	})
}

func Test_Disk_Storage_Roundtrip(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	disk := NewDiskStorage(root, "http://localhost/media/")
	ctx := context.Background()

	req.NoError(disk.Put(ctx, "u1/1_pic.png", pngPayload(4)))
	req.Equal("http://localhost/media/u1/1_pic.png", disk.PublicURL("u1/1_pic.png"))
	req.NoError(disk.Remove(ctx, "u1/1_pic.png"))

	req.Error(disk.Put(ctx, "../escape.png", []byte("x")))
}
