package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
)

// StoredImage is an uploaded image's public URL plus an inline copy the
// client can hand straight back to the chat endpoint.
type StoredImage struct {
	URL    string `json:"url"`
	Base64 string `json:"base64"`
}

// UploadService stores raw image uploads in the object store.
type UploadService struct {
	objects ObjectStore
	log     *zap.Logger
}

func NewUploadService(objects ObjectStore, log *zap.Logger) (*UploadService, error) {
	if objects == nil {
		return nil, errors.New("usecase: object store must not be nil")
	}
	return &UploadService{objects: objects, log: logger.OrNop(log)}, nil
}

// Store uploads every file as <uuid>.<ext> at the object store root. Any
// failure fails the whole call.
func (s *UploadService) Store(ctx context.Context, files []domain.Upload) ([]StoredImage, error) {
	if len(files) == 0 {
		return nil, newError(ErrorInvalidInput, "no_files", nil)
	}
	out := make([]StoredImage, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if len(f.Data) == 0 {
				return newError(ErrorInvalidInput, "empty_file", nil)
			}
			ct := contentTypeOf(f.Filename, f.ContentType)
			path := fmt.Sprintf("%s.%s", newUUID(), fileExt(f.Filename, ct))
			url, err := s.objects.Upload(gctx, path, ct, f.Data)
			if err != nil {
				return newError(ErrorInternal, "upload_error", err)
			}
			out[i] = StoredImage{URL: url, Base64: DataURL(ct, f.Data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("upload failed", zap.Int("files", len(files)), zap.Error(err))
		return nil, err
	}
	return out, nil
}
