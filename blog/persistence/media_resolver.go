package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/rs/zerolog/log"
)

var _ domain.MediaResolver = (*MediaResolver)(nil)

// MediaResolver implements domain.MediaResolver for one bucket. It never
// caches: every resolution goes to the file store.
type MediaResolver struct {
	files       store.Files
	bucket      string
	placeholder string
}

func NewMediaResolver(files store.Files, bucket, placeholderURL string) *MediaResolver {
	return &MediaResolver{
		files:       files,
		bucket:      bucket,
		placeholder: placeholderURL,
	}
}

func (m *MediaResolver) UploadFile(ctx context.Context, f domain.FileUpload) (string, error) {
	info, err := m.files.Create(ctx, m.bucket, store.UniqueID, store.Blob{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		Body:        f.Body,
	})
	switch {
	case errors.Is(err, store.ErrUnavailable):
		return "", fmt.Errorf("%w: %w: %w", domain.ErrUpload, domain.ErrRemoteUnavailable, err)
	case err != nil:
		return "", fmt.Errorf("%w: %w", domain.ErrUpload, err)
	}

	log.Debug().Str("fileID", info.ID).Int64("size", info.Size).Msg("Uploaded image")
	return info.ID, nil
}

func (m *MediaResolver) DeleteFile(ctx context.Context, fileID string) bool {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return true
	}

	err := m.files.Delete(ctx, m.bucket, fileID)
	if err == nil || errors.Is(err, store.ErrFileNotFound) {
		return true
	}

	log.Warn().Err(err).Str("fileID", fileID).Msg("Failed to delete image")
	return false
}

// ResolveImageURL must try the view before the preview. Transformations are
// usually blocked, so the preview is the fallback and not the first call.
func (m *MediaResolver) ResolveImageURL(ctx context.Context, fileID string, opts domain.ImageOptions) (string, bool) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return "", false
	}

	url, viewErr := m.files.ViewURL(ctx, m.bucket, fileID)
	if viewErr == nil {
		return url, true
	}

	url, err := m.files.PreviewURL(ctx, m.bucket, fileID, store.PreviewOptions{
		Width:   opts.Width,
		Height:  opts.Height,
		Gravity: opts.Gravity,
		Quality: opts.Quality,
	})
	if err == nil {
		return url, true
	}

	if !errors.Is(err, store.ErrTransformBlocked) {
		log.Warn().Err(err).AnErr("viewErr", viewErr).Str("fileID", fileID).Msg("Failed to resolve image")
		return "", false
	}

	url, err = m.files.ViewURL(ctx, m.bucket, fileID)
	if err != nil {
		log.Warn().Err(err).Str("fileID", fileID).Msg("Failed to resolve image after transform fallback")
		return "", false
	}
	return url, true
}

func (m *MediaResolver) ImageURLOrPlaceholder(ctx context.Context, fileID string, opts domain.ImageOptions) domain.ImageView {
	if url, ok := m.ResolveImageURL(ctx, fileID, opts); ok {
		return domain.ImageView{URL: url}
	}
	return domain.ImageView{URL: m.placeholder, Placeholder: true}
}
