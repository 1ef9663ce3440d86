package domain

import (
	"context"
	"io"
)

// FileUpload is an image selected on the post form.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ImageOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// Sizes requested by the pages.
var (
	CardImage   = ImageOptions{Width: 400, Height: 250}
	DetailImage = ImageOptions{Width: 800, Height: 600, Gravity: "center", Quality: 90}
	FormImage   = ImageOptions{Width: 800, Height: 300, Gravity: "center", Quality: 100}
)

// ImageView is a resolved image. Placeholder is set when URL is the
// configured placeholder rather than the stored file.
type ImageView struct {
	URL         string
	Placeholder bool
}

type MediaResolver interface {
	// UploadFile stores the image and returns its new file id.
	UploadFile(ctx context.Context, f FileUpload) (string, error)
	// DeleteFile is best-effort: a missing file counts as deleted.
	DeleteFile(ctx context.Context, fileID string) bool
	// ResolveImageURL tries view, then preview, then view again when
	// transformations are blocked. ok is false when nothing resolved.
	ResolveImageURL(ctx context.Context, fileID string, opts ImageOptions) (url string, ok bool)
	ImageURLOrPlaceholder(ctx context.Context, fileID string, opts ImageOptions) ImageView
}
