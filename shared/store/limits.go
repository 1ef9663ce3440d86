package store

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// Limits is the upload policy a file backend enforces.
type Limits struct {
	MaxSize          int64
	AllowedMimeTypes map[string]bool
}

// DefaultImageLimits accepts the image types the post form offers, up to 5MB.
var DefaultImageLimits = Limits{
	MaxSize: 5 << 20,
	AllowedMimeTypes: map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/gif":  true,
		"image/webp": true,
	},
}

// ReadBlob reads the whole blob and checks it against the limits.
// The content type is sniffed from the bytes, never taken from the client.
func ReadBlob(blob Blob, limits Limits) ([]byte, string, error) {
	if blob.Body == nil {
		return nil, "", fmt.Errorf("%w: empty body", ErrFileRejected)
	}
	if limits.MaxSize > 0 && blob.Size > limits.MaxSize {
		return nil, "", fmt.Errorf("%w: file too large: maximum size is %d MB", ErrFileRejected, limits.MaxSize>>20)
	}

	reader := blob.Body
	if limits.MaxSize > 0 {
		reader = io.LimitReader(blob.Body, limits.MaxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty file", ErrFileRejected)
	}
	if limits.MaxSize > 0 && int64(len(data)) > limits.MaxSize {
		return nil, "", fmt.Errorf("%w: file too large: maximum size is %d MB", ErrFileRejected, limits.MaxSize>>20)
	}

	detected := http.DetectContentType(data)
	if len(limits.AllowedMimeTypes) > 0 && !limits.AllowedMimeTypes[detected] {
		return nil, "", fmt.Errorf("%w: invalid file type (detected: %s)", ErrFileRejected, detected)
	}

	return data, detected, nil
}

// CleanName strips any directory part from a client supplied file name.
func CleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
