package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const defaultPreviewQuality = 90

var gravityAnchors = map[string]imaging.Anchor{
	"":             imaging.Center,
	"center":       imaging.Center,
	"top-left":     imaging.TopLeft,
	"top":          imaging.Top,
	"top-right":    imaging.TopRight,
	"left":         imaging.Left,
	"right":        imaging.Right,
	"bottom-left":  imaging.BottomLeft,
	"bottom":       imaging.Bottom,
	"bottom-right": imaging.BottomRight,
}

// ValidatePreviewOptions rejects options the transformer cannot honour.
func ValidatePreviewOptions(opts PreviewOptions) error {
	if opts.Width < 0 || opts.Width > 4000 || opts.Height < 0 || opts.Height > 4000 {
		return fmt.Errorf("preview dimensions out of range: %dx%d", opts.Width, opts.Height)
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return fmt.Errorf("preview quality out of range: %d", opts.Quality)
	}
	if _, ok := gravityAnchors[opts.Gravity]; !ok {
		return fmt.Errorf("unknown gravity %q", opts.Gravity)
	}
	return nil
}

// Transform renders a JPEG preview of the image read from r.
// With both dimensions set the image is cropped to fill them around the
// gravity anchor; with one set the other keeps the aspect ratio.
func Transform(r io.Reader, opts PreviewOptions) ([]byte, error) {
	if err := ValidatePreviewOptions(opts); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	switch {
	case opts.Width > 0 && opts.Height > 0:
		img = imaging.Fill(img, opts.Width, opts.Height, gravityAnchors[opts.Gravity], imaging.Lanczos)
	case opts.Width > 0 || opts.Height > 0:
		img = imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality == 0 {
		quality = defaultPreviewQuality
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("cannot encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
