package store

import (
	"net/url"
	"strconv"
	"strings"
)

// URLBuilder produces the public URLs under which the HTTP layer serves files.
type URLBuilder struct {
	BaseURL string
}

func (b URLBuilder) filePath(bucket, fileID string) string {
	return strings.TrimSuffix(b.BaseURL, "/") +
		"/storage/buckets/" + url.PathEscape(bucket) +
		"/files/" + url.PathEscape(fileID)
}

// View returns the URL of the untransformed file.
func (b URLBuilder) View(bucket, fileID string) string {
	return b.filePath(bucket, fileID) + "/view"
}

// Preview returns the URL of a transformed rendition. Zero options are omitted.
func (b URLBuilder) Preview(bucket, fileID string, opts PreviewOptions) string {
	q := url.Values{}
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		q.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}

	u := b.filePath(bucket, fileID) + "/preview"
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
