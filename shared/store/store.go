package store

import (
	"context"
	"errors"
	"io"
	"time"
)

// UniqueID asks a file backend to assign a fresh id on create.
const UniqueID = "unique()"

var (
	ErrDocumentNotFound = errors.New("store: document not found")
	ErrDocumentExists   = errors.New("store: document already exists")
	ErrFileNotFound     = errors.New("store: file not found")
	ErrFileRejected     = errors.New("store: file rejected")
	ErrTransformBlocked = errors.New("store: image transformations are blocked")
	ErrUnavailable      = errors.New("store: backend unavailable")
)

// Collection identifies a document collection inside a database.
type Collection struct {
	DatabaseID   string
	CollectionID string
}

func (c Collection) String() string {
	return c.DatabaseID + "/" + c.CollectionID
}

// Document is a stored record with server metadata.
type Document struct {
	ID         string
	Collection Collection
	Fields     map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// String returns a string field, or "" when it is absent, null or not a string.
func (d *Document) String(key string) string {
	v, ok := d.Fields[key].(string)
	if !ok {
		return ""
	}
	return v
}

type DocumentList struct {
	Total     int
	Documents []Document
}

// Documents is the document database half of the remote store.
type Documents interface {
	Create(ctx context.Context, coll Collection, id string, fields map[string]any) (*Document, error)
	// Update merges fields into the stored document. Keys not present are left untouched.
	Update(ctx context.Context, coll Collection, id string, fields map[string]any) (*Document, error)
	Delete(ctx context.Context, coll Collection, id string) error
	Get(ctx context.Context, coll Collection, id string) (*Document, error)
	// List returns matching documents, newest first.
	List(ctx context.Context, coll Collection, queries ...Query) (*DocumentList, error)
}

// Blob is an upload payload.
type Blob struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FileInfo struct {
	ID          string
	Bucket      string
	Name        string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// PreviewOptions describes a server-side image transformation.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// Files is the object storage half of the remote store.
type Files interface {
	Create(ctx context.Context, bucket, fileID string, blob Blob) (*FileInfo, error)
	Delete(ctx context.Context, bucket, fileID string) error
	Open(ctx context.Context, bucket, fileID string) (io.ReadCloser, *FileInfo, error)
	ViewURL(ctx context.Context, bucket, fileID string) (string, error)
	PreviewURL(ctx context.Context, bucket, fileID string, opts PreviewOptions) (string, error)
}

// Previewer renders transformed renditions for backends whose preview URLs
// point back at this server.
type Previewer interface {
	Preview(ctx context.Context, bucket, fileID string, opts PreviewOptions) (io.ReadCloser, error)
}
