package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfryer1193/blogwrite/shared/db"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var _ store.Files = (*LocalFiles)(nil)

type LocalFilesConfig struct {
	// Dir is the root directory; blobs live at Dir/<bucket>/<id>.
	Dir               string
	Limits            store.Limits
	URLs              store.URLBuilder
	TransformsEnabled bool
}

// LocalFiles implements store.Files with blobs on disk and metadata rows in
// the files table. Both are written inside one transaction.
type LocalFiles struct {
	db  *sqlx.DB
	cfg LocalFilesConfig
	now func() time.Time
}

func NewLocalFiles(sqlDB *sqlx.DB, cfg LocalFilesConfig) *LocalFiles {
	return &LocalFiles{
		db:  sqlDB,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const (
	insertFileQuery = `
		INSERT INTO files (bucket, id, name, content_type, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	getFileQuery = `
		SELECT bucket, id, name, content_type, size, created_at
		FROM files
		WHERE bucket = ? AND id = ?
	`
	deleteFileQuery = `
		DELETE FROM files WHERE bucket = ? AND id = ?
	`
)

// Create stores the blob. An empty id or store.UniqueID gets a fresh UUID.
func (f *LocalFiles) Create(ctx context.Context, bucket, fileID string, blob store.Blob) (*store.FileInfo, error) {
	if fileID == "" || fileID == store.UniqueID {
		fileID = uuid.NewString()
	}
	if err := checkPathSegments(bucket, fileID); err != nil {
		return nil, err
	}

	data, contentType, err := store.ReadBlob(blob, f.cfg.Limits)
	if err != nil {
		return nil, err
	}

	info := &store.FileInfo{
		ID:          fileID,
		Bucket:      bucket,
		Name:        store.CleanName(blob.Name),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   f.now(),
	}

	err = db.RunInTransaction(ctx, f.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, f.db)
		_, err := executor.ExecContext(txCtx, executor.Rebind(insertFileQuery),
			info.Bucket, info.ID, info.Name, info.ContentType, info.Size, info.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: file id %s already in use", store.ErrFileRejected, fileID)
		}
		if err != nil {
			return unavailable("insert file record", err)
		}

		// Then write to filesystem - if this fails, transaction rolls back
		dir := filepath.Join(f.cfg.Dir, bucket)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create bucket directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, fileID), data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (f *LocalFiles) Delete(ctx context.Context, bucket, fileID string) error {
	if err := checkPathSegments(bucket, fileID); err != nil {
		return err
	}

	return db.RunInTransaction(ctx, f.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, f.db)
		res, err := executor.ExecContext(txCtx, executor.Rebind(deleteFileQuery), bucket, fileID)
		if err != nil {
			return unavailable("delete file record", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return unavailable("delete file record", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", store.ErrFileNotFound, bucket, fileID)
		}

		if err := os.Remove(f.blobPath(bucket, fileID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	})
}

func (f *LocalFiles) Open(ctx context.Context, bucket, fileID string) (io.ReadCloser, *store.FileInfo, error) {
	info, err := f.stat(ctx, bucket, fileID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(f.blobPath(bucket, fileID))
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: blob missing for %s/%s", store.ErrFileNotFound, bucket, fileID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, info, nil
}

func (f *LocalFiles) ViewURL(ctx context.Context, bucket, fileID string) (string, error) {
	if _, err := f.stat(ctx, bucket, fileID); err != nil {
		return "", err
	}
	return f.cfg.URLs.View(bucket, fileID), nil
}

func (f *LocalFiles) PreviewURL(ctx context.Context, bucket, fileID string, opts store.PreviewOptions) (string, error) {
	if !f.cfg.TransformsEnabled {
		return "", store.ErrTransformBlocked
	}
	if err := store.ValidatePreviewOptions(opts); err != nil {
		return "", err
	}
	if _, err := f.stat(ctx, bucket, fileID); err != nil {
		return "", err
	}
	return f.cfg.URLs.Preview(bucket, fileID, opts), nil
}

// Preview renders the transformed image for the preview endpoint.
func (f *LocalFiles) Preview(ctx context.Context, bucket, fileID string, opts store.PreviewOptions) (io.ReadCloser, error) {
	if !f.cfg.TransformsEnabled {
		return nil, store.ErrTransformBlocked
	}

	body, _, err := f.Open(ctx, bucket, fileID)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	out, err := store.Transform(body, opts)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}

func (f *LocalFiles) stat(ctx context.Context, bucket, fileID string) (*store.FileInfo, error) {
	if err := checkPathSegments(bucket, fileID); err != nil {
		return nil, err
	}

	executor := db.GetExecutor(ctx, f.db)
	var row fileRow
	err := sqlx.GetContext(ctx, executor, &row, executor.Rebind(getFileQuery), bucket, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrFileNotFound, bucket, fileID)
	}
	if err != nil {
		return nil, unavailable("get file record", err)
	}
	return row.toFileInfo(), nil
}

func (f *LocalFiles) blobPath(bucket, fileID string) string {
	return filepath.Join(f.cfg.Dir, bucket, fileID)
}

// checkPathSegments keeps bucket and file ids from escaping the storage root.
func checkPathSegments(segments ...string) error {
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("%w: invalid identifier %q", store.ErrFileNotFound, s)
		}
	}
	return nil
}

type fileRow struct {
	Bucket      string    `db:"bucket"`
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *fileRow) toFileInfo() *store.FileInfo {
	return &store.FileInfo{
		ID:          r.ID,
		Bucket:      r.Bucket,
		Name:        r.Name,
		ContentType: r.ContentType,
		Size:        r.Size,
		CreatedAt:   r.CreatedAt,
	}
}
