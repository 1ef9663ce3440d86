package miniostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

var _ store.Files = (*Files)(nil)

const nameMetadataKey = "Name"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PresignExpiry is the lifetime of view URLs.
	PresignExpiry     time.Duration
	Limits            store.Limits
	URLs              store.URLBuilder
	TransformsEnabled bool
}

// Files implements store.Files on an S3 compatible object store. Each store
// bucket maps to the object store bucket of the same name.
type Files struct {
	client *minio.Client
	cfg    Config
}

// New creates the client. No request is made until EnsureBuckets or the
// first file operation.
func New(cfg Config) (*Files, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = time.Hour
	}

	return &Files{client: client, cfg: cfg}, nil
}

// EnsureBuckets creates any missing bucket.
func (f *Files) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		exists, err := f.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("%w: failed to check bucket %s: %w", store.ErrUnavailable, bucket, err)
		}
		if exists {
			continue
		}
		if err := f.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: failed to create bucket %s: %w", store.ErrUnavailable, bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("Created bucket")
	}
	return nil
}

func (f *Files) Create(ctx context.Context, bucket, fileID string, blob store.Blob) (*store.FileInfo, error) {
	if fileID == "" || fileID == store.UniqueID {
		fileID = uuid.NewString()
	}

	data, contentType, err := store.ReadBlob(blob, f.cfg.Limits)
	if err != nil {
		return nil, err
	}

	name := store.CleanName(blob.Name)
	upload, err := f.client.PutObject(ctx, bucket, fileID, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{nameMetadataKey: name},
		})
	if err != nil {
		return nil, translate(err, bucket, fileID)
	}

	created := upload.LastModified
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return &store.FileInfo{
		ID:          fileID,
		Bucket:      bucket,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   created,
	}, nil
}

// Delete stats the object first since RemoveObject succeeds on missing keys.
func (f *Files) Delete(ctx context.Context, bucket, fileID string) error {
	if _, err := f.stat(ctx, bucket, fileID); err != nil {
		return err
	}
	if err := f.client.RemoveObject(ctx, bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return translate(err, bucket, fileID)
	}
	return nil
}

func (f *Files) Open(ctx context.Context, bucket, fileID string) (io.ReadCloser, *store.FileInfo, error) {
	object, err := f.client.GetObject(ctx, bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translate(err, bucket, fileID)
	}

	stat, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, nil, translate(err, bucket, fileID)
	}
	return object, toFileInfo(bucket, stat), nil
}

// ViewURL returns a presigned GET URL valid for the configured expiry.
func (f *Files) ViewURL(ctx context.Context, bucket, fileID string) (string, error) {
	if _, err := f.stat(ctx, bucket, fileID); err != nil {
		return "", err
	}

	u, err := f.client.PresignedGetObject(ctx, bucket, fileID, f.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", translate(err, bucket, fileID)
	}
	return u.String(), nil
}

func (f *Files) PreviewURL(ctx context.Context, bucket, fileID string, opts store.PreviewOptions) (string, error) {
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

func (f *Files) Preview(ctx context.Context, bucket, fileID string, opts store.PreviewOptions) (io.ReadCloser, error) {
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

func (f *Files) stat(ctx context.Context, bucket, fileID string) (*store.FileInfo, error) {
	info, err := f.client.StatObject(ctx, bucket, fileID, minio.StatObjectOptions{})
	if err != nil {
		return nil, translate(err, bucket, fileID)
	}
	return toFileInfo(bucket, info), nil
}

func toFileInfo(bucket string, info minio.ObjectInfo) *store.FileInfo {
	return &store.FileInfo{
		ID:          info.Key,
		Bucket:      bucket,
		Name:        info.UserMetadata[nameMetadataKey],
		ContentType: info.ContentType,
		Size:        info.Size,
		CreatedAt:   info.LastModified,
	}
}

// translate maps object store error codes onto the store sentinels.
func translate(err error, bucket, fileID string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchObject":
		return fmt.Errorf("%w: %s/%s", store.ErrFileNotFound, bucket, fileID)
	case "AccessDenied", "EntityTooLarge", "InvalidArgument":
		return fmt.Errorf("%w: %s/%s: %w", store.ErrFileRejected, bucket, fileID, err)
	}
	return fmt.Errorf("%w: %s/%s: %w", store.ErrUnavailable, bucket, fileID, err)
}
