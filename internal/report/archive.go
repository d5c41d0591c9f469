package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"invoiceqc/internal/port"
	"invoiceqc/internal/validator"
)

// DefaultPresignExpiry is used when the archiver is created without one.
const DefaultPresignExpiry = int64(3600)

// ArchiveResult locates an archived report.
type ArchiveResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Archiver uploads JSON batch reports to object storage.
type Archiver struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
	expiry  int64
	now     func() time.Time
	logger  *slog.Logger
}

// NewArchiver creates an Archiver writing under prefix in bucket.
func NewArchiver(storage port.ObjectStorage, bucket, prefix string, expirySeconds int64) *Archiver {
	if expirySeconds <= 0 {
		expirySeconds = DefaultPresignExpiry
	}
	return &Archiver{
		storage: storage,
		bucket:  bucket,
		prefix:  prefix,
		expiry:  expirySeconds,
		now:     time.Now,
		logger:  slog.Default().With("component", "report.Archiver"),
	}
}

// Key builds the object key for a report created at t.
func (a *Archiver) Key(t time.Time, id uuid.UUID) string {
	return path.Join(a.prefix, t.UTC().Format("2006/01/02"), id.String()+".json")
}

// Archive uploads rep and returns its key with a presigned download URL.
func (a *Archiver) Archive(ctx context.Context, rep *validator.BatchReport) (*ArchiveResult, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	key := a.Key(a.now(), uuid.New())
	size := int64(buf.Len())
	if _, err := a.storage.Upload(ctx, port.UploadInput{
		Bucket:      a.bucket,
		Key:         key,
		Body:        &buf,
		ContentType: FormatJSON.ContentType(),
		Size:        size,
	}); err != nil {
		return nil, fmt.Errorf("uploading report: %w", err)
	}

	url, err := a.storage.GetPresignedURL(ctx, a.bucket, key, a.expiry)
	if err != nil {
		return nil, fmt.Errorf("presigning report: %w", err)
	}
	a.logger.InfoContext(ctx, "report archived", "bucket", a.bucket, "key", key, "bytes", size)
	return &ArchiveResult{Key: key, URL: url}, nil
}
