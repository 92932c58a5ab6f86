package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RunTimestampLayout is the minute-resolution layout embedded in upload keys.
const RunTimestampLayout = "2006-01-02T15:04"

// FormatRunTimestamp renders t in loc using RunTimestampLayout.
func FormatRunTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(RunTimestampLayout)
}

// UploadKey builds raw/{directory}/{runTimestamp}_{fileName}.
func UploadKey(directory, runTimestamp, fileName string) string {
	return fmt.Sprintf("raw/%s/%s_%s", directory, runTimestamp, fileName)
}

// Uploader writes envelopes to object storage.
type Uploader struct {
	store    ObjectStore
	bucket   string
	notifier Notifier
	logger   *zap.Logger
}

// NewUploader creates an Uploader. notifier may be nil.
func NewUploader(store ObjectStore, bucket string, notifier Notifier, logger *zap.Logger) *Uploader {
	return &Uploader{
		store:    store,
		bucket:   bucket,
		notifier: notifier,
		logger:   logger,
	}
}

// Bucket returns the destination bucket.
func (u *Uploader) Bucket() string {
	return u.bucket
}

// Upload stores body under the key derived from kind and runTimestamp. A storage
// failure is logged and returned as *UploadError. Existing objects are overwritten.
func (u *Uploader) Upload(ctx context.Context, runID string, body []byte, kind EndpointKind, runTimestamp string) error {
	key := UploadKey(kind.Directory(), runTimestamp, kind.FileName())

	if err := u.store.Put(ctx, u.bucket, key, body); err != nil {
		ue := &UploadError{Kind: kind, Bucket: u.bucket, Key: key, Err: err}
		u.logger.Error("upload failed",
			zap.String("bucket", u.bucket),
			zap.String("key", key),
			zap.Error(err))
		return ue
	}
	u.logger.Info("upload succeeded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))

	if u.notifier != nil {
		event := UploadEvent{
			RunID:        runID,
			Kind:         kind,
			Bucket:       u.bucket,
			Key:          key,
			SizeBytes:    len(body),
			RunTimestamp: runTimestamp,
		}
		if err := u.notifier.NotifyUpload(ctx, event); err != nil {
			u.logger.Warn("upload notification failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}
