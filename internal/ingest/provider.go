package ingest

import (
	"context"
)

// Fetcher performs one upstream request for one coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, kind EndpointKind, c Coordinate) (Response, error)
}

// ObjectStore is the object-storage contract the uploader writes through.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// UploadEvent is published after an object has been written.
type UploadEvent struct {
	RunID        string       `json:"run_id"`
	Kind         EndpointKind `json:"kind"`
	Bucket       string       `json:"bucket"`
	Key          string       `json:"key"`
	SizeBytes    int          `json:"size_bytes"`
	RunTimestamp string       `json:"run_timestamp"`
}

// Notifier announces completed uploads to downstream consumers.
type Notifier interface {
	NotifyUpload(ctx context.Context, event UploadEvent) error
}

// ReferenceSource yields the ordered city list for a run.
type ReferenceSource interface {
	Load() ([]CityReference, error)
}
