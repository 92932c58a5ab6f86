package ingest

import (
	"errors"
	"fmt"
)

// ErrReferenceLoad marks a failure to load the city reference table. It is the only
// error that aborts a run.
var ErrReferenceLoad = errors.New("reference load failed")

// FetchError describes a failed upstream call for one coordinate.
type FetchError struct {
	Kind       EndpointKind
	City       string
	Coordinate Coordinate
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s (%s): %v", e.Kind, e.City, e.Coordinate, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UploadError describes a failed storage write for one endpoint kind.
type UploadError struct {
	Kind   EndpointKind
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s/%s: %v", e.Kind, e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
