package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tunes a Service.
type Options struct {
	// Location is the time zone the run timestamp is rendered in.
	Location *time.Location
	// Concurrency bounds in-flight requests per endpoint kind.
	Concurrency int
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// Service orchestrates one ingest run: load references, then fetch, wrap and
// upload each endpoint kind independently.
type Service struct {
	refs        ReferenceSource
	fetcher     Fetcher
	uploader    *Uploader
	location    *time.Location
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates a new Service.
func NewService(refs ReferenceSource, fetcher Fetcher, uploader *Uploader, opts Options, logger *zap.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Service{
		refs:        refs,
		fetcher:     fetcher,
		uploader:    uploader,
		location:    opts.Location,
		concurrency: opts.Concurrency,
		now:         opts.Clock,
		logger:      logger,
	}
}

// Run performs a single ingest run. Only reference loading failures are
// returned; fetch and upload failures are logged and reflected in the summary.
func (s *Service) Run(ctx context.Context) (RunSummary, error) {
	started := s.now()
	summary := RunSummary{
		RunID:     uuid.NewString(),
		Timestamp: FormatRunTimestamp(started, s.location),
		StartedAt: started,
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID), zap.String("run_timestamp", summary.Timestamp))

	refs, err := s.refs.Load()
	if err == nil && len(refs) == 0 {
		err = errors.New("reference list is empty")
	}
	if err != nil {
		if !errors.Is(err, ErrReferenceLoad) {
			err = fmt.Errorf("%w: %w", ErrReferenceLoad, err)
		}
		logger.Error("reference load failed", zap.Error(err))
		return summary, err
	}
	logger.Info("run started", zap.Int("cities", len(refs)))

	// The two kinds share nothing but the read-only run timestamp.
	summary.Kinds = make([]KindSummary, len(Kinds))
	var wg sync.WaitGroup
	for i, kind := range Kinds {
		i, kind := i, kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary.Kinds[i] = s.runKind(ctx, logger, summary.RunID, kind, refs, summary.Timestamp)
		}()
	}
	wg.Wait()

	summary.Duration = s.now().Sub(started)
	fields := []zap.Field{zap.Duration("duration", summary.Duration)}
	for _, k := range summary.Kinds {
		fields = append(fields,
			zap.Int(string(k.Kind)+"_fetched", k.Fetched),
			zap.Int(string(k.Kind)+"_failed", k.Failed),
			zap.Bool(string(k.Kind)+"_uploaded", k.Uploaded))
	}
	logger.Info("run completed", fields...)
	return summary, nil
}

func (s *Service) runKind(ctx context.Context, logger *zap.Logger, runID string, kind EndpointKind, refs []CityReference, runTimestamp string) KindSummary {
	ks := KindSummary{
		Kind:      kind,
		Requested: len(refs),
		Key:       UploadKey(kind.Directory(), runTimestamp, kind.FileName()),
	}

	batch := FetchAll(ctx, s.fetcher, kind, refs, s.concurrency, logger)
	ks.Fetched = len(batch.Responses)
	ks.Failed = len(batch.Failures)
	logger.Info("fetch finished",
		zap.String("kind", string(kind)),
		zap.Int("fetched", ks.Fetched),
		zap.Int("failed", ks.Failed))

	body, err := BuildEnvelope(batch.Responses)
	if err != nil {
		logger.Error("envelope build failed", zap.String("kind", string(kind)), zap.Error(err))
		return ks
	}

	if err := s.uploader.Upload(ctx, runID, body, kind, runTimestamp); err != nil {
		return ks
	}
	ks.Uploaded = true
	return ks
}
