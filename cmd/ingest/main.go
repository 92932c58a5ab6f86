package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/i474232898/air-quality-ingest/internal/config"
	"github.com/i474232898/air-quality-ingest/internal/ingest"
	"github.com/i474232898/air-quality-ingest/internal/logging"
	"github.com/i474232898/air-quality-ingest/internal/notify"
	"github.com/i474232898/air-quality-ingest/internal/openweather"
	"github.com/i474232898/air-quality-ingest/internal/reference"
	"github.com/i474232898/air-quality-ingest/internal/scheduler"
	"github.com/i474232898/air-quality-ingest/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, newObjectStore)
	stop()
	os.Exit(code)
}

type storeFactory func(ctx context.Context, cfg *config.IngestConfig) (ingest.ObjectStore, error)

// run returns the process exit code: 1 only when nothing can be fetched
// (bad configuration or unreadable reference data), 0 otherwise.
func run(ctx context.Context, newStore storeFactory) int {
	cfg, err := config.LoadIngest()
	if err != nil {
		log.Printf("ERROR: failed to load config: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Printf("ERROR: failed to build logger: %v", err)
		return 1
	}
	defer logger.Sync()

	refs, err := reference.NewFileSource(cfg.ReferencePath, cfg.ReferenceDelimiter)
	if err != nil {
		logger.Error("invalid reference source", zap.Error(err))
		return 1
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := openweather.NewClient(httpClient, openweather.Config{
		BaseURL: cfg.OpenWeatherBaseURL,
		APIKey:  cfg.OpenWeatherAPIKey,
		Timeout: cfg.HTTPTimeout,
		Breaker: openweather.BreakerConfig{FailureThreshold: uint32(cfg.BreakerFailureThreshold)},
	})

	store, err := newStore(ctx, cfg)
	if err != nil {
		// Fetches still run; every kind then reports the setup error as its upload failure.
		logger.Error("failed to set up object storage", zap.Error(err))
		store = unavailableStore{err: err}
	}

	var notifier ingest.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			// Notifications are advisory; uploads still go ahead.
			logger.Warn("kafka notifications disabled", zap.Error(err))
		} else {
			defer kn.Close()
			notifier = kn
		}
	}

	uploader := ingest.NewUploader(store, cfg.Bucket, notifier, logger)
	service := ingest.NewService(refs, client, uploader, ingest.Options{
		Location:    cfg.Location,
		Concurrency: cfg.FetchConcurrency,
	}, logger)

	if cfg.ScheduleInterval > 0 {
		sched := scheduler.New(ctx, service, cfg.ScheduleInterval, 0, cfg.Location, logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", zap.Error(err))
			return 1
		}
		<-ctx.Done()
		logger.Info("shutting down scheduler")
		sched.Stop()
		return 0
	}

	if _, err := service.Run(ctx); err != nil {
		if errors.Is(err, ingest.ErrReferenceLoad) {
			return 1
		}
		logger.Error("run failed", zap.Error(err))
	}
	return 0
}

func newObjectStore(ctx context.Context, cfg *config.IngestConfig) (ingest.ObjectStore, error) {
	if cfg.StorageBackend == "memory" {
		return storage.NewMemoryStore(1), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
	})
}

// unavailableStore rejects every upload with the error that prevented the
// real store from being built.
type unavailableStore struct {
	err error
}

func (s unavailableStore) Put(ctx context.Context, bucket, key string, body []byte) error {
	return fmt.Errorf("object storage unavailable: %w", s.err)
}
