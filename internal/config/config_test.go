package config

import (
	"testing"
	"time"
)

func TestLoadIngestDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")

	cfg, err := LoadIngest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FetchConcurrency != 4 || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Location.String() != "Europe/Warsaw" {
		t.Fatalf("unexpected location %s", cfg.Location)
	}
	if cfg.ReferenceDelimiter != ";" || cfg.StorageBackend != "s3" || cfg.ScheduleInterval != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.BreakerFailureThreshold != 0 {
		t.Fatalf("expected breaker disabled by default, got %d", cfg.BreakerFailureThreshold)
	}
	if cfg.KafkaBrokers != nil {
		t.Fatalf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadIngestOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORAGE_BACKEND", "MEMORY")
	t.Setenv("SCHEDULE_INTERVAL", "1h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := LoadIngest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FetchConcurrency != 8 || cfg.StorageBackend != "memory" || cfg.ScheduleInterval != time.Hour {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadIngestValidation(t *testing.T) {
	tests := map[string]map[string]string{
		"missing api key":   {"OPENWEATHER_API_KEY": ""},
		"bad timeout":       {"HTTP_TIMEOUT": "soon"},
		"bad timezone":      {"TIMEZONE": "Mars/Olympus"},
		"zero concurrency":  {"FETCH_CONCURRENCY": "0"},
		"bad backend":       {"STORAGE_BACKEND": "ftp"},
		"secret without id": {"AWS_ACCESS_KEY_ID": "AKIA", "AWS_SECRET_ACCESS_KEY": ""},
		"long delimiter":    {"REFERENCE_DELIMITER": ";;"},
		"negative interval": {"SCHEDULE_INTERVAL": "-1m"},
		"negative breaker":  {"BREAKER_FAILURE_THRESHOLD": "-1"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("OPENWEATHER_API_KEY", "key")
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadIngest(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestLoadDashboard(t *testing.T) {
	t.Setenv("WAREHOUSE_DSN", "")
	if _, err := LoadDashboard(); err == nil {
		t.Fatalf("expected error without WAREHOUSE_DSN")
	}

	t.Setenv("WAREHOUSE_DSN", "postgres://localhost/air")
	t.Setenv("CACHE_TTL", "30s")
	cfg, err := LoadDashboard()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
