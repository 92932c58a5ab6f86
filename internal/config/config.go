package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// IngestConfig is the immutable configuration of the ingest job. It is read
// once at startup and passed to each component.
type IngestConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds every upstream request.
	HTTPTimeout time.Duration `validate:"gt=0"`
	// FetchConcurrency bounds in-flight requests per endpoint kind.
	FetchConcurrency int `validate:"gte=1,lte=64"`
	// BreakerFailureThreshold opens the circuit breaker after this many
	// consecutive failures (0 = disabled).
	BreakerFailureThreshold int `validate:"gte=0"`

	ReferencePath      string `validate:"required"`
	ReferenceDelimiter string `validate:"required,len=1"`

	// Location is the time zone run timestamps are rendered in.
	Location *time.Location `validate:"required"`

	StorageBackend     string `validate:"oneof=s3 memory"`
	Bucket             string `validate:"required"`
	AWSRegion          string `validate:"required_if=StorageBackend s3"`
	AWSAccessKeyID     string
	AWSSecretAccessKey string `validate:"required_with=AWSAccessKeyID"`
	S3Endpoint         string `validate:"omitempty,url"`

	// ScheduleInterval runs the job periodically when > 0; otherwise once.
	ScheduleInterval time.Duration `validate:"gte=0"`

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`

	LogLevel string `validate:"oneof=debug info warn error"`
}

// DashboardConfig configures the dashboard query API.
type DashboardConfig struct {
	Port         string `validate:"required,numeric"`
	WarehouseDSN string `validate:"required"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gte=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
}

// LoadIngest reads the ingest configuration from the environment with sensible defaults.
func LoadIngest() (*IngestConfig, error) {
	loadDotenv()
	cfg := &IngestConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "http://api.openweathermap.org/data/2.5")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout
	cfg.FetchConcurrency = getenvInt("FETCH_CONCURRENCY", 4)
	cfg.BreakerFailureThreshold = getenvInt("BREAKER_FAILURE_THRESHOLD", 0)

	cfg.ReferencePath = getenvDefault("REFERENCE_PATH", "./PLcities_over_100k.csv")
	cfg.ReferenceDelimiter = getenvDefault("REFERENCE_DELIMITER", ";")

	tz := getenvDefault("TIMEZONE", "Europe/Warsaw")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.StorageBackend = strings.ToLower(getenvDefault("STORAGE_BACKEND", "s3"))
	cfg.Bucket = getenvDefault("S3_BUCKET", "mateuszairqualitydata")
	cfg.AWSRegion = getenvDefault("AWS_REGION", "eu-central-1")
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")

	interval, err := getenvDuration("SCHEDULE_INTERVAL", "0")
	if err != nil {
		return nil, err
	}
	cfg.ScheduleInterval = interval

	cfg.KafkaBrokers = getenvSlice("KAFKA_BROKERS")
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "raw_uploads")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid ingest config: %w", err)
	}
	return cfg, nil
}

// LoadDashboard reads the dashboard API configuration from the environment.
func LoadDashboard() (*DashboardConfig, error) {
	loadDotenv()
	cfg := &DashboardConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.WarehouseDSN = os.Getenv("WAREHOUSE_DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	ttl, err := getenvDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = ttl
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	return cfg, nil
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
