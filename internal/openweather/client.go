package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-ingest/internal/ingest"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "http://api.openweathermap.org/data/2.5"

// Config bundles what the client needs to talk to OpenWeatherMap.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each individual request. It is applied on top of any
	// timeout already set on the http.Client.
	Timeout time.Duration
	Breaker BreakerConfig
}

// Client implements ingest.Fetcher against the air_pollution and weather endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	breakers   map[ingest.EndpointKind]*gobreaker.CircuitBreaker
}

// NewClient creates a Client. A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breakers := make(map[ingest.EndpointKind]*gobreaker.CircuitBreaker, len(ingest.Kinds))
	for _, kind := range ingest.Kinds {
		breakers[kind] = newBreaker("openweather-"+kind.Path(), cfg.Breaker)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		breakers:   breakers,
	}
}

// Fetch issues one GET for the coordinate and returns the decoded JSON body.
// Numbers are kept as json.Number so they round-trip unchanged.
func (c *Client) Fetch(ctx context.Context, kind ingest.EndpointKind, coord ingest.Coordinate) (ingest.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?%s", c.baseURL, kind.Path(), queryFor(kind, coord, c.apiKey).Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, c.httpClient, c.breakers[kind], buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload ingest.Response
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("decode %s response: empty body", kind)
	}
	return payload, nil
}

// queryFor builds the per-kind query parameters. Only the weather endpoint asks
// for metric units.
func queryFor(kind ingest.EndpointKind, coord ingest.Coordinate, apiKey string) url.Values {
	values := url.Values{}
	if kind == ingest.KindWeather {
		values.Set("units", "metric")
	}
	values.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	values.Set("appid", apiKey)
	return values
}
