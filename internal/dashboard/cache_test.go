package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeRedis struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.lastTTL = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingWarehouse struct {
	calls int
	err   error
}

func (w *countingWarehouse) Cities(context.Context) ([]string, error) {
	w.calls++
	return []string{"Warszawa", "Kraków"}, w.err
}

func (w *countingWarehouse) Dates(context.Context, string) ([]string, error) {
	w.calls++
	return []string{"2024-01-02", "2024-01-01"}, w.err
}

func (w *countingWarehouse) Trend(_ context.Context, _, _ string, pollutants []Pollutant) ([]TrendPoint, error) {
	w.calls++
	v := 12.5
	return []TrendPoint{{Hour: 7, Values: map[Pollutant]*float64{NO2: &v, PM10: nil}}}, w.err
}

func (w *countingWarehouse) AQIMap(context.Context) ([]MapPoint, error) {
	w.calls++
	return nil, w.err
}

func (w *countingWarehouse) CityLocations(context.Context, string) ([]MapPoint, error) {
	w.calls++
	return []MapPoint{{Lat: 52.23, Lon: 21.01}}, w.err
}

func TestCachedWarehouseReadThrough(t *testing.T) {
	next := &countingWarehouse{}
	rc := newFakeRedis()
	c := NewCachedWarehouse(next, rc, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cities, err := c.Cities(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cities) != 2 || cities[1] != "Kraków" {
			t.Fatalf("unexpected cities %v", cities)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 warehouse call, got %d", next.calls)
	}
	if rc.lastTTL != time.Minute {
		t.Fatalf("expected ttl to be applied, got %v", rc.lastTTL)
	}

	points, err := c.Trend(ctx, "Warszawa", "2024-01-01", []Pollutant{NO2, PM10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	points, err = c.Trend(ctx, "Warszawa", "2024-01-01", []Pollutant{NO2, PM10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected trend to be served from cache, got %d calls", next.calls)
	}
	if got := points[0].Values[NO2]; got == nil || *got != 12.5 {
		t.Fatalf("unexpected cached value %v", got)
	}
	if points[0].Values[PM10] != nil {
		t.Fatalf("expected nil to survive the cache round trip")
	}
	if _, ok := rc.data["dashboard:trend:Warszawa:2024-01-01:NO2+PM10"]; !ok {
		t.Fatalf("unexpected cache keys %v", rc.data)
	}
}

func TestCachedWarehouseFallsThroughOnCacheErrors(t *testing.T) {
	next := &countingWarehouse{}
	rc := newFakeRedis()
	rc.getErr = errors.New("connection refused")
	rc.setErr = errors.New("connection refused")
	c := NewCachedWarehouse(next, rc, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := c.CityLocations(context.Background(), "Warszawa"); err != nil {
			t.Fatalf("cache errors must not fail the request: %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected every call to reach the warehouse, got %d", next.calls)
	}
}

func TestCachedWarehouseDoesNotCacheErrors(t *testing.T) {
	next := &countingWarehouse{err: errors.New("warehouse down")}
	rc := newFakeRedis()
	c := NewCachedWarehouse(next, rc, time.Minute, zap.NewNop())

	if _, err := c.Dates(context.Background(), "Warszawa"); err == nil {
		t.Fatalf("expected error")
	}
	if len(rc.data) != 0 {
		t.Fatalf("expected nothing cached, got %v", rc.data)
	}
}

func TestPollutantColumns(t *testing.T) {
	for _, p := range AllPollutants {
		if _, err := p.Column(); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}

	p, err := ParsePollutant(" pm2_5 ")
	if err != nil || p != PM25 {
		t.Fatalf("expected PM2_5, got %q (%v)", p, err)
	}
	if _, err := ParsePollutant("CO; DROP TABLE x"); !errors.Is(err, ErrUnknownPollutant) {
		t.Fatalf("expected ErrUnknownPollutant, got %v", err)
	}
	if _, err := Pollutant("nope").Column(); !errors.Is(err, ErrUnknownPollutant) {
		t.Fatalf("expected ErrUnknownPollutant, got %v", err)
	}
}
