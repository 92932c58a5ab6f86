package ingest

import (
	"context"
	"errors"
	"sync"
)

var errBoom = errors.New("boom")

// fakeFetcher answers from a canned table keyed by kind and coordinate.
type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[EndpointKind]map[Coordinate]error
	calls map[EndpointKind][]Coordinate
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		fail:  map[EndpointKind]map[Coordinate]error{},
		calls: map[EndpointKind][]Coordinate{},
	}
}

func (f *fakeFetcher) failOn(kind EndpointKind, c Coordinate, err error) {
	if f.fail[kind] == nil {
		f.fail[kind] = map[Coordinate]error{}
	}
	f.fail[kind][c] = err
}

func (f *fakeFetcher) Fetch(_ context.Context, kind EndpointKind, c Coordinate) (Response, error) {
	f.mu.Lock()
	f.calls[kind] = append(f.calls[kind], c)
	err := f.fail[kind][c]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	// The upstream snaps coordinates to a whole-degree grid.
	return Response{
		"kind":  string(kind),
		"coord": map[string]any{"lat": float64(int(c.Lat)), "lon": float64(int(c.Lon))},
	}, nil
}

func (f *fakeFetcher) callCount(kind EndpointKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[kind])
}

// fakeStore records puts and fails for configured directories.
type fakeStore struct {
	mu      sync.Mutex
	failFor map[string]error
	puts    map[string][]byte
	tried   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{failFor: map[string]error{}, puts: map[string][]byte{}}
}

func (s *fakeStore) Put(_ context.Context, bucket, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tried = append(s.tried, key)
	for prefix, err := range s.failFor {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			return err
		}
	}
	s.puts[bucket+"/"+key] = append([]byte(nil), body...)
	return nil
}

type staticRefs struct {
	refs []CityReference
	err  error
}

func (s staticRefs) Load() ([]CityReference, error) {
	return s.refs, s.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []UploadEvent
	err    error
}

func (n *recordingNotifier) NotifyUpload(_ context.Context, e UploadEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

var (
	warszawa = CityReference{Name: "Warszawa", Coordinate: Coordinate{Lat: 52.23, Lon: 21.01}}
	krakow   = CityReference{Name: "Kraków", Coordinate: Coordinate{Lat: 50.06, Lon: 19.94}}
	lodz     = CityReference{Name: "Łódź", Coordinate: Coordinate{Lat: 51.77, Lon: 19.46}}
	wroclaw  = CityReference{Name: "Wrocław", Coordinate: Coordinate{Lat: 51.11, Lon: 17.03}}
)
