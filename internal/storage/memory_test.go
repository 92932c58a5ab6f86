package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreOverwriteKeepsVersions(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	key := "raw/pollution/2024-01-01T00:00_aq_data.json"

	for _, body := range []string{"v1", "v2", "v3"} {
		if err := s.Put(ctx, "b", key, []byte(body)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := s.Get("b", key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "v3" {
		t.Fatalf("expected latest version, got %q", got)
	}

	versions := s.Versions("b", key)
	if len(versions) != 2 || string(versions[0].Body) != "v2" {
		t.Fatalf("expected 2 retained versions starting at v2, got %d", len(versions))
	}
}

func TestMemoryStoreCopiesBody(t *testing.T) {
	s := NewMemoryStore(0)
	body := []byte("abc")
	if err := s.Put(context.Background(), "b", "k", body); err != nil {
		t.Fatal(err)
	}
	body[0] = 'x'

	got, _ := s.Get("b", "k")
	if string(got) != "abc" {
		t.Fatalf("store aliased caller buffer: %q", got)
	}
}

func TestMemoryStoreKeysAndMissing(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	_ = s.Put(ctx, "b", "raw/weather/x", nil)
	_ = s.Put(ctx, "b", "raw/pollution/x", nil)
	_ = s.Put(ctx, "other", "raw/pollution/y", nil)

	keys := s.Keys("b")
	if len(keys) != 2 || keys[0] != "raw/pollution/x" || keys[1] != "raw/weather/x" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if _, err := s.Get("b", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	s := NewMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Put(ctx, "b", "k", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
