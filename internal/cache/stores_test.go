package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/slotsmith/slotsmith/internal/model"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	failing bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failing {
		return nil, false, errors.New("backend down")
	}
	val, ok := m.entries[key]
	return val, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("backend down")
	}
	m.entries[key] = value
	return nil
}

func (m *memCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

type countingConfigStore struct {
	cfg   model.EventConfig
	loads int
}

func (s *countingConfigStore) GetConfig(_ context.Context, _ model.Scope) (model.EventConfig, error) {
	s.loads++
	return s.cfg, nil
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestConfigStore_ReadThrough(t *testing.T) {
	mem := newMemCache()
	next := &countingConfigStore{cfg: model.EventConfig{SlotLengthMinutes: 30, BreakMinutes: 10, MaxParallelClients: 2, MaxBookingHorizonDays: 7, Version: 3}}
	store := NewConfigStore(next, mem, time.Minute, testLogger)
	scope := model.EventScope(7)

	for i := 0; i < 3; i++ {
		cfg, err := store.GetConfig(context.Background(), scope)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if cfg.Version != 3 {
			t.Fatalf("get %d: wrong config %+v", i, cfg)
		}
	}
	if next.loads != 1 {
		t.Fatalf("expected a single backing load, got %d", next.loads)
	}
}

func TestConfigStore_InvalidateForcesReload(t *testing.T) {
	mem := newMemCache()
	next := &countingConfigStore{cfg: model.EventConfig{Version: 1}}
	store := NewConfigStore(next, mem, time.Minute, testLogger)
	scope := model.GlobalScope()

	if _, err := store.GetConfig(context.Background(), scope); err != nil {
		t.Fatal(err)
	}
	next.cfg.Version = 2
	if err := store.Invalidate(context.Background(), scope); err != nil {
		t.Fatal(err)
	}
	cfg, err := store.GetConfig(context.Background(), scope)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != 2 {
		t.Fatalf("expected reloaded version 2, got %d", cfg.Version)
	}
	if next.loads != 2 {
		t.Fatalf("expected 2 backing loads, got %d", next.loads)
	}
}

func TestConfigStore_DegradesWhenCacheFails(t *testing.T) {
	mem := newMemCache()
	mem.failing = true
	next := &countingConfigStore{cfg: model.EventConfig{Version: 5}}
	store := NewConfigStore(next, mem, time.Minute, testLogger)

	cfg, err := store.GetConfig(context.Background(), model.EventScope(1))
	if err != nil {
		t.Fatalf("cache failure must not fail the read: %v", err)
	}
	if cfg.Version != 5 {
		t.Fatalf("wrong config: %+v", cfg)
	}
}

func TestConfigStore_CorruptEntryFallsBack(t *testing.T) {
	mem := newMemCache()
	next := &countingConfigStore{cfg: model.EventConfig{Version: 9}}
	store := NewConfigStore(next, mem, time.Minute, testLogger)
	scope := model.EventScope(4)
	mem.entries[ConfigKey(scope)] = []byte("{not json")

	cfg, err := store.GetConfig(context.Background(), scope)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != 9 || next.loads != 1 {
		t.Fatalf("expected fallback load, got cfg=%+v loads=%d", cfg, next.loads)
	}
}

type staticBlackoutStore struct {
	windows []model.BlackoutWindow
	loads   int
}

func (s *staticBlackoutStore) ListBlackouts(_ context.Context, _ model.Scope) ([]model.BlackoutWindow, error) {
	s.loads++
	return s.windows, nil
}

func TestBlackoutStore_RoundTripsTimeOfDay(t *testing.T) {
	mem := newMemCache()
	next := &staticBlackoutStore{windows: []model.BlackoutWindow{{
		ID:           1,
		StartTime:    model.NewTimeOfDay(12, 30),
		EndTime:      model.NewTimeOfDay(13, 0),
		DurationType: model.DurationAllDays,
	}}}
	store := NewBlackoutStore(next, mem, time.Minute, testLogger)
	scope := model.EventScope(2)

	if _, err := store.ListBlackouts(context.Background(), scope); err != nil {
		t.Fatal(err)
	}
	windows, err := store.ListBlackouts(context.Background(), scope)
	if err != nil {
		t.Fatal(err)
	}
	if next.loads != 1 {
		t.Fatalf("expected cached second read, got %d loads", next.loads)
	}
	if len(windows) != 1 || windows[0].StartTime != model.NewTimeOfDay(12, 30) {
		t.Fatalf("cached window corrupted: %+v", windows)
	}
}
