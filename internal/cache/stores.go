package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/slotsmith/slotsmith/internal/booking"
	"github.com/slotsmith/slotsmith/internal/model"
)

// DefaultTTL bounds staleness if an invalidation is lost.
const DefaultTTL = 5 * time.Minute

// ConfigStore is a read-through decorator over a booking.ConfigStore.
// Cache failures degrade to the underlying store; a broken Redis slows
// reads down but never fails them.
type ConfigStore struct {
	next   booking.ConfigStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewConfigStore(next booking.ConfigStore, c Cache, ttl time.Duration, logger *slog.Logger) *ConfigStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ConfigStore{next: next, cache: c, ttl: ttl, logger: logger}
}

func (s *ConfigStore) GetConfig(ctx context.Context, scope model.Scope) (model.EventConfig, error) {
	key := ConfigKey(scope)
	var cfg model.EventConfig
	if hit := lookup(ctx, s.cache, key, &cfg, s.logger); hit {
		return cfg, nil
	}
	cfg, err := s.next.GetConfig(ctx, scope)
	if err != nil {
		return model.EventConfig{}, err
	}
	store(ctx, s.cache, key, cfg, s.ttl, s.logger)
	return cfg, nil
}

func (s *ConfigStore) Invalidate(ctx context.Context, scope model.Scope) error {
	return s.cache.Invalidate(ctx, ConfigKey(scope))
}

// BlackoutStore caches the full blackout list per scope under one key,
// so a write invalidates the scope with a single delete.
type BlackoutStore struct {
	next   booking.BlackoutStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewBlackoutStore(next booking.BlackoutStore, c Cache, ttl time.Duration, logger *slog.Logger) *BlackoutStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BlackoutStore{next: next, cache: c, ttl: ttl, logger: logger}
}

func (s *BlackoutStore) ListBlackouts(ctx context.Context, scope model.Scope) ([]model.BlackoutWindow, error) {
	key := BlackoutsKey(scope)
	var windows []model.BlackoutWindow
	if hit := lookup(ctx, s.cache, key, &windows, s.logger); hit {
		return windows, nil
	}
	windows, err := s.next.ListBlackouts(ctx, scope)
	if err != nil {
		return nil, err
	}
	store(ctx, s.cache, key, windows, s.ttl, s.logger)
	return windows, nil
}

func (s *BlackoutStore) Invalidate(ctx context.Context, scope model.Scope) error {
	return s.cache.Invalidate(ctx, BlackoutsKey(scope))
}

type EventTypeStore struct {
	next   booking.EventTypeStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewEventTypeStore(next booking.EventTypeStore, c Cache, ttl time.Duration, logger *slog.Logger) *EventTypeStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EventTypeStore{next: next, cache: c, ttl: ttl, logger: logger}
}

func (s *EventTypeStore) GetEventType(ctx context.Context, id int64) (model.EventType, error) {
	key := EventTypeKey(id)
	var et model.EventType
	if hit := lookup(ctx, s.cache, key, &et, s.logger); hit {
		return et, nil
	}
	et, err := s.next.GetEventType(ctx, id)
	if err != nil {
		return model.EventType{}, err
	}
	store(ctx, s.cache, key, et, s.ttl, s.logger)
	return et, nil
}

func (s *EventTypeStore) Invalidate(ctx context.Context, id int64) error {
	return s.cache.Invalidate(ctx, EventTypeKey(id))
}

func lookup(ctx context.Context, c Cache, key string, dst any, logger *slog.Logger) bool {
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("cache get failed", "key", key, "err", err)
		}
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if logger != nil {
			logger.Warn("cache entry corrupt", "key", key, "err", err)
		}
		return false
	}
	return true
}

func store(ctx context.Context, c Cache, key string, src any, ttl time.Duration, logger *slog.Logger) {
	raw, err := json.Marshal(src)
	if err != nil {
		if logger != nil {
			logger.Warn("cache encode failed", "key", key, "err", err)
		}
		return
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil && logger != nil {
		logger.Warn("cache set failed", "key", key, "err", err)
	}
}
