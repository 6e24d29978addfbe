package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slotsmith/slotsmith/internal/model"
)

type EventTypeAdminStore interface {
	CreateEventType(ctx context.Context, et *model.EventType) error
	ListEventTypes(ctx context.Context) ([]model.EventType, error)
	UpdateEventType(ctx context.Context, et *model.EventType) error
	DeleteEventType(ctx context.Context, id int64) error
}

type ConfigAdminStore interface {
	GetConfig(ctx context.Context, scope model.Scope) (model.EventConfig, error)
	PutConfig(ctx context.Context, scope model.Scope, cfg *model.EventConfig) error
}

type BlackoutAdminStore interface {
	CreateBlackout(ctx context.Context, scope model.Scope, w *model.BlackoutWindow) error
	ListBlackouts(ctx context.Context, scope model.Scope) ([]model.BlackoutWindow, error)
	UpdateBlackout(ctx context.Context, scope model.Scope, w *model.BlackoutWindow) error
	DeleteBlackout(ctx context.Context, scope model.Scope, id int64) error
}

// Invalidators drops cache entries after a write so readers never serve
// a stale config past the response. A failed drop fails the request:
// the row is stored, but the caller must retry until the cache agrees.
// Nil fields mean no cache in front.
type Invalidators struct {
	Config    func(ctx context.Context, scope model.Scope) error
	Blackouts func(ctx context.Context, scope model.Scope) error
	EventType func(ctx context.Context, id int64) error
}

type AdminHandler struct {
	eventTypes EventTypeAdminStore
	configs    ConfigAdminStore
	blackouts  BlackoutAdminStore
	invalidate Invalidators
	logger     *slog.Logger
}

func NewAdminHandler(eventTypes EventTypeAdminStore, configs ConfigAdminStore, blackouts BlackoutAdminStore, invalidate Invalidators, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		eventTypes: eventTypes,
		configs:    configs,
		blackouts:  blackouts,
		invalidate: invalidate,
		logger:     logger,
	}
}

type eventTypeRequest struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	DurationMinutes int    `json:"duration_minutes"`
}

type eventTypeItem struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedAt       string `json:"created_at"`
}

type configRequest struct {
	MaxParallelClients    int `json:"max_parallel_clients"`
	SlotLengthMinutes     int `json:"slot_length_minutes"`
	BreakMinutes          int `json:"break_minutes"`
	MaxBookingHorizonDays int `json:"max_booking_horizon_days"`
}

type configItem struct {
	EventTypeID           int64  `json:"event_type_id"`
	MaxParallelClients    int    `json:"max_parallel_clients"`
	SlotLengthMinutes     int    `json:"slot_length_minutes"`
	BreakMinutes          int    `json:"break_minutes"`
	MaxBookingHorizonDays int    `json:"max_booking_horizon_days"`
	Version               int    `json:"version"`
	UpdatedAt             string `json:"updated_at"`
}

type blackoutRequest struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Date         string `json:"date,omitempty"`
	DurationType string `json:"duration_type"`
}

type blackoutItem struct {
	ID           int64  `json:"id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Date         string `json:"date,omitempty"`
	DurationType string `json:"duration_type"`
}

func (h *AdminHandler) EventTypes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEventTypes(w, r)
	case http.MethodPost:
		h.createEventType(w, r)
	case http.MethodPut:
		h.updateEventType(w, r)
	case http.MethodDelete:
		h.deleteEventType(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.eventTypes.ListEventTypes(r.Context())
	if err != nil {
		h.logger.Error("list event types failed", "err", err)
		http.Error(w, "failed to list event types", http.StatusInternalServerError)
		return
	}
	items := make([]eventTypeItem, 0, len(types))
	for _, et := range types {
		items = append(items, eventTypeItem{
			ID:              et.ID,
			Name:            et.Name,
			Gender:          string(et.Gender),
			DurationMinutes: et.DurationMinutes,
			CreatedAt:       et.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) createEventType(w http.ResponseWriter, r *http.Request) {
	et, ok := h.decodeEventType(w, r)
	if !ok {
		return
	}
	if err := h.eventTypes.CreateEventType(r.Context(), &et); err != nil {
		h.logger.Error("create event type failed", "err", err)
		http.Error(w, "failed to create event type", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, eventTypeItem{
		ID:              et.ID,
		Name:            et.Name,
		Gender:          string(et.Gender),
		DurationMinutes: et.DurationMinutes,
		CreatedAt:       et.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *AdminHandler) updateEventType(w http.ResponseWriter, r *http.Request) {
	et, ok := h.decodeEventType(w, r)
	if !ok {
		return
	}
	if et.ID <= 0 {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.eventTypes.UpdateEventType(r.Context(), &et); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update event type failed", "err", err)
		http.Error(w, "failed to update event type", http.StatusInternalServerError)
		return
	}
	if !h.dropEventTypeCache(w, r.Context(), et.ID) {
		return
	}
	writeJSON(w, http.StatusOK, eventTypeItem{
		ID:              et.ID,
		Name:            et.Name,
		Gender:          string(et.Gender),
		DurationMinutes: et.DurationMinutes,
	})
}

func (h *AdminHandler) deleteEventType(w http.ResponseWriter, r *http.Request) {
	id, ok := eventTypeIDParam(w, r)
	if !ok {
		return
	}
	if err := h.eventTypes.DeleteEventType(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "event type not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete event type failed", "err", err)
		http.Error(w, "failed to delete event type", http.StatusInternalServerError)
		return
	}
	if !h.dropEventTypeCache(w, r.Context(), id) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decodeEventType(w http.ResponseWriter, r *http.Request) (model.EventType, bool) {
	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return model.EventType{}, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return model.EventType{}, false
	}
	gender := model.Gender(strings.ToLower(strings.TrimSpace(req.Gender)))
	if gender == "" {
		gender = model.GenderAny
	}
	if !gender.Valid() {
		http.Error(w, "invalid gender", http.StatusBadRequest)
		return model.EventType{}, false
	}
	if req.DurationMinutes < 0 {
		http.Error(w, "duration_minutes must not be negative", http.StatusBadRequest)
		return model.EventType{}, false
	}
	return model.EventType{
		ID:              req.ID,
		Name:            req.Name,
		Gender:          gender,
		DurationMinutes: req.DurationMinutes,
	}, true
}

func (h *AdminHandler) Config(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		cfg, err := h.configs.GetConfig(r.Context(), scope)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				http.Error(w, "config not found", http.StatusNotFound)
				return
			}
			h.logger.Error("get config failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to load config", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toConfigItem(scope, cfg))
	case http.MethodPut:
		var req configRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		cfg := model.EventConfig{
			MaxParallelClients:    req.MaxParallelClients,
			SlotLengthMinutes:     req.SlotLengthMinutes,
			BreakMinutes:          req.BreakMinutes,
			MaxBookingHorizonDays: req.MaxBookingHorizonDays,
		}
		if err := cfg.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.configs.PutConfig(r.Context(), scope, &cfg); err != nil {
			h.logger.Error("put config failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to store config", http.StatusInternalServerError)
			return
		}
		if h.invalidate.Config != nil {
			if err := h.invalidate.Config(r.Context(), scope); err != nil {
				h.logger.Error("config cache invalidation failed", "scope", scope.String(), "err", err)
				http.Error(w, "config stored but cache invalidation failed, retry", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, http.StatusOK, toConfigItem(scope, cfg))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) Blackouts(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		windows, err := h.blackouts.ListBlackouts(r.Context(), scope)
		if err != nil {
			h.logger.Error("list blackouts failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to list blackouts", http.StatusInternalServerError)
			return
		}
		items := make([]blackoutItem, 0, len(windows))
		for _, win := range windows {
			items = append(items, toBlackoutItem(win))
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		win, ok := decodeBlackout(w, r)
		if !ok {
			return
		}
		if err := h.blackouts.CreateBlackout(r.Context(), scope, &win); err != nil {
			h.logger.Error("create blackout failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to create blackout", http.StatusInternalServerError)
			return
		}
		if !h.dropBlackoutCache(w, r.Context(), scope) {
			return
		}
		writeJSON(w, http.StatusCreated, toBlackoutItem(win))
	case http.MethodPut:
		id, ok := blackoutIDParam(w, r)
		if !ok {
			return
		}
		win, ok := decodeBlackout(w, r)
		if !ok {
			return
		}
		win.ID = id
		if err := h.blackouts.UpdateBlackout(r.Context(), scope, &win); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				http.Error(w, "blackout not found", http.StatusNotFound)
				return
			}
			h.logger.Error("update blackout failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to update blackout", http.StatusInternalServerError)
			return
		}
		if !h.dropBlackoutCache(w, r.Context(), scope) {
			return
		}
		writeJSON(w, http.StatusOK, toBlackoutItem(win))
	case http.MethodDelete:
		id, ok := blackoutIDParam(w, r)
		if !ok {
			return
		}
		if err := h.blackouts.DeleteBlackout(r.Context(), scope, id); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				http.Error(w, "blackout not found", http.StatusNotFound)
				return
			}
			h.logger.Error("delete blackout failed", "scope", scope.String(), "err", err)
			http.Error(w, "failed to delete blackout", http.StatusInternalServerError)
			return
		}
		if !h.dropBlackoutCache(w, r.Context(), scope) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) dropBlackoutCache(w http.ResponseWriter, ctx context.Context, scope model.Scope) bool {
	if h.invalidate.Blackouts == nil {
		return true
	}
	if err := h.invalidate.Blackouts(ctx, scope); err != nil {
		h.logger.Error("blackout cache invalidation failed", "scope", scope.String(), "err", err)
		http.Error(w, "blackout stored but cache invalidation failed, retry", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *AdminHandler) dropEventTypeCache(w http.ResponseWriter, ctx context.Context, id int64) bool {
	if h.invalidate.EventType == nil {
		return true
	}
	if err := h.invalidate.EventType(ctx, id); err != nil {
		h.logger.Error("event type cache invalidation failed", "event_type_id", id, "err", err)
		http.Error(w, "event type stored but cache invalidation failed, retry", http.StatusInternalServerError)
		return false
	}
	return true
}

func blackoutIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBlackout(w http.ResponseWriter, r *http.Request) (model.BlackoutWindow, bool) {
	var req blackoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return model.BlackoutWindow{}, false
	}
	startTime, err := model.ParseTimeOfDay(req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return model.BlackoutWindow{}, false
	}
	endTime, err := model.ParseTimeOfDay(req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return model.BlackoutWindow{}, false
	}
	durationType, err := model.ParseDurationType(req.DurationType)
	if err != nil {
		http.Error(w, "invalid duration_type", http.StatusBadRequest)
		return model.BlackoutWindow{}, false
	}
	win := model.BlackoutWindow{
		StartTime:    startTime,
		EndTime:      endTime,
		DurationType: durationType,
	}
	if raw := strings.TrimSpace(req.Date); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return model.BlackoutWindow{}, false
		}
		win.Date = &day
	}
	if err := win.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return model.BlackoutWindow{}, false
	}
	return win, true
}

func toConfigItem(scope model.Scope, cfg model.EventConfig) configItem {
	item := configItem{
		EventTypeID:           scope.EventTypeID,
		MaxParallelClients:    cfg.MaxParallelClients,
		SlotLengthMinutes:     cfg.SlotLengthMinutes,
		BreakMinutes:          cfg.BreakMinutes,
		MaxBookingHorizonDays: cfg.MaxBookingHorizonDays,
		Version:               cfg.Version,
	}
	if !cfg.UpdatedAt.IsZero() {
		item.UpdatedAt = cfg.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func toBlackoutItem(win model.BlackoutWindow) blackoutItem {
	item := blackoutItem{
		ID:           win.ID,
		StartTime:    win.StartTime.String(),
		EndTime:      win.EndTime.String(),
		DurationType: string(win.DurationType),
	}
	if win.Date != nil {
		item.Date = win.Date.Format("2006-01-02")
	}
	return item
}

// scopeParam reads the target scope: a positive event_type_id selects
// that event's scope, absent or 0 selects the global one.
func scopeParam(w http.ResponseWriter, r *http.Request) (model.Scope, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("event_type_id"))
	if raw == "" || raw == "0" {
		return model.GlobalScope(), true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		http.Error(w, "invalid event_type_id", http.StatusBadRequest)
		return model.Scope{}, false
	}
	return model.EventScope(id), true
}
