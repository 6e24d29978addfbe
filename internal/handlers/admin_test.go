package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slotsmith/slotsmith/internal/model"
)

type memAdminStores struct {
	eventTypes map[int64]model.EventType
	configs    map[model.Scope]model.EventConfig
	blackouts  map[model.Scope][]model.BlackoutWindow
	nextID     int64
}

func newMemAdminStores() *memAdminStores {
	return &memAdminStores{
		eventTypes: map[int64]model.EventType{},
		configs:    map[model.Scope]model.EventConfig{},
		blackouts:  map[model.Scope][]model.BlackoutWindow{},
	}
}

func (m *memAdminStores) CreateEventType(_ context.Context, et *model.EventType) error {
	m.nextID++
	et.ID = m.nextID
	m.eventTypes[et.ID] = *et
	return nil
}

func (m *memAdminStores) ListEventTypes(_ context.Context) ([]model.EventType, error) {
	var out []model.EventType
	for _, et := range m.eventTypes {
		out = append(out, et)
	}
	return out, nil
}

func (m *memAdminStores) UpdateEventType(_ context.Context, et *model.EventType) error {
	if _, ok := m.eventTypes[et.ID]; !ok {
		return model.ErrNotFound
	}
	m.eventTypes[et.ID] = *et
	return nil
}

func (m *memAdminStores) DeleteEventType(_ context.Context, id int64) error {
	if _, ok := m.eventTypes[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.eventTypes, id)
	return nil
}

func (m *memAdminStores) GetConfig(_ context.Context, scope model.Scope) (model.EventConfig, error) {
	cfg, ok := m.configs[scope]
	if !ok {
		return model.EventConfig{}, model.ErrNotFound
	}
	return cfg, nil
}

func (m *memAdminStores) PutConfig(_ context.Context, scope model.Scope, cfg *model.EventConfig) error {
	if prev, ok := m.configs[scope]; ok {
		cfg.Version = prev.Version + 1
	} else {
		cfg.Version = 1
	}
	m.configs[scope] = *cfg
	return nil
}

func (m *memAdminStores) CreateBlackout(_ context.Context, scope model.Scope, w *model.BlackoutWindow) error {
	m.nextID++
	w.ID = m.nextID
	m.blackouts[scope] = append(m.blackouts[scope], *w)
	return nil
}

func (m *memAdminStores) ListBlackouts(_ context.Context, scope model.Scope) ([]model.BlackoutWindow, error) {
	return m.blackouts[scope], nil
}

func (m *memAdminStores) UpdateBlackout(_ context.Context, scope model.Scope, w *model.BlackoutWindow) error {
	windows := m.blackouts[scope]
	for i := range windows {
		if windows[i].ID == w.ID {
			windows[i] = *w
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memAdminStores) DeleteBlackout(_ context.Context, scope model.Scope, id int64) error {
	windows := m.blackouts[scope]
	for i, w := range windows {
		if w.ID == id {
			m.blackouts[scope] = append(windows[:i], windows[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type invalidationLog struct {
	configScopes   []model.Scope
	blackoutScopes []model.Scope
	eventTypeIDs   []int64
}

func newAdminHandler(stores *memAdminStores, log *invalidationLog) *AdminHandler {
	inv := Invalidators{
		Config: func(_ context.Context, scope model.Scope) error {
			log.configScopes = append(log.configScopes, scope)
			return nil
		},
		Blackouts: func(_ context.Context, scope model.Scope) error {
			log.blackoutScopes = append(log.blackoutScopes, scope)
			return nil
		},
		EventType: func(_ context.Context, id int64) error {
			log.eventTypeIDs = append(log.eventTypeIDs, id)
			return nil
		},
	}
	return NewAdminHandler(stores, stores, stores, inv, testLogger)
}

func TestAdminConfig_PutThenGet(t *testing.T) {
	stores := newMemAdminStores()
	log := &invalidationLog{}
	h := newAdminHandler(stores, log)

	body := `{"max_parallel_clients":2,"slot_length_minutes":30,"break_minutes":10,"max_booking_horizon_days":7}`
	rec := httptest.NewRecorder()
	h.Config(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/config?event_type_id=3", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(log.configScopes) != 1 || log.configScopes[0] != model.EventScope(3) {
		t.Fatalf("expected config invalidation for event:3, got %v", log.configScopes)
	}

	rec = httptest.NewRecorder()
	h.Config(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/config?event_type_id=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var item configItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatal(err)
	}
	if item.Version != 1 || item.SlotLengthMinutes != 30 {
		t.Fatalf("unexpected config: %+v", item)
	}
}

func TestAdminConfig_VersionBumpsOnReplace(t *testing.T) {
	stores := newMemAdminStores()
	h := newAdminHandler(stores, &invalidationLog{})

	body := `{"max_parallel_clients":2,"slot_length_minutes":30,"break_minutes":10,"max_booking_horizon_days":7}`
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Config(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/config", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("put %d: status %d", i, rec.Code)
		}
	}
	if got := stores.configs[model.GlobalScope()].Version; got != 2 {
		t.Fatalf("expected version 2 after replace, got %d", got)
	}
}

func TestAdminConfig_RejectsInvalid(t *testing.T) {
	h := newAdminHandler(newMemAdminStores(), &invalidationLog{})

	body := `{"max_parallel_clients":0,"slot_length_minutes":30,"break_minutes":10,"max_booking_horizon_days":7}`
	rec := httptest.NewRecorder()
	h.Config(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/config", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminConfig_GetMissing(t *testing.T) {
	h := newAdminHandler(newMemAdminStores(), &invalidationLog{})
	rec := httptest.NewRecorder()
	h.Config(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/config?event_type_id=5", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestAdminBlackouts_CreateListDelete(t *testing.T) {
	stores := newMemAdminStores()
	log := &invalidationLog{}
	h := newAdminHandler(stores, log)

	body := `{"start_time":"12:00","end_time":"13:00","duration_type":"all_days"}`
	rec := httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/blackouts", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(log.blackoutScopes) != 1 || !log.blackoutScopes[0].Global() {
		t.Fatalf("expected global blackout invalidation, got %v", log.blackoutScopes)
	}

	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/blackouts", nil))
	var items []blackoutItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].StartTime != "12:00" {
		t.Fatalf("unexpected list: %+v", items)
	}

	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/blackouts?id=1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if len(stores.blackouts[model.GlobalScope()]) != 0 {
		t.Fatal("blackout not deleted")
	}
}

func TestAdminBlackouts_Update(t *testing.T) {
	stores := newMemAdminStores()
	log := &invalidationLog{}
	h := newAdminHandler(stores, log)

	body := `{"start_time":"12:00","end_time":"13:00","duration_type":"all_days"}`
	rec := httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/blackouts", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}

	body = `{"start_time":"14:00","end_time":"15:30","duration_type":"all_days"}`
	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/blackouts?id=1", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(log.blackoutScopes) != 2 {
		t.Fatalf("expected invalidation on create and update, got %v", log.blackoutScopes)
	}

	windows := stores.blackouts[model.GlobalScope()]
	if len(windows) != 1 || windows[0].StartTime.String() != "14:00" || windows[0].EndTime.String() != "15:30" {
		t.Fatalf("window not updated: %+v", windows)
	}

	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/blackouts?id=99", strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/blackouts", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no id: status %d", rec.Code)
	}
}

func TestAdminBlackouts_OneDayRequiresDate(t *testing.T) {
	h := newAdminHandler(newMemAdminStores(), &invalidationLog{})

	body := `{"start_time":"12:00","end_time":"13:00","duration_type":"one_day"}`
	rec := httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/blackouts", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminWrites_FailedInvalidationSurfaces(t *testing.T) {
	stores := newMemAdminStores()
	inv := Invalidators{
		Config: func(_ context.Context, _ model.Scope) error {
			return errors.New("redis down")
		},
		Blackouts: func(_ context.Context, _ model.Scope) error {
			return errors.New("redis down")
		},
	}
	h := NewAdminHandler(stores, stores, stores, inv, testLogger)

	body := `{"max_parallel_clients":2,"slot_length_minutes":30,"break_minutes":10,"max_booking_horizon_days":7}`
	rec := httptest.NewRecorder()
	h.Config(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/config", strings.NewReader(body)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("config put: status %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := stores.configs[model.GlobalScope()]; !ok {
		t.Fatal("config write should still be stored for the retry to converge")
	}

	body = `{"start_time":"12:00","end_time":"13:00","duration_type":"all_days"}`
	rec = httptest.NewRecorder()
	h.Blackouts(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/blackouts", strings.NewReader(body)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("blackout post: status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminEventTypes_CreateAndList(t *testing.T) {
	stores := newMemAdminStores()
	h := newAdminHandler(stores, &invalidationLog{})

	rec := httptest.NewRecorder()
	h.EventTypes(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/event-types",
		strings.NewReader(`{"name":"haircut","gender":"any","duration_minutes":30}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.EventTypes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/event-types", nil))
	var items []eventTypeItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "haircut" {
		t.Fatalf("unexpected list: %+v", items)
	}
}

func TestAdminEventTypes_DeleteInvalidatesCache(t *testing.T) {
	stores := newMemAdminStores()
	stores.eventTypes[1] = model.EventType{ID: 1, Name: "haircut"}
	log := &invalidationLog{}
	h := newAdminHandler(stores, log)

	rec := httptest.NewRecorder()
	h.EventTypes(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/event-types?event_type_id=1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if len(log.eventTypeIDs) != 1 || log.eventTypeIDs[0] != 1 {
		t.Fatalf("expected event type invalidation, got %v", log.eventTypeIDs)
	}
}
