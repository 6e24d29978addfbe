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

	"github.com/slotsmith/slotsmith/internal/booking"
	"github.com/slotsmith/slotsmith/internal/model"
)

// AppointmentCanceler removes an appointment and stages the
// cancellation event; the freed capacity is visible immediately.
type AppointmentCanceler interface {
	CancelAppointment(ctx context.Context, id string) (model.Appointment, error)
}

type PublicHandler struct {
	service  *booking.Service
	canceler AppointmentCanceler
	logger   *slog.Logger
	now      func() time.Time
}

func NewPublicHandler(service *booking.Service, canceler AppointmentCanceler, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		service:  service,
		canceler: canceler,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type slotItem struct {
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	CapacityTotal     int    `json:"capacity_total"`
	CapacityRemaining int    `json:"capacity_remaining"`
}

type occupancyItem struct {
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Occupancy         int    `json:"occupancy"`
	CapacityTotal     int    `json:"capacity_total"`
	CapacityRemaining int    `json:"capacity_remaining"`
}

type bookRequest struct {
	EventTypeID int64  `json:"event_type_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
	EventTypeID   int64  `json:"event_type_id"`
	UserID        int64  `json:"user_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type cancelResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	eventTypeID, ok := eventTypeIDParam(w, r)
	if !ok {
		return
	}

	slots, err := h.service.ListAvailableSlots(r.Context(), eventTypeID, h.now())
	if err != nil {
		h.writeServiceError(w, err, "failed to list slots")
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartTime:         s.Start.UTC().Format(time.RFC3339),
			EndTime:           s.End.UTC().Format(time.RFC3339),
			CapacityTotal:     s.CapacityTotal,
			CapacityRemaining: s.CapacityRemaining,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PublicHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	eventTypeID, ok := eventTypeIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListScheduledOccupancy(r.Context(), eventTypeID, h.now())
	if err != nil {
		h.writeServiceError(w, err, "failed to list occupancy")
		return
	}

	items := make([]occupancyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, occupancyItem{
			StartTime:         e.Start.UTC().Format(time.RFC3339),
			EndTime:           e.End.UTC().Format(time.RFC3339),
			Occupancy:         e.Occupancy,
			CapacityTotal:     e.CapacityTotal,
			CapacityRemaining: e.CapacityRemaining,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.EventTypeID <= 0 || req.Email == "" {
		http.Error(w, "event_type_id and email are required", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}

	gender := model.Gender(strings.ToLower(strings.TrimSpace(req.Gender)))
	if gender == "" {
		gender = model.GenderAny
	}
	if !gender.Valid() {
		http.Error(w, "invalid gender", http.StatusBadRequest)
		return
	}

	appt, err := h.service.CreateAppointment(r.Context(), booking.NewBookingRequest{
		EventTypeID: req.EventTypeID,
		StartTime:   startTime,
		EndTime:     endTime,
		User: model.User{
			Email:     req.Email,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Gender:    gender,
		},
	}, h.now())
	if err != nil {
		h.writeServiceError(w, err, "failed to create appointment")
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID: appt.ID,
		EventTypeID:   appt.EventTypeID,
		UserID:        appt.UserID,
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
	})
}

func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	appt, err := h.canceler.CancelAppointment(r.Context(), req.AppointmentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cancel failed", "appointment_id", req.AppointmentID, "err", err)
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{AppointmentID: appt.ID, Status: "cancelled"})
}

// writeServiceError maps validation outcomes to client statuses; anything
// without a kind is a server-side failure.
func (h *PublicHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if kind, ok := booking.KindOf(err); ok {
		http.Error(w, err.Error(), statusForKind(kind))
		return
	}
	h.logger.Error(fallback, "err", err)
	http.Error(w, fallback, http.StatusInternalServerError)
}

func statusForKind(kind booking.Kind) int {
	switch kind {
	case booking.KindInvalidRange:
		return http.StatusBadRequest
	case booking.KindEventTypeNotFound, booking.KindConfigNotFound:
		return http.StatusNotFound
	case booking.KindSlotFull:
		return http.StatusConflict
	case booking.KindOutOfHorizon, booking.KindBlackedOut, booking.KindEventTypeMismatch, booking.KindMisalignedSlot:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func eventTypeIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("event_type_id"))
	if raw == "" {
		http.Error(w, "event_type_id required", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid event_type_id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
