package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slotsmith/slotsmith/internal/availability"
	"github.com/slotsmith/slotsmith/internal/model"
)

// Service is the slot availability and booking validation engine. It holds
// no state of its own: every call works on a snapshot of config, blackout
// windows, and appointments fetched from the stores.
type Service struct {
	eventTypes   EventTypeStore
	configs      ConfigStore
	blackouts    BlackoutStore
	appointments AppointmentStore
	users        UserStore
	logger       *slog.Logger
	loc          *time.Location
}

func NewService(
	eventTypes EventTypeStore,
	configs ConfigStore,
	blackouts BlackoutStore,
	appointments AppointmentStore,
	users UserStore,
	logger *slog.Logger,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		eventTypes:   eventTypes,
		configs:      configs,
		blackouts:    blackouts,
		appointments: appointments,
		users:        users,
		logger:       logger,
		loc:          loc,
	}
}

// ListAvailableSlots returns every bookable slot for the event type from
// now to the configured horizon, net of blackout windows and existing
// bookings.
func (s *Service) ListAvailableSlots(ctx context.Context, eventTypeID int64, now time.Time) ([]availability.Slot, error) {
	cfg, err := s.resolveConfig(ctx, model.EventScope(eventTypeID))
	if err != nil {
		return nil, err
	}
	windows, err := s.effectiveBlackouts(ctx, model.EventScope(eventTypeID))
	if err != nil {
		return nil, err
	}

	engCfg := engineConfig(cfg)
	var slots []availability.Slot
	for _, day := range availability.DayWindows(now, cfg.MaxBookingHorizonDays, s.loc) {
		ranges := availability.ResolveForDate(windows, day.Start, s.loc)
		for _, slot := range availability.Slots(day, engCfg, ranges) {
			if slot.Start.Before(now) {
				continue
			}
			slots = append(slots, slot)
		}
	}

	booked, err := s.bookedRanges(ctx, eventTypeID, now, cfg.MaxBookingHorizonDays)
	if err != nil {
		return nil, err
	}
	if over := availability.ReduceExact(slots, booked); over > 0 {
		s.logger.Warn("existing bookings exceed slot capacity; remaining clamped to zero",
			"event_type_id", eventTypeID, "slots", over)
	}
	return slots, nil
}

// ListScheduledOccupancy returns the overlap-aware consumption view of
// already-placed appointments over the horizon.
func (s *Service) ListScheduledOccupancy(ctx context.Context, eventTypeID int64, now time.Time) ([]availability.SlotOccupancy, error) {
	cfg, err := s.resolveConfig(ctx, model.EventScope(eventTypeID))
	if err != nil {
		return nil, err
	}

	booked, err := s.bookedRanges(ctx, eventTypeID, now, cfg.MaxBookingHorizonDays)
	if err != nil {
		return nil, err
	}

	entries, over := availability.Occupancy(booked, time.Duration(cfg.SlotLengthMinutes)*time.Minute, cfg.MaxParallelClients)
	if over > 0 {
		s.logger.Warn("occupancy exceeds slot capacity; remaining clamped to zero",
			"event_type_id", eventTypeID, "slots", over)
	}
	for i := range entries {
		entries[i].Start = entries[i].Start.In(s.loc)
		entries[i].End = entries[i].End.In(s.loc)
	}
	return entries, nil
}

// CreateAppointment runs the validation pipeline against the proposed
// booking and persists it on success. Checks run in a fixed order and the
// first failure is terminal for the request.
func (s *Service) CreateAppointment(ctx context.Context, req NewBookingRequest, now time.Time) (model.Appointment, error) {
	var none model.Appointment

	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.StartTime.Before(req.EndTime) {
		return none, reject(KindInvalidRange, "start time must precede end time")
	}

	scope := model.EventScope(req.EventTypeID)
	cfg, err := s.resolveConfig(ctx, scope)
	if err != nil {
		return none, err
	}

	horizonEnd := now.AddDate(0, 0, cfg.MaxBookingHorizonDays)
	if req.StartTime.Before(now) || req.StartTime.After(horizonEnd) || req.EndTime.After(horizonEnd) {
		return none, reject(KindOutOfHorizon, "booking must start between now and %d days ahead", cfg.MaxBookingHorizonDays)
	}

	windows, err := s.effectiveBlackouts(ctx, scope)
	if err != nil {
		return none, err
	}
	dayRanges := availability.ResolveForDate(windows, req.StartTime, s.loc)
	proposed := availability.TimeRange{Start: req.StartTime, End: req.EndTime}
	for _, r := range dayRanges {
		if availability.Overlaps(proposed, r) {
			return none, reject(KindBlackedOut, "requested time falls in a blackout window")
		}
	}

	eventType, err := s.eventTypes.GetEventType(ctx, req.EventTypeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return none, reject(KindEventTypeNotFound, "event type %d not found", req.EventTypeID)
		}
		return none, storageErr("get event type", err)
	}
	wantMinutes := cfg.SlotLengthMinutes
	if eventType.DurationMinutes > 0 {
		wantMinutes = eventType.DurationMinutes
	}
	if int(req.EndTime.Sub(req.StartTime)/time.Minute) != wantMinutes {
		return none, reject(KindEventTypeMismatch, "booking length must be exactly %d minutes", wantMinutes)
	}

	engCfg := engineConfig(cfg)
	gridRef := availability.NearestPrecedingBlackoutEnd(dayRanges, req.StartTime,
		availability.StartOfDay(req.StartTime, s.loc))
	if !availability.AlignedToSlotBoundary(req.StartTime, gridRef, engCfg) {
		return none, reject(KindMisalignedSlot, "start time is not on a slot boundary")
	}

	user, err := s.users.GetOrCreateByEmail(ctx, req.User)
	if err != nil {
		return none, storageErr("resolve user", err)
	}

	appt := model.Appointment{
		EventTypeID: req.EventTypeID,
		UserID:      user.ID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.appointments.CreateIfCapacity(ctx, &appt, cfg.MaxParallelClients); err != nil {
		if errors.Is(err, model.ErrCapacityExhausted) {
			return none, reject(KindSlotFull, "slot has no remaining capacity")
		}
		return none, storageErr("create appointment", err)
	}
	return appt, nil
}

// resolveConfig returns the scope's config, falling back from the
// event-specific row to the shared global row.
func (s *Service) resolveConfig(ctx context.Context, scope model.Scope) (model.EventConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, scope)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.EventConfig{}, storageErr("get config", err)
	}
	if !scope.Global() {
		cfg, err = s.configs.GetConfig(ctx, model.GlobalScope())
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.EventConfig{}, storageErr("get config", err)
		}
	}
	return model.EventConfig{}, reject(KindConfigNotFound, "no configuration for scope %s", scope)
}

// effectiveBlackouts is the union of the event-scoped windows and the
// global ones; a global blackout closes every event type.
func (s *Service) effectiveBlackouts(ctx context.Context, scope model.Scope) ([]model.BlackoutWindow, error) {
	windows, err := s.blackouts.ListBlackouts(ctx, scope)
	if err != nil {
		return nil, storageErr("list blackouts", err)
	}
	if !scope.Global() {
		global, err := s.blackouts.ListBlackouts(ctx, model.GlobalScope())
		if err != nil {
			return nil, storageErr("list blackouts", err)
		}
		windows = append(windows, global...)
	}
	return windows, nil
}

func (s *Service) bookedRanges(ctx context.Context, eventTypeID int64, now time.Time, horizonDays int) ([]availability.TimeRange, error) {
	appts, err := s.appointments.FindInRange(ctx, eventTypeID, availability.TimeRange{
		Start: now,
		End:   now.AddDate(0, 0, horizonDays),
	})
	if err != nil {
		return nil, storageErr("find appointments", err)
	}
	ranges := make([]availability.TimeRange, 0, len(appts))
	for _, a := range appts {
		ranges = append(ranges, availability.TimeRange{Start: a.StartTime, End: a.EndTime})
	}
	return ranges, nil
}

func engineConfig(cfg model.EventConfig) availability.Config {
	return availability.Config{
		SlotLength: time.Duration(cfg.SlotLengthMinutes) * time.Minute,
		Break:      time.Duration(cfg.BreakMinutes) * time.Minute,
		Capacity:   cfg.MaxParallelClients,
	}
}
