package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/appointment-triage/internal/metrics"
	redisclient "github.com/carebridge/appointment-triage/internal/redis"
)

const (
	EventBooked           = "BOOKED"
	EventRescheduled      = "RESCHEDULED"
	EventStatusChanged    = "STATUS_CHANGED"
	EventCancelled        = "CANCELLED"
	EventSynced           = "SYNCED"
	EventScoringFallback  = "SCORING_FALLBACK"
	EventRetrainRequested = "RETRAIN_REQUESTED"
	EventRetrainCompleted = "RETRAIN_COMPLETED"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrSlotConflict      = errors.New("requested time conflicts with an existing appointment")
	ErrStaffBeingBooked  = errors.New("staff member is currently being booked, please retry")
	ErrTerminalState     = errors.New("appointment is already closed out")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrActorNotAllowed   = errors.New("caller is not allowed to perform this operation")
)

// ScoreResult is what the external triage scorer produces for a booking.
// NoShowRisk is nil when the predictor had nothing to say.
type ScoreResult struct {
	Urgency    Urgency
	NoShowRisk *float64
}

// Scorer classifies symptom text. Implementations may fail or time out;
// the service falls back to routine/nil and never blocks a booking on it.
type Scorer interface {
	Score(ctx context.Context, symptoms string) (ScoreResult, error)
}

type BookingRequest struct {
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Symptoms    string
	StaffID     *uuid.UUID
	ClinicID    *uuid.UUID
}

type RescheduleRequest struct {
	AppointmentID uuid.UUID
	NewTime       time.Time
}

type StatusUpdateRequest struct {
	AppointmentID uuid.UUID
	NewStatus     Status
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	scorer  Scorer
	checker *AvailabilityChecker
	metrics *metrics.SchedulingMetrics
}

func NewService(repo Repository, locker redisclient.Locker, scorer Scorer, checker *AvailabilityChecker, m *metrics.SchedulingMetrics) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		scorer:  scorer,
		checker: checker,
		metrics: m,
	}
}

// Book validates the request, scores it, checks staff availability and creates
// the appointment in scheduled status. The availability check and the insert
// run inside a per-staff distributed lock so that two concurrent requests for
// overlapping slots cannot both succeed. Bookings without an assigned staff
// member skip both the lock and the conflict check.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	now := time.Now()

	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return nil, fmt.Errorf("%w: symptoms are required", ErrValidation)
	}
	if !req.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	}

	score := s.scoreWithFallback(ctx, req.Symptoms)

	appt := &Appointment{
		ID:          uuid.New(),
		PatientID:   req.PatientID,
		StaffID:     req.StaffID,
		ClinicID:    req.ClinicID,
		ScheduledAt: req.ScheduledAt,
		Symptoms:    req.Symptoms,
		Urgency:     score.Urgency,
		NoShowRisk:  score.NoShowRisk,
		Status:      StatusScheduled,
		CreatedAt:   now,
		LastUpdated: now,
	}

	var created *Appointment

	if req.StaffID == nil {
		var err error
		created, err = s.repo.CreateAppointment(ctx, appt)
		if err != nil {
			s.metrics.ObserveBooking("error", string(score.Urgency))
			return nil, fmt.Errorf("create appointment: %w", err)
		}
	} else {
		err := s.locker.WithStaffLock(ctx, *req.StaffID, func(lockCtx context.Context) error {
			free, err := s.checker.IsAvailable(lockCtx, *req.StaffID, req.ScheduledAt, nil)
			if err != nil {
				return fmt.Errorf("check availability: %w", err)
			}
			if !free {
				return ErrSlotConflict
			}

			created, err = s.repo.CreateAppointment(lockCtx, appt)
			if err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}
			return nil
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrSlotConflict):
				s.metrics.ObserveSlotConflict()
				s.metrics.ObserveBooking("conflict", string(score.Urgency))
			case errors.Is(err, redisclient.ErrLockNotAcquired):
				s.metrics.ObserveBooking("conflict", string(score.Urgency))
				err = ErrStaffBeingBooked
			default:
				s.metrics.ObserveBooking("error", string(score.Urgency))
			}
			return nil, err
		}
	}

	s.metrics.ObserveBooking("created", string(score.Urgency))
	s.logEvent(ctx, &created.ID, EventBooked, map[string]any{
		"patient_id":   created.PatientID.String(),
		"scheduled_at": created.ScheduledAt,
		"urgency":      created.Urgency,
	})

	return created, nil
}

// Reschedule moves a non-terminal appointment to a new future time after
// re-validating availability against the new time, excluding the
// appointment's own current slot.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status.Terminal() {
		return nil, ErrTerminalState
	}
	if !canReschedule(appt.Status) {
		return nil, ErrInvalidTransition
	}
	if !actorMayReschedule(actor, appt) {
		return nil, ErrActorNotAllowed
	}
	if !req.NewTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: new time must be in the future", ErrValidation)
	}

	previous := appt.ScheduledAt

	var updated *Appointment

	apply := func(applyCtx context.Context) error {
		if appt.StaffID != nil {
			free, err := s.checker.IsAvailable(applyCtx, *appt.StaffID, req.NewTime, &appt.ID)
			if err != nil {
				return fmt.Errorf("check availability: %w", err)
			}
			if !free {
				return ErrSlotConflict
			}
		}

		updated, err = s.repo.UpdateSchedule(applyCtx, appt.ID, appt.Status, req.NewTime)
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		return nil
	}

	if appt.StaffID != nil {
		err = s.locker.WithStaffLock(ctx, *appt.StaffID, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.metrics.ObserveSlotConflict()
			return nil, ErrSlotConflict
		}
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrStaffBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, &updated.ID, EventRescheduled, map[string]any{
		"from": previous,
		"to":   updated.ScheduledAt,
		"by":   actor.UserID.String(),
	})

	return updated, nil
}

// UpdateStatus applies a transition from the table in transitions.go. Terminal
// appointments always reject with ErrTerminalState, missing edges with
// ErrInvalidTransition. Marking no-show before the scheduled time is refused.
func (s *Service) UpdateStatus(ctx context.Context, req StatusUpdateRequest, actor Actor) (*Appointment, error) {
	if !req.NewStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.NewStatus)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status.Terminal() {
		return nil, ErrTerminalState
	}
	if !transitionAllowed(appt.Status, req.NewStatus) {
		return nil, ErrInvalidTransition
	}
	if !actorMayTransition(actor, appt, req.NewStatus) {
		return nil, ErrActorNotAllowed
	}
	if req.NewStatus == StatusNoShow && time.Now().Before(appt.ScheduledAt) {
		return nil, fmt.Errorf("%w: cannot mark no-show before the scheduled time", ErrValidation)
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, req.NewStatus)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	action := EventStatusChanged
	if req.NewStatus == StatusCancelled {
		action = EventCancelled
	}
	s.logEvent(ctx, &updated.ID, action, map[string]any{
		"from": appt.Status,
		"to":   updated.Status,
		"by":   actor.UserID.String(),
	})

	return updated, nil
}

// Cancel is a convenience wrapper over UpdateStatus. It is permitted from any
// non-terminal state; cancelling an already closed appointment fails with
// ErrTerminalState rather than silently succeeding.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	return s.UpdateStatus(ctx, StatusUpdateRequest{AppointmentID: id, NewStatus: StatusCancelled}, actor)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListActive returns the snapshot the triage sorter works from.
func (s *Service) ListActive(ctx context.Context) ([]Appointment, error) {
	appts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	return appts, nil
}

// ListWindow returns all appointments scheduled inside [from, to], terminal
// included, for alert derivation.
func (s *Service) ListWindow(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	appts, err := s.repo.ListByScheduledBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments in window: %w", err)
	}
	return appts, nil
}

// scoreWithFallback never fails: scorer downtime must not take the clinic down
// with it. On any scorer error the booking proceeds with routine/nil defaults.
func (s *Service) scoreWithFallback(ctx context.Context, symptoms string) ScoreResult {
	res, err := s.scorer.Score(ctx, symptoms)
	if err != nil {
		log.Printf("triage scorer unavailable, using fallback defaults: %v", err)
		s.metrics.ObserveScorerFallback()
		s.logEvent(ctx, nil, EventScoringFallback, map[string]any{
			"error": err.Error(),
		})
		return ScoreResult{Urgency: UrgencyRoutine}
	}

	if res.Urgency.Rank() > UrgencyRoutine.Rank() {
		log.Printf("scorer returned unknown urgency %q, treating as routine", res.Urgency)
		res.Urgency = UrgencyRoutine
	}

	return res
}

// RecordEvent writes a best-effort audit entry on behalf of a collaborator,
// such as the sync reconciler or the retrain endpoint.
func (s *Service) RecordEvent(ctx context.Context, appointmentID *uuid.UUID, action string, payload map[string]any) {
	s.logEvent(ctx, appointmentID, action, payload)
}

func (s *Service) logEvent(ctx context.Context, appointmentID *uuid.UUID, action string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", action, err)
		data = nil
	}

	ev := EventLog{
		Action:        action,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s: %v", action, err)
	}
}
