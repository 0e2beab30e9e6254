package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/appointment-triage/internal/retrain"
	"github.com/carebridge/appointment-triage/internal/scheduling"
	"github.com/carebridge/appointment-triage/internal/syncqueue"
	"github.com/carebridge/appointment-triage/internal/triage"
)

// EventRecorder writes best-effort audit entries. Implemented by the
// scheduling service; a nil recorder disables auditing.
type EventRecorder interface {
	RecordEvent(ctx context.Context, appointmentID *uuid.UUID, action string, payload map[string]any)
}

// SchedulingService is the slice of the scheduling core the handlers use.
type SchedulingService interface {
	Book(ctx context.Context, req scheduling.BookingRequest) (*scheduling.Appointment, error)
	Reschedule(ctx context.Context, req scheduling.RescheduleRequest, actor scheduling.Actor) (*scheduling.Appointment, error)
	UpdateStatus(ctx context.Context, req scheduling.StatusUpdateRequest, actor scheduling.Actor) (*scheduling.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	ListActive(ctx context.Context) ([]scheduling.Appointment, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error)
}

func bookAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "caller identity is required")
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		booking := scheduling.BookingRequest{
			ScheduledAt: req.ScheduledAt,
			Symptoms:    req.Symptoms,
		}

		// Patients always book for themselves; staff and admin may book on a
		// patient's behalf.
		if actor.Role == scheduling.RolePatient {
			booking.PatientID = actor.UserID
		} else {
			patientID, err := uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			booking.PatientID = patientID
		}

		if req.StaffID != "" {
			staffID, err := uuid.Parse(req.StaffID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
				return
			}
			booking.StaffID = &staffID
		}

		if req.ClinicID != "" {
			clinicID, err := uuid.Parse(req.ClinicID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
				return
			}
			booking.ClinicID = &clinicID
		}

		appt, err := svc.Book(r.Context(), booking)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Reschedule(r.Context(), scheduling.RescheduleRequest{
			AppointmentID: id,
			NewTime:       req.NewScheduledAt,
		}, actor)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "caller identity is required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), scheduling.StatusUpdateRequest{
			AppointmentID: id,
			NewStatus:     scheduling.Status(req.Status),
		}, actor)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func triageQueueHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := svc.ListActive(r.Context())
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		queue := triage.SortForTriage(active, time.Now())

		resp := make([]AppointmentResponse, 0, len(queue))
		for i := range queue {
			resp = append(resp, toAppointmentResponse(&queue[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func alertsHandler(svc SchedulingService, window time.Duration, thresholds triage.Thresholds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("window"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_window", "window must be a positive duration such as 168h")
				return
			}
			window = parsed
		}

		now := time.Now()

		// Both trailing no-shows and upcoming urgent cases live in the window.
		appts, err := svc.ListWindow(r.Context(), now.Add(-window), now.Add(window))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		alerts := triage.DeriveAlerts(appts, now, thresholds)
		if alerts == nil {
			alerts = []triage.Alert{}
		}

		writeJSON(w, http.StatusOK, alerts)
	}
}

func syncBatchHandler(reconciler *syncqueue.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Appointments == nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "appointments must be an array")
			return
		}

		result := reconciler.Reconcile(r.Context(), req.Appointments)

		resp := SyncBatchResponse{
			Accepted: make([]AppointmentResponse, 0, len(result.Accepted)),
			Rejected: result.Rejected,
		}
		if resp.Rejected == nil {
			resp.Rejected = []syncqueue.Rejection{}
		}
		for i := range result.Accepted {
			resp.Accepted = append(resp.Accepted, toAppointmentResponse(&result.Accepted[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func triggerRetrainHandler(runner *retrain.Runner, events EventRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := runner.Trigger(r.Context())
		if err != nil {
			if errors.Is(err, retrain.ErrAlreadyRunning) {
				writeError(w, http.StatusConflict, "retrain_in_progress", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		if events != nil {
			actor, _ := GetActor(r.Context())
			events.RecordEvent(r.Context(), nil, scheduling.EventRetrainRequested, map[string]any{
				"by": actor.UserID.String(),
			})

			go func() {
				res, err := task.Wait(context.Background())
				if err != nil {
					return
				}
				events.RecordEvent(context.Background(), nil, scheduling.EventRetrainCompleted, map[string]any{
					"success":  res.Success,
					"duration": res.FinishedAt.Sub(res.StartedAt).String(),
				})
			}()
		}

		writeJSON(w, http.StatusAccepted, RetrainTriggeredResponse{Status: "started"})
	}
}

func retrainStatusHandler(runner *retrain.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := RetrainStatusResponse{Running: runner.Running()}
		if last, ok := runner.LastResult(); ok {
			resp.Last = &last
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "requested time is taken, pick another slot")
	case errors.Is(err, scheduling.ErrStaffBeingBooked):
		writeError(w, http.StatusConflict, "staff_being_booked", "staff member is currently being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrTerminalState):
		writeError(w, http.StatusConflict, "appointment_closed", "this appointment is already closed out")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrStatusChanged):
		writeError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, scheduling.ErrActorNotAllowed):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
