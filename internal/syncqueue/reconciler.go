package syncqueue

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/carebridge/appointment-triage/internal/metrics"
	redisclient "github.com/carebridge/appointment-triage/internal/redis"
	"github.com/carebridge/appointment-triage/internal/scheduling"
)

// Rejection reasons reported back to the caller.
const (
	ReasonValidation   = "ValidationError"
	ReasonSlotConflict = "SlotConflict"
	ReasonStaffBusy    = "StaffBusy"
	ReasonInternal     = "Internal"
)

type Rejection struct {
	Entry   Entry  `json:"entry"`
	Reason  string `json:"reason"`
	Message string `json:"message"`

	// Retryable entries keep their place in the queue; non-retryable ones
	// (past-dated, malformed) are dropped and the caller is told why.
	Retryable bool `json:"retryable"`
}

type Result struct {
	Accepted []scheduling.Appointment `json:"accepted"`
	Rejected []Rejection              `json:"rejected"`
}

// Booker is the slice of the scheduling service the reconciler needs.
type Booker interface {
	Book(ctx context.Context, req scheduling.BookingRequest) (*scheduling.Appointment, error)
}

// eventRecorder is implemented by bookers that also keep an audit log. A
// SYNCED entry is recorded for each accepted offline booking.
type eventRecorder interface {
	RecordEvent(ctx context.Context, appointmentID *uuid.UUID, action string, payload map[string]any)
}

// Reconciler merges offline-queued appointment creations into server state by
// replaying each entry through the normal booking path. Entries are processed
// independently and in order; one bad entry never aborts the batch.
type Reconciler struct {
	booker  Booker
	metrics *metrics.SchedulingMetrics
}

func NewReconciler(booker Booker, m *metrics.SchedulingMetrics) *Reconciler {
	return &Reconciler{
		booker:  booker,
		metrics: m,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, entries []Entry) Result {
	var result Result

	for _, entry := range entries {
		req := scheduling.BookingRequest{
			PatientID:   entry.PatientID,
			ScheduledAt: entry.ScheduledAt,
			Symptoms:    entry.Symptoms,
			StaffID:     entry.StaffID,
			ClinicID:    entry.ClinicID,
		}

		appt, err := r.booker.Book(ctx, req)
		if err != nil {
			rej := classify(entry, err)
			result.Rejected = append(result.Rejected, rej)
			if rej.Retryable {
				r.metrics.ObserveSyncEntry("rejected")
			} else {
				r.metrics.ObserveSyncEntry("dropped")
			}
			log.Printf("sync entry for patient %s rejected: %s (%s)", entry.PatientID, rej.Reason, rej.Message)
			continue
		}

		result.Accepted = append(result.Accepted, *appt)
		r.metrics.ObserveSyncEntry("accepted")

		if rec, ok := r.booker.(eventRecorder); ok {
			rec.RecordEvent(ctx, &appt.ID, scheduling.EventSynced, map[string]any{
				"patient_id": entry.PatientID.String(),
				"queued_at":  entry.QueuedAt,
			})
		}
	}

	return result
}

func classify(entry Entry, err error) Rejection {
	rej := Rejection{Entry: entry, Message: err.Error()}

	switch {
	case errors.Is(err, scheduling.ErrValidation):
		// A past-dated or malformed entry will never succeed, drop it.
		rej.Reason = ReasonValidation
		rej.Retryable = false
	case errors.Is(err, scheduling.ErrSlotConflict):
		rej.Reason = ReasonSlotConflict
		rej.Retryable = true
	case errors.Is(err, scheduling.ErrStaffBeingBooked), errors.Is(err, redisclient.ErrLockNotAcquired):
		rej.Reason = ReasonStaffBusy
		rej.Retryable = true
	default:
		rej.Reason = ReasonInternal
		rej.Retryable = true
	}

	return rej
}
