package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStatusChanged is returned by compare-and-set updates when the stored
	// status no longer matches the one the caller observed.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// CreateAppointment persists a new appointment in scheduled status and
	// returns the stored row.
	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateStatus is a compare-and-set: it only applies when the stored
	// status still equals from, otherwise it returns ErrStatusChanged.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// UpdateSchedule moves an appointment to a new time, records the previous
	// time, bumps the reschedule count and sets status to rescheduled. Like
	// UpdateStatus it is guarded on the observed status.
	UpdateSchedule(ctx context.Context, id uuid.UUID, from Status, newTime time.Time) (*Appointment, error)

	// ListActiveByStaffBetween returns non-terminal appointments for a staff
	// member whose scheduled_at lies strictly inside (from, to). Used by the
	// availability checker.
	ListActiveByStaffBetween(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// ListActive returns all non-terminal appointments, for the triage queue.
	ListActive(ctx context.Context) ([]Appointment, error)

	// ListByScheduledBetween returns all appointments, terminal included,
	// scheduled inside [from, to]. Used by alert derivation.
	ListByScheduledBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// Event logging, best effort
	InsertEvent(ctx context.Context, ev EventLog) error
}
