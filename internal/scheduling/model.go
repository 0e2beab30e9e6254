package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusRescheduled Status = "rescheduled"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
)

// ActiveStatuses are the non-terminal statuses. Only appointments in one of
// these states occupy a staff slot and accept further transitions.
var ActiveStatuses = []Status{StatusScheduled, StatusRescheduled, StatusInProgress}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusRescheduled, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyRoutine  Urgency = "routine"
	UrgencyModerate Urgency = "moderate"
	UrgencyUrgent   Urgency = "urgent"
)

// Rank returns the triage sort rank for an urgency tier, lower sorts first.
// Unknown values rank after routine so a bad scorer payload never jumps the queue.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyUrgent:
		return 1
	case UrgencyModerate:
		return 2
	case UrgencyRoutine:
		return 3
	}
	return 4
}

type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleStaff, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Actor identifies the caller of a guarded operation. Identity comes from the
// auth layer; the core only needs the user id and role.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	StaffID   *uuid.UUID
	ClinicID  *uuid.UUID

	ScheduledAt time.Time
	Symptoms    string

	// Set once at booking time by the scorer, never mutated afterwards.
	Urgency    Urgency
	NoShowRisk *float64

	Status Status

	CreatedAt   time.Time
	LastUpdated time.Time

	// Explicit reschedule history. Clients used to infer "was rescheduled"
	// from LastUpdated > CreatedAt, which misfires on any other mutation.
	RescheduledCount    int
	PreviousScheduledAt *time.Time
}

// Active reports whether the appointment still occupies its staff slot.
func (a *Appointment) Active() bool {
	return !a.Status.Terminal()
}

type EventLog struct {
	ID            int64
	Action        string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
