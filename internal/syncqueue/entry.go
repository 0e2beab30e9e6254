package syncqueue

import (
	"time"

	"github.com/google/uuid"
)

// Entry is an appointment-creation request buffered while the client was
// offline. It has no server-assigned id; one is minted when the entry is
// accepted through the normal booking path.
type Entry struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Symptoms    string     `json:"symptoms"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	ClinicID    *uuid.UUID `json:"clinic_id,omitempty"`
	QueuedAt    time.Time  `json:"queued_at"`
}
