package triage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

func makeAppt(urgency scheduling.Urgency, status scheduling.Status, at time.Time) scheduling.Appointment {
	return scheduling.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ScheduledAt: at,
		Urgency:     urgency,
		Status:      status,
	}
}

func TestSortForTriageOrdering(t *testing.T) {
	now := time.Now()

	routineSoon := makeAppt(scheduling.UrgencyRoutine, scheduling.StatusScheduled, now.Add(1*time.Hour))
	urgentLater := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(48*time.Hour))
	moderate := makeAppt(scheduling.UrgencyModerate, scheduling.StatusRescheduled, now.Add(2*time.Hour))
	urgentSoon := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(3*time.Hour))

	queue := SortForTriage([]scheduling.Appointment{routineSoon, urgentLater, moderate, urgentSoon}, now)

	require.Len(t, queue, 4)
	// Urgent first even though the routine case is scheduled earlier.
	assert.Equal(t, urgentSoon.ID, queue[0].ID)
	assert.Equal(t, urgentLater.ID, queue[1].ID)
	assert.Equal(t, moderate.ID, queue[2].ID)
	assert.Equal(t, routineSoon.ID, queue[3].ID)
}

func TestSortForTriageFiltersTerminalAndPast(t *testing.T) {
	now := time.Now()

	included := makeAppt(scheduling.UrgencyRoutine, scheduling.StatusScheduled, now.Add(time.Hour))
	past := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(-time.Hour))
	completed := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusCompleted, now.Add(time.Hour))
	cancelled := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusCancelled, now.Add(time.Hour))
	inProgress := makeAppt(scheduling.UrgencyModerate, scheduling.StatusInProgress, now.Add(time.Hour))

	queue := SortForTriage([]scheduling.Appointment{included, past, completed, cancelled, inProgress}, now)

	require.Len(t, queue, 2)
	assert.Equal(t, inProgress.ID, queue[0].ID)
	assert.Equal(t, included.ID, queue[1].ID)
}

func TestSortForTriageIsPure(t *testing.T) {
	now := time.Now()

	snapshot := []scheduling.Appointment{
		makeAppt(scheduling.UrgencyRoutine, scheduling.StatusScheduled, now.Add(2*time.Hour)),
		makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(4*time.Hour)),
		makeAppt(scheduling.UrgencyModerate, scheduling.StatusScheduled, now.Add(1*time.Hour)),
	}
	original := make([]scheduling.Appointment, len(snapshot))
	copy(original, snapshot)

	first := SortForTriage(snapshot, now)
	second := SortForTriage(snapshot, now)

	assert.Equal(t, first, second, "same snapshot must yield the identical ordering")
	assert.Equal(t, original, snapshot, "input snapshot must not be mutated")
}

func TestSortForTriageStableWithinTier(t *testing.T) {
	now := time.Now()
	at := now.Add(2 * time.Hour)

	a := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, at)
	b := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, at)
	c := makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, at)

	queue := SortForTriage([]scheduling.Appointment{a, b, c}, now)

	require.Len(t, queue, 3)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, []uuid.UUID{queue[0].ID, queue[1].ID, queue[2].ID})
}
