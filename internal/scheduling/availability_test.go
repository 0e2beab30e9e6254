package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActive(repo *mockRepository, staffID uuid.UUID, at time.Time) uuid.UUID {
	id := uuid.New()
	repo.appointments[id] = &Appointment{
		ID:          id,
		PatientID:   uuid.New(),
		StaffID:     &staffID,
		ScheduledAt: at,
		Status:      StatusScheduled,
	}
	return id
}

func TestIsAvailableOverlapWindow(t *testing.T) {
	repo := newMockRepository()
	checker := NewAvailabilityChecker(repo, 30*time.Minute)

	staffID := uuid.New()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	seedActive(repo, staffID, base)

	tests := []struct {
		name     string
		proposed time.Time
		want     bool
	}{
		{"same time", base, false},
		{"15 min later", base.Add(15 * time.Minute), false},
		{"29 min later", base.Add(29 * time.Minute), false},
		{"back to back after", base.Add(30 * time.Minute), true},
		{"15 min earlier", base.Add(-15 * time.Minute), false},
		{"back to back before", base.Add(-30 * time.Minute), true},
		{"well clear", base.Add(3 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.IsAvailable(context.Background(), staffID, tt.proposed, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAvailableIgnoresTerminalAndOtherStaff(t *testing.T) {
	repo := newMockRepository()
	checker := NewAvailabilityChecker(repo, 30*time.Minute)

	staffID := uuid.New()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	cancelledID := seedActive(repo, staffID, base)
	repo.appointments[cancelledID].Status = StatusCancelled

	seedActive(repo, uuid.New(), base) // someone else's schedule

	got, err := checker.IsAvailable(context.Background(), staffID, base, nil)
	require.NoError(t, err)
	assert.True(t, got, "terminal appointments do not occupy the slot")
}

func TestIsAvailableExcludesOwnSlot(t *testing.T) {
	repo := newMockRepository()
	checker := NewAvailabilityChecker(repo, 30*time.Minute)

	staffID := uuid.New()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	ownID := seedActive(repo, staffID, base)

	got, err := checker.IsAvailable(context.Background(), staffID, base.Add(10*time.Minute), &ownID)
	require.NoError(t, err)
	assert.True(t, got, "a reschedule never collides with its own prior slot")

	seedActive(repo, staffID, base.Add(20*time.Minute))
	got, err = checker.IsAvailable(context.Background(), staffID, base.Add(10*time.Minute), &ownID)
	require.NoError(t, err)
	assert.False(t, got, "other appointments still conflict")
}

func TestIntervalsOverlap(t *testing.T) {
	base := time.Now()

	assert.True(t, intervalsOverlap(base, base.Add(30*time.Minute), base.Add(15*time.Minute), base.Add(45*time.Minute)))
	assert.False(t, intervalsOverlap(base, base.Add(30*time.Minute), base.Add(30*time.Minute), base.Add(time.Hour)))
	assert.False(t, intervalsOverlap(base.Add(30*time.Minute), base.Add(time.Hour), base, base.Add(30*time.Minute)))
	assert.True(t, intervalsOverlap(base, base.Add(time.Hour), base.Add(15*time.Minute), base.Add(20*time.Minute)))
}
