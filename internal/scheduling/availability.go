package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilityChecker decides whether a proposed time collides with an
// existing active appointment for the same staff member. Every appointment
// occupies a fixed-duration window [scheduled_at, scheduled_at+duration).
type AvailabilityChecker struct {
	repo     Repository
	duration time.Duration
}

func NewAvailabilityChecker(repo Repository, duration time.Duration) *AvailabilityChecker {
	return &AvailabilityChecker{
		repo:     repo,
		duration: duration,
	}
}

// IsAvailable reports whether the staff member is free at proposed. A conflict
// is a result, not an error. excluding lets a reschedule skip the
// appointment's own current slot.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, staffID uuid.UUID, proposed time.Time, excluding *uuid.UUID) (bool, error) {
	// Any active appointment starting inside (proposed-duration, proposed+duration)
	// overlaps the proposed window.
	from := proposed.Add(-c.duration)
	to := proposed.Add(c.duration)

	existing, err := c.repo.ListActiveByStaffBetween(ctx, staffID, from, to)
	if err != nil {
		return false, fmt.Errorf("list staff appointments: %w", err)
	}

	for i := range existing {
		appt := &existing[i]
		if excluding != nil && appt.ID == *excluding {
			continue
		}
		if intervalsOverlap(appt.ScheduledAt, appt.ScheduledAt.Add(c.duration), proposed, proposed.Add(c.duration)) {
			return false, nil
		}
	}

	return true, nil
}

func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
