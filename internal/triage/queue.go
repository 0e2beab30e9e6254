package triage

import (
	"sort"
	"time"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

// SortForTriage orders a snapshot of appointments for staff review: urgency
// tier first (urgent before moderate before routine), soonest scheduled time
// as the tie-break. Only non-terminal appointments that are current or in the
// future are included. The input slice is not modified; the same snapshot
// always yields the same ordering.
func SortForTriage(appointments []scheduling.Appointment, now time.Time) []scheduling.Appointment {
	queue := make([]scheduling.Appointment, 0, len(appointments))
	for _, appt := range appointments {
		if appt.Status.Terminal() {
			continue
		}
		if appt.ScheduledAt.Before(now) {
			continue
		}
		queue = append(queue, appt)
	}

	sort.SliceStable(queue, func(i, j int) bool {
		ri, rj := queue[i].Urgency.Rank(), queue[j].Urgency.Rank()
		if ri != rj {
			return ri < rj
		}
		return queue[i].ScheduledAt.Before(queue[j].ScheduledAt)
	})

	return queue
}
