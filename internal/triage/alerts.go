package triage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	AlertUrgentCases    = "urgent_cases"
	AlertNoShowRate     = "no_show_rate"
	AlertHighNoShowRisk = "no_show_risk"
)

type Alert struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold float64   `json:"threshold"`
}

// Thresholds configures alert derivation. Zero values are replaced by the
// defaults below.
type Thresholds struct {
	UrgentCases       int     // medium above this many upcoming urgent cases
	UrgentCasesHigh   int     // high above this many
	NoShowRate        float64 // medium above this trailing no-show rate
	NoShowRateHigh    float64 // high above this rate
	HighRiskScore     float64 // an appointment counts as high risk above this score
	HighRiskCount     int     // medium above this many high risk appointments
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		UrgentCases:     5,
		UrgentCasesHigh: 10,
		NoShowRate:      0.2,
		NoShowRateHigh:  0.5,
		HighRiskScore:   0.7,
		HighRiskCount:   5,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.UrgentCases <= 0 {
		t.UrgentCases = d.UrgentCases
	}
	if t.UrgentCasesHigh <= 0 {
		t.UrgentCasesHigh = d.UrgentCasesHigh
	}
	if t.NoShowRate <= 0 {
		t.NoShowRate = d.NoShowRate
	}
	if t.NoShowRateHigh <= 0 {
		t.NoShowRateHigh = d.NoShowRateHigh
	}
	if t.HighRiskScore <= 0 {
		t.HighRiskScore = d.HighRiskScore
	}
	if t.HighRiskCount <= 0 {
		t.HighRiskCount = d.HighRiskCount
	}
	return t
}

// DeriveAlerts computes dashboard alerts from a snapshot of appointments in
// the reporting window. It is a pure aggregation: the snapshot is never
// mutated and the same inputs produce the same alerts (ids aside).
func DeriveAlerts(appointments []scheduling.Appointment, now time.Time, th Thresholds) []Alert {
	th = th.withDefaults()

	var (
		urgentUpcoming int
		trailing       int
		noShows        int
		highRisk       int
	)

	for _, appt := range appointments {
		if !appt.Status.Terminal() && appt.Urgency == scheduling.UrgencyUrgent && appt.ScheduledAt.After(now) {
			urgentUpcoming++
		}
		// The no-show rate is a trailing measure; upcoming bookings must not
		// dilute it.
		if !appt.ScheduledAt.After(now) {
			trailing++
			if appt.Status == scheduling.StatusNoShow {
				noShows++
			}
		}
		if appt.NoShowRisk != nil && *appt.NoShowRisk > th.HighRiskScore {
			highRisk++
		}
	}

	var alerts []Alert

	if urgentUpcoming > th.UrgentCases {
		severity := SeverityMedium
		threshold := th.UrgentCases
		if urgentUpcoming > th.UrgentCasesHigh {
			severity = SeverityHigh
			threshold = th.UrgentCasesHigh
		}
		alerts = append(alerts, Alert{
			ID:        uuid.New(),
			Type:      AlertUrgentCases,
			Severity:  severity,
			Message:   fmt.Sprintf("%d urgent cases awaiting care", urgentUpcoming),
			Count:     urgentUpcoming,
			Threshold: float64(threshold),
		})
	}

	if trailing > 0 {
		rate := float64(noShows) / float64(trailing)
		if rate > th.NoShowRate {
			severity := SeverityMedium
			if rate > th.NoShowRateHigh {
				severity = SeverityHigh
			}
			alerts = append(alerts, Alert{
				ID:        uuid.New(),
				Type:      AlertNoShowRate,
				Severity:  severity,
				Message:   fmt.Sprintf("no-show rate at %.0f%% over the reporting window", rate*100),
				Count:     noShows,
				Threshold: th.NoShowRate,
			})
		}
	}

	if highRisk > th.HighRiskCount {
		alerts = append(alerts, Alert{
			ID:        uuid.New(),
			Type:      AlertHighNoShowRisk,
			Severity:  SeverityMedium,
			Message:   fmt.Sprintf("%d appointments at high no-show risk", highRisk),
			Count:     highRisk,
			Threshold: float64(th.HighRiskCount),
		})
	}

	return alerts
}
