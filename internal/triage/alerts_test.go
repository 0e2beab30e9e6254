package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

func findAlert(alerts []Alert, alertType string) (Alert, bool) {
	for _, a := range alerts {
		if a.Type == alertType {
			return a, true
		}
	}
	return Alert{}, false
}

func TestNoShowRateAlert(t *testing.T) {
	now := time.Now()

	// 20 appointments in the trailing week, 6 no-shows: rate 0.3.
	var snapshot []scheduling.Appointment
	for i := 0; i < 14; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusCompleted, now.Add(-time.Duration(i+1)*time.Hour)))
	}
	for i := 0; i < 6; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusNoShow, now.Add(-time.Duration(i+20)*time.Hour)))
	}

	alerts := DeriveAlerts(snapshot, now, Thresholds{})

	alert, ok := findAlert(alerts, AlertNoShowRate)
	require.True(t, ok, "0.3 exceeds the 0.2 threshold")
	assert.Equal(t, SeverityMedium, alert.Severity, "0.3 is below the high ceiling")
	assert.Equal(t, 6, alert.Count)
	assert.InDelta(t, 0.2, alert.Threshold, 1e-9)
}

func TestNoShowRateIgnoresUpcoming(t *testing.T) {
	now := time.Now()

	// Trailing week: 14 completed, 6 no-shows. Plus 10 upcoming bookings that
	// must not dilute the rate: it stays 6/20 = 0.3, not 6/30.
	var snapshot []scheduling.Appointment
	for i := 0; i < 14; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusCompleted, now.Add(-time.Duration(i+1)*time.Hour)))
	}
	for i := 0; i < 6; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusNoShow, now.Add(-time.Duration(i+20)*time.Hour)))
	}
	for i := 0; i < 10; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusScheduled, now.Add(time.Duration(i+1)*time.Hour)))
	}

	alerts := DeriveAlerts(snapshot, now, Thresholds{})

	alert, ok := findAlert(alerts, AlertNoShowRate)
	require.True(t, ok, "trailing rate is 0.3, the alert fires regardless of upcoming bookings")
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.Equal(t, 6, alert.Count)
}

func TestNoShowRateBelowThreshold(t *testing.T) {
	now := time.Now()

	var snapshot []scheduling.Appointment
	for i := 0; i < 19; i++ {
		snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusCompleted, now.Add(-time.Hour)))
	}
	snapshot = append(snapshot, makeAppt(scheduling.UrgencyRoutine, scheduling.StatusNoShow, now.Add(-time.Hour)))

	alerts := DeriveAlerts(snapshot, now, Thresholds{})
	_, ok := findAlert(alerts, AlertNoShowRate)
	assert.False(t, ok, "a 5%% rate raises no alert")
}

func TestUrgentCasesAlertSeverity(t *testing.T) {
	now := time.Now()

	build := func(urgent int) []scheduling.Appointment {
		var snapshot []scheduling.Appointment
		for i := 0; i < urgent; i++ {
			snapshot = append(snapshot, makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(time.Duration(i+1)*time.Hour)))
		}
		return snapshot
	}

	// At the threshold: no alert.
	alerts := DeriveAlerts(build(5), now, Thresholds{})
	_, ok := findAlert(alerts, AlertUrgentCases)
	assert.False(t, ok)

	// Above the threshold, below the ceiling: medium.
	alerts = DeriveAlerts(build(7), now, Thresholds{})
	alert, ok := findAlert(alerts, AlertUrgentCases)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.Equal(t, 7, alert.Count)

	// Above the ceiling: high.
	alerts = DeriveAlerts(build(11), now, Thresholds{})
	alert, ok = findAlert(alerts, AlertUrgentCases)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, alert.Severity)
}

func TestUrgentCountIgnoresPastAndTerminal(t *testing.T) {
	now := time.Now()

	snapshot := []scheduling.Appointment{
		makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(-time.Hour)),
		makeAppt(scheduling.UrgencyUrgent, scheduling.StatusCancelled, now.Add(time.Hour)),
		makeAppt(scheduling.UrgencyUrgent, scheduling.StatusCompleted, now.Add(time.Hour)),
	}

	alerts := DeriveAlerts(snapshot, now, Thresholds{UrgentCases: 1})
	_, ok := findAlert(alerts, AlertUrgentCases)
	assert.False(t, ok, "past or closed urgent cases are not awaiting care")
}

func TestHighNoShowRiskAlert(t *testing.T) {
	now := time.Now()

	risk := 0.9
	var snapshot []scheduling.Appointment
	for i := 0; i < 6; i++ {
		appt := makeAppt(scheduling.UrgencyRoutine, scheduling.StatusScheduled, now.Add(time.Hour))
		appt.NoShowRisk = &risk
		snapshot = append(snapshot, appt)
	}

	alerts := DeriveAlerts(snapshot, now, Thresholds{})
	alert, ok := findAlert(alerts, AlertHighNoShowRisk)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.Equal(t, 6, alert.Count)
}

func TestDeriveAlertsDoesNotMutateSnapshot(t *testing.T) {
	now := time.Now()

	snapshot := []scheduling.Appointment{
		makeAppt(scheduling.UrgencyUrgent, scheduling.StatusScheduled, now.Add(time.Hour)),
		makeAppt(scheduling.UrgencyRoutine, scheduling.StatusNoShow, now.Add(-time.Hour)),
	}
	original := make([]scheduling.Appointment, len(snapshot))
	copy(original, snapshot)

	DeriveAlerts(snapshot, now, Thresholds{})
	assert.Equal(t, original, snapshot)
}

func TestDeriveAlertsEmptySnapshot(t *testing.T) {
	assert.Empty(t, DeriveAlerts(nil, time.Now(), Thresholds{}))
}
