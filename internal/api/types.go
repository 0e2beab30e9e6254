package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/appointment-triage/internal/retrain"
	"github.com/carebridge/appointment-triage/internal/scheduling"
	"github.com/carebridge/appointment-triage/internal/syncqueue"
)

type BookAppointmentRequest struct {
	PatientID   string    `json:"patient_id,omitempty"`
	StaffID     string    `json:"staff_id,omitempty"`
	ClinicID    string    `json:"clinic_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Symptoms    string    `json:"symptoms"`
}

type RescheduleAppointmentRequest struct {
	NewScheduledAt time.Time `json:"new_scheduled_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID                  uuid.UUID  `json:"id"`
	PatientID           uuid.UUID  `json:"patient_id"`
	StaffID             *uuid.UUID `json:"staff_id,omitempty"`
	ClinicID            *uuid.UUID `json:"clinic_id,omitempty"`
	ScheduledAt         time.Time  `json:"scheduled_at"`
	Symptoms            string     `json:"symptoms"`
	Urgency             string     `json:"urgency"`
	NoShowRisk          *float64   `json:"no_show_risk,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	LastUpdated         time.Time  `json:"last_updated"`
	RescheduledCount    int        `json:"rescheduled_count"`
	PreviousScheduledAt *time.Time `json:"previous_scheduled_at,omitempty"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                  a.ID,
		PatientID:           a.PatientID,
		StaffID:             a.StaffID,
		ClinicID:            a.ClinicID,
		ScheduledAt:         a.ScheduledAt,
		Symptoms:            a.Symptoms,
		Urgency:             string(a.Urgency),
		NoShowRisk:          a.NoShowRisk,
		Status:              string(a.Status),
		CreatedAt:           a.CreatedAt,
		LastUpdated:         a.LastUpdated,
		RescheduledCount:    a.RescheduledCount,
		PreviousScheduledAt: a.PreviousScheduledAt,
	}
}

type SyncBatchRequest struct {
	Appointments []syncqueue.Entry `json:"appointments"`
}

type SyncBatchResponse struct {
	Accepted []AppointmentResponse `json:"accepted"`
	Rejected []syncqueue.Rejection `json:"rejected"`
}

type RetrainTriggeredResponse struct {
	Status string `json:"status"`
}

type RetrainStatusResponse struct {
	Running bool            `json:"running"`
	Last    *retrain.Result `json:"last,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
