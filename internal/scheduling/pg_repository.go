package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, staff_id, clinic_id, scheduled_at, symptoms,
	urgency, no_show_risk, status, created_at, last_updated,
	rescheduled_count, previous_scheduled_at
`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var staffID, clinicID *uuid.UUID
	var noShowRisk *float64
	var previousScheduledAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&staffID,
		&clinicID,
		&a.ScheduledAt,
		&a.Symptoms,
		&a.Urgency,
		&noShowRisk,
		&a.Status,
		&a.CreatedAt,
		&a.LastUpdated,
		&a.RescheduledCount,
		&previousScheduledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StaffID = staffID
	a.ClinicID = clinicID
	a.NoShowRisk = noShowRisk
	a.PreviousScheduledAt = previousScheduledAt
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, staff_id, clinic_id, scheduled_at, symptoms,
			urgency, no_show_risk, status, created_at, last_updated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled', now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.PatientID, appt.StaffID, appt.ClinicID,
		appt.ScheduledAt, appt.Symptoms, appt.Urgency, appt.NoShowRisk)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    last_updated = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		// Distinguish a missing row from a lost compare-and-set.
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr == nil {
			return nil, ErrStatusChanged
		}
		return nil, ErrAppointmentNotFound
	}
	return appt, err
}

func (r *PgRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, from Status, newTime time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET previous_scheduled_at = scheduled_at,
		    scheduled_at = $2,
		    status = 'rescheduled',
		    rescheduled_count = rescheduled_count + 1,
		    last_updated = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, newTime, from)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr == nil {
			return nil, ErrStatusChanged
		}
		return nil, ErrAppointmentNotFound
	}
	return appt, err
}

func (r *PgRepository) ListActiveByStaffBetween(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
		  AND status IN ('scheduled', 'rescheduled', 'in_progress')
		  AND scheduled_at > $2
		  AND scheduled_at < $3
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'rescheduled', 'in_progress')
	`)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByScheduledBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at >= $1
		  AND scheduled_at <= $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (action, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.Action, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
