package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/appointment-triage/internal/db"
	"github.com/carebridge/appointment-triage/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAppointments(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d appointments", count)

	symptoms := []string{
		"severe chest pain and shortness of breath",
		"persistent fever for three days",
		"mild headache after long screen time",
		"lower back pain when standing up",
		"sore throat and runny nose",
		"follow-up on blood pressure medication",
		"skin rash on both forearms",
		"recurring migraine with light sensitivity",
	}

	urgencies := []scheduling.Urgency{
		scheduling.UrgencyRoutine, scheduling.UrgencyRoutine, scheduling.UrgencyRoutine,
		scheduling.UrgencyModerate, scheduling.UrgencyModerate,
		scheduling.UrgencyUrgent,
	}

	statuses := []scheduling.Status{
		scheduling.StatusScheduled, scheduling.StatusScheduled, scheduling.StatusScheduled,
		scheduling.StatusRescheduled,
		scheduling.StatusCompleted, scheduling.StatusCompleted,
		scheduling.StatusCancelled,
		scheduling.StatusNoShow,
	}

	// A small pool of staff so conflict-heavy schedules show up in dashboards.
	staff := make([]uuid.UUID, 25)
	for i := range staff {
		staff[i] = uuid.New()
	}

	for i := 0; i < count; i++ {
		patientID := uuid.New()
		status := statuses[rand.Intn(len(statuses))]

		// Past for closed-out appointments, future for active ones.
		var scheduledAt time.Time
		if status.Terminal() {
			scheduledAt = gofakeit.DateRange(time.Now().Add(-14*24*time.Hour), time.Now().Add(-time.Hour))
		} else {
			scheduledAt = gofakeit.DateRange(time.Now().Add(time.Hour), time.Now().Add(14*24*time.Hour))
		}

		var staffID *uuid.UUID
		if rand.Float64() < 0.8 {
			id := staff[rand.Intn(len(staff))]
			staffID = &id
		}

		risk := gofakeit.Float64Range(0, 1)

		_, err := pool.Exec(ctx, `
			INSERT INTO appointments (
				id, patient_id, staff_id, scheduled_at, symptoms,
				urgency, no_show_risk, status, created_at, last_updated
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, uuid.New(), patientID, staffID, scheduledAt,
			symptoms[rand.Intn(len(symptoms))],
			urgencies[rand.Intn(len(urgencies))],
			risk, status)
		if err != nil {
			return err
		}

		if (i+1)%500 == 0 {
			log.Printf("seeded %d/%d appointments", i+1, count)
		}
	}

	return nil
}
