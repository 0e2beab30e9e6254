// simulate fires concurrent booking and reschedule traffic at a running
// api-server to verify that overlapping slots for the same staff member are
// never double-booked under contention.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	StaffCount int
	SlotCount  int
}

type Counters struct {
	Total    int64
	Created  int64
	Conflict int64
	Error    int64
}

func (c *Counters) Record(status int) {
	atomic.AddInt64(&c.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&c.Created, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&c.Conflict, 1)
	default:
		atomic.AddInt64(&c.Error, 1)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate starting url=%s duration=%s workers=%d staff=%d slots=%d",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.StaffCount, cfg.SlotCount)

	// A deliberately small staff/slot pool so workers collide constantly.
	staff := make([]uuid.UUID, cfg.StaffCount)
	for i := range staff {
		staff[i] = uuid.New()
	}
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	slots := make([]time.Time, cfg.SlotCount)
	for i := range slots {
		slots[i] = base.Add(time.Duration(i) * 30 * time.Minute)
	}

	var counters Counters
	client := &http.Client{Timeout: 10 * time.Second}
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))

			for time.Now().Before(deadline) {
				status, err := book(client, cfg.APIBaseURL, staff[rng.Intn(len(staff))], slots[rng.Intn(len(slots))])
				if err != nil {
					atomic.AddInt64(&counters.Total, 1)
					atomic.AddInt64(&counters.Error, 1)
					continue
				}
				counters.Record(status)
			}
		}(w)
	}
	wg.Wait()

	total := atomic.LoadInt64(&counters.Total)
	log.Printf("simulate done total=%d created=%d conflict=%d error=%d",
		total,
		atomic.LoadInt64(&counters.Created),
		atomic.LoadInt64(&counters.Conflict),
		atomic.LoadInt64(&counters.Error))

	// With S staff and N slots each, at most S*N bookings can ever succeed.
	maxPossible := int64(len(staff) * len(slots))
	if created := atomic.LoadInt64(&counters.Created); created > maxPossible {
		log.Fatalf("DOUBLE BOOKING DETECTED: %d created for %d distinct slots", created, maxPossible)
	}
	log.Println("no double bookings observed")
}

func book(client *http.Client, baseURL string, staffID uuid.UUID, slot time.Time) (int, error) {
	payload := map[string]any{
		"patient_id":   uuid.NewString(),
		"staff_id":     staffID.String(),
		"scheduled_at": slot.Format(time.RFC3339),
		"symptoms":     "simulated symptom report",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", uuid.NewString())
	req.Header.Set("X-User-Role", "staff")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:   30 * time.Second,
		Workers:    16,
		StaffCount: 3,
		SlotCount:  8,
	}

	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	cfg.Workers = getInt("SIM_WORKERS", cfg.Workers)
	cfg.StaffCount = getInt("SIM_STAFF", cfg.StaffCount)
	cfg.SlotCount = getInt("SIM_SLOTS", cfg.SlotCount)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}
