package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

var ErrScoringUnavailable = errors.New("triage scoring service unavailable")

// HTTPScorer talks to the external AI scoring service. The service exposes two
// endpoints: POST /triage returns an urgency tier for free-text symptoms, and
// POST /noshow returns a no-show probability. Both calls are bounded by the
// client timeout; callers are expected to fall back on error rather than fail
// the booking.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPScorer(baseURL string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type triageRequest struct {
	Symptoms string `json:"symptoms"`
}

type triageResponse struct {
	Urgency string `json:"urgency"`
}

type noShowResponse struct {
	NoShowRisk float64 `json:"no_show_risk"`
}

func (s *HTTPScorer) Score(ctx context.Context, symptoms string) (scheduling.ScoreResult, error) {
	var tr triageResponse
	if err := s.post(ctx, "/triage", triageRequest{Symptoms: symptoms}, &tr); err != nil {
		return scheduling.ScoreResult{}, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}

	result := scheduling.ScoreResult{
		Urgency: scheduling.Urgency(tr.Urgency),
	}

	// The no-show predictor is purely informational; losing it does not lose
	// the urgency classification.
	var nr noShowResponse
	if err := s.post(ctx, "/noshow", triageRequest{Symptoms: symptoms}, &nr); err == nil {
		risk := nr.NoShowRisk
		result.NoShowRisk = &risk
	}

	return result, nil
}

func (s *HTTPScorer) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode scorer response: %w", err)
	}

	return nil
}
