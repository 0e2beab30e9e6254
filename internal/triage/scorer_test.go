package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/appointment-triage/internal/scheduling"
)

func TestHTTPScorerScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "severe chest pain", req["symptoms"])

		switch r.URL.Path {
		case "/triage":
			json.NewEncoder(w).Encode(map[string]string{"urgency": "urgent"})
		case "/noshow":
			json.NewEncoder(w).Encode(map[string]float64{"no_show_risk": 0.1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, 2*time.Second)

	result, err := scorer.Score(context.Background(), "severe chest pain")
	require.NoError(t, err)
	assert.Equal(t, scheduling.UrgencyUrgent, result.Urgency)
	require.NotNil(t, result.NoShowRisk)
	assert.InDelta(t, 0.1, *result.NoShowRisk, 1e-9)
}

func TestHTTPScorerTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"urgency": "urgent"})
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, 20*time.Millisecond)

	_, err := scorer.Score(context.Background(), "fever")
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestHTTPScorerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, 2*time.Second)

	_, err := scorer.Score(context.Background(), "fever")
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestHTTPScorerNoShowFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/triage":
			json.NewEncoder(w).Encode(map[string]string{"urgency": "moderate"})
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, 2*time.Second)

	result, err := scorer.Score(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, scheduling.UrgencyModerate, result.Urgency)
	assert.Nil(t, result.NoShowRisk, "losing the predictor loses only the risk score")
}
