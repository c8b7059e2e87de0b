package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/platform/resilience"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

const stateBody = `{
	"league": {"id": 7, "name": "Major Pick'em"},
	"tournament_id": 55,
	"fantasy_team": {"id": 3, "budget_left": 500000},
	"participants": 12,
	"limits": {"slots": 5, "max_per_team": 2},
	"roster": [],
	"market": []
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
	})
}

func TestFetchDraftStateForwardsCapability(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/draft/state/7", r.URL.Path)
		_, _ = w.Write([]byte(stateBody))
	}))

	ctx := usecase.WithAccessToken(context.Background(), "user-token")
	snap, err := client.FetchDraftState(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.EqualValues(t, 7, snap.LeagueID)
	assert.EqualValues(t, 500000, snap.BudgetLeft)
}

func TestBuyRefreshesSnapshotAfterAck(t *testing.T) {
	var sawBuy, sawRefresh bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/draft/buy":
			sawBuy = true
			_, _ = w.Write([]byte(`{"ok": true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/draft/state/7":
			sawRefresh = true
			_, _ = w.Write([]byte(stateBody))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	snap, err := client.Buy(context.Background(), 7, 42)

	require.NoError(t, err)
	assert.True(t, sawBuy)
	assert.True(t, sawRefresh)
	assert.EqualValues(t, 7, snap.LeagueID)
}

func TestMutationRejectionCarriesBackendReason(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "insufficient budget"}`))
	}))

	_, err := client.Buy(context.Background(), 7, 42)

	require.ErrorIs(t, err, usecase.ErrServerRejected)
	assert.Contains(t, err.Error(), "insufficient budget")
}

func TestGetRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(stateBody))
	}))
	client.maxRetries = 1

	snap, err := client.FetchDraftState(context.Background(), 7)

	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.EqualValues(t, 7, snap.LeagueID)
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.maxRetries = 3

	_, err := client.FetchDraftState(context.Background(), 7)

	require.ErrorIs(t, err, usecase.ErrUnauthorized)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCircuitBreakerShortCircuitsReads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})

	_, err := client.FetchDraftState(context.Background(), 7)
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)

	_, err = client.FetchDraftState(context.Background(), 7)
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	assert.Equal(t, resilience.CircuitStateOpen, client.breaker.State())
}

func TestFetchStandings(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leagues/7/standings", r.URL.Path)
		_, _ = w.Write([]byte(`{"standings": [
			{"fantasy_team_id": 1, "team_name": "alpha", "user_name": "ann", "total_points": 120.5, "roster_size": 5, "budget_left": 10000},
			{"fantasy_team_id": 2, "team_name": "beta", "user_name": "bob", "total_points": 98, "roster_size": 4, "budget_left": 250000}
		]}`))
	}))

	rows, err := client.FetchStandings(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].TeamName)
	assert.Equal(t, 120.5, rows[0].TotalPoints)
}
