package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

type fakeStatsBackend struct {
	payloads map[int64]stats.StatPayload
	failFor  map[int64]error

	matchCalls      atomic.Int32
	tournamentCalls atomic.Int32
}

func (f *fakeStatsBackend) FetchMatchStats(_ context.Context, _, playerID int64) (stats.StatPayload, error) {
	f.matchCalls.Add(1)
	return f.payloadFor(playerID)
}

func (f *fakeStatsBackend) FetchTournamentStats(_ context.Context, _, playerID int64) (stats.StatPayload, error) {
	f.tournamentCalls.Add(1)
	return f.payloadFor(playerID)
}

func (f *fakeStatsBackend) payloadFor(playerID int64) (stats.StatPayload, error) {
	if err, ok := f.failFor[playerID]; ok {
		return stats.StatPayload{}, err
	}
	payload, ok := f.payloads[playerID]
	if !ok {
		return stats.StatPayload{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}
	return payload, nil
}

func twoMapPayload() stats.StatPayload {
	rounds1, rounds2 := 24, 16
	adr1, adr2 := 90.0, 70.0
	return stats.StatPayload{
		Maps: []stats.MapEntry{
			{
				MapID:        1,
				MapName:      "Mirage",
				PlayedRounds: &rounds1,
				Points:       30,
				Scored:       true,
				Stats:        stats.MapStats{Kills: 20, Deaths: 14, ADR: &adr1},
			},
			{
				MapID:        2,
				MapName:      "Nuke",
				PlayedRounds: &rounds2,
				Points:       10,
				Scored:       true,
				Stats:        stats.MapStats{Kills: 8, Deaths: 12, ADR: &adr2},
			},
		},
	}
}

func newStatsService(backend *fakeStatsBackend) *StatsService {
	return NewStatsService(backend, time.Minute, 4, logging.NewNop())
}

func TestMatchViewReducesAllMaps(t *testing.T) {
	backend := &fakeStatsBackend{payloads: map[int64]stats.StatPayload{42: twoMapPayload()}}
	svc := newStatsService(backend)

	view, err := svc.MatchView(context.Background(), 901, 42, "")

	require.NoError(t, err)
	assert.Equal(t, 28, view.Kills)
	assert.Equal(t, 26, view.Deaths)
	assert.Equal(t, 2, view.MapsCounted)
	assert.Equal(t, 40, view.PlayedRounds)
	assert.Equal(t, 40.0, view.TotalPoints)
	require.NotNil(t, view.ADRAvg)
	// (90*24 + 70*16) / 40
	assert.InDelta(t, 82.0, *view.ADRAvg, 1e-9)
}

func TestMatchViewSingleMap(t *testing.T) {
	backend := &fakeStatsBackend{payloads: map[int64]stats.StatPayload{42: twoMapPayload()}}
	svc := newStatsService(backend)

	byName, err := svc.MatchView(context.Background(), 901, 42, "nuke")
	require.NoError(t, err)
	assert.Equal(t, 8, byName.Kills)
	assert.Equal(t, 1, byName.MapsCounted)

	byID, err := svc.MatchView(context.Background(), 901, 42, "2")
	require.NoError(t, err)
	assert.Equal(t, byName.Kills, byID.Kills)
}

func TestMatchViewUnknownMap(t *testing.T) {
	backend := &fakeStatsBackend{payloads: map[int64]stats.StatPayload{42: twoMapPayload()}}
	svc := newStatsService(backend)

	_, err := svc.MatchView(context.Background(), 901, 42, "Vertigo")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestTournamentPayloadCached(t *testing.T) {
	backend := &fakeStatsBackend{payloads: map[int64]stats.StatPayload{42: twoMapPayload()}}
	svc := newStatsService(backend)

	_, err := svc.TournamentView(context.Background(), 55, 42)
	require.NoError(t, err)
	_, err = svc.PlayerSummary(context.Background(), 55, 42)
	require.NoError(t, err)

	assert.EqualValues(t, 1, backend.tournamentCalls.Load())
}

func TestPlayerSummary(t *testing.T) {
	backend := &fakeStatsBackend{payloads: map[int64]stats.StatPayload{42: twoMapPayload()}}
	svc := newStatsService(backend)

	summary, err := svc.PlayerSummary(context.Background(), 55, 42)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Maps)
	assert.Equal(t, 28, summary.Kills)
	require.NotNil(t, summary.KD)
	assert.InDelta(t, 28.0/26.0, *summary.KD, 1e-9)
	require.NotNil(t, summary.FantasyPts)
	assert.Equal(t, 40.0, *summary.FantasyPts)
	require.NotNil(t, summary.FPPG)
	assert.Equal(t, 20.0, *summary.FPPG)
}

func TestTournamentViewsDropFailedPlayers(t *testing.T) {
	backend := &fakeStatsBackend{
		payloads: map[int64]stats.StatPayload{42: twoMapPayload(), 43: twoMapPayload()},
		failFor:  map[int64]error{44: fmt.Errorf("%w: backend down", ErrDependencyUnavailable)},
	}
	svc := newStatsService(backend)

	views, err := svc.TournamentViews(context.Background(), 55, []int64{42, 43, 44, 42, 0})

	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Contains(t, views, int64(42))
	assert.Contains(t, views, int64(43))
	assert.NotContains(t, views, int64(44))
}
