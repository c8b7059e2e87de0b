package backend

import (
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csfantasy/draft-engine/internal/domain/role"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

func TestParseStatPayloadPerMap(t *testing.T) {
	raw := []byte(`{
		"match_id": 901,
		"player_id": 42,
		"maps": [
			{
				"map_id": 1,
				"map_name": "Mirage",
				"played_rounds": 24,
				"points": 38.5,
				"stats": {
					"kills": 21,
					"deaths": 14,
					"headshots": 11,
					"openingKills": 4,
					"clutch_1v2": 1,
					"adr": 88.4,
					"rating": 1.31
				},
				"breakdown": [
					{"key": "kills", "points": 21},
					{"metric": "hs", "pts": 5.5}
				]
			},
			{
				"mapName": "Nuke",
				"rounds": 16,
				"pts": 12,
				"kill_count": 9,
				"death_count": 12
			}
		]
	}`)

	payload := ParseStatPayload(raw, logging.NewNop())

	require.Len(t, payload.Maps, 2)
	assert.EqualValues(t, 901, payload.MatchID)
	assert.EqualValues(t, 42, payload.PlayerID)
	assert.Nil(t, payload.Flat)

	first := payload.Maps[0]
	assert.Equal(t, "Mirage", first.MapName)
	require.NotNil(t, first.PlayedRounds)
	assert.Equal(t, 24, *first.PlayedRounds)
	assert.Equal(t, 38.5, first.Points)
	assert.True(t, first.Scored)
	assert.Equal(t, 21, first.Stats.Kills)
	assert.Equal(t, 11, first.Stats.HS)
	assert.Equal(t, 4, first.Stats.OpeningKills)
	assert.Equal(t, 1, first.Stats.CL1v2)
	require.NotNil(t, first.Stats.ADR)
	assert.Equal(t, 88.4, *first.Stats.ADR)
	require.NotNil(t, first.Stats.Rating2)
	assert.Equal(t, 1.31, *first.Stats.Rating2)
	assert.Equal(t, 21.0, first.Breakdown["kills"])
	assert.Equal(t, 5.5, first.Breakdown["hs"])

	// Second entry carries stats at the top level with camelCase drift.
	second := payload.Maps[1]
	assert.Equal(t, "Nuke", second.MapName)
	require.NotNil(t, second.PlayedRounds)
	assert.Equal(t, 16, *second.PlayedRounds)
	assert.Equal(t, 12.0, second.Points)
	assert.True(t, second.Scored)
	assert.Equal(t, 9, second.Stats.Kills)
	assert.Equal(t, 12, second.Stats.Deaths)
	assert.Nil(t, second.Stats.ADR)
	assert.Nil(t, second.Stats.Rating2)
}

func TestParseStatPayloadScoredMarker(t *testing.T) {
	raw := []byte(`{
		"match_id": 901,
		"player_id": 42,
		"maps": [
			{"map_id": 1, "map_name": "Mirage", "points": 0, "stats": {"kills": 3}},
			{"map_id": 2, "map_name": "Nuke", "stats": {"kills": 7}}
		]
	}`)

	payload := ParseStatPayload(raw, logging.NewNop())

	require.Len(t, payload.Maps, 2)
	assert.True(t, payload.Maps[0].Scored, "explicit zero points is still a scored row")
	assert.Zero(t, payload.Maps[0].Points)
	assert.False(t, payload.Maps[1].Scored, "row without points or breakdown is unscored")
}

func TestParseStatPayloadLegacyFlat(t *testing.T) {
	raw := []byte(`{
		"tournament_id": 55,
		"player_id": 42,
		"kills": 64,
		"deaths": 51,
		"hs_count": 30,
		"adr_avg": 79.2,
		"total_points": 142.5,
		"played_rounds": 96,
		"maps_counted": 4
	}`)

	payload := ParseStatPayload(raw, logging.NewNop())

	require.NotNil(t, payload.Flat)
	assert.Empty(t, payload.Maps)
	assert.EqualValues(t, 55, payload.TournamentID)
	assert.Equal(t, 64, payload.Flat.Kills)
	assert.Equal(t, 51, payload.Flat.Deaths)
	assert.Equal(t, 30, payload.Flat.HS)
	require.NotNil(t, payload.Flat.ADRAvg)
	assert.Equal(t, 79.2, *payload.Flat.ADRAvg)
	assert.Nil(t, payload.Flat.Rating2Avg)
	assert.Equal(t, 142.5, payload.Flat.TotalPoints)
	assert.Equal(t, 96, payload.Flat.PlayedRounds)
	assert.Equal(t, 4, payload.Flat.MapsCounted)
}

func TestParseStatPayloadMalformed(t *testing.T) {
	payload := ParseStatPayload([]byte(`not json at all`), logging.NewNop())
	assert.Empty(t, payload.Maps)
	assert.Nil(t, payload.Flat)

	payload = ParseStatPayload([]byte(`{"maps": [17, "oops", {"map_id": 3, "kills": 5}]}`), logging.NewNop())
	require.Len(t, payload.Maps, 1)
	assert.Equal(t, 5, payload.Maps[0].Stats.Kills)
}

func TestDraftStateDTOToSnapshot(t *testing.T) {
	raw := []byte(`{
		"league": {"id": 7, "name": "Major Pick'em"},
		"tournament_id": 55,
		"fantasy_team": {"id": 3, "budget_left": 412000},
		"participants": 18,
		"tournament_started": false,
		"locked": false,
		"roster_locked": true,
		"can_unlock": true,
		"limits": {"slots": 5, "max_per_team": 2},
		"roster": [
			{"player_id": 42, "player_name": "s1mple", "team_id": 10, "team_name": "NAVI", "price": 250000, "role_badge": "AWPER", "fantasy_pts": 61.5, "fppg": 20.5},
			{"player_id": 77, "player_name": "rookie", "team_id": 0, "team_name": "", "price": 90000, "role_badge": ""}
		],
		"market": [
			{"player_id": 99, "player_name": "ZywOo", "player_nationality_code": "FR", "team_id": 11, "team_name": "Vitality", "price": 260000}
		]
	}`)

	var dto draftStateDTO
	require.NoError(t, sonic.Unmarshal(raw, &dto))

	snap := dto.toSnapshot()
	assert.EqualValues(t, 7, snap.LeagueID)
	assert.Equal(t, "Major Pick'em", snap.LeagueName)
	assert.EqualValues(t, 412000, snap.BudgetLeft)
	assert.Equal(t, 18, snap.Participants)
	assert.True(t, snap.Flags.RosterLocked)
	assert.True(t, snap.Flags.CanUnlock)
	assert.False(t, snap.Flags.Started)

	require.Len(t, snap.Roster, 2)
	assert.Equal(t, role.AWPer, snap.Roster[0].Role)
	require.NotNil(t, snap.Roster[0].FantasyPts)
	assert.Equal(t, 61.5, *snap.Roster[0].FantasyPts)
	assert.Equal(t, role.None, snap.Roster[1].Role)
	assert.Nil(t, snap.Roster[1].FantasyPts)

	require.Len(t, snap.Market, 1)
	assert.Equal(t, "FR", snap.Market[0].Nationality)
}

func TestDraftStateDTODefaultsLimits(t *testing.T) {
	var dto draftStateDTO
	require.NoError(t, sonic.Unmarshal([]byte(`{"league": {"id": 1}}`), &dto))

	snap := dto.toSnapshot()
	assert.Equal(t, 5, snap.Limits.Slots)
	assert.Equal(t, 2, snap.Limits.MaxPerTeam)
}
