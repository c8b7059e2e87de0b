package backend

import (
	sonic "github.com/bytedance/sonic"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/domain/role"
	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

// The stats backend has shipped several field spellings over time
// (snake_case and camelCase, plus a few renames). Tolerance for that drift
// lives in this one table: each canonical field maps to an ordered
// candidate list, first match wins. Counts default to 0, rate fields to
// nil, so a malformed payload degrades instead of failing the view.
var statFieldCandidates = map[string][]string{
	"kills":          {"kills", "kill_count", "killCount"},
	"deaths":         {"deaths", "death_count", "deathCount"},
	"assists":        {"assists", "assist_count", "assistCount"},
	"hs":             {"hs", "headshots", "headshot_kills", "headshotKills"},
	"opening_kills":  {"opening_kills", "openingKills", "entry_kills", "entryKills"},
	"opening_deaths": {"opening_deaths", "openingDeaths", "entry_deaths", "entryDeaths"},
	"flash_assists":  {"flash_assists", "flashAssists", "flashbang_assists"},
	"cl_1v2":         {"cl_1v2", "clutch_1v2", "clutches1v2"},
	"cl_1v3":         {"cl_1v3", "clutch_1v3", "clutches1v3"},
	"cl_1v4":         {"cl_1v4", "clutch_1v4", "clutches1v4"},
	"cl_1v5":         {"cl_1v5", "clutch_1v5", "clutches1v5"},
	"mk_3k":          {"mk_3k", "triple_kills", "tripleKills", "3k"},
	"mk_4k":          {"mk_4k", "quad_kills", "quadKills", "4k"},
	"mk_5k":          {"mk_5k", "penta_kills", "pentaKills", "5k"},
	"utility_dmg":    {"utility_dmg", "utility_damage", "utilityDamage"},
	"adr":            {"adr", "adr_avg", "adrAvg", "average_damage_per_round"},
	"rating2":        {"rating2", "rating2_avg", "rating", "ratingAvg"},
	"points":         {"points", "pts", "total_points", "totalPoints"},
	"played_rounds":  {"played_rounds", "playedRounds", "rounds", "rounds_played"},
}

// ParseStatPayload normalizes a raw stat response into the typed payload.
// It is strictly best-effort: unknown shapes degrade to zero counts and
// nil averages, logged but never fatal, so one bad row cannot take down
// an aggregated view.
func ParseStatPayload(raw []byte, logger *logging.Logger) stats.StatPayload {
	if logger == nil {
		logger = logging.Default()
	}

	var decoded map[string]any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		logger.Warn("malformed stat payload, degrading to empty view", "error", err)
		return stats.StatPayload{}
	}

	payload := stats.StatPayload{
		MatchID:      pickInt64(decoded, "match_id", "matchId"),
		TournamentID: pickInt64(decoded, "tournament_id", "tournamentId", "tournament"),
		PlayerID:     pickInt64(decoded, "player_id", "playerId"),
	}

	rawMaps, hasMaps := decoded["maps"].([]any)
	if hasMaps {
		payload.Maps = make([]stats.MapEntry, 0, len(rawMaps))
		for _, item := range rawMaps {
			fields, ok := item.(map[string]any)
			if !ok {
				logger.Warn("skipping non-object map entry in stat payload")
				continue
			}
			payload.Maps = append(payload.Maps, parseMapEntry(fields))
		}
		return payload
	}

	// Legacy flat aggregate: no per-map rows, the whole body is one row.
	flat := flatAggregate(decoded)
	payload.Flat = &flat
	return payload
}

func parseMapEntry(fields map[string]any) stats.MapEntry {
	entry := stats.MapEntry{
		MapID:   pickInt64(fields, "map_id", "mapId", "id"),
		MapName: pickString(fields, "map_name", "mapName", "name"),
	}
	if points, ok := resolveNumber(fields, "points"); ok {
		entry.Points = points
		entry.Scored = true
	}

	if rounds, ok := resolveNumber(fields, "played_rounds"); ok && rounds > 0 {
		r := int(rounds)
		entry.PlayedRounds = &r
	}
	if br, ok := fields["breakdown"]; ok {
		entry.Breakdown = stats.NormalizeBreakdown(br)
		if len(entry.Breakdown) > 0 {
			entry.Scored = true
		}
	}

	statFields := fields
	if nested, ok := fields["stats"].(map[string]any); ok {
		statFields = nested
	}
	entry.Stats = parseMapStats(statFields)
	return entry
}

func parseMapStats(fields map[string]any) stats.MapStats {
	return stats.MapStats{
		Kills:         int(resolveCount(fields, "kills")),
		Deaths:        int(resolveCount(fields, "deaths")),
		Assists:       int(resolveCount(fields, "assists")),
		HS:            int(resolveCount(fields, "hs")),
		OpeningKills:  int(resolveCount(fields, "opening_kills")),
		OpeningDeaths: int(resolveCount(fields, "opening_deaths")),
		FlashAssists:  int(resolveCount(fields, "flash_assists")),
		CL1v2:         int(resolveCount(fields, "cl_1v2")),
		CL1v3:         int(resolveCount(fields, "cl_1v3")),
		CL1v4:         int(resolveCount(fields, "cl_1v4")),
		CL1v5:         int(resolveCount(fields, "cl_1v5")),
		MK3K:          int(resolveCount(fields, "mk_3k")),
		MK4K:          int(resolveCount(fields, "mk_4k")),
		MK5K:          int(resolveCount(fields, "mk_5k")),
		UtilityDmg:    resolveCount(fields, "utility_dmg"),
		ADR:           resolveRate(fields, "adr"),
		Rating2:       resolveRate(fields, "rating2"),
	}
}

func flatAggregate(fields map[string]any) stats.AggregatedView {
	st := parseMapStats(fields)
	view := stats.AggregatedView{
		Kills:         st.Kills,
		Deaths:        st.Deaths,
		Assists:       st.Assists,
		HS:            st.HS,
		OpeningKills:  st.OpeningKills,
		OpeningDeaths: st.OpeningDeaths,
		FlashAssists:  st.FlashAssists,
		CL1v2:         st.CL1v2,
		CL1v3:         st.CL1v3,
		CL1v4:         st.CL1v4,
		CL1v5:         st.CL1v5,
		MK3K:          st.MK3K,
		MK4K:          st.MK4K,
		MK5K:          st.MK5K,
		UtilityDmg:    st.UtilityDmg,
		ADRAvg:        st.ADR,
		Rating2Avg:    st.Rating2,
		TotalPoints:   resolveCount(fields, "points"),
	}
	if rounds, ok := resolveNumber(fields, "played_rounds"); ok && rounds > 0 {
		view.PlayedRounds = int(rounds)
	}
	view.MapsCounted = int(pickInt64(fields, "maps_counted", "maps_played", "mapsPlayed"))
	if br, ok := fields["breakdown"]; ok {
		view.Breakdown = stats.NormalizeBreakdown(br)
	}
	return view
}

// resolveCount returns the first matching candidate or 0.
func resolveCount(fields map[string]any, canonical string) float64 {
	v, _ := resolveNumber(fields, canonical)
	return v
}

// resolveRate returns the first matching candidate or nil: absent rate
// metrics must stay distinguishable from zero.
func resolveRate(fields map[string]any, canonical string) *float64 {
	if v, ok := resolveNumber(fields, canonical); ok {
		return &v
	}
	return nil
}

func resolveNumber(fields map[string]any, canonical string) (float64, bool) {
	for _, name := range statFieldCandidates[canonical] {
		if raw, ok := fields[name]; ok && raw != nil {
			if n, ok := toFloat(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func pickInt64(fields map[string]any, names ...string) int64 {
	for _, name := range names {
		if raw, ok := fields[name]; ok && raw != nil {
			if n, ok := toFloat(raw); ok {
				return int64(n)
			}
		}
	}
	return 0
}

func pickString(fields map[string]any, names ...string) string {
	for _, name := range names {
		if raw, ok := fields[name]; ok {
			if s, ok := raw.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Draft state DTOs. Unlike the stat payload, the draft snapshot shape has
// been stable, so plain tagged structs are enough here.

type draftStateDTO struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	TournamentID int64 `json:"tournament_id"`
	FantasyTeam  struct {
		ID         int64 `json:"id"`
		BudgetLeft int64 `json:"budget_left"`
	} `json:"fantasy_team"`
	Participants int  `json:"participants"`
	Started      bool `json:"tournament_started"`
	Locked       bool `json:"locked"`
	RosterLocked bool `json:"roster_locked"`
	CanUnlock    bool `json:"can_unlock"`
	Limits       struct {
		Slots      int `json:"slots"`
		MaxPerTeam int `json:"max_per_team"`
	} `json:"limits"`
	Roster []rosterSlotDTO    `json:"roster"`
	Market []marketListingDTO `json:"market"`
}

type rosterSlotDTO struct {
	PlayerID   int64    `json:"player_id"`
	PlayerName string   `json:"player_name"`
	TeamID     int64    `json:"team_id"`
	TeamName   string   `json:"team_name"`
	Price      int64    `json:"price"`
	RoleBadge  string   `json:"role_badge"`
	FantasyPts *float64 `json:"fantasy_pts"`
	FPPG       *float64 `json:"fppg"`
}

type marketListingDTO struct {
	PlayerID    int64  `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Nationality string `json:"player_nationality_code"`
	TeamID      int64  `json:"team_id"`
	TeamName    string `json:"team_name"`
	Price       int64  `json:"price"`
}

func (dto draftStateDTO) toSnapshot() draft.Snapshot {
	snap := draft.Snapshot{
		LeagueID:     dto.League.ID,
		LeagueName:   dto.League.Name,
		TournamentID: dto.TournamentID,
		BudgetLeft:   dto.FantasyTeam.BudgetLeft,
		Participants: dto.Participants,
		Limits: draft.Limits{
			Slots:      dto.Limits.Slots,
			MaxPerTeam: dto.Limits.MaxPerTeam,
		},
		Flags: draft.Flags{
			Started:      dto.Started,
			Finished:     dto.Locked,
			RosterLocked: dto.RosterLocked,
			CanUnlock:    dto.CanUnlock,
		},
		Roster: make([]draft.RosterSlot, 0, len(dto.Roster)),
		Market: make([]draft.MarketListing, 0, len(dto.Market)),
	}
	if snap.Limits.Slots <= 0 {
		snap.Limits = draft.DefaultLimits()
	}
	if snap.Limits.MaxPerTeam <= 0 {
		snap.Limits.MaxPerTeam = draft.DefaultLimits().MaxPerTeam
	}

	for _, slot := range dto.Roster {
		badge, ok := role.Parse(slot.RoleBadge)
		if !ok {
			badge = role.None
		}
		snap.Roster = append(snap.Roster, draft.RosterSlot{
			PlayerID:   slot.PlayerID,
			PlayerName: slot.PlayerName,
			TeamID:     slot.TeamID,
			TeamName:   slot.TeamName,
			Price:      slot.Price,
			Role:       badge,
			FantasyPts: slot.FantasyPts,
			FPPG:       slot.FPPG,
		})
	}
	for _, listing := range dto.Market {
		snap.Market = append(snap.Market, draft.MarketListing{
			PlayerID:    listing.PlayerID,
			PlayerName:  listing.PlayerName,
			Nationality: listing.Nationality,
			TeamID:      listing.TeamID,
			TeamName:    listing.TeamName,
			Price:       listing.Price,
		})
	}
	return snap
}

type standingRowDTO struct {
	FantasyTeamID int64   `json:"fantasy_team_id"`
	TeamName      string  `json:"team_name"`
	UserName      string  `json:"user_name"`
	TotalPoints   float64 `json:"total_points"`
	RosterSize    int     `json:"roster_size"`
	BudgetLeft    int64   `json:"budget_left"`
}

func toStandingRows(dtos []standingRowDTO) []draft.StandingRow {
	rows := make([]draft.StandingRow, 0, len(dtos))
	for _, dto := range dtos {
		rows = append(rows, draft.StandingRow{
			FantasyTeamID: dto.FantasyTeamID,
			TeamName:      dto.TeamName,
			UserName:      dto.UserName,
			TotalPoints:   dto.TotalPoints,
			RosterSize:    dto.RosterSize,
			BudgetLeft:    dto.BudgetLeft,
		})
	}
	return rows
}
