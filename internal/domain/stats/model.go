package stats

// Breakdown maps a metric key to the points it contributed to a map total.
type Breakdown map[string]float64

// MapStats is one player's raw performance on one map. ADR and Rating2 are
// pointers because an absent rate metric must stay distinguishable from a
// genuine zero when averaging.
type MapStats struct {
	Kills         int
	Deaths        int
	Assists       int
	HS            int
	OpeningKills  int
	OpeningDeaths int
	FlashAssists  int
	CL1v2         int
	CL1v3         int
	CL1v4         int
	CL1v5         int
	MK3K          int
	MK4K          int
	MK5K          int
	UtilityDmg    float64
	ADR           *float64
	Rating2       *float64
}

// MapEntry is one map's row inside a stat payload. Scored is set at
// ingestion when the upstream row carried a points value at all, so a
// genuine zero-point map stays distinguishable from an unscored one.
type MapEntry struct {
	MapID        int64
	MapName      string
	PlayedRounds *int
	Points       float64
	Scored       bool
	Stats        MapStats
	Breakdown    Breakdown
}

// StatPayload is the match- or tournament-level stat response. Modern
// payloads carry per-map entries; legacy ones only a flat aggregate, which
// ingestion has already normalized into Flat.
type StatPayload struct {
	MatchID      int64
	TournamentID int64
	PlayerID     int64
	Maps         []MapEntry

	// Flat holds the pre-aggregated legacy view, valid only when Maps is
	// empty. Its averages are nil when the upstream row had no value.
	Flat *AggregatedView
}

// AggregatedView is the reducer output: one comparable row regardless of
// whether it came from one map, a whole match or a legacy aggregate.
// Counting fields default to zero; averages stay nil without data.
type AggregatedView struct {
	Kills         int        `json:"kills"`
	Deaths        int        `json:"deaths"`
	Assists       int        `json:"assists"`
	HS            int        `json:"hs"`
	OpeningKills  int        `json:"opening_kills"`
	OpeningDeaths int        `json:"opening_deaths"`
	FlashAssists  int        `json:"flash_assists"`
	CL1v2         int        `json:"cl_1v2"`
	CL1v3         int        `json:"cl_1v3"`
	CL1v4         int        `json:"cl_1v4"`
	CL1v5         int        `json:"cl_1v5"`
	MK3K          int        `json:"mk_3k"`
	MK4K          int        `json:"mk_4k"`
	MK5K          int        `json:"mk_5k"`
	UtilityDmg    float64    `json:"utility_dmg"`
	ADRAvg        *float64   `json:"adr_avg"`
	Rating2Avg    *float64   `json:"rating2_avg"`
	PlayedRounds  int        `json:"played_rounds"`
	TotalPoints   float64    `json:"total_points"`
	MapsCounted   int        `json:"maps_counted"`
	Breakdown     Breakdown  `json:"breakdown,omitempty"`
}

// PlayerSummary is the compact modal view of a player's run.
type PlayerSummary struct {
	Maps       int      `json:"maps"`
	Kills      int      `json:"kills"`
	Deaths     int      `json:"deaths"`
	KD         *float64 `json:"kd"`
	FantasyPts *float64 `json:"fantasy_pts"`
	FPPG       *float64 `json:"fppg"`
}
