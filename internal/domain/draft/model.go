package draft

import (
	"github.com/csfantasy/draft-engine/internal/domain/role"
)

// MarketListing is one purchasable player in a league's market.
// Listings are immutable; the whole market is replaced on each refresh.
type MarketListing struct {
	PlayerID    int64
	PlayerName  string
	Nationality string
	TeamID      int64
	TeamName    string
	Price       int64
}

// RosterSlot holds one drafted player. FantasyPts and FPPG stay nil until
// the backend has scored at least one map for the player.
type RosterSlot struct {
	PlayerID   int64
	PlayerName string
	TeamID     int64
	TeamName   string
	Price      int64
	Role       role.Role
	FantasyPts *float64
	FPPG       *float64
}

// Limits stores draft constraint parameters for one league.
type Limits struct {
	Slots      int
	MaxPerTeam int
}

func DefaultLimits() Limits {
	return Limits{
		Slots:      5,
		MaxPerTeam: 2,
	}
}

// Flags is the raw lifecycle state as reported by the backend.
// Phase derivation collapses these into a single state; see phase.go.
type Flags struct {
	Started      bool
	Finished     bool
	RosterLocked bool
	CanUnlock    bool
}

// StandingRow is one ladder entry as supplied by the backend.
type StandingRow struct {
	FantasyTeamID int64
	TeamName      string
	UserName      string
	TotalPoints   float64
	RosterSize    int
	BudgetLeft    int64
}

// Snapshot is the full draft state for one (user, league), returned by the
// backend in a single read. The engine never mutates a snapshot in place;
// every accepted mutation yields a fresh one.
type Snapshot struct {
	LeagueID     int64
	LeagueName   string
	TournamentID int64
	BudgetLeft   int64
	Participants int
	Limits       Limits
	Flags        Flags
	Roster       []RosterSlot
	Market       []MarketListing
}

// TeamCounts tallies roster players per real team, the input to the
// max-per-team constraint. Teamless players (TeamID 0) are not counted.
func (s Snapshot) TeamCounts() map[int64]int {
	counts := make(map[int64]int, len(s.Roster))
	for _, slot := range s.Roster {
		if slot.TeamID != 0 {
			counts[slot.TeamID]++
		}
	}
	return counts
}

func (s Snapshot) RosterSlot(playerID int64) (RosterSlot, bool) {
	for _, slot := range s.Roster {
		if slot.PlayerID == playerID {
			return slot, true
		}
	}
	return RosterSlot{}, false
}

func (s Snapshot) MarketListing(playerID int64) (MarketListing, bool) {
	for _, listing := range s.Market {
		if listing.PlayerID == playerID {
			return listing, true
		}
	}
	return MarketListing{}, false
}

func (s Snapshot) OwnsPlayer(playerID int64) bool {
	_, ok := s.RosterSlot(playerID)
	return ok
}

// TotalFantasyPoints sums scored slots; unscored slots contribute nothing.
func (s Snapshot) TotalFantasyPoints() float64 {
	var total float64
	for _, slot := range s.Roster {
		if slot.FantasyPts != nil {
			total += *slot.FantasyPts
		}
	}
	return total
}
