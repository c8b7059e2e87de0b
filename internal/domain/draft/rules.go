package draft

import (
	"errors"
	"fmt"

	"github.com/csfantasy/draft-engine/internal/domain/role"
)

// ErrConstraint is the common ancestor of every pre-flight rejection, so
// callers can classify local rule failures with a single errors.Is. The
// backend remains authoritative: passing these checks does not guarantee
// acceptance.
var ErrConstraint = errors.New("draft constraint violated")

var (
	ErrDraftClosed     = fmt.Errorf("%w: tournament started or finished", ErrConstraint)
	ErrRosterFull      = fmt.Errorf("%w: roster is full", ErrConstraint)
	ErrBudgetExceeded  = fmt.Errorf("%w: not enough budget", ErrConstraint)
	ErrTeamCapReached  = fmt.Errorf("%w: max players from same team reached", ErrConstraint)
	ErrDuplicatePlayer = fmt.Errorf("%w: player already in roster", ErrConstraint)
	ErrPlayerNotOwned  = fmt.Errorf("%w: player not in roster", ErrConstraint)
	ErrUnknownRole     = fmt.Errorf("%w: unknown role badge", ErrConstraint)
	ErrRoleTaken       = fmt.Errorf("%w: role badge held by another player", ErrConstraint)
	ErrRosterNotFull   = fmt.Errorf("%w: roster must be exactly full to lock", ErrConstraint)
	ErrAlreadyLocked   = fmt.Errorf("%w: roster already locked", ErrConstraint)
	ErrNotLocked       = fmt.Errorf("%w: roster is not locked", ErrConstraint)
	ErrUnlockDenied    = fmt.Errorf("%w: unlock not permitted", ErrConstraint)
)

// CanBuy checks every buy constraint against the current snapshot:
// lifecycle, free slot, budget, per-team cap and duplicate ownership.
// Lifecycle dominates; it is checked first regardless of the listing.
func (s Snapshot) CanBuy(listing MarketListing) error {
	if !s.Phase().allowsTrading() {
		return ErrDraftClosed
	}
	if len(s.Roster) >= s.Limits.Slots {
		return ErrRosterFull
	}
	if listing.Price > s.BudgetLeft {
		return fmt.Errorf("%w: price=%d budget_left=%d", ErrBudgetExceeded, listing.Price, s.BudgetLeft)
	}
	if listing.TeamID != 0 && s.TeamCounts()[listing.TeamID] >= s.Limits.MaxPerTeam {
		return fmt.Errorf("%w: team=%d max=%d", ErrTeamCapReached, listing.TeamID, s.Limits.MaxPerTeam)
	}
	if s.OwnsPlayer(listing.PlayerID) {
		return fmt.Errorf("%w: player=%d", ErrDuplicatePlayer, listing.PlayerID)
	}
	return nil
}

// CanSell requires only that the lifecycle permits trading and the player
// is owned. Roster fullness never blocks a sell.
func (s Snapshot) CanSell(playerID int64) error {
	if !s.Phase().allowsTrading() {
		return ErrDraftClosed
	}
	if !s.OwnsPlayer(playerID) {
		return fmt.Errorf("%w: player=%d", ErrPlayerNotOwned, playerID)
	}
	return nil
}

// CanSetRole enforces role-badge uniqueness within the roster. Clearing a
// badge always passes the uniqueness check, and reassigning a player their
// own current badge is a no-op, not a conflict.
func (s Snapshot) CanSetRole(playerID int64, badge role.Role) error {
	if !s.Phase().allowsTrading() {
		return ErrDraftClosed
	}
	if !badge.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, badge)
	}
	if !s.OwnsPlayer(playerID) {
		return fmt.Errorf("%w: player=%d", ErrPlayerNotOwned, playerID)
	}
	if badge.Empty() {
		return nil
	}
	for _, slot := range s.Roster {
		if slot.Role == badge && slot.PlayerID != playerID {
			return fmt.Errorf("%w: role=%s holder=%d", ErrRoleTaken, badge, slot.PlayerID)
		}
	}
	return nil
}

// CanLock succeeds only from the open phase with the roster at exactly the
// slot cap. A roster one short of the cap must be rejected.
func (s Snapshot) CanLock() error {
	switch s.Phase() {
	case PhaseRosterLocked:
		return ErrAlreadyLocked
	case PhaseStarted, PhaseFinished:
		return ErrDraftClosed
	}
	if len(s.Roster) != s.Limits.Slots {
		return fmt.Errorf("%w: have=%d want=%d", ErrRosterNotFull, len(s.Roster), s.Limits.Slots)
	}
	return nil
}

// CanUnlock requires an actual lock plus the server-computed permission.
func (s Snapshot) CanUnlock() error {
	switch s.Phase() {
	case PhaseStarted, PhaseFinished:
		return ErrDraftClosed
	case PhaseOpen:
		return ErrNotLocked
	}
	if !s.Flags.CanUnlock {
		return ErrUnlockDenied
	}
	return nil
}
