package draft

// Phase is the single authoritative lifecycle state of a draft, derived
// once per snapshot from the backend's boolean flags.
type Phase string

const (
	PhaseOpen         Phase = "open"
	PhaseRosterLocked Phase = "roster_locked"
	PhaseStarted      Phase = "started"
	PhaseFinished     Phase = "finished"
)

// Action is a user-initiated draft mutation.
type Action string

const (
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
	ActionSetRole Action = "set_role"
	ActionLock    Action = "lock"
	ActionUnlock  Action = "unlock"
)

// DerivePhase collapses the flag combination into one state. Finished wins
// over everything; a started tournament wins over a user roster lock.
func DerivePhase(f Flags) Phase {
	switch {
	case f.Finished:
		return PhaseFinished
	case f.Started:
		return PhaseStarted
	case f.RosterLocked:
		return PhaseRosterLocked
	default:
		return PhaseOpen
	}
}

func (s Snapshot) Phase() Phase {
	return DerivePhase(s.Flags)
}

// allowsTrading reports whether buy/sell/set_role are permitted in the
// phase. A user roster lock deliberately does NOT block trading; only the
// tournament starting or finishing does. This mirrors the backend exactly
// even though it reads oddly next to the lock feature.
func (p Phase) allowsTrading() bool {
	return p == PhaseOpen || p == PhaseRosterLocked
}

// AllowedActions evaluates the full legality table for a snapshot: which
// actions currently pass their lifecycle precondition plus any structural
// precondition (full roster for lock, server permission for unlock). Buy,
// sell and set_role verdicts here cover lifecycle only; per-listing
// constraints are checked by CanBuy/CanSell/CanSetRole.
func (s Snapshot) AllowedActions() map[Action]bool {
	phase := s.Phase()
	return map[Action]bool{
		ActionBuy:     phase.allowsTrading(),
		ActionSell:    phase.allowsTrading(),
		ActionSetRole: phase.allowsTrading(),
		ActionLock:    phase == PhaseOpen && len(s.Roster) == s.Limits.Slots,
		ActionUnlock:  phase == PhaseRosterLocked && s.Flags.CanUnlock,
	}
}
