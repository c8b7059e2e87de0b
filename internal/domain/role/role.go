package role

import "strings"

// Role is a scoring-modifier badge carried by at most one roster slot
// per fantasy team. The empty value means no badge.
type Role string

const (
	None         Role = ""
	Multifragger Role = "MULTIFRAGGER"
	HSMachine    Role = "HS_MACHINE"
	EntryFragger Role = "ENTRY_FRAGGER"
	AWPer        Role = "AWPER"
	Support      Role = "SUPPORT"
	Clutcher     Role = "CLUTCHER"
	Anchor       Role = "ANCHOR"
	IGL          Role = "IGL"
)

var All = map[Role]struct{}{
	None:         {},
	Multifragger: {},
	HSMachine:    {},
	EntryFragger: {},
	AWPer:        {},
	Support:      {},
	Clutcher:     {},
	Anchor:       {},
	IGL:          {},
}

func (r Role) Valid() bool {
	_, ok := All[r]
	return ok
}

func (r Role) Empty() bool {
	return r == None
}

// Parse normalizes a raw badge value. Blank or whitespace-only input
// clears the badge, matching the backend's treatment of "" and null.
func Parse(raw string) (Role, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return None, true
	}

	r := Role(strings.ToUpper(trimmed))
	if !r.Valid() {
		return None, false
	}

	return r, true
}
