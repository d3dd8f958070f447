package domain

// ButcherEffect is the butcher's queued choice for the current night. It is
// applied at the night->day boundary if the target is still alive.
type ButcherEffect struct {
	TargetID string `json:"targetId"`
	Mute     bool   `json:"mute"`
	Silence  bool   `json:"silence"`
}

// Verdict is the public guilt category revealed on elimination.
type Verdict string

const (
	VerdictGuilty   Verdict = "Guilty"
	VerdictInnocent Verdict = "Innocent"
)

// Elimination records the outcome of a resolved day round.
type Elimination struct {
	PlayerID string  `json:"playerId"`
	Nickname string  `json:"nickname"`
	Verdict  Verdict `json:"verdict"`
}

// RoundState carries the pending effects and the tally of the current round.
// It is created at game start, fully replaced on restart, and partially reset
// at every day->night boundary.
type RoundState struct {
	Butcher         *ButcherEffect
	DoctorTarget    string
	OverrideTarget  string
	OverrideBy      string
	Votes           map[string]int // target id -> vote count among eligible voters
	LastElimination *Elimination

	pendingNight map[string]bool // player ids still owing a night action
}

// NewRoundState creates the round state for a fresh game.
func NewRoundState() *RoundState {
	return &RoundState{
		Votes:        make(map[string]int),
		pendingNight: make(map[string]bool),
	}
}

// ResetForNight clears everything that does not outlive a round. Each
// player's UsedOverride flag is deliberately not touched here.
func (rs *RoundState) ResetForNight() {
	rs.Butcher = nil
	rs.DoctorTarget = ""
	rs.OverrideTarget = ""
	rs.OverrideBy = ""
	rs.Votes = make(map[string]int)
}

// NightPending reports whether the given player still owes a night action.
func (rs *RoundState) NightPending(playerID string) bool {
	return rs.pendingNight[playerID]
}
