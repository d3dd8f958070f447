package domain

// Phase represents the current phase of a room
type Phase string

const (
	PhaseLobby Phase = "lobby" // Waiting for players to join
	PhaseNight Phase = "night" // Night roles choose their targets
	PhaseDay   Phase = "day"   // Discussion and voting
	PhaseEnded Phase = "ended" // One side has won
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid.
// Elimination and no-elimination are broadcast outcomes of a day round, not phases.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby: {PhaseNight},
		PhaseNight: {PhaseDay},
		PhaseDay:   {PhaseNight, PhaseEnded},
		PhaseEnded: {PhaseLobby}, // host restart keeps the room alive
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
