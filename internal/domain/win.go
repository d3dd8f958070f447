package domain

// Winner names the side that won a game.
type Winner string

const (
	WinnerCitizens  Winner = "Citizens"
	WinnerMurderers Winner = "Murderers"
)

// EvaluateWinner decides the game from the roster. With no murderers left
// the citizens win; once the murderers reach parity with the citizens they
// win (a tie favors them). It is evaluated only right after an elimination,
// never after a protection or a no-elimination round.
func EvaluateWinner(players []*Player) (Winner, bool) {
	var murderers, citizens int
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.Role.IsMurderer() {
			murderers++
		} else {
			citizens++
		}
	}

	if murderers == 0 {
		return WinnerCitizens, true
	}
	if murderers >= citizens {
		return WinnerMurderers, true
	}
	return "", false
}
