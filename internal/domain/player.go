package domain

// Player holds one member's game state. The transport handle lives in the
// app layer; nothing here knows about connections.
type Player struct {
	ID           string
	Nickname     string
	Role         Role   // empty until roles are dealt
	Alive        bool
	Muted        bool   // butcher effect: cannot chat or vote
	Silenced     bool   // butcher effect: cannot vote
	Vote         string // target player id, empty until cast
	Protected    bool   // doctor protection, this round only
	UsedOverride bool   // mayor override spent, persists until restart
}

// NewPlayer creates a new player with the given ID and nickname
func NewPlayer(id, nickname string) *Player {
	return &Player{
		ID:       id,
		Nickname: nickname,
		Alive:    true,
	}
}

// ResetRound clears the per-round fields at the day->night boundary.
// UsedOverride survives; only a restart clears it.
func (p *Player) ResetRound() {
	p.Vote = ""
	p.Muted = false
	p.Silenced = false
	p.Protected = false
}

// ResetGame returns the player to a pre-deal lobby state.
func (p *Player) ResetGame() {
	p.Role = ""
	p.Alive = true
	p.UsedOverride = false
	p.ResetRound()
}

// CanVote reports whether the player is an eligible voter this round.
func (p *Player) CanVote() bool {
	return p.Alive && !p.Muted && !p.Silenced
}

// RosterEntry is the public view of a player. Role stays empty until the
// game has ended; private role knowledge travels in role-assignment and
// night-info events only.
type RosterEntry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsAlive  bool   `json:"isAlive"`
	Role     Role   `json:"role,omitempty"`
	IsHost   bool   `json:"isHost"`
}
