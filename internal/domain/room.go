package domain

import "time"

// Room is one isolated game session. All methods assume the caller holds the
// room's exclusive lock (see the app package); nothing here is safe for
// concurrent use on its own.
type Room struct {
	Code         string
	HostID       string
	Phase        Phase
	RolesEnabled map[OptionalRole]bool
	Round        *RoundState
	RoundNumber  int
	StartedAt    time.Time
	CreatedAt    time.Time

	players map[string]*Player
	order   []string // join order, preserved for dealing
}

// NewRoom creates an empty room in the lobby phase.
func NewRoom(code string) *Room {
	return &Room{
		Code:         code,
		Phase:        PhaseLobby,
		RolesEnabled: DefaultEnabledRoles(),
		CreatedAt:    time.Now(),
		players:      make(map[string]*Player),
	}
}

// Player returns a member by ID.
func (r *Room) Player(id string) (*Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// Players returns the members in join order.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Len returns the current membership count.
func (r *Room) Len() int {
	return len(r.players)
}

// IsHost checks if the given player owns the room.
func (r *Room) IsHost(id string) bool {
	return id != "" && id == r.HostID
}

// AddPlayer adds a player while the room is still in the lobby. The first
// player to join becomes the host.
func (r *Room) AddPlayer(id, nickname string) (*Player, error) {
	if r.Phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}

	p := NewPlayer(id, nickname)
	r.players[id] = p
	r.order = append(r.order, id)
	if r.HostID == "" {
		r.HostID = id
	}
	return p, nil
}

// RemovePlayer removes a member entirely; there is no reconnection grace. If
// the host leaves a non-empty room, the longest-joined remaining player
// inherits it.
func (r *Room) RemovePlayer(id string) (*Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}

	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.HostID == id {
		r.HostID = ""
		if len(r.order) > 0 {
			r.HostID = r.order[0]
		}
	}
	if r.Round != nil {
		delete(r.Round.pendingNight, id)
	}
	return p, nil
}

// Roster returns the public player list. Roles are revealed only by the
// game-ended roster.
func (r *Room) Roster() []RosterEntry {
	entries := make([]RosterEntry, 0, len(r.order))
	for _, p := range r.Players() {
		e := RosterEntry{
			ID:       p.ID,
			Nickname: p.Nickname,
			IsAlive:  p.Alive,
			IsHost:   r.IsHost(p.ID),
		}
		if r.Phase == PhaseEnded {
			e.Role = p.Role
		}
		entries = append(entries, e)
	}
	return entries
}

// ToggleRole flips an optional role for the next deal and returns the new
// configuration.
func (r *Room) ToggleRole(role OptionalRole) map[OptionalRole]bool {
	r.RolesEnabled[role] = !r.RolesEnabled[role]
	return r.RolesEnabled
}

// Start deals roles in join order and moves the room into the first night.
// The host check belongs to the caller.
func (r *Room) Start() error {
	if r.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}

	roles, err := DealRoles(len(r.order), r.RolesEnabled)
	if err != nil {
		return err
	}

	for i, p := range r.Players() {
		p.ResetGame()
		p.Role = roles[i]
	}
	r.Round = NewRoundState()
	r.RoundNumber = 1
	r.StartedAt = time.Now()
	r.Phase = PhaseNight
	r.collectNightActors()
	return nil
}

// collectNightActors records which living players owe a night action this round.
func (r *Room) collectNightActors() {
	r.Round.pendingNight = make(map[string]bool)
	for _, p := range r.players {
		if p.Alive && p.Role.HasNightAction() {
			r.Round.pendingNight[p.ID] = true
		}
	}
}

// NightComplete reports whether every night actor has acted or passed. A
// night with no living night actors completes immediately.
func (r *Room) NightComplete() bool {
	return r.Phase == PhaseNight && len(r.Round.pendingNight) == 0
}

func (r *Room) nightActor(id string) (*Player, error) {
	if r.Phase != PhaseNight {
		return nil, ErrActionNotPermitted
	}
	p, err := r.Player(id)
	if err != nil {
		return nil, err
	}
	if !p.Alive {
		return nil, ErrActionNotPermitted
	}
	return p, nil
}

// RecordButcherChoice queues the mute/silence effect for the coming day.
// Resubmitting overwrites the previous choice while the night lasts.
func (r *Room) RecordButcherChoice(actorID, targetID string, mute, silence bool) error {
	p, err := r.nightActor(actorID)
	if err != nil {
		return err
	}
	if p.Role != RoleButcher {
		return ErrActionNotPermitted
	}
	if _, ok := r.players[targetID]; !ok {
		return ErrInvalidTarget
	}

	r.Round.Butcher = &ButcherEffect{TargetID: targetID, Mute: mute, Silence: silence}
	delete(r.Round.pendingNight, actorID)
	return nil
}

// RecordDoctorChoice queues this round's protection target.
func (r *Room) RecordDoctorChoice(actorID, targetID string) error {
	p, err := r.nightActor(actorID)
	if err != nil {
		return err
	}
	if p.Role != RoleDoctor {
		return ErrActionNotPermitted
	}
	if _, ok := r.players[targetID]; !ok {
		return ErrInvalidTarget
	}

	r.Round.DoctorTarget = targetID
	delete(r.Round.pendingNight, actorID)
	return nil
}

// PassNight lets a night actor explicitly defer their action for the round.
func (r *Room) PassNight(actorID string) error {
	p, err := r.nightActor(actorID)
	if err != nil {
		return err
	}
	if !r.Round.pendingNight[p.ID] {
		return ErrActionNotPermitted
	}
	delete(r.Round.pendingNight, p.ID)
	return nil
}

// BeginDay applies the queued night effects and opens voting. The butcher
// and doctor effects only land on targets that are still alive.
func (r *Room) BeginDay() {
	if eff := r.Round.Butcher; eff != nil {
		if t, ok := r.players[eff.TargetID]; ok && t.Alive {
			if eff.Mute {
				t.Muted = true
			}
			if eff.Silence {
				t.Silenced = true
			}
		}
	}
	if id := r.Round.DoctorTarget; id != "" {
		if t, ok := r.players[id]; ok && t.Alive {
			t.Protected = true
		}
	}
	r.Phase = PhaseDay
}

// CastVote records or overwrites a vote and re-runs the tally. The target
// only has to be a known member; dead players are legal nominees.
func (r *Room) CastVote(voterID, targetID string) error {
	if r.Phase != PhaseDay {
		return ErrActionNotPermitted
	}
	if _, ok := r.players[targetID]; !ok {
		return ErrInvalidTarget
	}
	voter, err := r.Player(voterID)
	if err != nil {
		return err
	}
	if !voter.Alive {
		return ErrDeadPlayerVote
	}
	if voter.Muted || voter.Silenced {
		return ErrMutedOrSilencedVote
	}

	voter.Vote = targetID
	r.Retally()
	return nil
}

// Retally recounts votes per target among eligible voters.
func (r *Room) Retally() {
	votes := make(map[string]int)
	for _, p := range r.players {
		if p.Vote != "" && p.CanVote() {
			votes[p.Vote]++
		}
	}
	r.Round.Votes = votes
}

// AllVoted reports whether every eligible voter has cast a vote.
func (r *Room) AllVoted() bool {
	for _, p := range r.players {
		if p.CanVote() && p.Vote == "" {
			return false
		}
	}
	return true
}

// VoteProgress returns how many eligible voters have voted and how many exist.
func (r *Room) VoteProgress() (voted, eligible int) {
	for _, p := range r.players {
		if !p.CanVote() {
			continue
		}
		eligible++
		if p.Vote != "" {
			voted++
		}
	}
	return voted, eligible
}

// UseOverride spends the mayor's one-time override. The round must then be
// resolved immediately by the caller, bypassing the all-voted requirement.
func (r *Room) UseOverride(actorID, targetID string) error {
	if r.Phase != PhaseDay {
		return ErrActionNotPermitted
	}
	p, err := r.Player(actorID)
	if err != nil {
		return err
	}
	if !p.Alive || p.Role != RoleMayor {
		return ErrActionNotPermitted
	}
	if p.UsedOverride {
		return ErrOverrideAlreadyUsed
	}
	if _, ok := r.players[targetID]; !ok {
		return ErrInvalidTarget
	}

	p.UsedOverride = true
	r.Round.OverrideTarget = targetID
	r.Round.OverrideBy = actorID
	return nil
}

// DayOutcome describes how a day round resolved.
type DayOutcome struct {
	NoElimination bool
	Protected     *Player
	Eliminated    *Player
	Verdict       Verdict
	MayorPenalty  *Player
	Winner        Winner
	HasWinner     bool
}

// ResolveDay tallies the round, runs the elimination algorithm and advances
// the phase: to night on a survivable outcome, to ended on a win.
func (r *Room) ResolveDay() DayOutcome {
	nominee, ok := r.nominee()
	if !ok {
		r.beginNight()
		return DayOutcome{NoElimination: true}
	}
	return r.eliminate(nominee)
}

// nominee picks the unique maximum of the tally, with the mayor's override
// target replacing it outright. A tie at the maximum, including the
// zero-vote round where every target ties at zero, yields no nominee.
func (r *Room) nominee() (string, bool) {
	max := 0
	var leaders []string
	for id, n := range r.Round.Votes {
		switch {
		case n > max:
			max = n
			leaders = []string{id}
		case n == max:
			leaders = append(leaders, id)
		}
	}
	if len(leaders) != 1 {
		return "", false
	}
	if r.Round.OverrideTarget != "" {
		return r.Round.OverrideTarget, true
	}
	return leaders[0], true
}

func (r *Room) eliminate(targetID string) DayOutcome {
	target, ok := r.players[targetID]
	if !ok || !target.Alive {
		// A dead or departed nominee cannot die again; the round still ends.
		r.beginNight()
		return DayOutcome{NoElimination: true}
	}

	if target.Protected {
		r.beginNight()
		return DayOutcome{Protected: target}
	}

	target.Alive = false
	verdict := VerdictInnocent
	if target.Role.IsMurderer() {
		verdict = VerdictGuilty
	}
	r.Round.LastElimination = &Elimination{PlayerID: target.ID, Nickname: target.Nickname, Verdict: verdict}
	out := DayOutcome{Eliminated: target, Verdict: verdict}

	// A wrong override costs the mayor their own life, guilt irrelevant.
	if verdict == VerdictInnocent && r.Round.OverrideBy != "" {
		if mayor, ok := r.players[r.Round.OverrideBy]; ok && mayor.Alive {
			mayor.Alive = false
			out.MayorPenalty = mayor
		}
	}

	if winner, over := EvaluateWinner(r.Players()); over {
		out.Winner = winner
		out.HasWinner = true
		r.Phase = PhaseEnded
		return out
	}

	r.beginNight()
	return out
}

// beginNight clears the per-round fields and opens the next night.
func (r *Room) beginNight() {
	for _, p := range r.players {
		p.ResetRound()
	}
	r.Round.ResetForNight()
	r.RoundNumber++
	r.Phase = PhaseNight
	r.collectNightActors()
}

// Restart returns an ended room to the lobby, preserving membership and the
// optional-role configuration.
func (r *Room) Restart() error {
	if r.Phase != PhaseEnded {
		return ErrActionNotPermitted
	}
	for _, p := range r.players {
		p.ResetGame()
	}
	r.Round = nil
	r.RoundNumber = 0
	r.Phase = PhaseLobby
	return nil
}
