package app

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Stavsavv/PalermoNight/internal/domain"
	"github.com/Stavsavv/PalermoNight/internal/history"
)

// Player-action verbs carried inside the player-action envelope.
const (
	ActionChooseTarget = "choose-target"
	ActionSkip         = "skip"
	ActionOverrideVote = "override-vote"
)

// ClientConnection is the transport handle for one room member. Domain state
// never references it; sessions fan events out through this interface, which
// keeps the game testable without real connections.
type ClientConnection interface {
	Send(event domain.Event) error
	Close() error
}

// RoomSession wraps a room with concurrency control and client management.
// One mutex strictly serializes every read and write of the room; each
// inbound action runs to completion under it, and there are no timers — a
// round waits indefinitely for its actions or an override. Event delivery
// runs on a separate goroutine so broadcasting never blocks a mutation.
type RoomSession struct {
	room *domain.Room
	mu   sync.Mutex

	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex

	archive history.Store
	logger  *slog.Logger

	events chan domain.Event
	done   chan struct{}
}

// NewRoomSession creates a session for the given room. The archive may be nil.
func NewRoomSession(room *domain.Room, archive history.Store, logger *slog.Logger) *RoomSession {
	session := &RoomSession{
		room:    room,
		clients: make(map[string]ClientConnection),
		archive: archive,
		logger:  logger,
		events:  make(chan domain.Event, 100),
		done:    make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// Code returns the room code.
func (s *RoomSession) Code() string {
	return s.room.Code
}

// CreatedAt returns when the room was created.
func (s *RoomSession) CreatedAt() time.Time {
	return s.room.CreatedAt
}

// PlayerCount returns the current membership count.
func (s *RoomSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Len()
}

// Phase returns the current room phase.
func (s *RoomSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase
}

// CanJoin checks if a new player can join the room.
func (s *RoomSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase == domain.PhaseLobby
}

// RegisterClient registers a client connection for a player.
func (s *RoomSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

// UnregisterClient removes a client connection.
func (s *RoomSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// JoinResult tells the joining client what it needs for its welcome message.
type JoinResult struct {
	IsHost bool
	Roster []domain.RosterEntry
}

// Join adds a player to the room and announces the join to everyone else.
func (s *RoomSession) Join(playerID, nickname string) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.AddPlayer(playerID, nickname)
	if err != nil {
		return nil, err
	}

	ev := domain.NewEvent(domain.EventPlayerJoined, domain.MembershipPayload{
		PlayerID: player.ID,
		Nickname: player.Nickname,
	})
	ev.Except = playerID
	s.queueEvent(ev)

	return &JoinResult{
		IsHost: s.room.IsHost(playerID),
		Roster: s.room.Roster(),
	}, nil
}

// Leave removes a player immediately and unconditionally; there is no
// reconnection grace period. It reports whether the room is now empty, in
// which case the caller destroys it. A departure can complete the round it
// interrupts: a missing night actor no longer blocks morning and a missing
// voter no longer blocks the tally.
func (s *RoomSession) Leave(playerID string) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.RemovePlayer(playerID)
	if err != nil {
		return s.room.Len() == 0
	}

	s.queueEvent(domain.NewEvent(domain.EventPlayerLeft, domain.MembershipPayload{
		PlayerID: player.ID,
		Nickname: player.Nickname,
	}))

	switch s.room.Phase {
	case domain.PhaseNight:
		if s.room.NightComplete() {
			s.advanceToDay()
		}
	case domain.PhaseDay:
		s.room.Retally()
		if s.room.AllVoted() {
			s.resolveDay()
		}
	}

	return s.room.Len() == 0
}

// ToggleRole flips an optional role in the lobby configuration (host only).
func (s *RoomSession) ToggleRole(playerID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}
	role, err := domain.ParseOptionalRole(roleName)
	if err != nil {
		return err
	}

	enabled := s.room.ToggleRole(role)
	s.queueEvent(domain.NewEvent(domain.EventRolesUpdated, domain.RolesUpdatedPayload{
		RolesEnabled: enabled,
	}))
	return nil
}

// Start deals roles and opens the first night (host only). Each player is
// privately told only their own role; the public announcement carries a
// roster without roles.
func (s *RoomSession) Start(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}
	if err := s.room.Start(); err != nil {
		return err
	}

	for _, p := range s.room.Players() {
		s.queueEvent(domain.NewPlayerEvent(domain.EventRoleAssignment, p.ID, domain.RoleAssignmentPayload{
			Role: p.Role,
		}))
	}

	s.queueEvent(domain.NewEvent(domain.EventGameStarted, domain.GameStartedPayload{
		Players:      s.room.Roster(),
		RolesEnabled: s.room.RolesEnabled,
		Phase:        s.room.Phase,
	}))

	s.openNight()
	return nil
}

// PlayerAction handles the phase- and role-dependent player-action envelope.
func (s *RoomSession) PlayerAction(playerID, action, targetID string, mute, silence bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.room.Phase {
	case domain.PhaseNight:
		return s.nightAction(playerID, action, targetID, mute, silence)
	case domain.PhaseDay:
		return s.dayAction(playerID, action, targetID)
	default:
		return domain.ErrActionNotPermitted
	}
}

func (s *RoomSession) nightAction(playerID, action, targetID string, mute, silence bool) error {
	switch action {
	case ActionSkip:
		if err := s.room.PassNight(playerID); err != nil {
			return err
		}
	case ActionChooseTarget:
		player, err := s.room.Player(playerID)
		if err != nil {
			return err
		}
		switch player.Role {
		case domain.RoleButcher:
			if err := s.room.RecordButcherChoice(playerID, targetID, mute, silence); err != nil {
				return err
			}
			// Unlike other night actions, the butcher's choice is public.
			s.queueEvent(domain.NewEvent(domain.EventButcherAction, domain.ButcherActionPayload{
				TargetID: targetID,
				Mute:     mute,
				Silence:  silence,
			}))
		case domain.RoleDoctor:
			if err := s.room.RecordDoctorChoice(playerID, targetID); err != nil {
				return err
			}
			s.queueEvent(domain.NewPlayerEvent(domain.EventDoctorAction, playerID, domain.DoctorActionPayload{
				TargetID: targetID,
			}))
		default:
			return domain.ErrActionNotPermitted
		}
	default:
		return domain.ErrMalformedAction
	}

	if s.room.NightComplete() {
		s.advanceToDay()
	}
	return nil
}

func (s *RoomSession) dayAction(playerID, action, targetID string) error {
	if action != ActionOverrideVote {
		return domain.ErrActionNotPermitted
	}
	if err := s.room.UseOverride(playerID, targetID); err != nil {
		return err
	}

	s.queueEvent(domain.NewEvent(domain.EventMayorOverride, domain.MayorOverridePayload{
		PlayerID: playerID,
		TargetID: targetID,
	}))

	// The override forces the tally immediately, voted or not.
	s.resolveDay()
	return nil
}

// Vote records a day vote; a repeated vote overwrites the previous one. The
// round resolves once every eligible voter has voted.
func (s *RoomSession) Vote(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.room.CastVote(playerID, targetID); err != nil {
		return err
	}

	voted, eligible := s.room.VoteProgress()
	s.queueEvent(domain.NewEvent(domain.EventVoteCast, domain.VoteProgressPayload{
		VotedCount:    voted,
		EligibleCount: eligible,
	}))

	if s.room.AllVoted() {
		s.resolveDay()
	}
	return nil
}

// Chat broadcasts a day-phase message from a living, unmuted player.
func (s *RoomSession) Chat(playerID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.Phase != domain.PhaseDay {
		return domain.ErrActionNotPermitted
	}
	player, err := s.room.Player(playerID)
	if err != nil {
		return err
	}
	if !player.Alive || player.Muted {
		return domain.ErrActionNotPermitted
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ErrMalformedAction
	}

	s.queueEvent(domain.NewEvent(domain.EventChat, domain.ChatPayload{
		PlayerID: player.ID,
		Nickname: player.Nickname,
		Message:  message,
	}))
	return nil
}

// Restart returns an ended room to the lobby (host only), preserving
// membership and clearing all roles and round state.
func (s *RoomSession) Restart(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}
	if err := s.room.Restart(); err != nil {
		return err
	}

	s.queueEvent(domain.NewEvent(domain.EventGameRestarted, domain.GameRestartedPayload{
		Players:      s.room.Roster(),
		Phase:        s.room.Phase,
		RolesEnabled: s.room.RolesEnabled,
	}))
	return nil
}

// openNight announces the night phase and sends each living player their
// freshly computed private view. A night with no living night actors falls
// straight through to day. Caller must hold the lock.
func (s *RoomSession) openNight() {
	s.queueEvent(domain.NewEvent(domain.EventPhaseChange, domain.PhaseChangePayload{
		Phase: domain.PhaseNight,
	}))

	for _, p := range s.room.Players() {
		if p.Alive {
			s.queueEvent(domain.NewPlayerEvent(domain.EventNightInfo, p.ID, s.room.RoleViewFor(p)))
		}
	}

	if s.room.NightComplete() {
		s.advanceToDay()
	}
}

// advanceToDay applies queued night effects and announces morning. Caller
// must hold the lock.
func (s *RoomSession) advanceToDay() {
	s.room.BeginDay()
	s.queueEvent(domain.NewEvent(domain.EventPhaseChange, domain.PhaseChangePayload{
		Phase: domain.PhaseDay,
	}))
}

// resolveDay runs the tally and elimination algorithm and broadcasts the
// outcome, then either opens the next night or ends the game. Caller must
// hold the lock.
func (s *RoomSession) resolveDay() {
	out := s.room.ResolveDay()

	switch {
	case out.NoElimination:
		s.queueEvent(domain.NewEvent(domain.EventNoElimination, domain.NoEliminationPayload{
			Message: "No player eliminated due to tie or no votes",
		}))
	case out.Protected != nil:
		s.queueEvent(domain.NewEvent(domain.EventPlayerProtected, domain.PlayerProtectedPayload{
			PlayerID: out.Protected.ID,
			Nickname: out.Protected.Nickname,
		}))
	case out.Eliminated != nil:
		s.queueEvent(domain.NewEvent(domain.EventPlayerEliminated, domain.PlayerEliminatedPayload{
			PlayerID: out.Eliminated.ID,
			Nickname: out.Eliminated.Nickname,
			Verdict:  out.Verdict,
		}))
		if out.MayorPenalty != nil {
			s.queueEvent(domain.NewEvent(domain.EventMayorPenalty, domain.MayorPenaltyPayload{
				PlayerID: out.MayorPenalty.ID,
				Nickname: out.MayorPenalty.Nickname,
				Message:  "Mayor eliminated for wrong override",
			}))
		}
	}

	if out.HasWinner {
		s.queueEvent(domain.NewEvent(domain.EventGameEnded, domain.GameEndedPayload{
			Winner:  out.Winner,
			Players: s.room.Roster(),
		}))
		s.archiveMatch(out.Winner)
		return
	}

	s.openNight()
}

// archiveMatch snapshots the finished game under the lock and writes it out
// asynchronously. Caller must hold the lock.
func (s *RoomSession) archiveMatch(winner domain.Winner) {
	if s.archive == nil {
		return
	}

	rec := history.Record{
		RoomCode:  s.room.Code,
		Winner:    string(winner),
		StartedAt: s.room.StartedAt,
		EndedAt:   time.Now(),
		Rounds:    s.room.RoundNumber,
	}
	for _, p := range s.room.Players() {
		rec.Players = append(rec.Players, history.PlayerResult{
			Nickname: p.Nickname,
			Role:     string(p.Role),
			Survived: p.Alive,
		})
	}

	go func() {
		if err := s.archive.Save(rec); err != nil {
			s.logger.Error("failed to archive match", "roomCode", rec.RoomCode, "error", err)
		}
	}()
}

// queueEvent adds an event to the broadcast queue without blocking.
func (s *RoomSession) queueEvent(event domain.Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop processes events and broadcasts to clients.
func (s *RoomSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to the appropriate clients.
func (s *RoomSession) broadcastEvent(event domain.Event) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if event.To != "" {
		if client, ok := s.clients[event.To]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.To, "error", err)
			}
		}
		return
	}

	for playerID, client := range s.clients {
		if playerID == event.Except {
			continue
		}
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session.
func (s *RoomSession) Close() {
	select {
	case <-s.done:
		return // Already closed
	default:
		close(s.done)
	}

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
