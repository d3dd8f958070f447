package domain

// EventType represents the type of outbound game event
type EventType string

const (
	EventRoomCreated      EventType = "room-created"
	EventJoinedRoom       EventType = "joined-room"
	EventPlayerJoined     EventType = "player-joined"
	EventPlayerLeft       EventType = "player-left"
	EventRolesUpdated     EventType = "roles-updated"
	EventRoleAssignment   EventType = "role-assignment"
	EventGameStarted      EventType = "game-started"
	EventPhaseChange      EventType = "phase-change"
	EventNightInfo        EventType = "night-info"
	EventButcherAction    EventType = "butcher-action"
	EventDoctorAction     EventType = "doctor-action"
	EventMayorOverride    EventType = "mayor-override"
	EventVoteCast         EventType = "vote-cast"
	EventNoElimination    EventType = "no-elimination"
	EventPlayerProtected  EventType = "player-protected"
	EventPlayerEliminated EventType = "player-eliminated"
	EventMayorPenalty     EventType = "mayor-penalty"
	EventGameEnded        EventType = "game-ended"
	EventGameRestarted    EventType = "game-restarted"
	EventChat             EventType = "chat"
	EventError            EventType = "error"
)

// Event is one outbound notification. An empty To means the whole room;
// Except suppresses delivery to a single member of a broadcast.
type Event struct {
	Type    EventType `json:"type"`
	To      string    `json:"-"`
	Except  string    `json:"-"`
	Payload any       `json:"payload,omitempty"`
}

// NewEvent creates a room-wide broadcast event.
func NewEvent(eventType EventType, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

// NewPlayerEvent creates an event delivered to a single player.
func NewPlayerEvent(eventType EventType, playerID string, payload any) Event {
	return Event{Type: eventType, To: playerID, Payload: payload}
}

// Payload types for the event envelopes

// WelcomePayload answers a create-room or join-room request.
type WelcomePayload struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	IsHost   bool          `json:"isHost"`
	Players  []RosterEntry `json:"players"`
}

// MembershipPayload announces a join or a leave to the rest of the room.
type MembershipPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

// RolesUpdatedPayload carries the optional-role toggles after a change.
type RolesUpdatedPayload struct {
	RolesEnabled map[OptionalRole]bool `json:"rolesEnabled"`
}

// RoleAssignmentPayload privately tells a player their own role.
type RoleAssignmentPayload struct {
	Role Role `json:"role"`
}

// GameStartedPayload announces the new game with a role-less roster.
type GameStartedPayload struct {
	Players      []RosterEntry         `json:"players"`
	RolesEnabled map[OptionalRole]bool `json:"rolesEnabled"`
	Phase        Phase                 `json:"phase"`
}

// PhaseChangePayload announces a phase transition.
type PhaseChangePayload struct {
	Phase Phase `json:"phase"`
}

// ButcherActionPayload is broadcast publicly at submission time: the target
// and effect type are not kept secret, unlike the doctor's choice.
type ButcherActionPayload struct {
	TargetID string `json:"targetId"`
	Mute     bool   `json:"mute"`
	Silence  bool   `json:"silence"`
}

// DoctorActionPayload acknowledges the protection choice to the doctor only.
type DoctorActionPayload struct {
	TargetID string `json:"targetId"`
}

// MayorOverridePayload announces that the mayor forced the round's tally.
type MayorOverridePayload struct {
	PlayerID string `json:"playerId"`
	TargetID string `json:"targetId"`
}

// VoteProgressPayload is broadcast after each vote without revealing choices.
type VoteProgressPayload struct {
	VotedCount    int `json:"votedCount"`
	EligibleCount int `json:"eligibleCount"`
}

// NoEliminationPayload announces a round that resolved without a death.
type NoEliminationPayload struct {
	Message string `json:"message"`
}

// PlayerProtectedPayload announces that the nominee survived protection.
type PlayerProtectedPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

// PlayerEliminatedPayload announces a death and the guilt category only.
type PlayerEliminatedPayload struct {
	PlayerID string  `json:"playerId"`
	Nickname string  `json:"nickname"`
	Verdict  Verdict `json:"verdict"`
}

// MayorPenaltyPayload announces the mayor's elimination after a wrong override.
type MayorPenaltyPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// GameEndedPayload announces the winner with every role revealed.
type GameEndedPayload struct {
	Winner  Winner        `json:"winner"`
	Players []RosterEntry `json:"players"`
}

// GameRestartedPayload returns the room to the lobby with roles cleared.
type GameRestartedPayload struct {
	Players      []RosterEntry         `json:"players"`
	Phase        Phase                 `json:"phase"`
	RolesEnabled map[OptionalRole]bool `json:"rolesEnabled"`
}

// ChatPayload carries a day-phase chat line.
type ChatPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// ErrorPayload reports a rejected action to its originator only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
