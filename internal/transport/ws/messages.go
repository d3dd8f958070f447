package ws

// MessageType represents the type of an inbound WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateRoom   MessageType = "create-room"
	MsgJoinRoom     MessageType = "join-room"
	MsgStartGame    MessageType = "start-game"
	MsgPlayerAction MessageType = "player-action"
	MsgVote         MessageType = "vote"
	MsgChat         MessageType = "chat"
	MsgToggleRole   MessageType = "toggle-role"
	MsgRestartGame  MessageType = "restart-game"
)

// ClientMessage is the flat inbound envelope. Which fields matter depends on
// the message type; server → client traffic uses domain.Event instead.
type ClientMessage struct {
	Type     MessageType `json:"type"`
	Nickname string      `json:"nickname,omitempty"`
	RoomID   string      `json:"roomId,omitempty"`
	Action   string      `json:"action,omitempty"`
	TargetID string      `json:"targetId,omitempty"`
	Mute     bool        `json:"mute,omitempty"`
	Silence  bool        `json:"silence,omitempty"`
	Message  string      `json:"message,omitempty"`
	Role     string      `json:"role,omitempty"`
}

// Error codes reported back to the originating client
const (
	ErrCodeRoomNotFound        = "ROOM_NOT_FOUND"
	ErrCodeGameAlreadyStarted  = "GAME_ALREADY_STARTED"
	ErrCodeNotEnoughPlayers    = "NOT_ENOUGH_PLAYERS"
	ErrCodeNotHost             = "NOT_HOST"
	ErrCodePlayerNotFound      = "PLAYER_NOT_FOUND"
	ErrCodeInvalidTarget       = "INVALID_TARGET"
	ErrCodeInvalidRoleToggle   = "INVALID_ROLE_TOGGLE"
	ErrCodeActionNotPermitted  = "ACTION_NOT_PERMITTED"
	ErrCodeDeadPlayerVote      = "DEAD_PLAYER_VOTE"
	ErrCodeMutedOrSilencedVote = "MUTED_OR_SILENCED_VOTE"
	ErrCodeMalformedAction     = "MALFORMED_ACTION"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)
