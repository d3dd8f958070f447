package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
	ErrNotHost             = errors.New("only the host can perform this action")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrInvalidRoleToggle   = errors.New("invalid role to toggle")
	ErrActionNotPermitted  = errors.New("action not permitted")
	ErrOverrideAlreadyUsed = errors.New("mayor override already used")
	ErrDeadPlayerVote      = errors.New("dead players cannot vote")
	ErrMutedOrSilencedVote = errors.New("cannot vote due to butcher effect")
	ErrMalformedAction     = errors.New("malformed action")
)
