package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Stavsavv/PalermoNight/internal/domain"
	"github.com/Stavsavv/PalermoNight/internal/history"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// StaleRoomTimeout is how long an empty room may linger before the sweep
	// removes it. Rooms are normally destroyed the moment their last member
	// leaves; the sweep is a backstop.
	StaleRoomTimeout = 2 * time.Hour
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomHub owns every active room: it creates rooms with unique codes, looks
// them up, and tears them down. Rooms are fully independent of one another.
type RoomHub struct {
	sessions       map[string]*RoomSession
	mu             sync.RWMutex
	roomCodeLength int
	archive        history.Store
	logger         *slog.Logger
	done           chan struct{}
}

// NewRoomHub creates a room hub. The archive may be nil to disable match
// archiving.
func NewRoomHub(roomCodeLength int, archive history.Store, logger *slog.Logger) *RoomHub {
	if roomCodeLength <= 0 {
		roomCodeLength = DefaultRoomCodeLength
	}
	hub := &RoomHub{
		sessions:       make(map[string]*RoomSession),
		roomCodeLength: roomCodeLength,
		archive:        archive,
		logger:         logger,
		done:           make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// CreateRoom creates a new room and returns its session.
func (h *RoomHub) CreateRoom() (*RoomSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var roomCode string
	for attempts := 0; attempts < 10; attempts++ {
		roomCode = h.generateRoomCode()
		if _, exists := h.sessions[roomCode]; !exists {
			break
		}
	}
	if _, exists := h.sessions[roomCode]; exists {
		return nil, fmt.Errorf("failed to generate unique room code")
	}

	session := NewRoomSession(domain.NewRoom(roomCode), h.archive, h.logger)
	h.sessions[roomCode] = session

	h.logger.Info("room created", "roomCode", roomCode)

	return session, nil
}

// GetSession returns a room session by code.
func (h *RoomHub) GetSession(roomCode string) (*RoomSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return session, nil
}

// DeleteSession removes a room session.
func (h *RoomHub) DeleteSession(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[roomCode]; ok {
		session.Close()
		delete(h.sessions, roomCode)
		h.logger.Info("room destroyed", "roomCode", roomCode)
	}
}

// RoomCount returns the number of active rooms.
func (h *RoomHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// PlayerCount returns the total number of players across all rooms.
func (h *RoomHub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.PlayerCount()
	}
	return total
}

// Close shuts down the hub and all sessions.
func (h *RoomHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*RoomSession)
}

// generateRoomCode generates a random room code.
func (h *RoomHub) generateRoomCode() string {
	b := make([]byte, h.roomCodeLength)
	rand.Read(b)

	code := make([]byte, h.roomCodeLength)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}
	return string(code)
}

// cleanupLoop periodically sweeps rooms that somehow outlived their members.
func (h *RoomHub) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleRooms()
		}
	}
}

func (h *RoomHub) cleanupStaleRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for roomCode, session := range h.sessions {
		if session.PlayerCount() == 0 && now.Sub(session.CreatedAt()) > StaleRoomTimeout {
			session.Close()
			delete(h.sessions, roomCode)
			h.logger.Info("stale room cleaned up", "roomCode", roomCode)
		}
	}
}
