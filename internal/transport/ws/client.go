package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Stavsavv/PalermoNight/internal/app"
	"github.com/Stavsavv/PalermoNight/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection. A connection starts
// unattached; the first create-room or join-room message binds it to a room
// and a player for the rest of its life.
type Client struct {
	conn     *websocket.Conn
	hub      *app.RoomHub
	session  *app.RoomSession
	playerID string
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client.
func NewClient(conn *websocket.Conn, hub *app.RoomHub, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Send implements app.ClientConnection.
func (c *Client) Send(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. When the read side
// ends for any reason the player is removed from their room on the spot.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// detach removes the player from their room and destroys the room when the
// last member leaves.
func (c *Client) detach() {
	if c.session == nil {
		return
	}

	c.session.UnregisterClient(c.playerID)
	if empty := c.session.Leave(c.playerID); empty {
		c.hub.DeleteSession(c.session.Code())
	}
	c.session = nil
	c.playerID = ""
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client. A malformed
// message is dropped with a local diagnostic; the connection stays open.
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("invalid message", "error", err)
		c.sendError(ErrCodeMalformedAction, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg)
	case MsgJoinRoom:
		c.handleJoinRoom(msg)
	case MsgStartGame:
		c.handleStartGame()
	case MsgPlayerAction:
		c.handlePlayerAction(msg)
	case MsgVote:
		c.handleVote(msg)
	case MsgChat:
		c.handleChat(msg)
	case MsgToggleRole:
		c.handleToggleRole(msg)
	case MsgRestartGame:
		c.handleRestartGame()
	default:
		c.sendError(ErrCodeMalformedAction, "Unknown message type")
	}
}

// handleCreateRoom creates a room and seats the creator as its host.
func (c *Client) handleCreateRoom(msg ClientMessage) {
	if c.session != nil {
		c.sendError(ErrCodeActionNotPermitted, "Already in a room")
		return
	}

	session, err := c.hub.CreateRoom()
	if err != nil {
		c.sendError(ErrCodeInternalError, "Failed to create room")
		return
	}

	playerID := uuid.New().String()
	session.RegisterClient(playerID, c)
	result, err := session.Join(playerID, defaultNickname(msg.Nickname))
	if err != nil {
		session.UnregisterClient(playerID)
		c.hub.DeleteSession(session.Code())
		c.sendError(ErrCodeInternalError, err.Error())
		return
	}

	c.session = session
	c.playerID = playerID

	c.Send(domain.NewEvent(domain.EventRoomCreated, domain.WelcomePayload{
		RoomID:   session.Code(),
		PlayerID: playerID,
		IsHost:   result.IsHost,
		Players:  result.Roster,
	}))
}

// handleJoinRoom joins an existing lobby by code.
func (c *Client) handleJoinRoom(msg ClientMessage) {
	if c.session != nil {
		c.sendError(ErrCodeActionNotPermitted, "Already in a room")
		return
	}

	session, err := c.hub.GetSession(msg.RoomID)
	if err != nil {
		c.sendError(ErrCodeRoomNotFound, "Room not found")
		return
	}

	playerID := uuid.New().String()
	session.RegisterClient(playerID, c)
	result, err := session.Join(playerID, defaultNickname(msg.Nickname))
	if err != nil {
		session.UnregisterClient(playerID)
		c.sendDomainError(err)
		return
	}

	c.session = session
	c.playerID = playerID

	c.Send(domain.NewEvent(domain.EventJoinedRoom, domain.WelcomePayload{
		RoomID:   session.Code(),
		PlayerID: playerID,
		IsHost:   result.IsHost,
		Players:  result.Roster,
	}))
}

func (c *Client) handleStartGame() {
	if !c.requireRoom() {
		return
	}
	if err := c.session.Start(c.playerID); err != nil {
		c.sendDomainError(err)
	}
}

func (c *Client) handlePlayerAction(msg ClientMessage) {
	if !c.requireRoom() {
		return
	}
	if err := c.session.PlayerAction(c.playerID, msg.Action, msg.TargetID, msg.Mute, msg.Silence); err != nil {
		c.sendDomainError(err)
	}
}

func (c *Client) handleVote(msg ClientMessage) {
	if !c.requireRoom() {
		return
	}
	if err := c.session.Vote(c.playerID, msg.TargetID); err != nil {
		c.sendDomainError(err)
	}
}

func (c *Client) handleChat(msg ClientMessage) {
	if !c.requireRoom() {
		return
	}
	if err := c.session.Chat(c.playerID, msg.Message); err != nil {
		c.sendDomainError(err)
	}
}

func (c *Client) handleToggleRole(msg ClientMessage) {
	if !c.requireRoom() {
		return
	}
	if err := c.session.ToggleRole(c.playerID, msg.Role); err != nil {
		c.sendDomainError(err)
	}
}

func (c *Client) handleRestartGame() {
	if !c.requireRoom() {
		return
	}
	if err := c.session.Restart(c.playerID); err != nil {
		c.sendDomainError(err)
	}
}

// requireRoom rejects room-scoped messages from unattached connections.
func (c *Client) requireRoom() bool {
	if c.session == nil {
		c.sendError(ErrCodeRoomNotFound, "Not in a room")
		return false
	}
	return true
}

// sendDomainError maps a domain error onto the wire taxonomy and reports it
// to this client only; room state is untouched by a rejected action.
func (c *Client) sendDomainError(err error) {
	c.sendError(errorCode(err), err.Error())
}

// errorCode maps domain errors onto wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		return ErrCodeGameAlreadyStarted
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return ErrCodeNotEnoughPlayers
	case errors.Is(err, domain.ErrNotHost):
		return ErrCodeNotHost
	case errors.Is(err, domain.ErrPlayerNotFound):
		return ErrCodePlayerNotFound
	case errors.Is(err, domain.ErrInvalidTarget):
		return ErrCodeInvalidTarget
	case errors.Is(err, domain.ErrInvalidRoleToggle):
		return ErrCodeInvalidRoleToggle
	case errors.Is(err, domain.ErrActionNotPermitted), errors.Is(err, domain.ErrOverrideAlreadyUsed):
		return ErrCodeActionNotPermitted
	case errors.Is(err, domain.ErrDeadPlayerVote):
		return ErrCodeDeadPlayerVote
	case errors.Is(err, domain.ErrMutedOrSilencedVote):
		return ErrCodeMutedOrSilencedVote
	case errors.Is(err, domain.ErrMalformedAction):
		return ErrCodeMalformedAction
	default:
		return ErrCodeInternalError
	}
}

// sendError sends an error event to this client.
func (c *Client) sendError(code, message string) {
	c.Send(domain.NewEvent(domain.EventError, domain.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// defaultNickname substitutes a generated name when the client sent none.
func defaultNickname(nickname string) string {
	if nickname != "" {
		return nickname
	}
	return fmt.Sprintf("Player_%d", rand.Intn(1000))
}
