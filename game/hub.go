package game

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"api/color"
)

// Hub routes websocket frames between connected clients and the Manager.
// It owns no game state beyond the playerID→client connection map.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	manager *Manager
	log     zerolog.Logger
}

func NewHub(manager *Manager, log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		manager: manager,
		log:     log.With().Str("component", "hub").Logger(),
	}
}

// Register attaches a connected client. A second connection for the same
// player id replaces the first.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.playerID]; ok && old != c {
		old.closeSend()
	}
	h.clients[c.playerID] = c
	h.mu.Unlock()
}

// Unregister detaches the client and removes the player from their room,
// notifying the survivors. Called from the read pump on any disconnect.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	current := h.clients[c.playerID] == c
	if current {
		delete(h.clients, c.playerID)
		c.closeSend()
	}
	h.mu.Unlock()
	c.conn.Close()

	// a stale client replaced by a newer connection must not evict the
	// player from their room
	if !current {
		return
	}

	if res, ok := h.manager.RemovePlayer(c.playerID); ok && !res.RoomDeleted {
		h.broadcastToRoom(res.RoomCode, marshalEnvelope(MsgPlayerLeft, struct {
			PlayerID string     `json:"playerId"`
			Room     *RoomState `json:"room"`
		}{c.playerID, res.Room}))
	}
}

func (h *Hub) sendTo(playerID string, data []byte) {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(data)
	}
}

// broadcastToRoom fans a frame out to every connected member of a room,
// minus any ids in except.
func (h *Hub) broadcastToRoom(roomCode string, data []byte, except ...string) {
	for _, id := range h.manager.RoomMembers(roomCode) {
		skip := false
		for _, ex := range except {
			if id == ex {
				skip = true
				break
			}
		}
		if !skip {
			h.sendTo(id, data)
		}
	}
}

// Dispatch handles one inbound frame. Expected rule violations come back as
// error values and are reported to the requester only; anything that panics
// is downgraded to a generic server error so one bad payload can never take
// down the process or another room.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Interface("panic", rec).Str("player", c.playerID).Msg("recovered in dispatch")
			c.enqueue(errorEnvelope(MsgError, "server-error"))
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.enqueue(errorEnvelope(MsgError, "invalid-message"))
		return
	}

	switch env.Type {
	case MsgCreateRoom:
		h.handleCreateRoom(c, env.Data)
	case MsgJoinRoom:
		h.handleJoinRoom(c, env.Data)
	case MsgStartGame:
		h.handleStartGame(c, env.Data)
	case MsgDartThrow:
		h.handleDartThrow(c, env.Data)
	case MsgUpdateSettings:
		h.handleUpdateSettings(c, env.Data)
	case MsgLeaveRoom:
		h.handleLeaveRoom(c)
	default:
		c.enqueue(errorEnvelope(MsgError, "unknown-message-type"))
	}
}

func (h *Hub) handleCreateRoom(c *Client, data json.RawMessage) {
	var req createRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(errorEnvelope(MsgError, "invalid-message"))
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = c.name
	}

	res, err := h.manager.CreateRoom(c.playerID, req.PlayerName)
	if err != nil {
		c.enqueue(errorEnvelope(MsgError, err.Error()))
		return
	}
	c.enqueue(marshalEnvelope(MsgRoomCreated, struct {
		Success  bool      `json:"success"`
		RoomCode string    `json:"roomCode"`
		Player   Player    `json:"player"`
		Room     RoomState `json:"room"`
	}{true, res.RoomCode, res.Player, res.Room}))
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(errorEnvelope(MsgError, "invalid-message"))
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = c.name
	}

	res, err := h.manager.JoinRoom(c.playerID, req.PlayerName, req.RoomCode)
	if err != nil {
		c.enqueue(errorEnvelope(MsgError, err.Error()))
		return
	}
	c.enqueue(marshalEnvelope(MsgJoinedRoom, struct {
		Success  bool      `json:"success"`
		RoomCode string    `json:"roomCode"`
		Player   Player    `json:"player"`
		Room     RoomState `json:"room"`
	}{true, res.RoomCode, res.Player, res.Room}))

	if !res.Created {
		h.broadcastToRoom(res.RoomCode, marshalEnvelope(MsgPlayerJoined, struct {
			Player Player    `json:"player"`
			Room   RoomState `json:"room"`
		}{res.Player, res.Room}), c.playerID)
	}
}

func (h *Hub) handleStartGame(c *Client, data json.RawMessage) {
	var req startGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(errorEnvelope(MsgGameStartError, "invalid-message"))
		return
	}

	state, err := h.manager.StartGame(req.RoomCode, c.playerID)
	if err != nil {
		c.enqueue(errorEnvelope(MsgGameStartError, err.Error()))
		return
	}
	h.broadcastToRoom(state.Code, marshalEnvelope(MsgGameStarted, struct {
		GameState   RoomState   `json:"gameState"`
		TargetColor color.Color `json:"targetColor"`
	}{state, state.TargetColor}))
}

func (h *Hub) handleDartThrow(c *Client, data json.RawMessage) {
	var req dartThrowRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(errorEnvelope(MsgThrowError, "invalid-message"))
		return
	}

	out, err := h.manager.ProcessDartThrow(req.RoomCode, c.playerID, req.ThrowData)
	if err != nil {
		c.enqueue(errorEnvelope(MsgThrowError, err.Error()))
		return
	}

	h.broadcastToRoom(out.Room.Code, marshalEnvelope(MsgDartThrown, out))
	if out.Winner != nil {
		h.broadcastToRoom(out.Room.Code, marshalEnvelope(MsgGameWon, struct {
			Winner     Player       `json:"winner"`
			FinalColor *color.Color `json:"finalColor"`
		}{*out.Winner, out.FinalColor}))
	}
}

func (h *Hub) handleUpdateSettings(c *Client, data json.RawMessage) {
	var req updateSettingsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.enqueue(errorEnvelope(MsgError, "invalid-message"))
		return
	}

	settings, err := h.manager.UpdateSettings(req.RoomCode, c.playerID, req.Settings)
	if err != nil {
		c.enqueue(errorEnvelope(MsgError, err.Error()))
		return
	}
	h.broadcastToRoom(req.RoomCode, marshalEnvelope(MsgSettingsUpdated, struct {
		Settings Settings `json:"settings"`
	}{settings}), c.playerID)
}

func (h *Hub) handleLeaveRoom(c *Client) {
	res, ok := h.manager.RemovePlayer(c.playerID)
	if !ok {
		c.enqueue(errorEnvelope(MsgError, ErrRoomNotFound.Error()))
		return
	}
	if !res.RoomDeleted {
		h.broadcastToRoom(res.RoomCode, marshalEnvelope(MsgPlayerLeft, struct {
			PlayerID string     `json:"playerId"`
			Room     *RoomState `json:"room"`
		}{c.playerID, res.Room}))
	}
}
