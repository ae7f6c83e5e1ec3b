package game

import (
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"api/color"
)

const (
	roomCodeLength   = 4
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxNameLength    = 20
)

// Manager owns every room and the player→room reverse index, and is the
// single entry point for player actions. Methods take the lock for their
// whole duration, so each action runs to completion before the next one
// touches shared state.
type Manager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	playerRooms map[string]string
	rng         *rand.Rand
	log         zerolog.Logger
}

func NewManager(rng *rand.Rand, log zerolog.Logger) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		rng:         rng,
		log:         log.With().Str("component", "game-manager").Logger(),
	}
}

type JoinResult struct {
	RoomCode string    `json:"roomCode"`
	Player   Player    `json:"player"`
	Room     RoomState `json:"room"`
	Created  bool      `json:"created"`
}

type LeaveResult struct {
	RoomCode    string     `json:"roomCode"`
	Room        *RoomState `json:"room,omitempty"`
	NewHostID   string     `json:"newHostId,omitempty"`
	RoomDeleted bool       `json:"roomDeleted"`
}

type ThrowOutcome struct {
	PlayerID     string       `json:"playerId"`
	Record       ThrowRecord  `json:"throwData"`
	ColorChanged bool         `json:"colorChanged"`
	NewColor     *color.Color `json:"newColor,omitempty"`
	Room         RoomState    `json:"gameState"`
	WinnerID     string       `json:"winnerId,omitempty"`
	Winner       *Player      `json:"winner,omitempty"`
	FinalColor   *color.Color `json:"finalColor,omitempty"`
	Draw         bool         `json:"draw"`
}

// RoomSummary is the lobby listing view of a room.
type RoomSummary struct {
	RoomCode    string `json:"roomCode"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Phase       Phase  `json:"phase"`
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}

func validateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return ErrInvalidRoomCode
	}
	for _, c := range code {
		if !strings.ContainsRune(roomCodeAlphabet, c) {
			return ErrInvalidRoomCode
		}
	}
	return nil
}

// newRoomCode generates a code unique among active rooms, retrying on
// collision. With a 36^4 space the loop terminates long before the room
// cap does.
func (m *Manager) newRoomCode() string {
	for {
		b := make([]byte, roomCodeLength)
		for i := range b {
			b[i] = roomCodeAlphabet[m.rng.Intn(len(roomCodeAlphabet))]
		}
		code := string(b)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

// CreateRoom builds a room with the creator as host. A player already in
// another room implicitly leaves it first, keeping the one-room-per-player
// invariant.
func (m *Manager) CreateRoom(playerID, playerName string) (JoinResult, error) {
	if err := validateName(playerName); err != nil {
		return JoinResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createRoomLocked(playerID, playerName)
}

func (m *Manager) createRoomLocked(playerID, playerName string) (JoinResult, error) {
	m.leaveLocked(playerID)

	code := m.newRoomCode()
	room := NewRoom(code, playerID, m.rng)
	player := room.AddPlayer(playerID, strings.TrimSpace(playerName))

	m.rooms[code] = room
	m.playerRooms[playerID] = code

	m.log.Info().Str("room", code).Str("player", playerID).Msg("room created")
	return JoinResult{RoomCode: code, Player: *player, Room: room.Snapshot(), Created: true}, nil
}

// JoinRoom joins the given room, or with an empty code the first waiting
// room with capacity, creating a fresh room when none is open.
func (m *Manager) JoinRoom(playerID, playerName, roomCode string) (JoinResult, error) {
	if err := validateName(playerName); err != nil {
		return JoinResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if roomCode == "" {
		if code := m.findAvailableRoomLocked(); code != "" {
			roomCode = code
		} else {
			return m.createRoomLocked(playerID, playerName)
		}
	}

	roomCode = strings.ToUpper(roomCode)
	if err := validateRoomCode(roomCode); err != nil {
		return JoinResult{}, err
	}
	room, ok := m.rooms[roomCode]
	if !ok {
		return JoinResult{}, ErrRoomNotFound
	}
	if m.playerRooms[playerID] == roomCode {
		// rejoining the current room is a no-op; leaving it first would
		// empty and delete it out from under the join
		return JoinResult{RoomCode: roomCode, Player: *room.player(playerID), Room: room.Snapshot()}, nil
	}
	if room.IsFull() {
		return JoinResult{}, ErrRoomFull
	}
	if room.Phase() != PhaseWaiting {
		return JoinResult{}, ErrGameInProgress
	}

	m.leaveLocked(playerID)
	player := room.AddPlayer(playerID, strings.TrimSpace(playerName))
	if player == nil {
		return JoinResult{}, ErrRoomFull
	}
	m.playerRooms[playerID] = roomCode

	m.log.Info().Str("room", roomCode).Str("player", playerID).Msg("player joined")
	return JoinResult{RoomCode: roomCode, Player: *player, Room: room.Snapshot()}, nil
}

func (m *Manager) findAvailableRoomLocked() string {
	for code, room := range m.rooms {
		if room.IsJoinable() {
			return code
		}
	}
	return ""
}

// StartGame is host-only and needs at least two players.
func (m *Manager) StartGame(roomCode, requesterID string) (RoomState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[strings.ToUpper(roomCode)]
	if !ok {
		return RoomState{}, ErrRoomNotFound
	}
	if room.HostID() != requesterID {
		return RoomState{}, ErrNotHost
	}
	if err := room.Start(); err != nil {
		return RoomState{}, err
	}

	m.log.Info().Str("room", room.Code()).Msg("game started")
	return room.Snapshot(), nil
}

// ProcessDartThrow applies a throw for the player whose turn it is.
func (m *Manager) ProcessDartThrow(roomCode, playerID string, in ThrowInput) (ThrowOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[strings.ToUpper(roomCode)]
	if !ok {
		return ThrowOutcome{}, ErrRoomNotFound
	}

	res, err := room.ProcessThrow(playerID, in)
	if err != nil {
		return ThrowOutcome{}, err
	}

	out := ThrowOutcome{
		PlayerID:     playerID,
		Record:       res.Record,
		ColorChanged: res.ColorChanged,
		NewColor:     res.NewColor,
		Room:         room.Snapshot(),
		WinnerID:     res.WinnerID,
		Draw:         res.Draw,
	}
	if res.WinnerID != "" {
		if p := room.player(res.WinnerID); p != nil {
			winner := *p
			out.Winner = &winner
		}
		out.FinalColor = res.FinalColor
		m.log.Info().Str("room", room.Code()).Str("winner", res.WinnerID).Msg("game won")
	}
	return out, nil
}

// UpdateSettings is host-only; the patch is range-validated before merging.
func (m *Manager) UpdateSettings(roomCode, requesterID string, patch SettingsPatch) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[strings.ToUpper(roomCode)]
	if !ok {
		return Settings{}, ErrRoomNotFound
	}
	if room.HostID() != requesterID {
		return Settings{}, ErrNotHost
	}
	return room.UpdateSettings(patch)
}

// RemovePlayer handles leave and disconnect alike: drop the player from
// their room, transfer the host role if needed, and delete the room when it
// empties.
func (m *Manager) RemovePlayer(playerID string) (LeaveResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaveLocked(playerID)
}

func (m *Manager) leaveLocked(playerID string) (LeaveResult, bool) {
	code, ok := m.playerRooms[playerID]
	if !ok {
		return LeaveResult{}, false
	}
	delete(m.playerRooms, playerID)

	room, ok := m.rooms[code]
	if !ok {
		// stale index entry; nothing left to leave
		return LeaveResult{RoomCode: code, RoomDeleted: true}, true
	}
	newHost, _ := room.RemovePlayer(playerID)

	res := LeaveResult{RoomCode: code, NewHostID: newHost}
	if room.PlayerCount() == 0 {
		delete(m.rooms, code)
		res.RoomDeleted = true
		m.log.Info().Str("room", code).Msg("room deleted")
		return res, true
	}
	snapshot := room.Snapshot()
	res.Room = &snapshot
	return res, true
}

// RoomMembers lists the connected player ids of a room, for broadcast
// fan-out.
func (m *Manager) RoomMembers(roomCode string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[strings.ToUpper(roomCode)]
	if !ok {
		return nil
	}
	ids := make([]string, 0, room.PlayerCount())
	for _, p := range room.players {
		ids = append(ids, p.ID)
	}
	return ids
}

// ListRooms returns summaries of all active rooms for the lobby screen.
func (m *Manager) ListRooms() []RoomSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RoomSummary, 0, len(m.rooms))
	for code, room := range m.rooms {
		out = append(out, RoomSummary{
			RoomCode:    code,
			PlayerCount: room.PlayerCount(),
			MaxPlayers:  MaxPlayersPerRoom,
			Phase:       room.Phase(),
		})
	}
	return out
}
