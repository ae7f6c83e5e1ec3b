package game

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"api/color"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

const (
	// MaxPlayersPerRoom bounds room occupancy.
	MaxPlayersPerRoom = 4
	// mixWeight is how far a hit pulls a player's color toward the sample.
	mixWeight = 0.3
	// hitColorLenience is the max RGB distance between a client-reported
	// hit color and the server's geometric sample before the server sample
	// overrides it.
	hitColorLenience = 25.0
)

// neutralColor is every player's starting mix, a mid gray.
var neutralColor = color.Color{R: 128, G: 128, B: 128}

type Player struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	IsHost  bool        `json:"isHost"`
	IsReady bool        `json:"isReady"`
	Throws  int         `json:"throws"`
	Color   color.Color `json:"color"`
	Score   int         `json:"score"`
}

// ThrowInput is the client's description of one dart throw. HitColorSet
// distinguishes an explicit null hit color (a claimed miss) from an absent
// field, which delegates sampling entirely to the server.
type ThrowInput struct {
	Position    *color.Position
	HitColor    *color.Color
	HitColorSet bool
	Trajectory  json.RawMessage
	Power       float64
	Timestamp   int64
}

func (in *ThrowInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		HitPosition *color.Position `json:"hitPosition"`
		HitColor    json.RawMessage `json:"hitColor"`
		Trajectory  json.RawMessage `json:"trajectory"`
		Power       float64         `json:"power"`
		Timestamp   int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.Position = raw.HitPosition
	in.Trajectory = raw.Trajectory
	in.Power = raw.Power
	in.Timestamp = raw.Timestamp
	in.HitColor = nil
	in.HitColorSet = raw.HitColor != nil
	if in.HitColorSet && string(raw.HitColor) != "null" {
		var c color.Color
		if err := json.Unmarshal(raw.HitColor, &c); err != nil {
			return err
		}
		in.HitColor = &c
	}
	return nil
}

// ThrowRecord is an append-only log entry for one processed throw.
type ThrowRecord struct {
	ID          string          `json:"id"`
	PlayerID    string          `json:"playerId"`
	Timestamp   time.Time       `json:"timestamp"`
	Position    *color.Position `json:"hitPosition,omitempty"`
	HitColor    *color.Color    `json:"hitColor,omitempty"`
	ResultColor *color.Color    `json:"resultColor,omitempty"`
	Trajectory  json.RawMessage `json:"trajectory,omitempty"`
	Power       float64         `json:"power,omitempty"`
	Hit         bool            `json:"hit"`
}

type ThrowResult struct {
	Record       ThrowRecord
	NewColor     *color.Color
	ColorChanged bool
	WinnerID     string
	FinalColor   *color.Color
	Draw         bool
}

// RoomState is a fully-materialized snapshot for broadcast. It shares no
// mutable references with the room.
type RoomState struct {
	Code            string        `json:"roomCode"`
	HostID          string        `json:"hostId"`
	Phase           Phase         `json:"phase"`
	Players         []Player      `json:"players"`
	TargetColor     color.Color   `json:"targetColor"`
	TurnOrder       []string      `json:"turnOrder"`
	CurrentTurn     int           `json:"currentTurn"`
	CurrentPlayerID string        `json:"currentPlayerId,omitempty"`
	Settings        Settings      `json:"settings"`
	Throws          []ThrowRecord `json:"throws"`
}

// Room is one game session. It is not safe for concurrent use; the Manager
// serializes all access.
type Room struct {
	code        string
	hostID      string
	phase       Phase
	players     []*Player // join order, also host succession order
	target      color.Color
	turnOrder   []string
	currentTurn int
	throws      []ThrowRecord
	settings    Settings
	rng         *rand.Rand
	createdAt   time.Time
}

func NewRoom(code, hostID string, rng *rand.Rand) *Room {
	return &Room{
		code:      code,
		hostID:    hostID,
		phase:     PhaseWaiting,
		players:   make([]*Player, 0, MaxPlayersPerRoom),
		target:    color.RandomVibrant(rng),
		settings:  DefaultSettings(),
		rng:       rng,
		createdAt: time.Now(),
	}
}

func (r *Room) Code() string        { return r.code }
func (r *Room) HostID() string      { return r.hostID }
func (r *Room) Phase() Phase        { return r.phase }
func (r *Room) Target() color.Color { return r.target }
func (r *Room) Settings() Settings  { return r.settings }
func (r *Room) PlayerCount() int    { return len(r.players) }

func (r *Room) IsFull() bool { return len(r.players) >= MaxPlayersPerRoom }

func (r *Room) IsJoinable() bool { return r.phase == PhaseWaiting && !r.IsFull() }

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer appends a player in join order. Returns nil if the room cannot
// accept one; the Manager checks joinability first, this guard only keeps
// the invariant safe.
func (r *Room) AddPlayer(id, name string) *Player {
	if !r.IsJoinable() || r.player(id) != nil {
		return nil
	}
	p := &Player{
		ID:     id,
		Name:   name,
		IsHost: id == r.hostID,
		Color:  neutralColor,
	}
	r.players = append(r.players, p)
	return p
}

// RemovePlayer deletes the player. If the host leaves and others remain,
// the earliest-joined survivor becomes host. Returns the new host id when a
// transfer happened.
func (r *Room) RemovePlayer(id string) (newHostID string, removed bool) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if r.hostID == id && len(r.players) > 0 {
		r.hostID = r.players[0].ID
		r.players[0].IsHost = true
		newHostID = r.hostID
	}

	for i, pid := range r.turnOrder {
		if pid == id {
			r.turnOrder = append(r.turnOrder[:i], r.turnOrder[i+1:]...)
			break
		}
	}
	if r.currentTurn >= len(r.turnOrder) {
		r.currentTurn = 0
	}
	return newHostID, true
}

// Start moves the room to the playing phase, snapshotting turn order from
// the current players. Players joining later are spectators for this game.
func (r *Room) Start() error {
	if r.phase != PhaseWaiting {
		return ErrGameInProgress
	}
	if len(r.players) < 2 {
		return ErrInsufficientPlayers
	}
	if r.settings.FreshTargetOnStart {
		r.target = color.RandomVibrant(r.rng)
	}
	r.turnOrder = make([]string, 0, len(r.players))
	for _, p := range r.players {
		r.turnOrder = append(r.turnOrder, p.ID)
		p.Throws = 0
		p.Score = 0
		p.Color = neutralColor
	}
	r.currentTurn = 0
	r.phase = PhasePlaying
	return nil
}

// CurrentPlayer returns the id whose turn it is, or "" outside a game.
func (r *Room) CurrentPlayer() string {
	if len(r.turnOrder) == 0 {
		return ""
	}
	return r.turnOrder[r.currentTurn]
}

// resolveThrowColor decides the authoritative sample for a throw. When a
// position is present the server's geometric sample wins unless the client
// color agrees with it within hitColorLenience; a position outside the
// wheel is a miss no matter what color the client claims.
func (r *Room) resolveThrowColor(in ThrowInput) *color.Color {
	if in.Position != nil {
		sample := color.ResolveHitColor(*in.Position, color.WheelRadius)
		if sample == nil {
			return nil
		}
		if in.HitColorSet && in.HitColor != nil &&
			color.Distance(*in.HitColor, *sample) <= hitColorLenience {
			return in.HitColor
		}
		return sample
	}
	if in.HitColorSet {
		return in.HitColor
	}
	return nil
}

// ProcessThrow applies one dart throw: resolve the sample, mix 30% toward
// it on a hit, log the record, check the win, and pass the turn. A miss
// still consumes the turn and counts against the throw limit.
func (r *Room) ProcessThrow(playerID string, in ThrowInput) (ThrowResult, error) {
	if r.phase != PhasePlaying {
		return ThrowResult{}, ErrGameNotInProgress
	}
	if playerID != r.CurrentPlayer() {
		return ThrowResult{}, ErrNotYourTurn
	}
	p := r.player(playerID)
	if p == nil {
		return ThrowResult{}, ErrNotYourTurn
	}

	hitColor := r.resolveThrowColor(in)

	res := ThrowResult{}
	if hitColor != nil {
		mixed := color.Mix(p.Color, *hitColor, mixWeight)
		p.Color = mixed
		res.NewColor = &mixed
		res.ColorChanged = true
	}
	p.Throws++

	record := ThrowRecord{
		ID:          uuid.NewString(),
		PlayerID:    playerID,
		Timestamp:   time.Now(),
		Position:    in.Position,
		HitColor:    hitColor,
		ResultColor: res.NewColor,
		Trajectory:  in.Trajectory,
		Power:       in.Power,
		Hit:         hitColor != nil,
	}
	r.throws = append(r.throws, record)
	res.Record = record

	if res.ColorChanged && color.IsClose(p.Color, r.target, r.settings.ColorTolerance) {
		r.phase = PhaseFinished
		res.WinnerID = playerID
		final := p.Color
		res.FinalColor = &final
		return res, nil
	}

	if r.throwsExhausted() {
		r.phase = PhaseFinished
		res.Draw = true
		return res, nil
	}

	r.currentTurn = (r.currentTurn + 1) % len(r.turnOrder)
	return res, nil
}

// throwsExhausted reports whether every player still in the turn order has
// used up their throws, which ends the game as a draw.
func (r *Room) throwsExhausted() bool {
	for _, id := range r.turnOrder {
		if p := r.player(id); p != nil && p.Throws < r.settings.MaxThrows {
			return false
		}
	}
	return true
}

func (r *Room) UpdateSettings(patch SettingsPatch) (Settings, error) {
	merged, err := r.settings.apply(patch)
	if err != nil {
		return r.settings, err
	}
	r.settings = merged
	return merged, nil
}

// Snapshot deep-copies the room for broadcast.
func (r *Room) Snapshot() RoomState {
	players := make([]Player, len(r.players))
	for i, p := range r.players {
		players[i] = *p
	}
	turnOrder := make([]string, len(r.turnOrder))
	copy(turnOrder, r.turnOrder)
	throws := make([]ThrowRecord, len(r.throws))
	copy(throws, r.throws)

	return RoomState{
		Code:            r.code,
		HostID:          r.hostID,
		Phase:           r.phase,
		Players:         players,
		TargetColor:     r.target,
		TurnOrder:       turnOrder,
		CurrentTurn:     r.currentTurn,
		CurrentPlayerID: r.CurrentPlayer(),
		Settings:        r.settings,
		Throws:          throws,
	}
}
