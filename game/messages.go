package game

import "encoding/json"

// Envelope is the wire frame for every websocket message in both
// directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client → server message types.
const (
	MsgCreateRoom     = "createRoom"
	MsgJoinRoom       = "joinRoom"
	MsgStartGame      = "startGame"
	MsgDartThrow      = "dartThrow"
	MsgUpdateSettings = "updateGameSettings"
	MsgLeaveRoom      = "leaveRoom"
)

// Server → client message types.
const (
	MsgRoomCreated     = "roomCreated"
	MsgJoinedRoom      = "joinedRoom"
	MsgPlayerJoined    = "playerJoined"
	MsgPlayerLeft      = "playerLeft"
	MsgGameStarted     = "gameStarted"
	MsgGameStartError  = "gameStartError"
	MsgDartThrown      = "dartThrown"
	MsgGameWon         = "gameWon"
	MsgThrowError      = "throwError"
	MsgSettingsUpdated = "gameSettingsUpdated"
	MsgError           = "error"
)

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomCode   string `json:"roomCode"`
}

type startGameRequest struct {
	RoomCode string `json:"roomCode"`
}

type dartThrowRequest struct {
	RoomCode  string     `json:"roomCode"`
	ThrowData ThrowInput `json:"throwData"`
}

type updateSettingsRequest struct {
	RoomCode string        `json:"roomCode"`
	Settings SettingsPatch `json:"settings"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// marshalEnvelope never fails for our own payload types; a marshal error
// is a programming bug and is reported as a generic server error frame.
func marshalEnvelope(msgType string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		fallback, _ := json.Marshal(Envelope{
			Type: MsgError,
			Data: json.RawMessage(`{"message":"server-error"}`),
		})
		return fallback
	}
	out, _ := json.Marshal(Envelope{Type: msgType, Data: data})
	return out
}

func errorEnvelope(msgType, message string) []byte {
	return marshalEnvelope(msgType, errorPayload{Message: message})
}
