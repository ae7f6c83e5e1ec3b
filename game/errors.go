package game

import "errors"

// Expected rule violations are errors-as-values; nothing in this package
// panics for a bad request. The transport layer maps these to
// requester-only messages.
var (
	ErrRoomNotFound        = errors.New("room-not-found")
	ErrRoomFull            = errors.New("room-full")
	ErrGameInProgress      = errors.New("game-in-progress")
	ErrNotHost             = errors.New("not-host")
	ErrInsufficientPlayers = errors.New("insufficient-players")
	ErrGameNotInProgress   = errors.New("game-not-in-progress")
	ErrNotYourTurn         = errors.New("not-your-turn")
	ErrInvalidName         = errors.New("invalid-name")
	ErrInvalidRoomCode     = errors.New("invalid-room-code")
	ErrInvalidSettings     = errors.New("invalid-settings")
)
