package messages

import (
	"github.com/cbodonnell/snake/pkg/game/types"
)

const (
	// MessageBufferSize represents the maximum size of a client message
	MessageBufferSize = 4096
	// ServerMessageBufferSize is the maximum size of a server message.
	// A game update grows with the snake, up to one cell per grid square.
	ServerMessageBufferSize = 1 << 20
)

type MessageType byte

// Message types
const (
	MessageTypeClientPing MessageType = iota + 1
	MessageTypeServerPong
	MessageTypeClientKey
	MessageTypeClientEndGame
	MessageTypeServerWelcome
	MessageTypeServerGameUpdate
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeClientPing:
		return "ping"
	case MessageTypeServerPong:
		return "pong"
	case MessageTypeClientKey:
		return "key"
	case MessageTypeClientEndGame:
		return "end_game"
	case MessageTypeServerWelcome:
		return "welcome"
	case MessageTypeServerGameUpdate:
		return "game_update"
	default:
		return "unknown"
	}
}

// Message represents a generic message for serialization/deserialization
type Message struct {
	ClientID string
	Type     MessageType
	Payload  []byte
}

// ClientKey reports a key becoming pressed or released.
type ClientKey struct {
	Key     string `json:"key"`
	Pressed bool   `json:"pressed"`
}

// ClientEndGame requests a reset to the initial state.
type ClientEndGame struct{}

// ServerWelcome is sent to a client once its connection is registered.
type ServerWelcome struct {
	ClientID string `json:"clientID"`
}

// ServerGameUpdate is the read-only view of the game handed to render consumers.
// The move log stays on the server; only its latest entry is sent.
type ServerGameUpdate struct {
	Timestamp int64           `json:"timestamp"`
	Cols      int             `json:"cols"`
	Rows      int             `json:"rows"`
	Snake     []types.Cell    `json:"snake"`
	Food      types.Cell      `json:"food"`
	LastMove  types.Direction `json:"lastMove"`
	SpeedMs   int64           `json:"speedMs"`
	Direction types.Direction `json:"direction"`
	Boundary  string          `json:"boundary"`
}

// ServerGameUpdateFromState builds an update from a game state and the
// committed direction.
func ServerGameUpdateFromState(timestamp int64, state *types.GameState, direction types.Direction) *ServerGameUpdate {
	snake := make([]types.Cell, len(state.Snake))
	copy(snake, state.Snake)

	return &ServerGameUpdate{
		Timestamp: timestamp,
		Cols:      state.Cols,
		Rows:      state.Rows,
		Snake:     snake,
		Food:      state.Food,
		LastMove:  state.LastMove(),
		SpeedMs:   state.Speed.Milliseconds(),
		Direction: direction,
		Boundary:  state.Boundary.String(),
	}
}
