package state

import (
	"context"

	gametypes "github.com/cbodonnell/snake/pkg/game/types"
)

// Snapshot is the game as last published by the game loop.
type Snapshot struct {
	// Timestamp is the time in milliseconds at which the snapshot was taken
	Timestamp int64
	// GameState is the state after the last transition
	GameState *gametypes.GameState
	// Direction is the committed direction for the next move
	Direction gametypes.Direction
}

// Copy performs a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Timestamp: s.Timestamp,
		GameState: s.GameState.Copy(),
		Direction: s.Direction,
	}
}

// StateManager provides shared read access to the game state.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current snapshot.
	Get(ctx context.Context) (*Snapshot, error)
	// Set sets the current snapshot.
	Set(ctx context.Context, snapshot *Snapshot) error
}
