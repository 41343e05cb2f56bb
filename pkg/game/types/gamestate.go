package types

import (
	"fmt"
	"time"

	"github.com/cbodonnell/snake/pkg/game/constants"
)

// Config is the template a GameState is (re)initialized from.
// It is never mutated by the game.
type Config struct {
	Cols         int
	Rows         int
	InitialSnake []Cell
	InitialFood  Cell
	Speed        time.Duration
	Boundary     Boundary
}

// DefaultConfig returns the default game configuration.
func DefaultConfig() Config {
	return Config{
		Cols:         constants.GridCols,
		Rows:         constants.GridRows,
		InitialSnake: []Cell{{X: constants.SnakeStartingX, Y: constants.SnakeStartingY}},
		InitialFood:  Cell{X: constants.FoodStartingX, Y: constants.FoodStartingY},
		Speed:        constants.TickInterval,
		Boundary:     BoundaryWrap,
	}
}

// Validate checks that the initial snake and food fit on the board.
func (c Config) Validate() error {
	if c.Cols <= 0 || c.Rows <= 0 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Cols, c.Rows)
	}
	if len(c.InitialSnake) == 0 {
		return fmt.Errorf("initial snake is empty")
	}
	for i, cell := range c.InitialSnake {
		if !cell.InBounds(c.Cols, c.Rows) {
			return fmt.Errorf("initial snake segment %d at %s is outside the %dx%d grid", i, cell, c.Cols, c.Rows)
		}
	}
	if !c.InitialFood.InBounds(c.Cols, c.Rows) {
		return fmt.Errorf("initial food at %s is outside the %dx%d grid", c.InitialFood, c.Cols, c.Rows)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %s", c.Speed)
	}
	if c.Boundary != BoundaryWrap && c.Boundary != BoundaryWalls {
		return fmt.Errorf("unknown boundary policy: %d", c.Boundary)
	}
	return nil
}

// GameState is the complete state of a single game.
// Transitions never modify a GameState in place; they build a new one.
type GameState struct {
	// Cols and Rows are the grid dimensions
	Cols int
	Rows int
	// Snake is the snake body, head first
	Snake []Cell
	// Food is the current food location
	Food Cell
	// Moves is the log of applied directions
	Moves []Direction
	// Speed is the interval between ticks
	Speed time.Duration
	// Boundary is the policy for leaving the board
	Boundary Boundary
}

// NewGameState creates the initial game state for a configuration.
func NewGameState(cfg Config) *GameState {
	snake := make([]Cell, len(cfg.InitialSnake))
	copy(snake, cfg.InitialSnake)
	return &GameState{
		Cols:     cfg.Cols,
		Rows:     cfg.Rows,
		Snake:    snake,
		Food:     cfg.InitialFood,
		Moves:    []Direction{DirectionEast},
		Speed:    cfg.Speed,
		Boundary: cfg.Boundary,
	}
}

// Head returns the first snake segment.
func (g *GameState) Head() Cell {
	return g.Snake[0]
}

// Copy performs a deep copy of the game state.
func (g *GameState) Copy() *GameState {
	if g == nil {
		return nil
	}
	newGameState := &GameState{
		Cols:     g.Cols,
		Rows:     g.Rows,
		Food:     g.Food,
		Speed:    g.Speed,
		Boundary: g.Boundary,
	}
	if g.Snake != nil {
		newGameState.Snake = make([]Cell, len(g.Snake))
		copy(newGameState.Snake, g.Snake)
	}
	if g.Moves != nil {
		newGameState.Moves = make([]Direction, len(g.Moves))
		copy(newGameState.Moves, g.Moves)
	}
	return newGameState
}

// LastMove returns the most recently logged direction.
func (g *GameState) LastMove() Direction {
	if len(g.Moves) == 0 {
		return DirectionNone
	}
	return g.Moves[len(g.Moves)-1]
}
