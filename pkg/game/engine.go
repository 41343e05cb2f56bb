package game

import (
	"math/rand"
	"time"

	"github.com/cbodonnell/snake/pkg/game/constants"
	"github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/log"
)

// Transition is a request to advance the game state.
// Sealed: Move, Eat and Reset.
type Transition interface {
	transition()
}

// Move advances the head one cell in Direction.
type Move struct {
	Direction types.Direction
}

// Eat consumes food under the head, or trims the tail.
type Eat struct{}

// Reset restores the initial configuration.
type Reset struct{}

func (Move) transition()  {}
func (Eat) transition()   {}
func (Reset) transition() {}

// Outcome is the result of applying a transition.
type Outcome struct {
	State *types.GameState
	// Collided is set when the move ended the game and the state was reset.
	// The committed direction must be cleared by the caller.
	Collided bool
}

// Engine computes state transitions. It never modifies the state it is given.
type Engine struct {
	config types.Config
	rng    *rand.Rand
}

// NewEngine creates an engine for a configuration.
// If rng is nil, a time-seeded source is used.
func NewEngine(config types.Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		config: config,
		rng:    rng,
	}
}

// Config returns the configuration the engine resets to.
func (e *Engine) Config() types.Config {
	return e.config
}

// Initial returns a fresh initial state.
func (e *Engine) Initial() *types.GameState {
	return types.NewGameState(e.config)
}

// Apply dispatches a transition. Unrecognized transitions leave the state unchanged.
func (e *Engine) Apply(state *types.GameState, t Transition) Outcome {
	switch tr := t.(type) {
	case Move:
		return e.Move(state, tr.Direction)
	case Eat:
		return Outcome{State: e.Eat(state)}
	case Reset:
		return Outcome{State: e.Reset()}
	default:
		log.Info("Ignoring unrecognized transition %T", t)
		return Outcome{State: state}
	}
}

// Move prepends a new head. The tail is left in place for Eat to trim.
func (e *Engine) Move(state *types.GameState, direction types.Direction) Outcome {
	if !direction.Valid() {
		log.Info("Ignoring move with direction %s", direction)
		return Outcome{State: state}
	}
	if state == nil || len(state.Snake) == 0 {
		log.Info("Ignoring move on empty state")
		return Outcome{State: state}
	}

	head, ok := nextHead(state, direction)
	if !ok {
		log.Debug("Snake left the board at %s, resetting", head)
		return Outcome{State: e.Reset(), Collided: true}
	}

	snake := make([]types.Cell, 0, len(state.Snake)+1)
	snake = append(snake, head)
	snake = append(snake, state.Snake...)

	if selfCollides(snake) {
		log.Debug("Snake collided with itself at %s, resetting", head)
		return Outcome{State: e.Reset(), Collided: true}
	}

	moves := make([]types.Direction, len(state.Moves), len(state.Moves)+1)
	copy(moves, state.Moves)
	moves = append(moves, direction)

	return Outcome{
		State: &types.GameState{
			Cols:     state.Cols,
			Rows:     state.Rows,
			Snake:    snake,
			Food:     state.Food,
			Moves:    moves,
			Speed:    state.Speed,
			Boundary: state.Boundary,
		},
	}
}

// Eat relocates the food if the head is on it, otherwise drops the tail.
// A single-segment snake never shrinks.
func (e *Engine) Eat(state *types.GameState) *types.GameState {
	if state == nil || len(state.Snake) == 0 {
		return state
	}

	if state.Head() == state.Food {
		newState := state.Copy()
		// food may land on the snake body
		newState.Food = types.Cell{
			X: e.rng.Intn(state.Cols),
			Y: e.rng.Intn(state.Rows),
		}
		log.Debug("Food eaten at %s, new food at %s", state.Food, newState.Food)
		return newState
	}

	if len(state.Snake) > 1 {
		newState := state.Copy()
		newState.Snake = newState.Snake[:len(newState.Snake)-1]
		return newState
	}

	return state
}

// Reset returns the initial state.
func (e *Engine) Reset() *types.GameState {
	return e.Initial()
}

// nextHead computes the new head for a move. A head that is already off the
// board wraps to the opposite edge without applying the direction. With walls,
// a head that would leave the board returns false.
func nextHead(state *types.GameState, direction types.Direction) (types.Cell, bool) {
	head := state.Head()
	switch {
	case head.X < 0:
		return types.Cell{X: state.Cols - 1, Y: head.Y}, true
	case head.X >= state.Cols:
		return types.Cell{X: 0, Y: head.Y}, true
	case head.Y < 0:
		return types.Cell{X: head.X, Y: state.Rows - 1}, true
	case head.Y >= state.Rows:
		return types.Cell{X: head.X, Y: 0}, true
	}

	next := head.Add(direction.Delta())
	if state.Boundary == types.BoundaryWalls && !next.InBounds(state.Cols, state.Rows) {
		return next, false
	}
	return next, true
}

// selfCollides reports whether the head overlaps a non-exempt body segment.
func selfCollides(snake []types.Cell) bool {
	head := snake[0]
	for i := constants.CollisionExemptSegments; i < len(snake); i++ {
		if snake[i] == head {
			return true
		}
	}
	return false
}
