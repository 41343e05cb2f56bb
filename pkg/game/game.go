package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/input"
	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/cbodonnell/snake/pkg/workers"
)

type GameManager struct {
	clientMessageQueue   queue.Queue
	stateManager         state.StateManager
	engine               *Engine
	controller           *input.Controller
	gameState            *types.GameState
	broadcastMessageChan chan<- workers.BroadcastMessage

	runningLock sync.Mutex
	running     bool
	stop        context.CancelFunc
	done        chan struct{}
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	ClientMessageQueue   queue.Queue
	StateManager         state.StateManager
	Engine               *Engine
	Controller           *input.Controller
	BroadcastMessageChan chan<- workers.BroadcastMessage
	// GameState is the state to start from. Defaults to the engine's initial state.
	GameState *types.GameState
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	controller := opts.Controller
	if controller == nil {
		controller = input.NewController()
	}
	gameState := opts.GameState
	if gameState == nil {
		gameState = opts.Engine.Initial()
	}
	return &GameManager{
		clientMessageQueue:   opts.ClientMessageQueue,
		stateManager:         opts.StateManager,
		engine:               opts.Engine,
		controller:           controller,
		gameState:            gameState,
		broadcastMessageChan: opts.BroadcastMessageChan,
	}
}

// Start starts the game loop and blocks until ctx is done or Stop is called.
// Only one loop may run at a time. Starting again after a stop resumes from
// the current state.
func (gm *GameManager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done, err := gm.acquire(cancel)
	if err != nil {
		return err
	}
	defer gm.release(done)

	gm.publish(ctx, time.Now())

	interval := gm.gameState.Speed
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			// a tick that races with a stop is dropped
			if ctx.Err() != nil {
				return nil
			}
			if err := gm.gameTick(ctx, t); err != nil {
				log.Error("Failed to run game tick: %v", err)
			}
			if gm.gameState.Speed != interval {
				interval = gm.gameState.Speed
				ticker.Reset(interval)
			}
		}
	}
}

// Stop stops a running game loop and waits for it to return.
// No transition is applied after Stop returns.
func (gm *GameManager) Stop() {
	gm.runningLock.Lock()
	stop, done := gm.stop, gm.done
	gm.runningLock.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
}

// Running reports whether the game loop is running.
func (gm *GameManager) Running() bool {
	gm.runningLock.Lock()
	defer gm.runningLock.Unlock()
	return gm.running
}

func (gm *GameManager) acquire(cancel context.CancelFunc) (chan struct{}, error) {
	gm.runningLock.Lock()
	defer gm.runningLock.Unlock()

	if gm.running {
		return nil, fmt.Errorf("game loop is already running")
	}
	if gm.gameState == nil || gm.gameState.Speed <= 0 {
		return nil, fmt.Errorf("game state has no tick interval")
	}
	if gm.gameState.Cols <= 0 || gm.gameState.Rows <= 0 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", gm.gameState.Cols, gm.gameState.Rows)
	}
	gm.running = true
	gm.stop = cancel
	gm.done = make(chan struct{})
	return gm.done, nil
}

func (gm *GameManager) release(done chan struct{}) {
	gm.runningLock.Lock()
	defer gm.runningLock.Unlock()

	gm.running = false
	gm.stop = nil
	gm.done = nil
	close(done)
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, t time.Time) error {
	gm.processClientMessages()

	if direction := gm.controller.Direction(); direction != types.DirectionNone {
		gm.apply(Move{Direction: direction})
		gm.apply(Eat{})
	}

	gm.publish(ctx, t)
	return nil
}

// apply replaces the game state with the outcome of a transition.
func (gm *GameManager) apply(t Transition) {
	outcome := gm.engine.Apply(gm.gameState, t)
	gm.gameState = outcome.State
	if outcome.Collided {
		log.Info("Snake collided at length %d, game reset", len(gm.gameState.Snake))
		gm.controller.Clear()
	}
}

// processClientMessages processes all pending client messages in the queue
// in the order they were received.
func (gm *GameManager) processClientMessages() {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		switch message.Type {
		case messages.MessageTypeClientKey:
			clientKey := &messages.ClientKey{}
			if err := json.Unmarshal(message.Payload, clientKey); err != nil {
				log.Error("Failed to unmarshal key event from client %s: %v", message.ClientID, err)
				continue
			}
			key, ok := input.ParseKey(clientKey.Key)
			if !ok {
				log.Info("Ignoring unrecognized key %q from client %s", clientKey.Key, message.ClientID)
				continue
			}
			gm.controller.SetKey(key, clientKey.Pressed)
		case messages.MessageTypeClientEndGame:
			log.Info("Client %s ended the game", message.ClientID)
			gm.apply(Reset{})
		default:
			log.Error("Unhandled message type: %s", message.Type)
		}
	}
}

// publish hands the current state to the state manager and the broadcast worker.
func (gm *GameManager) publish(ctx context.Context, t time.Time) {
	timestamp := t.UnixMilli()
	direction := gm.controller.Direction()

	if gm.stateManager != nil {
		snapshot := &state.Snapshot{
			Timestamp: timestamp,
			GameState: gm.gameState,
			Direction: direction,
		}
		if err := gm.stateManager.Set(ctx, snapshot); err != nil {
			log.Error("Failed to set game state: %v", err)
		}
	}

	if gm.broadcastMessageChan == nil {
		return
	}
	update := messages.ServerGameUpdateFromState(timestamp, gm.gameState, direction)
	select {
	case gm.broadcastMessageChan <- workers.BroadcastMessage{Type: messages.MessageTypeServerGameUpdate, Message: update}:
	default:
		log.Warn("Broadcast channel is full, dropping game update %d", timestamp)
	}
}
