package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	mocks "github.com/cbodonnell/snake/mocks/github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/input"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/cbodonnell/snake/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMessage(t *testing.T, key string, pressed bool) *messages.Message {
	t.Helper()
	payload, err := json.Marshal(messages.ClientKey{Key: key, Pressed: pressed})
	require.NoError(t, err)
	return &messages.Message{
		ClientID: "client-1",
		Type:     messages.MessageTypeClientKey,
		Payload:  payload,
	}
}

func newTestGameManager(q queue.Queue, gs *types.GameState) *GameManager {
	engine := NewEngine(types.DefaultConfig(), newSequenceRand(7, 3))
	return NewGameManager(NewGameManagerOptions{
		ClientMessageQueue: q,
		Engine:             engine,
		GameState:          gs,
	})
}

func TestGameManager_processClientMessages(t *testing.T) {
	mockQueue := mocks.NewQueue(t)

	tests := []struct {
		name          string
		gameState     *types.GameState
		messages      []interface{}
		wantDirection types.Direction
		wantSnake     []types.Cell
	}{
		{
			name:          "no messages",
			gameState:     stateWithSnake(types.Cell{X: 5, Y: 5}),
			messages:      []interface{}{},
			wantDirection: types.DirectionNone,
			wantSnake:     []types.Cell{{X: 5, Y: 5}},
		},
		{
			name:      "key press commits direction",
			gameState: stateWithSnake(types.Cell{X: 5, Y: 5}),
			messages: []interface{}{
				keyMessage(t, "w", true),
			},
			wantDirection: types.DirectionNorth,
			wantSnake:     []types.Cell{{X: 5, Y: 5}},
		},
		{
			name:      "messages apply in order",
			gameState: stateWithSnake(types.Cell{X: 5, Y: 5}),
			messages: []interface{}{
				keyMessage(t, "ArrowRight", true),
				keyMessage(t, "ArrowRight", false),
				// same axis as east, rejected
				keyMessage(t, "a", true),
				keyMessage(t, "a", false),
				keyMessage(t, "s", true),
			},
			wantDirection: types.DirectionSouth,
			wantSnake:     []types.Cell{{X: 5, Y: 5}},
		},
		{
			name:      "unknown key and bad payloads are ignored",
			gameState: stateWithSnake(types.Cell{X: 5, Y: 5}),
			messages: []interface{}{
				keyMessage(t, "space", true),
				&messages.Message{Type: messages.MessageTypeClientKey, Payload: []byte("{")},
				&messages.Message{Type: messages.MessageTypeClientPing},
				"not a message",
			},
			wantDirection: types.DirectionNone,
			wantSnake:     []types.Cell{{X: 5, Y: 5}},
		},
		{
			name:      "end game resets",
			gameState: stateWithSnake(types.Cell{X: 5, Y: 5}, types.Cell{X: 4, Y: 5}, types.Cell{X: 3, Y: 5}),
			messages: []interface{}{
				&messages.Message{ClientID: "client-1", Type: messages.MessageTypeClientEndGame},
			},
			wantDirection: types.DirectionNone,
			wantSnake:     []types.Cell{{X: 2, Y: 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue.EXPECT().ReadAllMessages().Return(tt.messages, nil).Once()

			gm := newTestGameManager(mockQueue, tt.gameState)
			gm.processClientMessages()

			assert.Equal(t, tt.wantDirection, gm.controller.Direction())
			assert.Equal(t, tt.wantSnake, gm.gameState.Snake)
		})
	}
}

func TestGameManager_processClientMessages_QueueError(t *testing.T) {
	mockQueue := mocks.NewQueue(t)
	mockQueue.EXPECT().ReadAllMessages().Return(nil, fmt.Errorf("queue closed")).Once()

	gs := stateWithSnake(types.Cell{X: 5, Y: 5})
	gm := newTestGameManager(mockQueue, gs)
	gm.processClientMessages()

	assert.Same(t, gs, gm.gameState)
	assert.Equal(t, types.DirectionNone, gm.controller.Direction())
}

func TestGameManager_gameTick(t *testing.T) {
	ctx := context.Background()

	t.Run("no direction, no move", func(t *testing.T) {
		mockQueue := mocks.NewQueue(t)
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{}, nil).Once()

		gs := stateWithSnake(types.Cell{X: 5, Y: 5})
		gm := newTestGameManager(mockQueue, gs)
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1)))
		assert.Same(t, gs, gm.gameState)
	})

	t.Run("move then eat", func(t *testing.T) {
		mockQueue := mocks.NewQueue(t)
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{keyMessage(t, "d", true)}, nil).Once()
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{}, nil).Once()

		gm := newTestGameManager(mockQueue, stateWithSnake(types.Cell{X: 2, Y: 2}))
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1)))
		assert.Equal(t, []types.Cell{{X: 3, Y: 2}}, gm.gameState.Snake)
		assert.Equal(t, []types.Direction{types.DirectionEast, types.DirectionEast}, gm.gameState.Moves)

		// the direction stays committed after the key is released
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(2)))
		assert.Equal(t, []types.Cell{{X: 4, Y: 2}}, gm.gameState.Snake)
	})

	t.Run("eat grows and places food", func(t *testing.T) {
		mockQueue := mocks.NewQueue(t)
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{keyMessage(t, "d", true)}, nil).Once()

		gm := newTestGameManager(mockQueue, stateWithSnake(types.Cell{X: 15, Y: 2}))
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1)))
		assert.Equal(t, []types.Cell{{X: 16, Y: 2}, {X: 15, Y: 2}}, gm.gameState.Snake)
		assert.Equal(t, types.Cell{X: 7, Y: 3}, gm.gameState.Food)
	})

	t.Run("collision resets and clears direction", func(t *testing.T) {
		mockQueue := mocks.NewQueue(t)
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{
			keyMessage(t, "d", true),
			keyMessage(t, "d", false),
		}, nil).Once()

		cfg := types.DefaultConfig()
		cfg.Boundary = types.BoundaryWalls
		engine := NewEngine(cfg, newSequenceRand(0))
		gs := engine.Initial()
		gs.Snake = []types.Cell{{X: cfg.Cols - 1, Y: 2}}

		gm := NewGameManager(NewGameManagerOptions{
			ClientMessageQueue: mockQueue,
			Engine:             engine,
			GameState:          gs,
		})
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1)))

		assert.Equal(t, engine.Initial(), gm.gameState)
		assert.Equal(t, types.DirectionNone, gm.controller.Direction())
	})

	t.Run("held key recommits after collision", func(t *testing.T) {
		mockQueue := mocks.NewQueue(t)
		mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{keyMessage(t, "d", true)}, nil).Once()

		cfg := types.DefaultConfig()
		cfg.Boundary = types.BoundaryWalls
		engine := NewEngine(cfg, newSequenceRand(0))
		gs := engine.Initial()
		gs.Snake = []types.Cell{{X: cfg.Cols - 1, Y: 2}}

		controller := input.NewController()
		gm := NewGameManager(NewGameManagerOptions{
			ClientMessageQueue: mockQueue,
			Engine:             engine,
			Controller:         controller,
			GameState:          gs,
		})
		require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1)))

		assert.Equal(t, engine.Initial(), gm.gameState)
		assert.Equal(t, types.DirectionEast, controller.Direction())
	})
}

func TestGameManager_publish(t *testing.T) {
	ctx := context.Background()
	mockQueue := mocks.NewQueue(t)
	mockQueue.EXPECT().ReadAllMessages().Return([]interface{}{keyMessage(t, "s", true)}, nil).Once()

	stateManager := state.NewInMemoryStateManager()
	broadcast := make(chan workers.BroadcastMessage, 1)
	gm := NewGameManager(NewGameManagerOptions{
		ClientMessageQueue:   mockQueue,
		StateManager:         stateManager,
		Engine:               NewEngine(types.DefaultConfig(), newSequenceRand(0)),
		BroadcastMessageChan: broadcast,
	})
	require.NoError(t, gm.gameTick(ctx, time.UnixMilli(1000)))

	snapshot, err := stateManager.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), snapshot.Timestamp)
	assert.Equal(t, types.DirectionSouth, snapshot.Direction)
	assert.Equal(t, []types.Cell{{X: 2, Y: 3}}, snapshot.GameState.Snake)

	msg := <-broadcast
	assert.Equal(t, messages.MessageTypeServerGameUpdate, msg.Type)
	update, ok := msg.Message.(*messages.ServerGameUpdate)
	require.True(t, ok)
	assert.Equal(t, int64(1000), update.Timestamp)
	assert.Equal(t, types.DirectionSouth, update.Direction)
	assert.Equal(t, []types.Cell{{X: 2, Y: 3}}, update.Snake)

	// a full channel drops the frame instead of blocking the loop
	broadcast <- workers.BroadcastMessage{}
	gm.publish(ctx, time.UnixMilli(2000))
	assert.Len(t, broadcast, 1)
}

func TestGameManager_StartStop(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Speed = 5 * time.Millisecond
	engine := NewEngine(cfg, newSequenceRand(0))
	q := queue.NewInMemoryQueue(0)
	stateManager := state.NewInMemoryStateManager()

	gm := NewGameManager(NewGameManagerOptions{
		ClientMessageQueue: q,
		StateManager:       stateManager,
		Engine:             engine,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 1)
	go func() { errs <- gm.Start(ctx) }()
	require.Eventually(t, gm.Running, time.Second, time.Millisecond)

	assert.Error(t, gm.Start(ctx), "a second loop must not start")

	require.NoError(t, q.Enqueue(keyMessage(t, "d", true)))
	require.Eventually(t, func() bool {
		snapshot, err := stateManager.Get(ctx)
		return err == nil && len(snapshot.GameState.Moves) > 1
	}, 2*time.Second, time.Millisecond)

	gm.Stop()
	require.NoError(t, <-errs)
	assert.False(t, gm.Running())

	// no transitions after Stop returns
	stopped := gm.gameState
	time.Sleep(4 * cfg.Speed)
	assert.Same(t, stopped, gm.gameState)

	// restarting resumes from the current state
	go func() { errs <- gm.Start(ctx) }()
	require.Eventually(t, func() bool {
		snapshot, err := stateManager.Get(ctx)
		return err == nil && len(snapshot.GameState.Moves) > len(stopped.Moves)
	}, 2*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-errs)
}

func TestGameManager_StartRejectsInvalidState(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(gs *types.GameState)
	}{
		{name: "no tick interval", mutate: func(gs *types.GameState) { gs.Speed = 0 }},
		{name: "zero columns", mutate: func(gs *types.GameState) { gs.Cols = 0 }},
		{name: "negative rows", mutate: func(gs *types.GameState) { gs.Rows = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := types.NewGameState(types.DefaultConfig())
			tt.mutate(gs)
			gm := newTestGameManager(queue.NewInMemoryQueue(0), gs)
			assert.Error(t, gm.Start(context.Background()))
			assert.False(t, gm.Running())
		})
	}
}
