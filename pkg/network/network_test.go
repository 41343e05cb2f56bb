package network

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type testServer struct {
	network *NetworkManager
	queue   *queue.InMemoryQueue
	server  *httptest.Server
}

func newTestServer(t *testing.T, stateManager state.StateManager) *testServer {
	t.Helper()

	q := queue.NewInMemoryQueue(0)
	n := NewNetworkManager(NewNetworkManagerOptions{
		ClientManager: NewClientManager(),
		MessageQueue:  q,
		StateManager:  stateManager,
	})
	srv := httptest.NewServer(n.Handler())
	t.Cleanup(srv.Close)

	return &testServer{network: n, queue: q, server: srv}
}

func (s *testServer) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	c, _, err := websocket.Dial(ctx, "ws://"+strings.TrimPrefix(s.server.URL, "http://"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func readMessage(t *testing.T, ctx context.Context, c *websocket.Conn) *messages.Message {
	t.Helper()

	typ, b, err := c.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageBinary, typ)
	msg, err := messages.DeserializeMessage(b)
	require.NoError(t, err)
	return msg
}

func writeMessage(t *testing.T, ctx context.Context, c *websocket.Conn, msg *messages.Message) {
	t.Helper()

	b, err := messages.SerializeMessage(msg)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageBinary, b))
}

func TestNetworkManager_Welcome(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stateManager := state.NewInMemoryStateManager()
	gs := gametypes.NewGameState(gametypes.DefaultConfig())
	require.NoError(t, stateManager.Set(ctx, &state.Snapshot{
		Timestamp: 42,
		GameState: gs,
		Direction: gametypes.DirectionNone,
	}))

	s := newTestServer(t, stateManager)
	c := s.dial(t, ctx)

	welcome := readMessage(t, ctx, c)
	assert.Equal(t, messages.MessageTypeServerWelcome, welcome.Type)
	payload := &messages.ServerWelcome{}
	require.NoError(t, json.Unmarshal(welcome.Payload, payload))
	_, err := uuid.Parse(payload.ClientID)
	assert.NoError(t, err)
	assert.True(t, s.network.ClientManager.Exists(payload.ClientID))

	first := readMessage(t, ctx, c)
	assert.Equal(t, messages.MessageTypeServerGameUpdate, first.Type)
	update, err := messages.DeserializeGameUpdate(first.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), update.Timestamp)
	assert.Equal(t, gs.Snake, update.Snake)
	assert.Equal(t, gs.Food, update.Food)
	assert.Equal(t, gametypes.DirectionNone, update.Direction)
}

func TestNetworkManager_ClientMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// no state manager, so only the welcome is sent on connect
	s := newTestServer(t, nil)
	c := s.dial(t, ctx)

	welcome := readMessage(t, ctx, c)
	payload := &messages.ServerWelcome{}
	require.NoError(t, json.Unmarshal(welcome.Payload, payload))
	clientID := payload.ClientID

	key, err := json.Marshal(messages.ClientKey{Key: "w", Pressed: true})
	require.NoError(t, err)
	writeMessage(t, ctx, c, &messages.Message{
		ClientID: "spoofed",
		Type:     messages.MessageTypeClientKey,
		Payload:  key,
	})
	writeMessage(t, ctx, c, &messages.Message{Type: messages.MessageTypeClientEndGame})

	// malformed frames are dropped without closing the connection
	require.NoError(t, c.Write(ctx, websocket.MessageBinary, []byte("garbage")))

	writeMessage(t, ctx, c, &messages.Message{Type: messages.MessageTypeClientPing, Payload: []byte("1")})
	pong := readMessage(t, ctx, c)
	assert.Equal(t, messages.MessageTypeServerPong, pong.Type)
	assert.Equal(t, []byte("1"), pong.Payload)

	// the pong is written after the earlier messages were handled
	queued, err := s.queue.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, queued, 2)

	first := queued[0].(*messages.Message)
	assert.Equal(t, clientID, first.ClientID)
	assert.Equal(t, messages.MessageTypeClientKey, first.Type)
	assert.JSONEq(t, `{"key":"w","pressed":true}`, string(first.Payload))

	second := queued[1].(*messages.Message)
	assert.Equal(t, clientID, second.ClientID)
	assert.Equal(t, messages.MessageTypeClientEndGame, second.Type)
}

func TestNetworkManager_SendMessageToAll(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newTestServer(t, nil)
	a := s.dial(t, ctx)
	b := s.dial(t, ctx)
	readMessage(t, ctx, a)
	readMessage(t, ctx, b)
	require.Equal(t, 2, s.network.ClientManager.Count())

	msg := &messages.Message{
		ClientID: ServerClientID,
		Type:     messages.MessageTypeServerGameUpdate,
		Payload:  []byte{1, 2, 3},
	}
	s.network.SendMessageToAll(msg)

	for _, c := range []*websocket.Conn{a, b} {
		got := readMessage(t, ctx, c)
		assert.Equal(t, msg.Type, got.Type)
		assert.Equal(t, msg.Payload, got.Payload)
	}
}

func TestNetworkManager_Disconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newTestServer(t, nil)
	c := s.dial(t, ctx)
	readMessage(t, ctx, c)
	require.Equal(t, 1, s.network.ClientManager.Count())

	require.NoError(t, c.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool {
		return s.network.ClientManager.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNetworkManager_StartClosesClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newTestServer(t, nil)
	c := s.dial(t, ctx)
	readMessage(t, ctx, c)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		s.network.Start(runCtx)
		close(done)
	}()
	stop()
	<-done

	_, _, err := c.Read(ctx)
	assert.Error(t, err)
	assert.Eventually(t, func() bool {
		return s.network.ClientManager.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
