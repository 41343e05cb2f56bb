package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	lock sync.Mutex
	sent []*messages.Message
}

func (r *recordingSender) SendMessageToAll(msg *messages.Message) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sent = append(r.sent, msg)
}

func (r *recordingSender) recorded() []*messages.Message {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]*messages.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

func TestBroadcastMessageWorker(t *testing.T) {
	sender := &recordingSender{}
	ch := make(chan BroadcastMessage, BroadcastMessageChannelSize)
	w := NewBroadcastMessageWorker(NewBroadcastMessageWorkerOptions{
		Sender:               sender,
		BroadcastMessageChan: ch,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	gs := gametypes.NewGameState(gametypes.DefaultConfig())
	update := messages.ServerGameUpdateFromState(7, gs, gametypes.DirectionEast)

	// frames that cannot be handled are skipped
	ch <- BroadcastMessage{Type: messages.MessageTypeServerGameUpdate, Message: "not an update"}
	ch <- BroadcastMessage{Type: messages.MessageTypeServerPong}
	ch <- BroadcastMessage{Type: messages.MessageTypeServerGameUpdate, Message: update}

	require.Eventually(t, func() bool {
		return len(sender.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	sent := sender.recorded()[0]
	assert.Equal(t, messages.MessageTypeServerGameUpdate, sent.Type)
	decoded, err := messages.DeserializeGameUpdate(sent.Payload)
	require.NoError(t, err)
	assert.Equal(t, update, decoded)
}

func TestBroadcastMessageWorker_ClosedChannel(t *testing.T) {
	ch := make(chan BroadcastMessage)
	w := NewBroadcastMessageWorker(NewBroadcastMessageWorkerOptions{
		Sender:               &recordingSender{},
		BroadcastMessageChan: ch,
	})
	close(ch)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not return after its channel was closed")
	}
}
