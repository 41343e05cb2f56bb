package workers

import (
	"context"
	"fmt"

	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
)

const (
	// BroadcastMessageChannelSize is the number of frames buffered for the broadcast worker
	BroadcastMessageChannelSize = 16
)

// MessageSender delivers a message to every connected client.
type MessageSender interface {
	SendMessageToAll(msg *messages.Message)
}

type BroadcastMessageWorker struct {
	sender               MessageSender
	broadcastMessageChan <-chan BroadcastMessage
}

type BroadcastMessage struct {
	Type    messages.MessageType
	Message interface{}
}

type NewBroadcastMessageWorkerOptions struct {
	Sender               MessageSender
	BroadcastMessageChan <-chan BroadcastMessage
}

func NewBroadcastMessageWorker(opts NewBroadcastMessageWorkerOptions) *BroadcastMessageWorker {
	return &BroadcastMessageWorker{
		sender:               opts.Sender,
		broadcastMessageChan: opts.BroadcastMessageChan,
	}
}

func (w *BroadcastMessageWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.broadcastMessageChan:
			if !ok {
				return
			}
			switch msg.Type {
			case messages.MessageTypeServerGameUpdate:
				if err := w.handleServerGameUpdate(msg); err != nil {
					log.Error("Failed to handle server game update message: %v", err)
				}
			default:
				log.Error("Unknown server message type: %v", msg.Type)
			}
		}
	}
}

func (w *BroadcastMessageWorker) handleServerGameUpdate(b BroadcastMessage) error {
	serverGameUpdate, ok := b.Message.(*messages.ServerGameUpdate)
	if !ok {
		return fmt.Errorf("failed to cast server game update message")
	}

	payload, err := messages.SerializeGameUpdate(serverGameUpdate)
	if err != nil {
		return fmt.Errorf("failed to serialize game update: %v", err)
	}

	message := &messages.Message{
		Type:    messages.MessageTypeServerGameUpdate,
		Payload: payload,
	}
	w.sender.SendMessageToAll(message)

	return nil
}
