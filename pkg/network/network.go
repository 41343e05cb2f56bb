package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/gorilla/websocket"
)

// ServerClientID is the sender ID of messages originating from the server.
const ServerClientID = ""

type NetworkManager struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	StateManager  state.StateManager
	WSServer      *WSServer
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	// StateManager is optional. When set, new clients are sent the latest snapshot.
	StateManager state.StateManager
}

func NewNetworkManager(opts NewNetworkManagerOptions) *NetworkManager {
	n := &NetworkManager{
		ClientManager: opts.ClientManager,
		MessageQueue:  opts.MessageQueue,
		StateManager:  opts.StateManager,
	}
	n.WSServer = NewWSServer(NewWSServerOptions{
		ConnectHandler:    n.handleConnect,
		DisconnectHandler: n.handleDisconnect,
		MessageHandler:    n.handleMessage,
	})
	return n
}

// Handler returns the HTTP handler that accepts WebSocket clients.
func (n *NetworkManager) Handler() http.Handler {
	return n.WSServer
}

// Start blocks until ctx is done, then closes all client connections.
// Hijacked connections are not closed by http.Server.Shutdown.
func (n *NetworkManager) Start(ctx context.Context) {
	<-ctx.Done()
	for _, client := range n.ClientManager.GetClients() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close connection for client %s: %v", client.ID, err)
		}
	}
}

func (n *NetworkManager) handleConnect(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	client, err := n.ClientManager.ConnectClient(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to register client: %v", err)
	}
	log.Info("Client %s connected from %s", client.ID, conn.RemoteAddr().String())

	payload, err := json.Marshal(&messages.ServerWelcome{ClientID: client.ID})
	if err != nil {
		n.ClientManager.DisconnectClient(client.ID)
		return nil, fmt.Errorf("failed to marshal welcome message: %v", err)
	}
	welcome := &messages.Message{
		ClientID: ServerClientID,
		Type:     messages.MessageTypeServerWelcome,
		Payload:  payload,
	}
	if err := client.WriteMessage(welcome); err != nil {
		log.Error("Failed to send welcome to client %s: %v", client.ID, err)
	}

	if n.StateManager == nil {
		return client, nil
	}
	snapshot, err := n.StateManager.Get(ctx)
	if err != nil {
		log.Debug("No game state to send to client %s: %v", client.ID, err)
		return client, nil
	}
	update := messages.ServerGameUpdateFromState(snapshot.Timestamp, snapshot.GameState, snapshot.Direction)
	payload, err = messages.SerializeGameUpdate(update)
	if err != nil {
		log.Error("Failed to serialize game state: %v", err)
		return client, nil
	}
	msg := &messages.Message{
		ClientID: ServerClientID,
		Type:     messages.MessageTypeServerGameUpdate,
		Payload:  payload,
	}
	if err := client.WriteMessage(msg); err != nil {
		log.Error("Failed to send game state to client %s: %v", client.ID, err)
	}

	return client, nil
}

func (n *NetworkManager) handleDisconnect(client *Client) {
	n.ClientManager.DisconnectClient(client.ID)
	log.Info("Client %s disconnected", client.ID)
}

func (n *NetworkManager) handleMessage(ctx context.Context, client *Client, message *messages.Message) {
	// the sender is the connection, not what the client claims
	message.ClientID = client.ID
	log.Trace("Received %s message from client %s", message.Type, client.ID)

	switch message.Type {
	case messages.MessageTypeClientPing:
		pong := &messages.Message{
			ClientID: ServerClientID,
			Type:     messages.MessageTypeServerPong,
			Payload:  message.Payload,
		}
		if err := client.WriteMessage(pong); err != nil {
			log.Error("Failed to send pong to client %s: %v", client.ID, err)
		}
	case messages.MessageTypeClientKey, messages.MessageTypeClientEndGame:
		if err := n.MessageQueue.Enqueue(message); err != nil {
			log.Error("Failed to enqueue message from client %s: %v", client.ID, err)
		}
	default:
		log.Warn("Unhandled message type %s from client %s", message.Type, client.ID)
	}
}

// SendMessageToAll writes a message to every connected client.
func (n *NetworkManager) SendMessageToAll(msg *messages.Message) {
	for _, client := range n.ClientManager.GetClients() {
		if err := client.WriteMessage(msg); err != nil {
			log.Error("Failed to write message to client %s: %v", client.ID, err)
		}
	}
}
