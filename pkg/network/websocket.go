package network

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/gorilla/websocket"
)

type ConnectHandler func(ctx context.Context, conn *websocket.Conn) (*Client, error)

type DisconnectHandler func(client *Client)

type MessageHandler func(ctx context.Context, client *Client, message *messages.Message)

// WSServer upgrades HTTP requests to WebSocket connections and runs
// one read loop per connection.
type WSServer struct {
	upgrader          websocket.Upgrader
	connectHandler    ConnectHandler
	disconnectHandler DisconnectHandler
	messageHandler    MessageHandler
}

type NewWSServerOptions struct {
	ConnectHandler    ConnectHandler
	DisconnectHandler DisconnectHandler
	MessageHandler    MessageHandler
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		connectHandler:    opts.ConnectHandler,
		disconnectHandler: opts.DisconnectHandler,
		messageHandler:    opts.MessageHandler,
	}
}

func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())
	s.handleWSConnection(r.Context(), conn)
}

// handleWSConnection handles a WebSocket connection until it is closed.
// Messages are handled in the order they are read.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(messages.MessageBufferSize)

	client, err := s.connectHandler(ctx, conn)
	if err != nil {
		log.Error("Failed to connect client from %s: %v", conn.RemoteAddr().String(), err)
		conn.Close()
		return
	}
	defer func() {
		s.disconnectHandler(client)
		conn.Close()
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from client %s: %v", client.ID, err)
			}
			log.Trace("Connection closed for client %s", client.ID)
			return
		}

		message, err := messages.DeserializeMessage(b)
		if err != nil {
			log.Warn("Dropping malformed message from client %s: %v", client.ID, err)
			continue
		}

		s.messageHandler(ctx, client, message)
	}
}

// WriteMessageToWS writes a Message to a WebSocket connection
func WriteMessageToWS(conn *websocket.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}
