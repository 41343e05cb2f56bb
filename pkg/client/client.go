package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
	"nhooyr.io/websocket"
)

const (
	// MaxRecentRTTs is the number of round trips kept for the ping estimate
	MaxRecentRTTs = 10
)

// Client is a websocket client for the snake server.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	closed    atomic.Bool

	clientID     string
	clientIDLock sync.RWMutex

	updates chan *messages.ServerGameUpdate

	recentRTTs []int64
	rttLock    sync.Mutex
}

// NewClient creates a client for a server websocket URL, e.g. ws://localhost:8080/ws.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		updates:   make(chan *messages.ServerGameUpdate, 1),
	}
}

// Connect establishes a connection to the server.
func (c *Client) Connect(ctx context.Context) error {
	log.Info("Connecting to server at %s", c.serverURL)
	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	conn.SetReadLimit(messages.ServerMessageBufferSize)
	c.conn = conn
	return nil
}

// HandleMessages reads messages from the server until the connection closes
// or ctx is done.
func (c *Client) HandleMessages(ctx context.Context) error {
	for {
		_, b, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("failed to read message: %v", err)
		}

		if err := c.handleMessage(b); err != nil {
			log.Error("Failed to handle message: %v", err)
		}
	}
}

// handleMessage processes a received message.
func (c *Client) handleMessage(b []byte) error {
	msg, err := messages.DeserializeMessage(b)
	if err != nil {
		return fmt.Errorf("failed to deserialize message: %v", err)
	}
	log.Trace("Received message from server of type %s", msg.Type)

	switch msg.Type {
	case messages.MessageTypeServerWelcome:
		welcome := &messages.ServerWelcome{}
		if err := json.Unmarshal(msg.Payload, welcome); err != nil {
			return fmt.Errorf("failed to deserialize welcome message: %v", err)
		}
		c.clientIDLock.Lock()
		c.clientID = welcome.ClientID
		c.clientIDLock.Unlock()
		log.Info("Connected as client %s", welcome.ClientID)
	case messages.MessageTypeServerGameUpdate:
		update, err := messages.DeserializeGameUpdate(msg.Payload)
		if err != nil {
			return fmt.Errorf("failed to deserialize game update: %v", err)
		}
		c.pushUpdate(update)
	case messages.MessageTypeServerPong:
		sent, err := strconv.ParseInt(string(msg.Payload), 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse pong payload: %v", err)
		}
		c.recordRTT(time.Now().UnixMilli() - sent)
	default:
		return fmt.Errorf("received unexpected message type from server: %s", msg.Type)
	}

	return nil
}

// pushUpdate replaces any update the consumer has not read yet.
func (c *Client) pushUpdate(update *messages.ServerGameUpdate) {
	for {
		select {
		case c.updates <- update:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// Updates returns a channel carrying the latest game update.
func (c *Client) Updates() <-chan *messages.ServerGameUpdate {
	return c.updates
}

// ClientID returns the ID assigned by the server, or "" before the welcome arrives.
func (c *Client) ClientID() string {
	c.clientIDLock.RLock()
	defer c.clientIDLock.RUnlock()
	return c.clientID
}

// SendKey reports a key press or release.
func (c *Client) SendKey(ctx context.Context, key string, pressed bool) error {
	payload, err := json.Marshal(&messages.ClientKey{Key: key, Pressed: pressed})
	if err != nil {
		return fmt.Errorf("failed to marshal key event: %v", err)
	}
	return c.SendMessage(ctx, &messages.Message{
		Type:    messages.MessageTypeClientKey,
		Payload: payload,
	})
}

// EndGame asks the server to reset the game.
func (c *Client) EndGame(ctx context.Context) error {
	return c.SendMessage(ctx, &messages.Message{Type: messages.MessageTypeClientEndGame})
}

// Ping sends a ping carrying the current time. The pong updates RTT.
func (c *Client) Ping(ctx context.Context) error {
	return c.SendMessage(ctx, &messages.Message{
		Type:    messages.MessageTypeClientPing,
		Payload: []byte(strconv.FormatInt(time.Now().UnixMilli(), 10)),
	})
}

// SendMessage sends a message to the server. Safe for concurrent use.
func (c *Client) SendMessage(ctx context.Context, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := c.conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to server: %v", err)
	}

	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		log.Warn("Connection is already closed")
		return nil
	}
	c.closed.Store(true)
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) recordRTT(rtt int64) {
	c.rttLock.Lock()
	defer c.rttLock.Unlock()
	c.recentRTTs = append(c.recentRTTs, rtt)
	if len(c.recentRTTs) > MaxRecentRTTs {
		c.recentRTTs = c.recentRTTs[len(c.recentRTTs)-MaxRecentRTTs:]
	}
}

// RTT returns the round trip estimate in milliseconds.
func (c *Client) RTT() int64 {
	c.rttLock.Lock()
	defer c.rttLock.Unlock()
	return medianRTT(removeOutlierRTTs(c.recentRTTs))
}
