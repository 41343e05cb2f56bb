package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// ClientWriteTimeout bounds a single write to a client connection
	ClientWriteTimeout = 5 * time.Second
)

// Client represents a connected client
type Client struct {
	ID        string
	conn      *websocket.Conn
	writeLock sync.Mutex
}

// WriteMessage writes a message to the client. Safe for concurrent use.
func (c *Client) WriteMessage(msg *messages.Message) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(ClientWriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %v", err)
	}
	return WriteMessageToWS(c.conn, msg)
}

// Close closes the client connection, which ends its read loop.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ClientManager manages connected clients
type ClientManager struct {
	clients     map[string]*Client
	clientsLock sync.RWMutex
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*Client),
	}
}

// GetClients returns a slice of all connected clients.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

// ConnectClient registers a connection under a new random ID
func (cm *ClientManager) ConnectClient(conn *websocket.Conn) (*Client, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client ID: %v", err)
	}

	client := &Client{
		ID:   id.String(),
		conn: conn,
	}

	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	cm.clients[client.ID] = client

	return client, nil
}

// DisconnectClient removes a client from the manager
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	delete(cm.clients, clientID)
}

func (cm *ClientManager) Exists(clientID string) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}
