package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YusufHabib317/chat-service/internal/config"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

// Client is one live transport-level channel. The transport layer owns
// its lifetime; everything else holds it only through hub membership.
type Client struct {
	ID       string
	Identity domain.Identity
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte

	state  connState
	config config.WebSocketConfig

	sendMu     sync.Mutex
	sendClosed bool
}

// connState is the small amount of per-connection mutable state the
// coordination core needs: which conversation a customer connection
// joined, and the last relayed typing state for coalescing.
type connState struct {
	mu             sync.RWMutex
	conversationID string
	typing         bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(id string, h *Hub, conn *websocket.Conn, identity domain.Identity, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:       id,
		Identity: identity,
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		config:   cfg,
	}
}

// SetConversation records the conversation this connection joined.
func (c *Client) SetConversation(conversationID string) {
	c.state.mu.Lock()
	c.state.conversationID = conversationID
	c.state.mu.Unlock()
}

// Conversation returns the conversation this connection joined, or "".
func (c *Client) Conversation() string {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.conversationID
}

// SetTyping updates the connection's typing state and reports whether it
// changed. Repeated identical states are coalesced (last-write-wins) so a
// keystroke storm never amplifies into a fan-out storm.
func (c *Client) SetTyping(typing bool) bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	if c.state.typing == typing {
		return false
	}
	c.state.typing = typing
	return true
}

// ReadPump consumes inbound frames and dispatches them to onEvent. It
// runs on its own goroutine; onClose fires exactly once when the
// connection drops for any reason.
func (c *Client) ReadPump(onEvent func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Err(err).Str(log.FieldConnectionID, c.ID).Msg("websocket read error")
			}
			break
		}
		onEvent(c, message)
	}
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an event for this connection only. A full queue drops
// the event rather than blocking the caller; a closed queue drops it
// silently, since the connection is already on its way out.
func (c *Client) SendEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return nil
	}
	select {
	case c.Send <- data:
	default:
	}
	return nil
}

// closeSend closes the send queue exactly once. The queue may only be
// closed through here; a concurrent SendEvent observes the flag under
// the same lock and can never hit a closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
	c.sendMu.Unlock()
}
