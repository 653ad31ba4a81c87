package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced on the HTTP routes
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client message types.
const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgAnalyze     = "analyze"
	MsgPing        = "ping"
)

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type    string      `json:"type"`
	Company string      `json:"company,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and fans pipeline events out to them.
// It implements pipeline.Observer.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	unregister chan *WSClient
	done       chan struct{}
	log        logrus.FieldLogger
}

// WSClient represents a single WebSocket connection. A client with a
// company filter only receives messages for that company.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu      sync.Mutex
	company string
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub(log logrus.FieldLogger) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		log:        logger.OrDiscard(log),
	}
}

// NewClient creates a client bound to h with a buffered send queue.
func (h *WSHub) NewClient() *WSClient {
	return &WSClient{hub: h, send: make(chan WSMessage, 256)}
}

// Run starts the hub event loop. It returns when ctx is done, closing every
// client queue.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			close(h.done)
			h.mu.Unlock()
			return
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.accepts(msg) {
					continue
				}
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client; h.mu must be held.
func (h *WSHub) drop(client *WSClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.WithField("type", msg.Type).Debug("websocket broadcast queue full, dropping message")
	}
}

// OnEvent implements pipeline.Observer.
func (h *WSHub) OnEvent(e pipeline.Event) {
	h.Broadcast(WSMessage{Type: string(e.Type), Company: e.Company, Data: e})
}

// sendTo queues msg for one client if it is still registered.
func (h *WSHub) sendTo(client *WSClient, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. Once the hub has stopped the client's
// queue is closed immediately.
func (h *WSHub) Register(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		close(client.send)
	default:
		h.clients[client] = true
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe restricts the client to one company; empty clears the filter.
func (c *WSClient) Subscribe(company string) {
	c.mu.Lock()
	c.company = strings.TrimSpace(company)
	c.mu.Unlock()
}

func (c *WSClient) accepts(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.company == "" || msg.Company == "" || strings.EqualFold(c.company, msg.Company)
}

// ============================================================
// Connection pumps
// ============================================================

// handleWebSocket upgrades the connection and streams pipeline events.
// Clients may send {"type":"subscribe","data":"<company>"} to filter events,
// or {"type":"analyze","data":"<company>"} to start an analysis whose report
// is sent back as a "report" message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := s.wsHub.NewClient()
	s.wsHub.Register(client)

	go wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	// analyses started from this socket stop when it goes away
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("websocket read error")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.hub.sendTo(client, WSMessage{Type: "error", Data: "invalid message"})
			continue
		}
		company, _ := msg.Data.(string)

		switch msg.Type {
		case MsgSubscribe:
			client.Subscribe(company)
			client.hub.sendTo(client, WSMessage{Type: "subscribed", Company: company})
		case MsgUnsubscribe:
			client.Subscribe("")
			client.hub.sendTo(client, WSMessage{Type: "unsubscribed"})
		case MsgAnalyze:
			go s.wsAnalyze(ctx, client, company)
		case MsgPing:
			client.hub.sendTo(client, WSMessage{Type: "pong"})
		default:
			client.hub.sendTo(client, WSMessage{Type: "error", Data: "unknown message type " + msg.Type})
		}
	}
}

// wsAnalyze runs one analysis for a socket client. Progress arrives through
// the hub; the finished report goes to the requesting client only. ctx ends
// with the connection.
func (s *Server) wsAnalyze(ctx context.Context, client *WSClient, company string) {
	rep, err := s.runAnalysis(ctx, company)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		_, msg := errorStatus(err)
		client.hub.sendTo(client, WSMessage{Type: "error", Company: company, Data: msg})
		return
	}
	client.hub.sendTo(client, WSMessage{Type: "report", Company: rep.Company, Data: rep})
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
