// Package realtime pushes newly classified mover transactions to websocket subscribers.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alpha-move/internal/domain"
	"alpha-move/internal/observability"
)

// HubConfig configures websocket client handling.
type HubConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a client may stay silent (pongs included).
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SendBuffer is the per-client queue length. A full queue drops messages for that client.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   64,
	}
}

// Event is the envelope written to subscribers.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// TransactionPayload is the wire form of a mover transaction.
type TransactionPayload struct {
	Signature     string `json:"signature"`
	TokenAddress  string `json:"tokenAddress"`
	WalletAddress string `json:"walletAddress"`
	Action        string `json:"action"`
	Amount        string `json:"amount"`
	BlockTime     int64  `json:"blockTime"`
	Slot          int64  `json:"slot"`
}

// EventMoverTransaction is the event name of a classified transfer.
const EventMoverTransaction = "mover_transaction"

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out events to every connected client.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a Hub. A nil logger falls back to the global logger.
func NewHub(config HubConfig, logger *zerolog.Logger) *Hub {
	def := DefaultHubConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Hub{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  l.With().Str("component", "realtime").Logger(),
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements webhook.Publisher.
func (h *Hub) Publish(tx *domain.MoverTransaction) {
	h.Broadcast(EventMoverTransaction, TransactionPayload{
		Signature:     tx.Signature,
		TokenAddress:  tx.TokenAddress,
		WalletAddress: tx.WalletAddress,
		Action:        string(tx.Action),
		Amount:        tx.Amount.String(),
		BlockTime:     tx.BlockTime,
		Slot:          tx.Slot,
	})
}

// Broadcast sends an event to every client without blocking on slow ones.
func (h *Hub) Broadcast(event string, payload any) {
	msg, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("event", event).Msg("client queue full, dropping message")
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.config.SendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.writeLoop(c)
	h.readLoop(c)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
	observability.UpdateRealtimeClients(0)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	observability.UpdateRealtimeClients(n)
	h.logger.Debug().Int("clients", n).Msg("client connected")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		observability.UpdateRealtimeClients(n)
		h.logger.Debug().Int("clients", n).Msg("client disconnected")
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
