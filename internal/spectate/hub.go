// Package spectate streams battle events to read-only websocket clients.
//
// A Hub subscribes to the event bus and fans each event out to every
// connected client as one JSON text message:
//
//	{"type": "battle.damage_applied", "time": "...", "data": {...}}
//
// Inbound frames are read and discarded. Spectators never affect the battle.
package spectate

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/logging"
)

// Path is where the feed is served.
const Path = "/events"

// TypeSnapshot is the type of the first message a client receives when the
// hub has a snapshot source.
const TypeSnapshot = "battle.snapshot"

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
	sendBuffer     = 64
)

// Message is the JSON envelope sent to clients.
type Message struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	first []byte // snapshot, written before anything queued on send
}

// Hub is an http.Handler that upgrades requests to websocket spectators.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader
	snapshot func() any

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	bus     *event.Bus
	subID   string
	server  *http.Server

	wg conc.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSnapshot makes the hub greet each new client with fn's result.
func WithSnapshot(fn func() any) Option {
	return func(h *Hub) { h.snapshot = fn }
}

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		logger:  logging.NopLogger(),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Read-only feed; any origin may watch.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("spectate")
	return h
}

// Attach subscribes the hub to every event on bus.
func (h *Hub) Attach(bus *event.Bus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bus != nil {
		h.bus.Unsubscribe(h.subID)
	}
	h.bus = bus
	h.subID = bus.SubscribeAll(h.Broadcast)
}

// Handler returns a mux serving the feed at Path.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+Path, h)
	return mux
}

// Start listens on addr and serves Handler in the background. It returns
// the bound address.
func (h *Hub) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", addr)
	}
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ln.Close()
		return nil, errors.New("spectate hub closed")
	}
	h.server = srv
	h.mu.Unlock()

	h.wg.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("spectate server stopped", "error", err)
		}
	})
	h.logger.Info("spectate feed listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// ServeHTTP upgrades the request and streams events until the client goes
// away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	// Register before taking the snapshot so no event falls between the
	// two. The snapshot is taken outside h.mu: publishers hold the session
	// lock while broadcasting.
	if !h.add(c) {
		conn.Close()
		return
	}
	if h.snapshot != nil {
		if data, err := json.Marshal(Message{Type: TypeSnapshot, Time: time.Now(), Data: h.snapshot()}); err == nil {
			c.first = data
		}
	}
	if !h.start(c) {
		conn.Close()
		return
	}
	h.logger.Info("spectator connected", "client_id", c.id, "remote", r.RemoteAddr)
	h.readLoop(c)
}

// Broadcast sends e to every client. A client whose buffer is full misses
// the event.
func (h *Hub) Broadcast(e event.Event) {
	data, err := json.Marshal(Message{Type: e.EventType(), Time: e.Timestamp(), Data: e})
	if err != nil {
		h.logger.Warn("failed to encode event", "event_type", e.EventType(), "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("spectator too slow, dropping event", "client_id", c.id, "event_type", e.EventType())
		}
	}
}

// ClientCount returns the number of connected spectators.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unsubscribes from the bus, disconnects every client and stops the
// server started by Start.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	if h.bus != nil {
		h.bus.Unsubscribe(h.subID)
		h.bus = nil
	}
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	srv := h.server
	h.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Close()
	}
	h.wg.Wait()
	return err
}

// add registers c so it receives broadcasts. Its writer starts in start.
func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// start launches c's writer unless the hub closed after add.
func (h *Hub) start(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok || h.closed {
		return false
	}
	h.wg.Go(func() { h.writeLoop(c) })
	return true
}

// remove drops c and closes its send channel, once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readLoop discards inbound frames and notices when the client leaves.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.Info("spectator disconnected", "client_id", c.id)
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if c.first != nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, c.first); err != nil {
			h.logger.Debug("spectator write failed", "client_id", c.id, "error", err)
			return
		}
	}

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("spectator write failed", "client_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
