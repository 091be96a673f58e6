package broadcast

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/rustyeddy/drinkx/market"
)

// EventUpdatePrices is the event name every snapshot is sent under.
const EventUpdatePrices = "updatePrices"

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendQueue  = 16
)

// Message is the envelope written to websocket clients.
type Message struct {
	Event string          `json:"event"`
	Data  market.Snapshot `json:"data"`
}

var errHubClosed = errors.New("hub is closed")

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub is a websocket fan-out for price snapshots. It implements Port and
// http.Handler.
type Hub struct {
	upgrader websocket.Upgrader
	current  func() market.Snapshot

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub returns a Hub that greets each new client with current().
// checkOrigin may be nil to accept any origin.
func NewHub(current func() market.Snapshot, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		current: current,
		clients: map[*client]struct{}{},
	}
}

// AllowOrigins returns a CheckOrigin func accepting the listed origins, or
// any origin when the list contains "*".
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// ServeHTTP upgrades the request and streams snapshots until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("websocket upgrade from %s: %s", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	if err := h.join(c); err != nil {
		glog.Errorf("viewer %s: %s", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	glog.Infof("viewer %s connected (%d total)", conn.RemoteAddr(), h.Clients())

	go h.writer(c)
	h.reader(c)
}

// Broadcast encodes s once and queues it to every client. Clients whose
// queue is full are disconnected.
func (h *Hub) Broadcast(s market.Snapshot) {
	b, err := encode(s)
	if err != nil {
		glog.Errorf("encode snapshot: %s", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			glog.Warningf("viewer %s is too slow, dropping it", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// join registers c and queues the current snapshot as its first message.
// Both happen under the hub lock so no broadcast can slip in between.
func (h *Hub) join(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHubClosed
	}

	// Late joiners see the current state right away.
	b, err := encode(h.current())
	if err != nil {
		return err
	}
	c.send <- b
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// reader drains the connection so control frames are processed. Viewers
// never send anything meaningful; any read error ends the session.
func (h *Hub) reader(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			glog.Infof("viewer %s disconnected: %s", c.conn.RemoteAddr(), err)
			return
		}
	}
}

// writer owns all writes to the connection.
func (h *Hub) writer(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				glog.Errorf("write to viewer %s: %s", c.conn.RemoteAddr(), err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(s market.Snapshot) ([]byte, error) {
	if s == nil {
		s = market.Snapshot{}
	}
	return json.Marshal(Message{Event: EventUpdatePrices, Data: s})
}
