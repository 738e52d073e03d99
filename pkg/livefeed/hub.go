// Package livefeed broadcasts delivered samples over HTTP and websockets.
package livefeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Read-only feed on the local network
	},
}

// Samples queued per client before it is dropped.
const clientQueueSize = 16

// Time a single write may take before the client is dropped.
const defaultWriteWait = 10 * time.Second

// client owns one websocket. Only its writer goroutine writes data frames.
type client struct {
	conn     *websocket.Conn
	outbound chan []byte

	mutex  sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:     conn,
		outbound: make(chan []byte, clientQueueSize),
	}
}

// enqueue never blocks. It reports false when the client is closed or its queue is full.
func (c *client) enqueue(data []byte) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbound <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mutex.Lock()
	if !c.closed {
		c.closed = true
		close(c.outbound)
	}
	c.mutex.Unlock()
	c.conn.Close()
}

// Hub keeps the websocket clients and the latest delivered sample.
type Hub struct {
	clients      map[*client]bool
	clientsMutex sync.RWMutex

	latest      *types.Sample
	latestMutex sync.RWMutex

	writeWait time.Duration
	log       *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]bool),
		writeWait: defaultWriteWait,
		log:       logging.WithComponent("livefeed"),
	}
}

// Publish stores the sample as latest and queues it for every client.
// It does not wait on the network; a client whose queue is full is dropped.
func (h *Hub) Publish(sample types.Sample) {
	h.latestMutex.Lock()
	h.latest = &sample
	h.latestMutex.Unlock()

	data := sample.ToJsonBytes()
	if data == nil {
		return
	}

	h.clientsMutex.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMutex.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			h.log.Warn("Dropping websocket client that is not keeping up")
			h.removeClient(c)
		}
	}
}

// writePump sends queued samples until the queue closes or a write fails.
func (h *Hub) writePump(c *client) {
	for data := range c.outbound {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).Debug("Dropping websocket client")
			h.removeClient(c)
			return
		}
	}
}

// Latest returns the last published sample, nil before the first one.
func (h *Hub) Latest() *types.Sample {
	h.latestMutex.RLock()
	defer h.latestMutex.RUnlock()
	return h.latest
}

func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.clientsMutex.Lock()
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.clientsMutex.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) addClient(c *client) {
	h.clientsMutex.Lock()
	h.clients[c] = true
	h.clientsMutex.Unlock()
}

func (h *Hub) removeClient(c *client) {
	h.clientsMutex.Lock()
	delete(h.clients, c)
	h.clientsMutex.Unlock()
	c.close()
}

// Handler serves the status, latest sample and websocket endpoints.
// metrics is mounted on /metrics when not nil.
func (h *Hub) Handler(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Slimmemeter collector",
			"status":  "running",
			"clients": h.ClientCount(),
		})
	})

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		sample := h.Latest()
		if sample == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "No samples available yet",
			})
			return
		}
		writeJSON(w, http.StatusOK, sample)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.WithError(err).Warn("WebSocket upgrade error")
			return
		}

		c := newClient(conn)
		h.addClient(c)
		go h.writePump(c)

		// Send current sample immediately if available
		if sample := h.Latest(); sample != nil {
			c.enqueue(sample.ToJsonBytes())
		}

		// Keep connection alive, answers pings
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeClient(c)
				return
			}
		}
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
