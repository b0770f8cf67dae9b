package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"PairPull/internal/domain/models"
	xlogger "PairPull/pkg/logger"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsPingInterval  = 30 * time.Second
	wsSendQueueSize = 16
)

// wsEvent is the envelope for every frame pushed to clients.
type wsEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ts      time.Time   `json:"ts"`
}

// SignalSource provides the current best pair for the greeting frame.
type SignalSource interface {
	Latest() *models.PairAnalysis
}

// Hub fans signal updates out to WebSocket subscribers. Slow clients
// are dropped rather than allowed to stall the broadcast path.
type Hub struct {
	logger   *xlogger.Logger
	source   SignalSource
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	sse     map[chan []byte]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub(logger *xlogger.Logger, source SignalSource) *Hub {
	return &Hub{
		logger: logger,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		sse:     make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a channel receiving every broadcast frame, for
// the SSE stream. The returned cancel removes the subscription; the
// channel itself is never closed so a concurrent Broadcast cannot send
// on a closed channel.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, wsSendQueueSize)
	h.mu.Lock()
	h.sse[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.sse, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Serve upgrades the request and pumps frames until the client leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &wsClient{conn: conn, send: make(chan []byte, wsSendQueueSize)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("ws client connected", xlogger.String("remote", conn.RemoteAddr().String()))

	if sig := h.source.Latest(); sig != nil {
		if b, err := json.Marshal(wsEvent{Event: "initial_signal", Payload: sig, Ts: time.Now()}); err == nil {
			select {
			case cl.send <- b:
			default:
			}
		}
	}

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// Broadcast queues an event for every connected client. Implements
// usecase.Broadcaster.
func (h *Hub) Broadcast(event string, payload interface{}) {
	b, err := json.Marshal(wsEvent{Event: event, Payload: payload, Ts: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	subs := make([]chan []byte, 0, len(h.sse))
	for ch := range h.sse {
		subs = append(subs, ch)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		select {
		case cl.send <- b:
		default:
			h.drop(cl)
		}
	}
	for _, ch := range subs {
		select {
		case ch <- b:
		default:
			// Slow SSE consumers miss frames instead of stalling.
		}
	}
}

// ClientCount reports connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}

func (h *Hub) drop(cl *wsClient) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	cl.close()
}

func (h *Hub) readPump(cl *wsClient) {
	defer h.drop(cl)
	cl.conn.SetReadLimit(1024)
	for {
		// Inbound frames are ignored; the read keeps ping/pong alive
		// and detects disconnects.
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		h.drop(cl)
	}()
	for {
		select {
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the connection. The send channel is left open so a
// concurrent Broadcast never hits a closed channel; the write pump
// exits on the next failed write.
func (cl *wsClient) close() {
	cl.once.Do(func() {
		_ = cl.conn.Close()
	})
}
