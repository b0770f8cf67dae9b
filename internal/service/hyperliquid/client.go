package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Hyperliquid WebSocket
// allMids channel. Every frame carries mids for the whole exchange; the
// client filters down to the configured universe.
type Client struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	universe map[string]bool

	// mu guards conn and connected: Connect, Reconnect and Close write
	// them while the ping and read goroutines read concurrently.
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a new Hyperliquid MarketStream.
func New(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	universe := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		universe[s] = true
	}
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		universe:       universe,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("hyperliquid connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	log.Printf("hyperliquid: connected")
	return nil
}

// current returns the live connection, or nil when disconnected.
func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	return c.conn
}

type subscription struct {
	Method       string `json:"method"`
	Subscription struct {
		Type string `json:"type"`
	} `json:"subscription"`
}

// Subscribe subscribes to the allMids channel.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("hyperliquid not connected")
	}
	var sub subscription
	sub.Method = "subscribe"
	sub.Subscription.Type = "allMids"
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe allMids: %w", err)
	}
	log.Printf("hyperliquid: subscribed allMids")
	return nil
}

type wsFrame struct {
	Channel string `json:"channel"`
	Data    struct {
		Mids map[string]string `json:"mids"`
	} `json:"data"`
}

// Read streams price points and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.PricePoint, <-chan error) {
	points := make(chan *models.PricePoint, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if conn := c.current(); conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(points)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				conn := c.current()
				if conn == nil {
					errs <- fmt.Errorf("hyperliquid conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("hyperliquid read: %w", err)
					return
				}
				var f wsFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-JSON frames
					continue
				}
				if f.Channel != "allMids" {
					continue
				}
				now := time.Now().UTC()
				for sym, raw := range f.Data.Mids {
					if !c.universe[sym] {
						continue
					}
					price, err := strconv.ParseFloat(raw, 64)
					if err != nil || price <= 0 {
						continue
					}
					pt := &models.PricePoint{
						Symbol:    sym,
						Price:     price,
						Timestamp: now,
						Source:    models.SourceHyperliquidWS,
					}
					select {
					case points <- pt:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return points, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
