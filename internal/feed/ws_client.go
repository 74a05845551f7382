package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
)

// ErrClientClosed is returned after Close.
var ErrClientClosed = errors.New("feed client closed")

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	// Buffer is the update channel capacity.
	Buffer int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    5 * time.Second,
		MaxReconnectDelay: 60 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            4096,
	}
}

// WSClient streams price updates for a fixed set of pairs over a WebSocket,
// reconnecting and resubscribing on failure.
type WSClient struct {
	endpoint string
	config   WSConfig
	pairs    []string
	log      *logger.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	updates chan PriceUpdate
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWSClient connects, subscribes to pairs and starts the read and ping loops.
func NewWSClient(ctx context.Context, endpoint string, pairs []domain.Pair, config *WSConfig, log *logger.Logger) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultWSConfig().Buffer
	}
	if log == nil {
		log = logger.Nop()
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no pairs to subscribe", domain.ErrInvalidParameter)
	}

	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.String()
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		pairs:    names,
		log:      log.Component("feed"),
		updates:  make(chan PriceUpdate, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Updates returns the stream of price updates. It is closed by Close.
func (c *WSClient) Updates() <-chan PriceUpdate {
	return c.updates
}

// connect dials and sends the subscription.
func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	req := subscribeRequest{Op: "subscribe", ID: c.requestID.Add(1), Pairs: c.pairs}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	return nil
}

// Close closes the connection and the update channel.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.updates)
	return nil
}

// readLoop reads frames and reconnects with exponential backoff on error.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnect(&delay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn("feed read failed", logger.Error(err))

			c.connMu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()
			continue
		}

		delay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect waits delay then dials once. It returns false when closed.
func (c *WSClient) reconnect(delay *time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(*delay):
	}

	observability.RecordFeedReconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.Warn("feed reconnect failed", logger.Error(err), logger.Duration("delay", *delay))
		*delay *= 2
		if *delay > c.config.MaxReconnectDelay {
			*delay = c.config.MaxReconnectDelay
		}
		return true
	}

	c.log.Info("feed reconnected", logger.Int("pairs", len(c.pairs)))
	return true
}

// pingLoop keeps the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.log.Debug("feed ping failed", logger.Error(err))
				}
			}
			c.connMu.Unlock()
		}
	}
}

// handleMessage decodes one frame and forwards price updates.
func (c *WSClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.log.Warn("feed frame undecodable", logger.Error(err))
		return
	}

	switch msg.Type {
	case "price":
		pair, err := ParsePair(msg.Pair)
		if err != nil || msg.Price <= 0 {
			c.log.Warn("feed price rejected", logger.String("pair", msg.Pair), logger.Float64("price", msg.Price))
			return
		}
		observability.RecordPriceUpdate()

		// blocking send: the buffer absorbs bursts, no update is dropped
		select {
		case c.updates <- PriceUpdate{Pair: pair, Price: msg.Price, Volume: msg.Volume, TimestampMs: msg.TimestampMs}:
		case <-c.done:
		}
	case "subscribed":
		c.log.Debug("feed subscribed", logger.Int64("request_id", int64(msg.ID)))
	case "error":
		c.log.Error("feed server error", logger.String("message", msg.Message))
	}
}
