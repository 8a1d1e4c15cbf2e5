// Package wslink carries flock messages over a WebSocket to the controller.
// Each text frame is one message. The node identifies itself with the
// clientId query parameter and the controller routes by recipient.
package wslink

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"flock-camera-sensor/flockapi"
	"flock-camera-sensor/pipeline"
)

var ErrNotConnected = errors.New("wslink: not connected")

type Config struct {
	URL      string
	ClientID string

	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	ReconnectInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		ReconnectInterval: 2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	return nil
}

// endpoint normalizes the controller URL and adds the node identity.
func (c *Config) endpoint() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid WebSocket URL: %w", err)
	}
	switch u.Scheme {
	case "", "tcp", "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("clientId", c.ClientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Link implements pipeline.Inbound and pipeline.Outbound. The connection is
// (re)established lazily by Next, which reports each successful dial as
// pipeline.EventConnected and each lost connection as EventDisconnected.
type Link struct {
	cfg    Config
	url    string
	log    *slog.Logger
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	wmu sync.Mutex // one writer at a time

	stopped   chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

func New(cfg Config, log *slog.Logger) (*Link, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid websocket config: %w", err)
	}
	endpoint, err := cfg.endpoint()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Link{
		cfg:    cfg,
		url:    endpoint,
		log:    log.With("component", "websocket", "url", cfg.URL),
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		stopped: make(chan struct{}),
	}, nil
}

func (l *Link) closed() bool {
	select {
	case <-l.stopped:
		return true
	default:
		return false
	}
}

func (l *Link) current() *websocket.Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

// dial retries until it connects or the link is closed.
func (l *Link) dial() error {
	attempts := 0
	for {
		if l.closed() {
			return pipeline.ErrInboundClosed
		}
		conn, _, err := l.dialer.Dial(l.url, nil)
		if err == nil {
			if l.closed() {
				conn.Close()
				return pipeline.ErrInboundClosed
			}
			l.mu.Lock()
			l.conn = conn
			l.mu.Unlock()
			l.log.Info("connected to controller")
			return nil
		}
		attempts++
		l.log.Warn("websocket connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", l.cfg.ReconnectInterval,
		)
		select {
		case <-l.stopped:
			return pipeline.ErrInboundClosed
		case <-time.After(l.cfg.ReconnectInterval):
		}
	}
}

func (l *Link) drop(conn *websocket.Conn) {
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()
	conn.Close()
}

func (l *Link) Next() (pipeline.Event, error) {
	if l.closed() {
		return pipeline.Event{}, pipeline.ErrInboundClosed
	}
	conn := l.current()
	if conn == nil {
		if err := l.dial(); err != nil {
			return pipeline.Event{}, err
		}
		return pipeline.Event{Kind: pipeline.EventConnected}, nil
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		if l.closed() {
			return pipeline.Event{}, pipeline.ErrInboundClosed
		}
		l.drop(conn)
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			l.log.Warn("websocket connection error", "error", err)
		}
		return pipeline.Event{Kind: pipeline.EventDisconnected, Err: err}, nil
	}
	l.log.Debug("message received", "size", len(data))
	return pipeline.Decode(data), nil
}

// Publish writes msg as one text frame. It fails fast while disconnected.
func (l *Link) Publish(msg flockapi.Message) error {
	data, err := flockapi.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	conn := l.current()
	if conn == nil {
		return ErrNotConnected
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send WebSocket message: %w", err)
	}
	return nil
}

// Stop unblocks Next and stops reading. The connection stays open so
// Publish keeps working until Close.
func (l *Link) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopped)
		if conn := l.current(); conn != nil {
			err = conn.SetReadDeadline(time.Now())
		}
	})
	return err
}

// Close stops receiving, sends a close frame and closes the connection.
func (l *Link) Close() error {
	err := l.Stop()
	l.closeOnce.Do(func() {
		conn := l.current()
		if conn == nil {
			return
		}
		l.wmu.Lock()
		werr := conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		l.wmu.Unlock()
		if werr != nil {
			l.log.Warn("failed to send close message", "error", werr)
		}
		err = errors.Join(err, conn.Close())
	})
	return err
}
