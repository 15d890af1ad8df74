// Package duplex implements the persistent websocket client side of the
// chat transport: a single connection carrying one logical session, with
// automatic reconnection on fixed backoff.
package duplex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrAttemptsExhausted is returned when every dial attempt failed.
var ErrAttemptsExhausted = errors.New("reconnect attempts exhausted")

// ErrSuperseded is returned to a retry loop that a newer Connect replaced.
var ErrSuperseded = errors.New("connect superseded by a newer attempt")

// frame and reply mirror the server's websocket payloads.
type frame struct {
	Message      string `json:"message"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

type reply struct {
	Response  string `json:"response,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client is a reconnecting websocket chat client. The session id learned
// from the first reply is echoed on every later frame, so the conversation
// survives reconnects.
type Client struct {
	url          string
	restaurantID string
	backoff      time.Duration
	maxAttempts  int
	dialer       *websocket.Dialer
	logger       *log.Logger

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	sessionID string
	gen       int
}

// NewClient creates a client for the given ws:// URL. restaurantID scopes
// the session and may be empty; backoff is the fixed delay between dial
// attempts, maxAttempts caps one Connect's attempts.
func NewClient(url, restaurantID string, backoff time.Duration, maxAttempts int) *Client {
	return &Client{
		url:          url,
		restaurantID: restaurantID,
		backoff:      backoff,
		maxAttempts:  maxAttempts,
		dialer:       websocket.DefaultDialer,
		logger:       log.New(log.Writer(), "[DUPLEX] ", log.LstdFlags),
	}
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID reports the session id learned from the server, empty until
// the first reply arrives.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Connect dials until connected or attempts run out. Calling Connect while
// a previous Connect is still retrying supersedes it: the old loop stops
// at its next attempt.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	return c.dial(ctx, gen)
}

func (c *Client) dial(ctx context.Context, gen int) error {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return ErrSuperseded
		}
		c.mu.Unlock()

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				conn.Close()
				return ErrSuperseded
			}
			c.conn = conn
			c.state = StateConnected
			c.mu.Unlock()
			return nil
		}

		c.logger.Printf("dial attempt %d/%d failed: %v", attempt, c.maxAttempts, err)
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			c.setDisconnected(gen)
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	c.setDisconnected(gen)
	return ErrAttemptsExhausted
}

func (c *Client) setDisconnected(gen int) {
	c.mu.Lock()
	if c.gen == gen {
		c.state = StateDisconnected
	}
	c.mu.Unlock()
}

// Ask sends one message and waits for its reply. A transport failure
// triggers a reconnect with the configured backoff and one resend; the
// resumed session keeps its history because the session id travels with
// the frame. An error reply from the server is a rejection of this
// message, not a connection loss, and leaves the connection alone.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	r, err := c.ask(message)
	if err == nil {
		return c.accept(r)
	}

	c.logger.Printf("connection lost, reconnecting: %v", err)
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateConnecting
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	if err := c.dial(ctx, gen); err != nil {
		return "", fmt.Errorf("reconnect failed: %w", err)
	}
	r, err = c.ask(message)
	if err != nil {
		return "", err
	}
	return c.accept(r)
}

// ask performs one send/receive exchange. Its error return is transport
// only; server rejections come back in the reply.
func (c *Client) ask(message string) (reply, error) {
	c.mu.Lock()
	conn := c.conn
	f := frame{Message: message, RestaurantID: c.restaurantID, SessionID: c.sessionID}
	c.mu.Unlock()

	if conn == nil {
		return reply{}, errors.New("not connected")
	}
	if err := conn.WriteJSON(f); err != nil {
		return reply{}, err
	}
	var r reply
	if err := conn.ReadJSON(&r); err != nil {
		return reply{}, err
	}
	return r, nil
}

func (c *Client) accept(r reply) (string, error) {
	if r.Error != "" {
		return "", errors.New(r.Error)
	}
	c.mu.Lock()
	c.sessionID = r.SessionID
	c.mu.Unlock()
	return r.Response, nil
}

// Close tears the connection down and stops any pending retry loop.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = StateDisconnected
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
