// Package widgetclient maintains the widget's side of the session protocol:
// the persistent websocket connection, reconnection with capped exponential
// backoff, and duplicate-send suppression. The embedding UI supplies
// callbacks; there is no rendering here.
package widgetclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fortuneone-chat-backend/internal/types"
)

// State is the connection lifecycle state surfaced to the UI.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	// StateFailed is terminal: the reconnect budget is exhausted and the
	// client stops trying.
	StateFailed State = "failed"
)

const (
	defaultBaseDelay     = 1000 * time.Millisecond
	defaultMaxDelay      = 30000 * time.Millisecond
	defaultMaxAttempts   = 5
	defaultDebounce      = 300 * time.Millisecond
	defaultInFlightGuard = 500 * time.Millisecond
)

// BackoffDelay computes the reconnect delay for a given attempt:
// min(base * 2^attempt, cap).
func BackoffDelay(attempt int, base, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// Client is one widget connection. All exported methods are safe for
// concurrent use.
type Client struct {
	url      string
	language string
	dialer   *websocket.Dialer

	onMessage func(types.ServerTextOutput)
	onState   func(State)

	baseDelay     time.Duration
	maxDelay      time.Duration
	maxAttempts   int
	debounce      time.Duration
	inFlightGuard time.Duration

	mu            sync.Mutex
	conn          *websocket.Conn
	state         State
	attempt       int
	closed        bool
	sending       bool
	pendingText   string
	debounceTimer *time.Timer
}

type Option func(*Client)

// WithLanguage sets the language tag attached to outbound messages. Empty
// keeps the default.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithOnMessage registers the callback invoked for each server message.
func WithOnMessage(fn func(types.ServerTextOutput)) Option {
	return func(c *Client) { c.onMessage = fn }
}

// WithOnStateChange registers the callback invoked on every state
// transition, including the terminal StateFailed.
func WithOnStateChange(fn func(State)) Option {
	return func(c *Client) { c.onState = fn }
}

// WithBackoff overrides the reconnect schedule. Mostly for tests.
func WithBackoff(base, max time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = max
		c.maxAttempts = maxAttempts
	}
}

// WithSendGuards overrides the debounce window and the in-flight guard.
func WithSendGuards(debounce, inFlight time.Duration) Option {
	return func(c *Client) {
		c.debounce = debounce
		c.inFlightGuard = inFlight
	}
}

// New creates a client for the given ws:// URL (business selection rides in
// its query string). Call Connect to start.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:           url,
		language:      "en",
		dialer:        websocket.DefaultDialer,
		baseDelay:     defaultBaseDelay,
		maxDelay:      defaultMaxDelay,
		maxAttempts:   defaultMaxAttempts,
		debounce:      defaultDebounce,
		inFlightGuard: defaultInFlightGuard,
		state:         StateDisconnected,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the first connection attempt. It returns immediately; the
// connection lifecycle is reported through the state callback.
func (c *Client) Connect() {
	go c.dial()
}

// Close tears the client down. No reconnects are scheduled afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		// Callbacks run outside the lock.
		go c.onState(s)
	}
}

func (c *Client) dial() {
	c.mu.Lock()
	if c.closed || c.state == StateConnecting {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, resp, err := c.dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		log.Warn().Str("component", "widgetclient").Err(err).Msg("dial failed")
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.attempt = 0
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	log.Info().Str("component", "widgetclient").Msg("connected")
	go c.readLoop(conn)
}

// scheduleReconnect arms the next dial after the backoff delay, or gives up
// once the attempt budget is spent.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attempt >= c.maxAttempts {
		log.Error().Str("component", "widgetclient").Msg("max reconnection attempts reached")
		c.setStateLocked(StateFailed)
		c.mu.Unlock()
		return
	}
	delay := BackoffDelay(c.attempt, c.baseDelay, c.maxDelay)
	c.attempt++
	attempt := c.attempt
	c.setStateLocked(StateReconnecting)
	c.mu.Unlock()

	log.Info().
		Str("component", "widgetclient").
		Dur("delay", delay).
		Int("attempt", attempt).
		Msg("scheduling reconnect")
	time.AfterFunc(delay, c.dial)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.setStateLocked(StateDisconnected)
			}
			closed := c.closed
			c.mu.Unlock()
			_ = conn.Close()
			if !closed {
				c.scheduleReconnect()
			}
			return
		}

		var msg types.ServerTextOutput
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Str("component", "widgetclient").Err(err).Msg("unparseable server message")
			continue
		}
		if msg.Type == types.MessageTypeTextOutput && c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

// Send submits user input. Rapid repeated submits within the debounce window
// coalesce into one send of the latest text, and a send is refused while the
// previous one is still marked in flight. Best-effort duplicate suppression,
// not exactly-once.
func (c *Client) Send(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pendingText = text
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounce, c.flushSend)
}

func (c *Client) flushSend() {
	c.mu.Lock()
	text := c.pendingText
	c.pendingText = ""
	c.debounceTimer = nil
	conn := c.conn
	if text == "" || conn == nil || c.state != StateConnected || c.sending {
		if c.sending {
			log.Debug().Str("component", "widgetclient").Msg("send already in flight, dropping")
		}
		c.mu.Unlock()
		return
	}
	c.sending = true
	language := c.language
	c.mu.Unlock()

	err := conn.WriteJSON(types.ClientTextInput{
		Type:     types.MessageTypeTextInput,
		Content:  text,
		Language: language,
	})
	if err != nil {
		log.Warn().Str("component", "widgetclient").Err(err).Msg("send failed")
	}
	time.AfterFunc(c.inFlightGuard, func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	})
}
