package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	defaultMaxRetries     = 5
	defaultInitialBackoff = 1 * time.Second
	maxBackoff            = 60 * time.Second
)

// Option configures a Client at construction time. Defaults match spec:
// auto-reconnect enabled, 5 max retries, 1s initial backoff.
type Option func(*Client)

// WithAutoReconnect toggles whether Connect retries a failed dial.
func WithAutoReconnect(enabled bool) Option {
	return func(c *Client) { c.autoReconnect = enabled }
}

// WithMaxRetries caps the number of dial attempts Connect makes.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithInitialBackoff sets the base sleep between dial attempts.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) { c.initialBackoff = d }
}

// Client owns the lifetime of the underlying Connection, ref allocation,
// and the channel registry. Its exported methods are safe for concurrent
// use.
type Client struct {
	url    string
	apiKey string

	mu               sync.Mutex
	accessTokenValue string
	credentials      credentialSigner

	refCounter atomic.Uint32

	autoReconnect  bool
	maxRetries     int
	initialBackoff time.Duration

	connection *Connection
	channels   map[string]*Channel
}

// credentialSigner is the minimal surface Client needs from
// auth.Credentials, kept here to avoid an import cycle between realtime
// and its auth subpackage.
type credentialSigner interface {
	SignChallenge(challenge string) (string, error)
}

// New validates and normalizes project_url, then constructs a Client. It
// does not dial; call Connect to establish the WebSocket.
func New(projectURL, apiKey string, opts ...Option) (*Client, error) {
	if !isWSURL(projectURL) {
		return nil, ErrInvalidURL
	}

	c := &Client{
		url:              httpToWS(projectURL),
		apiKey:           apiKey,
		accessTokenValue: apiKey,
		autoReconnect:    true,
		maxRetries:       defaultMaxRetries,
		initialBackoff:   defaultInitialBackoff,
		channels:         make(map[string]*Channel),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SetCredentials attaches an optional challenge-signing helper (typically
// *auth.Credentials) used by RefreshAuth to sign access-token challenges.
func (c *Client) SetCredentials(cred credentialSigner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials = cred
}

// SetAuth updates the client's access token and, if connected, pushes an
// access_token message with no ref on every joined channel's topic.
func (c *Client) SetAuth(token string) {
	c.mu.Lock()
	c.accessTokenValue = token
	conn := c.connection
	chans := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		chans = append(chans, ch)
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	for _, ch := range chans {
		ch.mu.Lock()
		joined, topic := ch.state == ChannelJoined, ch.topic
		ch.mu.Unlock()
		if joined {
			_ = conn.Send(Message{Topic: topic, Payload: AccessToken{AccessToken: token}})
		}
	}
}

// RefreshAuth signs challenge using the credentials attached via
// SetCredentials and installs the result as the new access token. It
// fails if no credentials have been attached.
func (c *Client) RefreshAuth(challenge string) error {
	c.mu.Lock()
	cred := c.credentials
	c.mu.Unlock()

	if cred == nil {
		return fmt.Errorf("realtime: no credentials attached; call SetCredentials first")
	}

	token, err := cred.SignChallenge(challenge)
	if err != nil {
		return err
	}
	c.SetAuth(token)
	return nil
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessTokenValue
}

// connectURL is the dial-time URL: the normalized WebSocket endpoint plus
// apikey and protocol version query parameters.
func (c *Client) connectURL() string {
	return fmt.Sprintf("%s?apikey=%s&vsn=1.0.0", c.url, c.apiKey)
}

// IsConnected reports whether Client currently holds a live Connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connection != nil
}

// CreateChannel prefixes topic with "realtime:", constructs a Channel
// with default bindings installed, registers it, and returns it. A
// PresenceConfig with an empty Key has one filled in with a fresh UUID so
// every anonymous presence tracker gets a stable per-process identity.
func (c *Client) CreateChannel(topic string, config JoinConfig) *Channel {
	fullTopic := "realtime:" + topic

	if config.Presence != nil && config.Presence.Key == "" {
		config.Presence.Key = uuid.NewString()
	}

	ch := newChannel(fullTopic, c, config)

	c.mu.Lock()
	c.channels[fullTopic] = ch
	c.mu.Unlock()

	return ch
}

// Connect is a no-op if already connected. Otherwise it attempts up to
// maxRetries dials. After a failed dial attempt (0-indexed: the very
// first dial is attempt 0), it sleeps backoff*2.0*attempt, then doubles
// backoff up to a 60s cap; this sleep also follows the last failed attempt,
// before the error is returned. The gap following the
// very first failed dial is always zero, a documented quirk preserved
// from the original (original_source/src/client.rs's connect()). If
// autoReconnect is false, a single failed attempt aborts immediately. On
// exhaustion it returns the last dial error.
func (c *Client) Connect() error {
	if c.IsConnected() {
		return nil
	}

	backoff := c.initialBackoff
	var lastErr error
	attemptsMade := 0

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		attemptsMade = attempt + 1

		conn, err := newConnection(context.Background(), c.connectURL(), c.onMessage, 0)
		if err == nil {
			c.mu.Lock()
			c.connection = conn
			c.mu.Unlock()
			return nil
		}
		lastErr = err

		if !c.autoReconnect {
			break
		}

		wait := time.Duration(float64(backoff) * 2.0 * float64(attempt))
		time.Sleep(wait)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return fmt.Errorf("realtime: failed to connect after %s attempts: %w", humanize.Comma(int64(attemptsMade)), lastErr)
}

// MakeRef increments a 32-bit counter and returns its decimal string.
func (c *Client) MakeRef() string {
	return fmt.Sprintf("%d", c.refCounter.Add(1))
}

// send enqueues message on the Connection, or reports ErrConnectionClosed
// if Client holds none. It is unexported: callers reach it through Push
// and Channel, which own ref allocation and reply correlation.
func (c *Client) send(message Message) error {
	c.mu.Lock()
	conn := c.connection
	c.mu.Unlock()

	if conn == nil {
		return ErrConnectionClosed
	}
	return conn.Send(message)
}

// Send is the public form of send, for callers that want to write a
// Message directly without going through a Channel.
func (c *Client) Send(message Message) error {
	return c.send(message)
}

// Close closes the held Connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.connection
	c.connection = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// onMessage is the Connection callback wired in Connect: it pops the
// named channel (if present), triggers it, and reinserts it unless
// removal was requested.
func (c *Client) onMessage(msg Message) {
	c.mu.Lock()
	ch, ok := c.channels[msg.Topic]
	if ok {
		delete(c.channels, msg.Topic)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	shouldRemove := ch.trigger(msg.Payload, msg.Ref)

	if shouldRemove {
		return
	}

	c.mu.Lock()
	c.channels[msg.Topic] = ch
	c.mu.Unlock()
}
