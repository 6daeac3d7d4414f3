// Package auth provides an optional Ed25519 credential helper that can
// sign a server-issued challenge before a caller refreshes a realtime
// Client's access token via Client.SetAuth.
package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultMaxChallengeAge bounds how old a server-issued challenge's
// embedded timestamp may be before SignChallenge refuses to sign it,
// closing the window for a captured challenge to be replayed long after
// the server issued it.
const defaultMaxChallengeAge = 5 * time.Minute

// Credentials holds an Ed25519 keypair and a bearer token, and tracks
// when the token was last (re)issued so a caller can tell when it's due
// for rotation. It is not required by the realtime client: callers that
// don't need challenge signing can pass a bare token string to
// Client.SetAuth directly.
type Credentials struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	mu              sync.Mutex
	token           string
	issuedAt        time.Time
	maxChallengeAge time.Duration
}

// NewCredentials builds Credentials from a raw bearer token and,
// optionally, an Ed25519 private keyfile. keyPath may be empty, in which
// case SignChallenge always fails: the caller only wanted the bearer
// token. maxChallengeAge bounds how old a challenge's embedded timestamp
// may be before SignChallenge rejects it; a zero or negative value
// selects defaultMaxChallengeAge.
func NewCredentials(keyPath, token string, maxChallengeAge time.Duration) (*Credentials, error) {
	if maxChallengeAge <= 0 {
		maxChallengeAge = defaultMaxChallengeAge
	}

	c := &Credentials{
		token:           strings.TrimSpace(token),
		issuedAt:        time.Now(),
		maxChallengeAge: maxChallengeAge,
	}

	if keyPath != "" {
		keyData, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", keyPath, err)
		}
		if len(keyData) < ed25519.PrivateKeySize {
			return nil, fmt.Errorf("invalid private key (too short)")
		}
		c.privateKey = ed25519.PrivateKey(keyData[:ed25519.PrivateKeySize])
		c.publicKey = c.privateKey.Public().(ed25519.PublicKey)
	}

	return c, nil
}

// Token returns the bearer token the credentials currently hold.
func (c *Credentials) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// IssuedAt reports when the credentials were constructed or, if later,
// when SignChallenge last succeeded. SignChallenge does not change the
// bearer token that Token returns.
func (c *Credentials) IssuedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issuedAt
}

// NeedsRotation reports whether the held token is older than maxAge.
// Client.RefreshAuth callers poll this (rather than refreshing on a fixed
// timer) to decide when a challenge round-trip is actually due.
func (c *Credentials) NeedsRotation(maxAge time.Duration) bool {
	return IsExpired(c.IssuedAt(), maxAge)
}

// PublicKeyHex returns the hex-encoded Ed25519 public key, or "" if no
// keyfile was loaded.
func (c *Credentials) PublicKeyHex() string {
	if c.publicKey == nil {
		return ""
	}
	return hex.EncodeToString(c.publicKey)
}

// Sign produces an Ed25519 signature over data.
func (c *Credentials) Sign(data []byte) ([]byte, error) {
	if c.privateKey == nil {
		return nil, fmt.Errorf("realtime/auth: no private key loaded")
	}
	return ed25519.Sign(c.privateKey, data), nil
}

// SignChallenge signs a server-issued challenge of the form
// "<unix-seconds>:<nonce>" and returns the hex-encoded signature. The
// embedded timestamp is checked against maxChallengeAge before anything
// is signed; a challenge whose timestamp is stale is rejected outright,
// and a malformed challenge (missing the "<unix-seconds>:" prefix) never
// reaches Sign at all. On success, issuedAt advances to now, so
// NeedsRotation reflects the freshly rotated token.
func (c *Credentials) SignChallenge(challenge string) (string, error) {
	ts, _, ok := strings.Cut(challenge, ":")
	if !ok {
		return "", fmt.Errorf("realtime/auth: malformed challenge %q: expected \"<unix-seconds>:<nonce>\"", challenge)
	}
	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", fmt.Errorf("realtime/auth: malformed challenge timestamp %q: %w", ts, err)
	}

	c.mu.Lock()
	maxAge := c.maxChallengeAge
	c.mu.Unlock()

	issuedAt := time.Unix(seconds, 0)
	if IsExpired(issuedAt, maxAge) {
		return "", fmt.Errorf("realtime/auth: challenge issued at %s is older than %s, refusing to sign", issuedAt.UTC(), maxAge)
	}

	sig, err := c.Sign([]byte(challenge))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.issuedAt = time.Now()
	c.mu.Unlock()

	return hex.EncodeToString(sig), nil
}

// IsExpired reports whether issuedAt is older than maxAge.
func IsExpired(issuedAt time.Time, maxAge time.Duration) bool {
	return time.Since(issuedAt) > maxAge
}
