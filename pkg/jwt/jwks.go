package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v3"
)

// JWKSCache keeps the identity provider's signing keys in memory and
// refetches the document when a token carries an unknown kid.
type JWKSCache struct {
	url        string
	client     *http.Client
	minRefresh time.Duration

	mu        sync.RWMutex
	set       jose.JSONWebKeySet
	fetchedAt time.Time
}

// NewJWKSCache creates a cache for the JWKS document at url.
func NewJWKSCache(url string, client *http.Client) *JWKSCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSCache{
		url:        url,
		client:     client,
		minRefresh: time.Minute,
	}
}

// Refresh downloads the key set.
func (c *JWKSCache) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build jwks request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode jwks: %w", err)
	}

	c.mu.Lock()
	c.set = set
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Key implements KeySource.
func (c *JWKSCache) Key(kid string) (interface{}, error) {
	if key, ok := c.lookup(kid); ok {
		return key, nil
	}

	c.mu.RLock()
	stale := time.Since(c.fetchedAt) >= c.minRefresh
	c.mu.RUnlock()
	if !stale {
		return nil, ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Refresh(ctx); err != nil {
		return nil, ErrInvalidToken
	}

	if key, ok := c.lookup(kid); ok {
		return key, nil
	}
	return nil, ErrInvalidToken
}

func (c *JWKSCache) lookup(kid string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.set.Key(kid)
	if len(keys) == 0 {
		return nil, false
	}
	pub := keys[0].Public()
	if pub.Key == nil {
		return nil, false
	}
	return pub.Key, true
}
