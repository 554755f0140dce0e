package oauth2

import (
	"sync"
)

// TokenCache holds fetched tokens keyed by grant, endpoint, client and
// scopes. Expired entries are dropped on lookup.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[string]*Token)}
}

// Get returns the live token under key, or nil.
func (c *TokenCache) Get(key string) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[key]
	if !ok {
		return nil
	}
	if tok == nil || tok.IsExpired() {
		delete(c.tokens, key)
		return nil
	}
	return tok
}

func (c *TokenCache) Set(key string, token *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = token
}

// Invalidate forgets the token under key, e.g. after the server rejected it.
func (c *TokenCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
}

// Len counts cached entries, expired ones included.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}

func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.tokens)
}
