package auth

import (
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// InjectableTokenNames is the priority list consulted for automatic
// Authorization injection. Names are matched case-insensitively.
var InjectableTokenNames = []string{
	"token",
	"access_token",
	"accessToken",
	"authToken",
	"bearerToken",
	"bearer_token",
	"apiToken",
	"api_token",
}

// TokenStore is an in-memory pool of named auth tokens that lives as long as
// the process. Names are unique; saving an existing name overwrites its value
// and source but keeps its position.
type TokenStore struct {
	mu     sync.RWMutex
	tokens []model.AuthToken
	index  map[string]int
}

func NewTokenStore() *TokenStore {
	return &TokenStore{index: make(map[string]int)}
}

// Save stores token, replacing any token with the same name.
func (s *TokenStore) Save(token model.AuthToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[token.Name]; ok {
		s.tokens[i] = token
		return
	}
	s.index[token.Name] = len(s.tokens)
	s.tokens = append(s.tokens, token)
}

// Set is shorthand for saving a manual token.
func (s *TokenStore) Set(name, value string) {
	s.Save(model.AuthToken{Name: name, Value: value, Source: model.TokenManual})
}

// Get returns the token stored under name.
func (s *TokenStore) Get(name string) (model.AuthToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[name]
	if !ok {
		return model.AuthToken{}, false
	}
	return s.tokens[i], true
}

// Lookup returns the value of the token stored under name.
func (s *TokenStore) Lookup(name string) (string, bool) {
	t, ok := s.Get(name)
	return t.Value, ok
}

// Delete removes the token stored under name.
func (s *TokenStore) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
	delete(s.index, name)
	for j := i; j < len(s.tokens); j++ {
		s.index[s.tokens[j].Name] = j
	}
	return true
}

// Clear removes all tokens.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.index = make(map[string]int)
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Snapshot returns a copy of the pool in insertion order, suitable for
// handing to a composition.
func (s *TokenStore) Snapshot() []model.AuthToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AuthToken(nil), s.tokens...)
}

// FindInjectable returns the first token, by InjectableTokenNames priority,
// whose name matches case-insensitively and whose value is non-empty.
// Among tokens matching the same name the later one wins.
func FindInjectable(tokens []model.AuthToken) (model.AuthToken, bool) {
	for _, name := range InjectableTokenNames {
		for i := len(tokens) - 1; i >= 0; i-- {
			t := tokens[i]
			if t.Value != "" && strings.EqualFold(t.Name, name) {
				return t, true
			}
		}
	}
	return model.AuthToken{}, false
}
