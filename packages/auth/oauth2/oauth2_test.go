package oauth2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.NoError(t, r.ParseForm())

		switch r.Form.Get("grant_type") {
		case "client_credentials":
			user, pass, ok := r.BasicAuth()
			if !ok {
				user, pass = r.Form.Get("client_id"), r.Form.Get("client_secret")
			}
			assert.Equal(t, "id", user)
			assert.Equal(t, "secret", pass)
		case "password":
			assert.Equal(t, "alice", r.Form.Get("username"))
			assert.Equal(t, "pw", r.Form.Get("password"))
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + r.Form.Get("grant_type") + `","token_type":"Bearer","expires_in":3600}`))
	}))
}

func TestProviderClientCredentials(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)
	defer server.Close()

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		GrantType:    ClientCredentials,
	})

	tok, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-client_credentials", tok.AccessToken)
	assert.False(t, tok.IsExpired())

	// cached
	_, err = p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestProviderPassword(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)
	defer server.Close()

	p := NewProvider(&Config{
		TokenURL:  server.URL,
		ClientID:  "id",
		Username:  "alice",
		Password:  "pw",
		GrantType: Password,
	})

	tok, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-password", tok.AccessToken)
}

func TestProviderSharedCacheRefetchesExpired(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)
	defer server.Close()

	cache := NewTokenCache()
	cfg := &Config{TokenURL: server.URL, ClientID: "id", ClientSecret: "secret", GrantType: ClientCredentials}
	p := NewProvider(cfg, WithCache(cache))

	_, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	for _, tok := range cache.tokens {
		tok.ExpiresAt = time.Now().Add(-time.Minute)
	}

	_, err = NewProvider(cfg, WithCache(cache)).GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestTokenCacheDropsExpired(t *testing.T) {
	cache := NewTokenCache()
	cache.Set("live", &Token{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)})
	cache.Set("stale", &Token{AccessToken: "b", ExpiresAt: time.Now().Add(-time.Minute)})

	assert.Equal(t, "a", cache.Get("live").AccessToken)
	assert.Nil(t, cache.Get("stale"))
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate("live")
	assert.Nil(t, cache.Get("live"))
	assert.Zero(t, cache.Len())
}

func TestProviderInvalidateRefetches(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)
	defer server.Close()

	cfg := &Config{TokenURL: server.URL, ClientID: "id", ClientSecret: "secret", GrantType: ClientCredentials}
	p := NewProvider(cfg)

	_, err := p.GetToken(context.Background())
	require.NoError(t, err)
	_, err = p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	p.Invalidate()
	_, err = p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	p := NewProvider(&Config{TokenURL: server.URL, ClientID: "id", ClientSecret: "bad", GrantType: ClientCredentials})
	_, err := p.GetToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
}

func TestTokenIsExpired(t *testing.T) {
	assert.False(t, (&Token{}).IsExpired())
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(10 * time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}

func TestConfigFromAuth(t *testing.T) {
	tests := []struct {
		name    string
		auth    *model.RequestAuth
		ok      bool
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{name: "nil", auth: nil},
		{name: "other type", auth: &model.RequestAuth{Type: model.AuthBearer}},
		{name: "no token url", auth: &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: []model.AuthVariable{{Key: "accessToken", Value: "x"}}}},
		{
			name: "client credentials",
			auth: &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: []model.AuthVariable{
				{Key: "accessTokenUrl", Value: "http://idp/token"},
				{Key: "clientId", Value: "id"},
				{Key: "clientSecret", Value: "secret"},
				{Key: "scope", Value: "read write"},
			}},
			ok: true,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ClientCredentials, c.GrantType)
				assert.Equal(t, []string{"read", "write"}, c.Scopes)
				assert.Equal(t, "id", c.ClientID)
			},
		},
		{
			name: "password credentials",
			auth: &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: []model.AuthVariable{
				{Key: "accessTokenUrl", Value: "http://idp/token"},
				{Key: "grant_type", Value: "password_credentials"},
				{Key: "username", Value: "alice"},
			}},
			ok: true,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, Password, c.GrantType)
				assert.Equal(t, "alice", c.Username)
			},
		},
		{
			name: "unsupported grant",
			auth: &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: []model.AuthVariable{
				{Key: "accessTokenUrl", Value: "http://idp/token"},
				{Key: "grant_type", Value: "implicit"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok, err := ConfigFromAuth(tt.auth)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}
