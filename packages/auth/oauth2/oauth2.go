// Package oauth2 acquires OAuth2 access tokens for requests whose auth block
// names a token endpoint but carries no access token yet.
package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	xoauth2 "golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
)

// Config holds OAuth2 configuration
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType
	AuthStyle    xoauth2.AuthStyle
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresAt    time.Time
}

// IsExpired checks if the token is expired
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	// Add a small buffer (30 seconds) to account for clock skew
	return time.Now().Add(30 * time.Second).After(t.ExpiresAt)
}

// Provider handles OAuth2 token acquisition
type Provider struct {
	config     *Config
	httpClient *http.Client
	cache      *TokenCache
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithCache shares a token cache between providers.
func WithCache(c *TokenCache) ProviderOption {
	return func(p *Provider) {
		p.cache = c
	}
}

// NewProvider creates a new OAuth2 provider
func NewProvider(config *Config, opts ...ProviderOption) *Provider {
	p := &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: NewTokenCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetToken retrieves a valid access token, fetching a new one if necessary
func (p *Provider) GetToken(ctx context.Context) (*Token, error) {
	cacheKey := p.getCacheKey()
	if token := p.cache.Get(cacheKey); token != nil {
		return token, nil
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	p.cache.Set(cacheKey, token)
	return token, nil
}

// Invalidate drops the cached token so the next GetToken fetches again.
func (p *Provider) Invalidate() {
	p.cache.Invalidate(p.getCacheKey())
}

func (p *Provider) getCacheKey() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", p.config.GrantType, p.config.TokenURL, p.config.ClientID, p.config.Username, strings.Join(p.config.Scopes, ","))
}

func (p *Provider) fetchToken(ctx context.Context) (*Token, error) {
	ctx = context.WithValue(ctx, xoauth2.HTTPClient, p.httpClient)

	var (
		tok *xoauth2.Token
		err error
	)
	switch p.config.GrantType {
	case Password:
		cfg := &xoauth2.Config{
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			Endpoint: xoauth2.Endpoint{
				TokenURL:  p.config.TokenURL,
				AuthStyle: p.config.AuthStyle,
			},
			Scopes: p.config.Scopes,
		}
		tok, err = cfg.PasswordCredentialsToken(ctx, p.config.Username, p.config.Password)
	default:
		cfg := &clientcredentials.Config{
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			TokenURL:     p.config.TokenURL,
			Scopes:       p.config.Scopes,
			AuthStyle:    p.config.AuthStyle,
		}
		tok, err = cfg.Token(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	return &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

// ConfigFromAuth builds a Config from a resolved oauth2 auth block. It returns
// false when the block names no token endpoint.
func ConfigFromAuth(a *model.RequestAuth) (*Config, bool, error) {
	if a == nil || a.Type != model.AuthOAuth2 {
		return nil, false, nil
	}
	tokenURL := a.Value("accessTokenUrl")
	if tokenURL == "" {
		return nil, false, nil
	}

	config := &Config{
		TokenURL:     tokenURL,
		ClientID:     a.Value("clientId"),
		ClientSecret: a.Value("clientSecret"),
		Username:     a.Value("username"),
		Password:     a.Value("password"),
	}
	if scope := strings.TrimSpace(a.Value("scope")); scope != "" {
		config.Scopes = strings.Fields(strings.ReplaceAll(scope, ",", " "))
	}

	switch grant := a.Value("grant_type"); grant {
	case "", "client_credentials":
		config.GrantType = ClientCredentials
	case "password", "password_credentials":
		config.GrantType = Password
	default:
		return nil, false, fmt.Errorf("unsupported OAuth2 grant type: %s", grant)
	}

	switch a.Value("client_authentication") {
	case "header":
		config.AuthStyle = xoauth2.AuthStyleInHeader
	case "body":
		config.AuthStyle = xoauth2.AuthStyleInParams
	}

	return config, true, nil
}
