package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	neturl "net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/ababil/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// Transport defaults, overridable through ClientOptions where it matters.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10

	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
)

// Client sends resolved requests. It is safe for concurrent use once built.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tokenCache *oauth2.TokenCache
	baseDir    string
	headers    map[string]string // sent unless the request sets them
	proxyErr   error

	timeout      time.Duration
	redirects    bool
	maxRedirects int
	insecure     bool
	proxy        string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:      DefaultTimeout,
		redirects:    true,
		maxRedirects: DefaultMaxRedirects,
		headers:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokenCache == nil {
		c.tokenCache = oauth2.NewTokenCache()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
	if c.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if c.proxy != "" {
		u, err := neturl.Parse(c.proxy)
		if err != nil || u.Host == "" {
			c.proxyErr = fmt.Errorf("invalid proxy URL %q", c.proxy)
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if !c.redirects || len(via) >= c.maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return c
}

// WithTimeout bounds each request, token fetches included. Zero means no
// limit.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) { c.redirects = follow }
}

func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) { c.maxRedirects = n }
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// WithDefaultHeaders adds headers sent with every request unless the
// request carries its own value.
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) { maps.Copy(c.headers, headers) }
}

// WithValidateSSL(false) accepts any server certificate.
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) { c.insecure = !validate }
}

// WithProxy routes every request through proxyURL instead of the proxy
// named by the environment.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) { c.proxy = proxyURL }
}

// WithBaseDir anchors relative multipart file paths.
func WithBaseDir(dir string) ClientOption {
	return func(c *Client) {
		c.baseDir = dir
	}
}

// WithRateLimit caps sends at rps requests per second. Zero or less disables
// the limit.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTokenCache shares fetched OAuth2 tokens between clients.
func WithTokenCache(cache *oauth2.TokenCache) ClientOption {
	return func(c *Client) {
		c.tokenCache = cache
	}
}

// Send executes r and never fails: errors become the status-0 response.
func (c *Client) Send(ctx context.Context, r *model.ResolvedRequest) *Response {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return Failure(err)
	}
	return resp
}

// SendJSON is Send over encoded documents: a wire request in, a response
// document out.
func (c *Client) SendJSON(ctx context.Context, data []byte) []byte {
	var resp *Response
	req, err := DecodeRequest(data)
	if err != nil {
		resp = Failure(err)
	} else if resp, err = c.Execute(ctx, req); err != nil {
		resp = Failure(err)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Failure(err))
	}
	return out
}

// Do executes a resolved request.
func (c *Client) Do(ctx context.Context, r *model.ResolvedRequest) (*Response, error) {
	if r == nil {
		return nil, fmt.Errorf("request is nil")
	}
	return c.Execute(ctx, NewRequest(r))
}

// Execute sends a wire request. Auth that needs the network (a digest
// challenge, an OAuth2 token fetch) is applied here when the request has no
// Authorization header yet.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	if c.proxyErr != nil {
		return nil, c.proxyErr
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if !req.HasHeader("Authorization") {
		if d, ok := digestFromAuth(req.Auth); ok {
			return c.doWithDigestAuth(ctx, req, d)
		}
		if req.Auth != nil && req.Auth.Type == model.AuthOAuth2 && req.Auth.Value("accessToken") == "" {
			return c.doWithOAuth2Auth(ctx, req)
		}
	}

	return c.doRequest(ctx, req, "")
}

func (c *Client) doRequest(ctx context.Context, req *Request, authHeader string) (*Response, error) {
	target := req.BuildURL()
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	body, contentType, err := req.Body.Encode(c.baseDir)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	for _, h := range req.Header {
		if h.Disabled || h.Key == "" {
			continue
		}
		if strings.EqualFold(h.Key, "Host") {
			httpReq.Host = h.Value
			continue
		}
		httpReq.Header.Set(h.Key, h.Value)
	}

	// Body modes that imply a content type only apply it when the request
	// has none of its own.
	if contentType != "" && (httpReq.Header.Get("Content-Type") == "" || req.Body.Mode == ModeFormData) {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if authHeader != "" {
		httpReq.Header.Set("Authorization", authHeader)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       string(respBody),
		DurationMs: duration.Milliseconds(),
	}, nil
}

// flattenHeaders lists every header value as a [name, value] pair, sorted by
// name.
func flattenHeaders(h http.Header) [][2]string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range h[k] {
			out = append(out, [2]string{k, v})
		}
	}
	return out
}

func (c *Client) doWithDigestAuth(ctx context.Context, req *Request, d *DigestAuth) (*Response, error) {
	// First request without auth to get the challenge
	resp, err := c.doRequest(ctx, req, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	wwwAuth := resp.Header("WWW-Authenticate")
	if wwwAuth == "" {
		return resp, nil
	}

	d.challenge = parseDigestChallenge(wwwAuth)
	d.Method = strings.ToUpper(req.Method)
	if d.Method == "" {
		d.Method = http.MethodGet
	}
	d.URI = "/"
	if u, err := neturl.Parse(req.BuildURL()); err == nil {
		d.URI = u.RequestURI()
	}

	if d.challenge.Qop != "" {
		d.Nc = "00000001"
		cnonce, err := GenerateCnonce()
		if err != nil {
			return nil, err
		}
		d.Cnonce = cnonce
	}

	return c.doRequest(ctx, req, d.BuildAuthorizationHeader())
}

func (c *Client) doWithOAuth2Auth(ctx context.Context, req *Request) (*Response, error) {
	config, ok, err := oauth2.ConfigFromAuth(req.Auth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return c.doRequest(ctx, req, "")
	}

	provider := oauth2.NewProvider(config, oauth2.WithHTTPClient(c.httpClient), oauth2.WithCache(c.tokenCache))
	token, err := provider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth2 token: %w", err)
	}

	resp, err := c.doRequest(ctx, req, oauth2Header(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A 401 means the cached token was revoked early; fetch once more.
	provider.Invalidate()
	token, err = provider.GetToken(ctx)
	if err != nil {
		return resp, nil
	}
	return c.doRequest(ctx, req, oauth2Header(req, token))
}

func oauth2Header(req *Request, token *oauth2.Token) string {
	prefix, ok := req.Auth.Get("headerPrefix")
	if !ok {
		prefix = "Bearer"
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return token.AccessToken
	}
	return prefix + " " + token.AccessToken
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	switch {
	case err != nil:
		return fmt.Errorf("invalid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
