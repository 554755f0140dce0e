package composer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/auth"
	"github.com/abdul-hamid-achik/ababil/packages/core/env"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

const (
	HeaderContentType = "Content-Type"
	DefaultMethod     = "GET"
	jsonContentType   = "application/json"
)

// ErrInvalidDraft is returned for a nil draft or a draft without a method.
var ErrInvalidDraft = errors.New("invalid draft request")

// WarnFunc is a function type for handling warnings
type WarnFunc = env.WarnFunc

// Composer builds resolved requests. The zero value is ready to use.
type Composer struct {
	warnFunc WarnFunc
}

// Option configures a Composer.
type Option func(*Composer)

// WithWarnFunc reports unresolved placeholders and auth fallbacks.
func WithWarnFunc(fn WarnFunc) Option {
	return func(c *Composer) {
		c.warnFunc = fn
	}
}

func New(opts ...Option) *Composer {
	c := &Composer{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose resolves draft against env, tokens and collectionAuth:
//
//  1. URL and body are resolved.
//  2. Enabled headers with a non-empty key are collected, keys and values
//     resolved.
//  3. The effective auth is picked (request, else collection) and its fields
//     resolved.
//  4. Auth headers or query parameters are synthesized, unless an explicit
//     Authorization header exists; with no auth anywhere a token from the
//     pool may be injected.
//  5. Content-Type: application/json is added for POST/PUT/PATCH requests
//     with a body and no Content-Type.
//
// Every placeholder is resolved against the same snapshot, once.
func (c *Composer) Compose(draft *model.DraftRequest, environment *model.Environment, tokens []model.AuthToken, collectionAuth *model.RequestAuth) (*model.ResolvedRequest, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: draft is nil", ErrInvalidDraft)
	}
	method := strings.ToUpper(strings.TrimSpace(draft.Method))
	if method == "" {
		return nil, fmt.Errorf("%w: method is empty", ErrInvalidDraft)
	}

	var resolverOpts []env.ResolverOption
	if c.warnFunc != nil {
		resolverOpts = append(resolverOpts, env.WithWarnFunc(c.warnFunc))
	}
	resolver := env.NewResolver(environment, tokens, resolverOpts...)

	rawURL := resolver.Resolve(draft.URL)
	body := resolver.Resolve(draft.Body)
	headers := resolveHeaders(draft.Headers, resolver)

	effective := auth.Inherit(draft.Auth, collectionAuth).MapStrings(resolver.Resolve)

	creds := auth.Synthesize(effective, headers, tokens)
	if creds.Injected != nil {
		c.warn("no auth configured, injecting token %q as bearer", creds.Injected.Name)
	}
	headers = append(headers, creds.Headers...)
	if len(creds.Query) > 0 {
		rawURL = appendQuery(rawURL, creds.Query)
	}

	if needsJSONContentType(method, body, headers) {
		headers = append(headers, model.Header{Key: HeaderContentType, Value: jsonContentType})
	}

	return &model.ResolvedRequest{
		Method: method,
		URL:    rawURL,
		Header: headers,
		Body:   body,
		Auth:   effective,
	}, nil
}

func (c *Composer) warn(format string, args ...any) {
	if c.warnFunc != nil {
		c.warnFunc(format, args...)
	}
}

// Compose composes with a default Composer.
func Compose(draft *model.DraftRequest, environment *model.Environment, tokens []model.AuthToken, collectionAuth *model.RequestAuth) (*model.ResolvedRequest, error) {
	return New().Compose(draft, environment, tokens, collectionAuth)
}

// resolveHeaders drops disabled and keyless rows and resolves the rest. A
// later row with the same resolved key replaces the earlier value in place.
func resolveHeaders(in []model.Header, resolver *env.Resolver) []model.Header {
	out := make([]model.Header, 0, len(in))
	index := make(map[string]int)
	for _, h := range in {
		if h.Disabled || strings.TrimSpace(h.Key) == "" {
			continue
		}
		key := strings.TrimSpace(resolver.Resolve(h.Key))
		if key == "" {
			continue
		}
		value := resolver.Resolve(h.Value)
		if i, ok := index[key]; ok {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, model.Header{Key: key, Value: value})
	}
	return out
}

func needsJSONContentType(method, body string, headers []model.Header) bool {
	if body == "" {
		return false
	}
	switch method {
	case "POST", "PUT", "PATCH":
	default:
		return false
	}
	_, ok := model.FindHeader(headers, HeaderContentType)
	return !ok
}

// appendQuery adds auth query parameters to rawURL, before any fragment.
// The existing query is kept byte for byte.
func appendQuery(rawURL string, params []auth.Param) string {
	base, fragment, hasFragment := strings.Cut(rawURL, "#")

	var sb strings.Builder
	sb.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	for _, p := range params {
		sb.WriteString(sep)
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(p.Value))
		sep = "&"
	}
	if hasFragment {
		sb.WriteString("#")
		sb.WriteString(fragment)
	}
	return sb.String()
}
