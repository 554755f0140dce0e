package auth

import (
	"encoding/base64"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

const (
	// HeaderAuthorization is the header synthesized for most auth types.
	HeaderAuthorization = "Authorization"

	defaultAPIKeyHeader = "X-API-Key"
)

// Param is a query parameter produced by auth synthesis.
type Param struct {
	Key   string
	Value string
}

// Result holds the credentials to merge into an outgoing request. It never
// aliases the inputs of Synthesize.
type Result struct {
	Headers []model.Header
	Query   []Param
	// Injected is the token used for automatic bearer injection, if any.
	Injected *model.AuthToken
}

// Empty reports whether synthesis produced nothing.
func (r Result) Empty() bool {
	return len(r.Headers) == 0 && len(r.Query) == 0
}

// Synthesize produces the headers and query parameters for an effective auth
// block whose fields are already variable-resolved.
//
// An existing Authorization header (any case) suppresses synthesis entirely.
// With no effective block at all, the first token in tokens matching
// InjectableTokenNames is injected as a bearer token; an explicit noauth
// never triggers that fallback.
func Synthesize(effective *model.RequestAuth, existing []model.Header, tokens []model.AuthToken) Result {
	if _, ok := model.FindHeader(existing, HeaderAuthorization); ok {
		return Result{}
	}

	if effective.IsInherit() {
		t, ok := FindInjectable(tokens)
		if !ok {
			return Result{}
		}
		return Result{
			Headers:  []model.Header{{Key: HeaderAuthorization, Value: "Bearer " + t.Value}},
			Injected: &t,
		}
	}

	switch effective.Type {
	case model.AuthBearer:
		return bearer(effective)
	case model.AuthBasic:
		return basic(effective)
	case model.AuthAPIKey:
		return apiKey(effective, existing)
	case model.AuthOAuth2:
		return oauth2(effective)
	}
	// noauth synthesizes nothing. digest answers a server challenge in the
	// transport; oauth1 signing is not supported.
	return Result{}
}

func bearer(a *model.RequestAuth) Result {
	token, ok := a.Get("token")
	if !ok && len(a.Bearer) > 0 {
		token = a.Bearer[0].Value
	}
	if token == "" {
		return Result{}
	}
	return authorization("Bearer " + token)
}

func basic(a *model.RequestAuth) Result {
	username := a.Value("username")
	password := a.Value("password")
	if username == "" && password == "" {
		return Result{}
	}
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return authorization("Basic " + creds)
}

func apiKey(a *model.RequestAuth, existing []model.Header) Result {
	key := a.Value("key")
	value := a.Value("value")
	if value == "" {
		return Result{}
	}

	if strings.EqualFold(a.Value("in"), "query") {
		if key == "" {
			key = "api_key"
		}
		return Result{Query: []Param{{Key: key, Value: value}}}
	}

	if key == "" {
		key = defaultAPIKeyHeader
	}
	if _, ok := model.FindHeader(existing, key); ok {
		return Result{}
	}
	return Result{Headers: []model.Header{{Key: key, Value: value}}}
}

func oauth2(a *model.RequestAuth) Result {
	token := a.Value("accessToken")
	if token == "" {
		return Result{}
	}

	if strings.EqualFold(a.Value("addTokenTo"), "queryParams") {
		return Result{Query: []Param{{Key: "access_token", Value: token}}}
	}

	prefix, ok := a.Get("headerPrefix")
	if !ok {
		prefix = "Bearer"
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return authorization(token)
	}
	return authorization(prefix + " " + token)
}

func authorization(value string) Result {
	return Result{Headers: []model.Header{{Key: HeaderAuthorization, Value: value}}}
}
