package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func vars(pairs ...string) []model.AuthVariable {
	var out []model.AuthVariable
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.AuthVariable{Key: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name     string
		auth     *model.RequestAuth
		existing []model.Header
		tokens   []model.AuthToken
		headers  []model.Header
		query    []Param
		injected bool
	}{
		{
			name:    "bearer",
			auth:    &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("token", "abc")},
			headers: []model.Header{{Key: "Authorization", Value: "Bearer abc"}},
		},
		{
			name:    "bearer falls back to first entry",
			auth:    &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("value", "xyz")},
			headers: []model.Header{{Key: "Authorization", Value: "Bearer xyz"}},
		},
		{
			name: "bearer with empty token",
			auth: &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("token", "")},
		},
		{
			name:    "basic",
			auth:    &model.RequestAuth{Type: model.AuthBasic, Basic: vars("username", "user", "password", "pass")},
			headers: []model.Header{{Key: "Authorization", Value: "Basic dXNlcjpwYXNz"}},
		},
		{
			name:    "apikey header",
			auth:    &model.RequestAuth{Type: model.AuthAPIKey, APIKey: vars("key", "X-Api-Key", "value", "k1")},
			headers: []model.Header{{Key: "X-Api-Key", Value: "k1"}},
		},
		{
			name:    "apikey default header name",
			auth:    &model.RequestAuth{Type: model.AuthAPIKey, APIKey: vars("value", "k1")},
			headers: []model.Header{{Key: "X-API-Key", Value: "k1"}},
		},
		{
			name:  "apikey in query",
			auth:  &model.RequestAuth{Type: model.AuthAPIKey, APIKey: vars("key", "api_key", "value", "k1", "in", "query")},
			query: []Param{{Key: "api_key", Value: "k1"}},
		},
		{
			name:     "apikey does not override explicit header",
			auth:     &model.RequestAuth{Type: model.AuthAPIKey, APIKey: vars("key", "X-Api-Key", "value", "k1")},
			existing: []model.Header{{Key: "x-api-key", Value: "mine"}},
		},
		{
			name:    "oauth2 access token",
			auth:    &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: vars("accessToken", "o2")},
			headers: []model.Header{{Key: "Authorization", Value: "Bearer o2"}},
		},
		{
			name:    "oauth2 custom prefix",
			auth:    &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: vars("accessToken", "o2", "headerPrefix", "Token")},
			headers: []model.Header{{Key: "Authorization", Value: "Token o2"}},
		},
		{
			name:  "oauth2 query",
			auth:  &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: vars("accessToken", "o2", "addTokenTo", "queryParams")},
			query: []Param{{Key: "access_token", Value: "o2"}},
		},
		{
			name: "oauth2 without token",
			auth: &model.RequestAuth{Type: model.AuthOAuth2, OAuth2: vars("accessTokenUrl", "http://idp/token")},
		},
		{
			name: "digest synthesizes nothing",
			auth: &model.RequestAuth{Type: model.AuthDigest, Digest: vars("username", "u", "password", "p")},
		},
		{
			name:   "noauth never injects tokens",
			auth:   &model.RequestAuth{Type: model.AuthNoAuth},
			tokens: []model.AuthToken{{Name: "token", Value: "t"}},
		},
		{
			name:     "existing authorization wins",
			auth:     &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("token", "abc")},
			existing: []model.Header{{Key: "authorization", Value: "X"}},
		},
		{
			name:     "disabled authorization header does not count",
			auth:     &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("token", "abc")},
			existing: []model.Header{{Key: "Authorization", Value: "X", Disabled: true}},
			headers:  []model.Header{{Key: "Authorization", Value: "Bearer abc"}},
		},
		{
			name:     "token injection without auth",
			auth:     nil,
			tokens:   []model.AuthToken{{Name: "other", Value: "o"}, {Name: "ACCESS_TOKEN", Value: "at"}},
			headers:  []model.Header{{Key: "Authorization", Value: "Bearer at"}},
			injected: true,
		},
		{
			name:     "token injection follows priority list",
			auth:     nil,
			tokens:   []model.AuthToken{{Name: "api_token", Value: "low"}, {Name: "Token", Value: "high"}},
			headers:  []model.Header{{Key: "Authorization", Value: "Bearer high"}},
			injected: true,
		},
		{
			name:   "no injectable token",
			auth:   nil,
			tokens: []model.AuthToken{{Name: "refresh_token", Value: "r"}},
		},
		{
			name:     "injection skipped with explicit header",
			auth:     nil,
			existing: []model.Header{{Key: "AUTHORIZATION", Value: "X"}},
			tokens:   []model.AuthToken{{Name: "token", Value: "t"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.auth, tt.existing, tt.tokens)
			assert.Equal(t, tt.headers, got.Headers)
			assert.Equal(t, tt.query, got.Query)
			assert.Equal(t, tt.injected, got.Injected != nil)
			assert.Equal(t, tt.headers == nil && tt.query == nil, got.Empty())
		})
	}
}

func TestSynthesizeDoesNotMutateInput(t *testing.T) {
	existing := []model.Header{{Key: "Accept", Value: "*/*"}}
	a := &model.RequestAuth{Type: model.AuthBearer, Bearer: vars("token", "abc")}

	got := Synthesize(a, existing, nil)
	require.Len(t, got.Headers, 1)
	got.Headers[0].Value = "changed"

	assert.Equal(t, []model.Header{{Key: "Accept", Value: "*/*"}}, existing)
	assert.Equal(t, "abc", a.Bearer[0].Value)
}
