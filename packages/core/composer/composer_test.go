package composer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func testEnv(pairs ...string) *model.Environment {
	e := &model.Environment{ID: "env_1", Name: "dev", IsActive: true}
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Variables = append(e.Variables, model.Variable{Key: pairs[i], Value: pairs[i+1]})
	}
	return e
}

func TestComposeEndToEnd(t *testing.T) {
	draft := &model.DraftRequest{
		Method: "GET",
		URL:    "{{host}}/users",
	}
	collectionAuth := &model.RequestAuth{
		Type:   model.AuthBearer,
		Bearer: []model.AuthVariable{{Key: "token", Value: "{{api_token}}"}},
	}
	env := testEnv("host", "https://api.example.com", "api_token", "secret123")

	got, err := Compose(draft, env, nil, collectionAuth)
	require.NoError(t, err)

	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "https://api.example.com/users", got.URL)
	v, ok := got.HeaderValue("Authorization")
	require.True(t, ok)
	assert.Equal(t, "Bearer secret123", v)
	require.NotNil(t, got.Auth)
	assert.Equal(t, "secret123", got.Auth.Value("token"))

	// the collection auth is untouched
	assert.Equal(t, "{{api_token}}", collectionAuth.Bearer[0].Value)
}

func TestComposeContentType(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		headers  []model.Header
		expected string
		present  bool
	}{
		{name: "post with body", method: "POST", body: `{"a":1}`, expected: "application/json", present: true},
		{name: "lowercase method", method: "patch", body: `{}`, expected: "application/json", present: true},
		{name: "put with body", method: "PUT", body: `x`, expected: "application/json", present: true},
		{
			name:     "explicit content type kept",
			method:   "POST",
			body:     "hello",
			headers:  []model.Header{{Key: "content-type", Value: "text/plain"}},
			expected: "text/plain",
			present:  true,
		},
		{name: "get with body", method: "GET", body: `{}`},
		{name: "post without body", method: "POST"},
		{name: "delete with body", method: "DELETE", body: `{}`},
		{
			name:     "disabled content type ignored",
			method:   "POST",
			body:     "{}",
			headers:  []model.Header{{Key: "Content-Type", Value: "text/plain", Disabled: true}},
			expected: "application/json",
			present:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compose(&model.DraftRequest{Method: tt.method, URL: "http://x", Body: tt.body, Headers: tt.headers}, nil, nil, nil)
			require.NoError(t, err)
			v, ok := got.HeaderValue("Content-Type")
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestComposeContentTypeUsesResolvedBody(t *testing.T) {
	env := testEnv("payload", "")
	got, err := Compose(&model.DraftRequest{Method: "POST", URL: "http://x", Body: "{{payload}}"}, env, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", got.Body)
	_, ok := got.HeaderValue("Content-Type")
	assert.False(t, ok)
}

func TestComposeHeaders(t *testing.T) {
	env := testEnv("h", "X-Trace", "v", "abc")
	draft := &model.DraftRequest{
		Method: "GET",
		URL:    "http://x",
		Headers: []model.Header{
			{Key: "Accept", Value: "application/json"},
			{Key: "", Value: "keyless"},
			{Key: "  ", Value: "blank"},
			{Key: "X-Off", Value: "1", Disabled: true},
			{Key: "{{h}}", Value: "{{v}}"},
			{Key: "Accept", Value: "text/html"},
		},
	}

	got, err := Compose(draft, env, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Header{
		{Key: "Accept", Value: "text/html"},
		{Key: "X-Trace", Value: "abc"},
	}, got.Header)

	// the draft is not modified
	assert.Equal(t, "{{h}}", draft.Headers[4].Key)
	assert.Len(t, draft.Headers, 6)
}

func TestComposeExplicitAuthorizationWins(t *testing.T) {
	draft := &model.DraftRequest{
		Method:  "GET",
		URL:     "http://x",
		Headers: []model.Header{{Key: "authorization", Value: "X"}},
		Auth:    &model.RequestAuth{Type: model.AuthBearer, Bearer: []model.AuthVariable{{Key: "token", Value: "abc"}}},
	}
	tokens := []model.AuthToken{{Name: "token", Value: "t"}}

	got, err := Compose(draft, nil, tokens, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Header{{Key: "authorization", Value: "X"}}, got.Header)
}

func TestComposeHeaderKeyResolvingToAuthorization(t *testing.T) {
	env := testEnv("authHeader", "Authorization")
	draft := &model.DraftRequest{
		Method:  "GET",
		URL:     "http://x",
		Headers: []model.Header{{Key: "{{authHeader}}", Value: "Custom v"}},
		Auth:    &model.RequestAuth{Type: model.AuthBearer, Bearer: []model.AuthVariable{{Key: "token", Value: "abc"}}},
	}

	got, err := Compose(draft, env, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Header{{Key: "Authorization", Value: "Custom v"}}, got.Header)
}

func TestComposeTokenInjection(t *testing.T) {
	tokens := []model.AuthToken{{Name: "accessToken", Value: "pool-token", Source: model.TokenExtracted}}

	t.Run("no auth anywhere injects", func(t *testing.T) {
		var warnings []string
		c := New(WithWarnFunc(func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}))
		got, err := c.Compose(&model.DraftRequest{Method: "GET", URL: "http://x"}, nil, tokens, nil)
		require.NoError(t, err)
		v, ok := got.HeaderValue("Authorization")
		require.True(t, ok)
		assert.Equal(t, "Bearer pool-token", v)
		assert.Nil(t, got.Auth)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "accessToken")
	})

	t.Run("explicit noauth does not inject", func(t *testing.T) {
		got, err := Compose(&model.DraftRequest{Method: "GET", URL: "http://x", Auth: &model.RequestAuth{Type: model.AuthNoAuth}}, nil, tokens, nil)
		require.NoError(t, err)
		_, ok := got.HeaderValue("Authorization")
		assert.False(t, ok)
	})

	t.Run("inherited noauth does not inject", func(t *testing.T) {
		got, err := Compose(&model.DraftRequest{Method: "GET", URL: "http://x"}, nil, tokens, &model.RequestAuth{Type: model.AuthNoAuth})
		require.NoError(t, err)
		_, ok := got.HeaderValue("Authorization")
		assert.False(t, ok)
	})

	t.Run("collection auth beats injection", func(t *testing.T) {
		collection := &model.RequestAuth{Type: model.AuthBasic, Basic: []model.AuthVariable{{Key: "username", Value: "u"}, {Key: "password", Value: "p"}}}
		got, err := Compose(&model.DraftRequest{Method: "GET", URL: "http://x"}, nil, tokens, collection)
		require.NoError(t, err)
		v, _ := got.HeaderValue("Authorization")
		assert.Equal(t, "Basic dTpw", v)
	})
}

func TestComposeAuthFieldsResolvedBeforeSynthesis(t *testing.T) {
	env := testEnv("user", "alice", "pass", "s3cret", "nested", "{{user}}")
	draft := &model.DraftRequest{
		Method: "GET",
		URL:    "http://x",
		Auth: &model.RequestAuth{Type: model.AuthBasic, Basic: []model.AuthVariable{
			{Key: "username", Value: "{{user}}"},
			{Key: "password", Value: "{{pass}}"},
		}},
	}

	got, err := Compose(draft, env, nil, nil)
	require.NoError(t, err)
	v, _ := got.HeaderValue("Authorization")
	assert.Equal(t, "Basic YWxpY2U6czNjcmV0", v)

	// a value holding a placeholder is not expanded a second time
	draft.Auth = &model.RequestAuth{Type: model.AuthBearer, Bearer: []model.AuthVariable{{Key: "token", Value: "{{nested}}"}}}
	got, err = Compose(draft, env, nil, nil)
	require.NoError(t, err)
	v, _ = got.HeaderValue("Authorization")
	assert.Equal(t, "Bearer {{user}}", v)
}

func TestComposeTokenPlaceholders(t *testing.T) {
	env := testEnv("host", "http://api")
	tokens := []model.AuthToken{{Name: "session_id", Value: "s1"}}
	draft := &model.DraftRequest{Method: "POST", URL: "{{host}}/s/{{session_id}}", Body: `{"sid":"{{session_id}}","x":"{{missing}}"}`}

	got, err := Compose(draft, env, tokens, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://api/s/s1", got.URL)
	assert.Equal(t, `{"sid":"s1","x":"{{missing}}"}`, got.Body)
}

func TestComposeAPIKeyQuery(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "no query", url: "http://x/a", expected: "http://x/a?api_key=k+1"},
		{name: "existing query kept", url: "http://x/a?z=1&b=2", expected: "http://x/a?z=1&b=2&api_key=k+1"},
		{name: "fragment", url: "http://x/a#top", expected: "http://x/a?api_key=k+1#top"},
		{name: "trailing question mark", url: "http://x/a?", expected: "http://x/a?api_key=k+1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := &model.DraftRequest{
				Method: "GET",
				URL:    tt.url,
				Auth: &model.RequestAuth{Type: model.AuthAPIKey, APIKey: []model.AuthVariable{
					{Key: "key", Value: "api_key"},
					{Key: "value", Value: "k 1"},
					{Key: "in", Value: "query"},
				}},
			}
			got, err := Compose(draft, nil, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.URL)
			assert.Empty(t, got.Header)
		})
	}
}

func TestComposeInvalidDraft(t *testing.T) {
	_, err := Compose(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDraft)

	_, err = Compose(&model.DraftRequest{Method: "  ", URL: "http://x"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDraft)
}

func TestComposeNeverFailsOnMissingData(t *testing.T) {
	draft := &model.DraftRequest{
		Method: "get",
		URL:    "{{host}}/x",
		Auth:   &model.RequestAuth{Type: model.AuthBearer, Bearer: []model.AuthVariable{{Key: "token", Value: "{{nope}}"}}},
	}
	got, err := Compose(draft, testEnv(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "{{host}}/x", got.URL)
	v, _ := got.HeaderValue("Authorization")
	assert.Equal(t, "Bearer {{nope}}", v)
}

func TestComposeIsDeterministicAndConcurrent(t *testing.T) {
	env := testEnv("host", "http://api", "id", "7")
	tokens := []model.AuthToken{{Name: "token", Value: "t"}}
	draft := &model.DraftRequest{Method: "PUT", URL: "{{host}}/items/{{id}}", Body: `{"id":"{{id}}"}`}

	first, err := Compose(draft, env, tokens, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Compose(draft, env, tokens, nil)
			assert.NoError(t, err)
			assert.Equal(t, first, got)
		}()
	}
	wg.Wait()
}

func TestComposeOutputDoesNotAliasInputs(t *testing.T) {
	draft := &model.DraftRequest{
		Method:  "GET",
		URL:     "http://x",
		Headers: []model.Header{{Key: "A", Value: "1"}},
		Auth:    &model.RequestAuth{Type: model.AuthNoAuth},
	}
	got, err := Compose(draft, nil, nil, nil)
	require.NoError(t, err)

	got.Header[0].Value = "2"
	got.Auth.Type = model.AuthBearer
	assert.Equal(t, "1", draft.Headers[0].Value)
	assert.Equal(t, model.AuthNoAuth, draft.Auth.Type)
}
