package curl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func TestParse_SimpleGet(t *testing.T) {
	cmd, err := Parse(`curl https://api.example.com/users`)
	require.NoError(t, err)
	assert.Equal(t, "GET", cmd.Method)
	assert.Equal(t, "https://api.example.com/users", cmd.URL)
}

func TestParse_PostWithData(t *testing.T) {
	cmd, err := Parse(`curl -X POST https://api.example.com/users -d '{"name":"John"}'`)
	require.NoError(t, err)
	assert.Equal(t, "POST", cmd.Method)
	assert.Equal(t, `{"name":"John"}`, cmd.Body)
}

func TestParse_ImplicitPost(t *testing.T) {
	cmd, err := Parse(`curl -d "name=John" https://api.example.com/users`)
	require.NoError(t, err)
	assert.Equal(t, "POST", cmd.Method)

	cmd, err = Parse(`curl -X PUT -d "name=John" https://api.example.com/users`)
	require.NoError(t, err)
	assert.Equal(t, "PUT", cmd.Method, "data must not override an explicit method")
}

func TestParse_HeadersKeepOrder(t *testing.T) {
	cmd, err := Parse(`curl -H "Accept: application/json" -A ababil -H 'X-Trace: a:b' https://api.example.com`)
	require.NoError(t, err)
	assert.Equal(t, []model.Header{
		{Key: "Accept", Value: "application/json"},
		{Key: "User-Agent", Value: "ababil"},
		{Key: "X-Trace", Value: "a:b"},
	}, cmd.Headers)
}

func TestParse_Flags(t *testing.T) {
	cmd, err := Parse(`curl -k -L --compressed https://api.example.com`)
	require.NoError(t, err)
	assert.True(t, cmd.Insecure)
	assert.True(t, cmd.FollowRedirects)
	assert.Equal(t, "https://api.example.com", cmd.URL)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(`curl -X POST`)
	assert.Error(t, err)

	_, err = Parse(`curl -H "Accept: */*"`)
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestConvert_LiftsBearer(t *testing.T) {
	rf, err := NewConverter().Convert(`curl -H "Authorization: Bearer {{api_token}}" {{host}}/me`)
	require.NoError(t, err)

	require.NotNil(t, rf.Auth)
	assert.Equal(t, model.AuthBearer, rf.Auth.Type)
	assert.Equal(t, "{{api_token}}", rf.Auth.Value("token"))
	assert.Empty(t, rf.Headers)
	assert.Equal(t, "get_me", rf.Name)
}

func TestConvert_LiftsBasic(t *testing.T) {
	rf, err := NewConverter().Convert(`curl -u admin:s3cret https://api.example.com/admin`)
	require.NoError(t, err)

	require.NotNil(t, rf.Auth)
	assert.Equal(t, model.AuthBasic, rf.Auth.Type)
	assert.Equal(t, "admin", rf.Auth.Value("username"))
	assert.Equal(t, "s3cret", rf.Auth.Value("password"))
}

func TestConvert_WithoutLifting(t *testing.T) {
	rf, err := NewConverter(WithAuthLifting(false)).Convert(`curl -H "Authorization: Bearer abc" https://api.example.com`)
	require.NoError(t, err)

	assert.Nil(t, rf.Auth)
	v, ok := model.FindHeader(rf.Headers, "authorization")
	assert.True(t, ok)
	assert.Equal(t, "Bearer abc", v)
}

func TestConvertReader(t *testing.T) {
	input := `# login first
curl -X POST https://api.example.com/login \
  -H "Content-Type: application/json" \
  -d '{"user":"a"}'

curl https://api.example.com/users/123
`
	files, err := NewConverter().ConvertReader(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "post_login", files[0].Name)
	assert.Equal(t, `{"user":"a"}`, files[0].Body)
	assert.Len(t, files[0].Headers, 1)
	assert.Equal(t, "get_users_123", files[1].Name)
}

func TestConvertReader_ReportsCommandIndex(t *testing.T) {
	_, err := NewConverter().ConvertReader(strings.NewReader("curl https://ok.example.com\ncurl -v\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 2")
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`-X POST -d "hello world"`, []string{"-X", "POST", "-d", "hello world"}},
		{`-H 'Content-Type: application/json'`, []string{"-H", "Content-Type: application/json"}},
		{`-d '{"key": "value"}'`, []string{"-d", `{"key": "value"}`}},
		{`-d ''`, []string{"-d", ""}},
		{`-d "say \"hi\""`, []string{"-d", `say "hi"`}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.input))
		})
	}
}

func TestGenerateName(t *testing.T) {
	tests := []struct {
		url    string
		method string
		want   string
	}{
		{"https://api.example.com/users", "GET", "get_users"},
		{"https://api.example.com/users/123", "GET", "get_users_123"},
		{"https://api.example.com/", "POST", "post_root"},
		{"https://api.example.com/api/v1/user-list?page=2", "PUT", "put_api_v1_user_list"},
		{"{{host}}/Items", "DELETE", "delete_items"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateName(tt.url, tt.method), tt.url)
	}
}
