package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestFile(t *testing.T) {
	data := []byte(`{
		"name": "list users",
		"method": "GET",
		"url": "{{host}}/users",
		"headers": [{"key": "Accept", "value": "application/json"}],
		"auth": {"type": "bearer", "bearer": [{"key": "token", "value": "{{api_token}}"}]}
	}`)

	rf, err := ParseRequestFile(data)
	require.NoError(t, err)

	assert.Equal(t, "list users", rf.Name)
	assert.Equal(t, "GET", rf.Method)
	assert.Equal(t, "{{host}}/users", rf.URL)
	require.Len(t, rf.Headers, 1)
	assert.Equal(t, "Accept", rf.Headers[0].Key)
	require.NotNil(t, rf.Auth)
	assert.Equal(t, AuthBearer, rf.Auth.Type)
	assert.Equal(t, "{{api_token}}", rf.Auth.Value("token"))
}

func TestValidateRequestFile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "minimal", data: `{"method": "GET", "url": "http://x"}`},
		{name: "missing method", data: `{"url": "http://x"}`, wantErr: true},
		{name: "empty method", data: `{"method": "", "url": "http://x"}`, wantErr: true},
		{name: "header without key", data: `{"method": "GET", "url": "u", "headers": [{"value": "v"}]}`, wantErr: true},
		{name: "unknown auth type", data: `{"method": "GET", "url": "u", "auth": {"type": "hawk"}}`, wantErr: true},
		{name: "not json", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestFile([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequestFile)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"method": "POST", "url": "http://x", "body": "{}"}`), 0644))

	rf, err := LoadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "POST", rf.Method)
	assert.Equal(t, "{}", rf.Body)

	_, err = LoadRequestFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
