package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []model.Variable
	}{
		{
			name:    "simple key-value",
			content: "API_KEY=secret123",
			expected: []model.Variable{
				{Key: "API_KEY", Value: "secret123", Type: model.VariableString},
			},
		},
		{
			name:    "sorted by key",
			content: "KEY2=value2\nKEY1=value1",
			expected: []model.Variable{
				{Key: "KEY1", Value: "value1", Type: model.VariableString},
				{Key: "KEY2", Value: "value2", Type: model.VariableString},
			},
		},
		{
			name:    "quoted values and comments",
			content: "# comment\nA=\"with spaces\"\nB='single'",
			expected: []model.Variable{
				{Key: "A", Value: "with spaces", Type: model.VariableString},
				{Key: "B", Value: "single", Type: model.VariableString},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			env, err := LoadDotEnv(path)
			require.NoError(t, err)
			assert.Equal(t, "env", env.Name)
			assert.Equal(t, tt.expected, env.Variables)
		})
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestEnvironmentFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envs", "staging.yaml")
	in := &model.Environment{
		Name: "staging",
		Variables: []model.Variable{
			{Key: "host", Value: "https://staging.example.com"},
			{Key: "debug", Value: "true", Type: model.VariableBoolean, Disabled: true},
		},
	}

	require.NoError(t, SaveEnvironmentFile(in, path))

	out, err := LoadEnvironmentFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Variables, out.Variables)
}

func TestLoadEnvironmentFileFlatMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.yml")
	require.NoError(t, os.WriteFile(path, []byte("baseUrl: http://localhost:3000\nport: 8080\n"), 0644))

	env, err := LoadEnvironmentFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", env.Name)

	v, ok := env.Lookup("baseUrl")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:3000", v)

	v, ok = env.Lookup("port")
	require.True(t, ok)
	assert.Equal(t, "8080", v)
}
