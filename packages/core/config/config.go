package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"
)

// Config is the project configuration read from an .ababilrc file.
type Config struct {
	DataDir            string            `json:"dataDir,omitempty"`
	DefaultEnvironment string            `json:"defaultEnvironment,omitempty"` // used when no environment is active
	Timeout            int               `json:"timeout,omitempty"`            // milliseconds
	FollowRedirects    *bool             `json:"followRedirects,omitempty"`
	MaxRedirects       int               `json:"maxRedirects,omitempty"`
	ValidateSSL        *bool             `json:"validateSSL,omitempty"`
	Proxy              string            `json:"proxy,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"` // Default headers for all requests
	AutoSaveTokens     *bool             `json:"autoSaveTokens,omitempty"`
	RateLimit          float64           `json:"rateLimit,omitempty"` // requests per second, 0 = unlimited
	Verbose            *bool             `json:"verbose,omitempty"`
	NoColor            *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b, for building configs in code.
func BoolPtr(b bool) *bool {
	return &b
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (c *Config) GetFollowRedirects() bool { return boolOr(c.FollowRedirects, true) }
func (c *Config) GetValidateSSL() bool { return boolOr(c.ValidateSSL, true) }
func (c *Config) GetVerbose() bool { return boolOr(c.Verbose, false) }
func (c *Config) GetNoColor() bool { return boolOr(c.NoColor, false) }

// GetAutoSaveTokens reports whether tokens found in responses are saved
// without --save-tokens.
func (c *Config) GetAutoSaveTokens() bool { return boolOr(c.AutoSaveTokens, false) }

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames are the names looked for in each directory, in order.
var ConfigFilenames = []string{
	".ababil.config.json",
	"ababil.config.json",
	".ababilrc",
	".ababilrc.json",
}

// LoadConfig reads path, or searches upwards from the working directory
// when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig looks for a config file in dir and then in each parent
// directory. It returns the defaults when none is found.
func FindAndLoadConfig(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		for _, name := range ConfigFilenames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return loadConfigFromFile(path)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig(), nil
		}
		dir = parent
	}
}

// loadConfigFromFile reads a config over the defaults. A relative dataDir
// is taken relative to the file, so a project resolves to the same store
// from any of its subdirectories.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fromFile Config
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := fromFile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if fromFile.DataDir != "" && !filepath.IsAbs(fromFile.DataDir) {
		fromFile.DataDir = filepath.Join(filepath.Dir(path), fromFile.DataDir)
	}

	return DefaultConfig().Merge(&fromFile), nil
}

// Validate rejects negative limits.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("maxRedirects must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rateLimit must not be negative"))
	}
	return errors.Join(errs...)
}

// Merge returns c overlaid with the fields other sets. Headers are merged
// key by key. Neither config is modified.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c
	result.Headers = maps.Clone(c.Headers)

	setString(&result.DataDir, other.DataDir)
	setString(&result.DefaultEnvironment, other.DefaultEnvironment)
	setString(&result.Proxy, other.Proxy)
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}

	for dst, src := range map[**bool]*bool{
		&result.FollowRedirects: other.FollowRedirects,
		&result.ValidateSSL:     other.ValidateSSL,
		&result.AutoSaveTokens:  other.AutoSaveTokens,
		&result.Verbose:         other.Verbose,
		&result.NoColor:         other.NoColor,
	} {
		if src != nil {
			*dst = src
		}
	}

	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(other.Headers))
		}
		maps.Copy(result.Headers, other.Headers)
	}

	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// SaveConfig writes c as indented JSON.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
