package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DataDir:         DefaultDataDir(),
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		AutoSaveTokens:  BoolPtr(false),
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// DefaultDataDir is ababil/ under the user config directory, or .ababil in
// the working directory when that cannot be determined.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".ababil"
	}
	return filepath.Join(dir, "ababil")
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.DataDir == d.DataDir &&
		c.DefaultEnvironment == d.DefaultEnvironment &&
		c.Timeout == d.Timeout &&
		c.GetFollowRedirects() == d.GetFollowRedirects() &&
		c.MaxRedirects == d.MaxRedirects &&
		c.GetValidateSSL() == d.GetValidateSSL() &&
		c.Proxy == d.Proxy &&
		len(c.Headers) == 0 &&
		c.GetAutoSaveTokens() == d.GetAutoSaveTokens() &&
		c.RateLimit == d.RateLimit &&
		c.GetVerbose() == d.GetVerbose() &&
		c.GetNoColor() == d.GetNoColor()
}
