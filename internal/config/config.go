// Package config loads the process configuration once at startup. The
// resulting Config value is passed explicitly into each component
// constructor; nothing here is a process-wide singleton.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Policies holds the behaviors that are observed historical behavior rather
// than confirmed requirements, kept configurable on purpose.
type Policies struct {
	// DuplicateIdentity: "last-wins" (historical) or "error".
	DuplicateIdentity string `mapstructure:"duplicate_identity"`
	// ZeroMeansUnset treats zero-valued sticky/cooldown/delay/role as
	// absent when comparing entries.
	ZeroMeansUnset bool `mapstructure:"zero_means_unset"`
}

// Config is the explicit configuration value for one process.
type Config struct {
	// ServerURL is the remote API root.
	ServerURL string `mapstructure:"server_url"`
	// APIKey authenticates against the remote, if it requires it.
	APIKey string `mapstructure:"api_key"`
	// Timeout bounds each remote request.
	Timeout time.Duration `mapstructure:"timeout"`

	// Debounce is the stability window before a burst of file events is
	// delivered as one change.
	Debounce time.Duration `mapstructure:"debounce"`
	// Poll is how often the watcher checks whether the stability window
	// has elapsed.
	Poll time.Duration `mapstructure:"poll"`

	// LogFile, when set, routes watch-mode logs to a rotated file.
	LogFile string `mapstructure:"log_file"`

	Policies Policies `mapstructure:"policies"`
}

// Load reads configuration from an explicit file (when path is non-empty) or
// from loresync.yaml discovered in the working directory or
// $HOME/.config/loresync/, with LORESYNC_* environment variables taking
// precedence. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server_url", "http://127.0.0.1:8000")
	// Defaultless keys still need registering, or AutomaticEnv never
	// consults the environment for them during Unmarshal.
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("debounce", 500*time.Millisecond)
	v.SetDefault("poll", 100*time.Millisecond)
	v.SetDefault("log_file", "")
	v.SetDefault("policies.duplicate_identity", "last-wins")
	v.SetDefault("policies.zero_means_unset", true)

	v.SetEnvPrefix("LORESYNC")
	// Nested keys contain dots; the env lookup name uses underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("loresync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/loresync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	switch c.Policies.DuplicateIdentity {
	case "last-wins", "error":
	default:
		return fmt.Errorf("policies.duplicate_identity must be %q or %q (got %q)",
			"last-wins", "error", c.Policies.DuplicateIdentity)
	}
	return nil
}
