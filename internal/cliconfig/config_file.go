package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	Path            string `toml:"path"`
	MaxPayload      int    `toml:"max_payload"`
	QueueCapacity   *int   `toml:"queue_capacity"`
	AllowV3         *bool  `toml:"allow_v3"`
	PingInterval    string `toml:"ping_interval"`
	PingTimeout     string `toml:"ping_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	MetricsPath     string `toml:"metrics_path"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.pollship/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pollship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("path", fc.Path, &cfg.Path)
	s.setString("metrics-path", fc.MetricsPath, &cfg.MetricsPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("ping-interval", fc.PingInterval, &cfg.PingInterval); err != nil {
		return err
	}
	if err := s.setDuration("ping-timeout", fc.PingTimeout, &cfg.PingTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setInt("max-payload", fc.MaxPayload, &cfg.MaxPayload)
	s.setIntPtr("queue-capacity", fc.QueueCapacity, &cfg.QueueCapacity)

	s.setBool("allow-v3", fc.AllowV3, &cfg.AllowV3)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
