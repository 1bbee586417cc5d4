package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (POLLSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("POLLSHIP_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("path", os.Getenv("POLLSHIP_PATH"), &cfg.Path)
	s.setString("metrics-path", os.Getenv("POLLSHIP_METRICS_PATH"), &cfg.MetricsPath)
	s.setString("log-level", os.Getenv("POLLSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("ping-interval", os.Getenv("POLLSHIP_PING_INTERVAL"), &cfg.PingInterval); err != nil {
		return err
	}
	if err := s.setDuration("ping-timeout", os.Getenv("POLLSHIP_PING_TIMEOUT"), &cfg.PingTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("POLLSHIP_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-payload", os.Getenv("POLLSHIP_MAX_PAYLOAD"), &cfg.MaxPayload); err != nil {
		return err
	}
	if err := s.setNonNegativeIntFromString("queue-capacity", os.Getenv("POLLSHIP_QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}

	s.setBoolFromString("allow-v3", os.Getenv("POLLSHIP_ALLOW_V3"), &cfg.AllowV3)

	return nil
}
