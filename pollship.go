// Package pollship serves engine.io long-polling sessions.
//
// Example usage:
//
//	srv, err := pollship.New(pollship.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop(context.Background())
//
//	// later, from application code
//	srv.Send(sid, packet.Message("hello"))
package pollship

import (
	"github.com/bft-labs/pollship/internal/cliconfig"
	"github.com/bft-labs/pollship/internal/server"
)

// Config holds the server configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = server.Config

// Server is a long-polling HTTP server.
type Server = server.Server

// Option configures optional behavior of a Server.
type Option = server.Option

// WithLogger and WithRegistry configure the logger and Prometheus registry.
var (
	WithLogger   = server.WithLogger
	WithRegistry = server.WithRegistry
)

// New creates a server. It does not listen until Start.
func New(cfg Config, opts ...Option) (*Server, error) {
	return server.New(cfg, opts...)
}

// DefaultConfig returns a Config with the same defaults as the pollship
// command.
func DefaultConfig() Config {
	c := cliconfig.DefaultConfig()
	return Config{
		ListenAddr:      c.ListenAddr,
		Path:            c.Path,
		MaxPayload:      c.MaxPayload,
		QueueCapacity:   c.QueueCapacity,
		AllowV3:         c.AllowV3,
		PingInterval:    c.PingInterval,
		PingTimeout:     c.PingTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		MetricsPath:     c.MetricsPath,
	}
}
