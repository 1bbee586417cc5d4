// Package server exposes polling sessions over HTTP.
//
// A GET on the configured path without a sid performs the handshake: a new
// session is registered and its Open packet is returned as the first
// payload. A GET with a sid long-polls that session's packet queue. Polls
// of one session are serialized by the queue's consumer lock.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/pollship/internal/session"
	"github.com/bft-labs/pollship/pkg/lifecycle"
	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
	"github.com/bft-labs/pollship/pkg/payload"
)

// Config holds the server configuration.
type Config struct {
	ListenAddr      string
	Path            string
	MaxPayload      int
	QueueCapacity   int
	AllowV3         bool
	PingInterval    time.Duration
	PingTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsPath serves Prometheus metrics when not empty.
	MetricsPath string
}

// Option configures optional behavior of a Server.
type Option func(*options)

type options struct {
	logger   log.Logger
	registry *prometheus.Registry
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
// Without it each Server uses its own registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Server is the long-polling HTTP server.
type Server struct {
	cfg        Config
	logger     log.Logger
	sessions   *session.Registry
	encoder    *payload.Encoder
	metrics    *metrics
	gatherer   prometheus.Gatherer
	maxPayload atomic.Int64
	router     chi.Router

	// ctx bounds the heartbeat goroutines tracked by life.
	ctx    context.Context
	cancel context.CancelFunc
	life   *lifecycle.Manager

	mu      sync.Mutex
	httpSrv *http.Server
	addr    net.Addr
}

// New creates a server. It does not listen until Start.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.MaxPayload <= 0 {
		return nil, fmt.Errorf("max payload must be positive")
	}
	if cfg.PingInterval <= 0 {
		return nil, fmt.Errorf("ping interval must be positive")
	}
	if cfg.Path == "" {
		cfg.Path = "/engine.io/"
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		logger:   log.OrNoop(o.logger),
		sessions: session.NewRegistry(cfg.QueueCapacity),
		metrics:  newMetrics(o.registry),
		gatherer: o.registry,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.life = lifecycle.NewManager(s.logger)
	s.encoder = payload.NewEncoder(s.logger)
	s.maxPayload.Store(int64(cfg.MaxPayload))
	s.router = s.routes()

	if cfg.PingTimeout > 0 {
		s.life.AddWorker()
		go func() {
			defer s.life.WorkerDone()
			s.reapLoop(s.ctx)
		}()
	}
	return s, nil
}

// reapLoop expires sessions whose client has not polled within
// PingInterval+PingTimeout, until ctx is done.
func (s *Server) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingTimeout)
	defer ticker.Stop()

	timeout := s.cfg.PingInterval + s.cfg.PingTimeout
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, sess := range s.sessions.Expired(now, timeout) {
				idle := sess.Idle(now)
				sess.Expire()
				if s.removeSession(sess.ID) {
					s.logger.Info("session timed out",
						log.String("sid", sess.ID),
						log.Duration("idle", idle),
						log.Duration("age", now.Sub(sess.CreatedAt)),
					)
				}
			}
		}
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(s.cfg.Path, s.handlePoll)
	if trimmed := strings.TrimSuffix(s.cfg.Path, "/"); trimmed != "" {
		r.Get(trimmed, s.handlePoll)
	}
	r.Get("/healthz", s.handleHealth)
	if s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler, for mounting into another router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MaxPayload returns the current maximum payload size.
func (s *Server) MaxPayload() int {
	return int(s.maxPayload.Load())
}

// SetMaxPayload changes the maximum payload size of subsequent polls.
// Non-positive values are ignored.
func (s *Server) SetMaxPayload(n int) {
	if n <= 0 {
		return
	}
	if prev := s.maxPayload.Swap(int64(n)); prev != int64(n) {
		s.logger.Info("max payload updated", log.Int("previous", int(prev)), log.Int("max_payload", n))
	}
}

// Send queues a packet on the session sid.
func (s *Server) Send(sid string, p packet.Packet) error {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return err
	}
	return sess.Send(p)
}

// CloseSession queues a Close packet on the session sid. The session is
// removed once a poll finds its queue closed.
func (s *Server) CloseSession(sid string) error {
	sess, err := s.sessions.Get(sid)
	if err != nil {
		return err
	}
	return sess.Close()
}

// Sessions returns the number of registered sessions.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	if err := s.life.TransitionTo(lifecycle.StateStarting, "start"); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		_ = s.life.TransitionTo(lifecycle.StateFailed, "listen failed")
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("polling server listening", log.String("addr", ln.Addr().String()), log.String("path", s.cfg.Path))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("polling server stopped", log.Err(err))
			_ = s.life.TransitionTo(lifecycle.StateFailed, "serve failed")
		}
	}()
	return s.life.TransitionTo(lifecycle.StateRunning, "listening")
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop closes every session, waits for in-flight polls until ctx is done
// and stops the heartbeats. Without Start it only closes the sessions.
func (s *Server) Stop(ctx context.Context) error {
	s.sessions.CloseAll()

	var err error
	if s.life.TransitionTo(lifecycle.StateStopping, "stop") == nil {
		s.mu.Lock()
		srv := s.httpSrv
		s.mu.Unlock()

		shutdownCtx := ctx
		if s.cfg.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
			defer cancel()
		}
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			err = fmt.Errorf("shutdown: %w", shutdownErr)
			_ = s.life.TransitionTo(lifecycle.StateFailed, "shutdown failed")
		} else {
			_ = s.life.TransitionTo(lifecycle.StateStopped, "stopped")
		}
	}

	s.cancel()
	if waitErr := s.life.Wait(ctx); waitErr != nil && err == nil {
		err = waitErr
	}
	s.logger.Info("polling server stopped")
	return err
}
