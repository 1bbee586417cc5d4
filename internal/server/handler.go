package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bft-labs/pollship/internal/session"
	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
	"github.com/bft-labs/pollship/pkg/payload"
)

const transportPolling = "polling"

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if t := q.Get("transport"); t != "" && t != transportPolling {
		writeError(w, http.StatusBadRequest, codeUnknownTransport)
		return
	}
	protocol, err := payload.ParseProtocol(q.Get("EIO"))
	if err != nil || (protocol == payload.ProtocolV3 && !s.cfg.AllowV3) {
		writeError(w, http.StatusBadRequest, codeUnsupportedProtocol)
		return
	}
	b64 := q.Get("b64") == "1"

	var sess *session.Session
	if sid := q.Get("sid"); sid == "" {
		sess, err = s.handshake(protocol, !b64)
		if err != nil {
			s.logger.Error("handshake failed", log.Err(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	} else {
		sess, err = s.sessions.Get(sid)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeUnknownSID)
			return
		}
		if sess.Protocol != protocol {
			writeError(w, http.StatusBadRequest, codeBadRequest)
			return
		}
	}

	p, err := s.poll(r.Context(), sess, sess.SupportsBinary && !b64)
	switch {
	case err == nil:
	case errors.Is(err, payload.ErrAborted):
		if s.removeSession(sess.ID) {
			s.logger.Info("session closed", log.String("sid", sess.ID))
		}
		s.metrics.encodeErrors.WithLabelValues("aborted").Inc()
		writeError(w, http.StatusBadRequest, codeUnknownSID)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away; its packets stay queued for the next poll.
		s.metrics.encodeErrors.WithLabelValues("cancelled").Inc()
		s.logger.Debug("poll abandoned", log.String("sid", sess.ID))
		return
	default:
		s.metrics.encodeErrors.WithLabelValues("encode").Inc()
		s.logger.Error("encode payload", log.String("sid", sess.ID), log.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.metrics.payloadsTotal.WithLabelValues(protocol.String(), framing(p.ContainsBinary)).Inc()
	s.metrics.payloadBytes.Observe(float64(len(p.Data)))

	w.Header().Set("Content-Type", p.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Data); err != nil {
		s.logger.Debug("write payload", log.String("sid", sess.ID), log.Err(err))
	}

	// The client stops polling once it has the Close packet.
	if sess.Drained() && s.removeSession(sess.ID) {
		s.logger.Info("session closed", log.String("sid", sess.ID))
	}
}

// handshake registers a session with its Open packet queued and starts its
// heartbeat.
func (s *Server) handshake(protocol payload.Protocol, supportsBinary bool) (*session.Session, error) {
	sess, err := s.sessions.Create(protocol, supportsBinary)
	if err != nil {
		return nil, err
	}

	open := packet.Open{Handshake: packet.Handshake{
		SID:          sess.ID,
		PingInterval: s.cfg.PingInterval.Milliseconds(),
		PingTimeout:  s.cfg.PingTimeout.Milliseconds(),
		MaxPayload:   int64(s.MaxPayload()),
	}}
	if err := sess.Send(open); err != nil {
		s.sessions.Remove(sess.ID)
		return nil, err
	}

	s.metrics.activeSessions.Inc()
	s.life.AddWorker()
	go func() {
		defer s.life.WorkerDone()
		sess.Heartbeat(s.ctx, s.cfg.PingInterval, s.logger)
	}()

	s.logger.Info("session opened",
		log.String("sid", sess.ID),
		log.String("protocol", protocol.String()),
		log.Bool("binary", supportsBinary),
	)
	return sess, nil
}

// poll holds the session's queue for one encode call.
func (s *Server) poll(ctx context.Context, sess *session.Session, supportsBinary bool) (payload.Payload, error) {
	defer sess.BeginPoll()()

	start := time.Now()
	defer func() {
		s.metrics.pollDuration.Observe(time.Since(start).Seconds())
	}()

	g, err := sess.Acquire(ctx)
	if err != nil {
		return payload.Payload{}, err
	}
	defer g.Release()

	return s.encoder.Encode(ctx, g, payload.Options{
		Protocol:       sess.Protocol,
		SupportsBinary: supportsBinary,
		MaxPayload:     s.MaxPayload(),
	})
}

// removeSession unregisters sid and reports whether this call removed it.
func (s *Server) removeSession(sid string) bool {
	if !s.sessions.Remove(sid) {
		return false
	}
	s.metrics.activeSessions.Dec()
	return true
}

type healthBody struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(healthBody{Status: "ok", Sessions: s.sessions.Len()})
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
