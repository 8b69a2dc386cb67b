// Package server accepts NetCopy connections and writes the files the
// clients push. One worker goroutine per connection; workers share
// nothing but the configuration snapshot.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-limiter"
	"github.com/sethvargo/go-limiter/memorystore"

	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/crypto"
)

// Version string announced in the handshake.
const Version = "NetCopy v1.0.0"

type Server struct {
	cfg config.ServerConfig
	log *slog.Logger
	key []byte

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	// acceptLimiter rations connection attempts per source IP.
	acceptLimiter limiter.Store
}

// New validates configuration and parses the session key. A server that
// requires authentication must be given a key up front; there is no
// interactive prompt on the accept path.
func New(cfg config.ServerConfig, log *slog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}
	if cfg.SecretKey != "" {
		key, err := crypto.ParseKey(cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		s.key = key
	}
	if cfg.RequireAuth && s.key == nil {
		return nil, fmt.Errorf("require_auth is set but no secret_key is configured")
	}
	store, err := memorystore.New(&memorystore.Config{
		Tokens:   uint64(cfg.MaxConnections),
		Interval: time.Second,
	})
	if err != nil {
		return nil, err
	}
	s.acceptLimiter = store
	return s, nil
}

// Listen binds the configured endpoint.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.ListenAddress, fmt.Sprint(s.cfg.ListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	s.running.Store(true)
	s.log.Info("securely listening", "addr", ln.Addr().String())
	if len(s.cfg.AllowedPaths) == 0 {
		s.log.Warn("no allowed paths configured, all access will be denied")
	} else {
		for _, p := range s.cfg.AllowedPaths {
			s.log.Info("allowed path", "path", p)
		}
	}
	return nil
}

// Addr is the bound address, valid after Listen.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts until Stop. In-flight workers finish on their own; Serve
// does not wait for them.
func (s *Server) Serve() error {
	for s.running.Load() {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			s.log.Error("accept", "err", err)
			continue
		}
		if !s.admit(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
	return nil
}

// admit applies the per-IP connection rate limit.
func (s *Server) admit(conn net.Conn) bool {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	_, _, _, ok, err := s.acceptLimiter.Take(context.Background(), host)
	if err != nil {
		s.log.Error("rate limiter", "err", err)
		return true
	}
	if !ok {
		s.log.Warn("connection rate limit exceeded", "remote", host)
	}
	return ok
}

// Stop closes the listener; the accept loop exits. Workers keep running
// until their client disconnects or their socket times out.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.ln != nil {
		s.ln.Close()
	}
	s.acceptLimiter.Close(context.Background())
	s.log.Info("server stopped")
}

// Wait blocks until every worker has exited. Used by tests and by the
// service wrapper on shutdown.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handle(conn net.Conn) {
	id := uuid.NewString()[:8]
	log := s.log.With("conn", id, "remote", conn.RemoteAddr().String())
	log.Info("connection accepted")
	c := newConnection(conn, s.cfg, s.key, log)
	if err := c.run(); err != nil {
		log.Error("connection closed", "err", err)
		return
	}
	log.Info("connection closed")
}
