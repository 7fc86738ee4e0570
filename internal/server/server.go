// Package server implements the TCP daemon: an accept loop spawning one
// handler goroutine per connection, each serving exactly one request.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/planfiles/fingerd/internal/cache"
	"github.com/planfiles/fingerd/internal/catalog"
	"github.com/planfiles/fingerd/internal/config"
	"github.com/planfiles/fingerd/internal/finger"
)

// Server owns the shared catalog, cache and formatter and serves finger
// requests over TCP. Construct with New; multiple independent Servers can
// coexist in one process.
type Server struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	cache     *cache.Store
	formatter *finger.Formatter
	logger    zerolog.Logger

	mu       sync.Mutex
	addr     net.Addr
	handlers sync.WaitGroup
}

// New creates a Server from cfg. The cache and catalog are owned by the
// returned instance; nothing is shared through package state.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	cat := catalog.New(cfg.PlanDir)
	store := cache.New(time.Duration(cfg.Cache.TTL))
	return &Server{
		cfg:       cfg,
		catalog:   cat,
		cache:     store,
		formatter: finger.NewFormatter(cat, store),
		logger:    logger.With().Str("component", "server").Logger(),
	}
}

// Cache exposes the content cache, primarily so tests can tune its TTL.
func (s *Server) Cache() *cache.Store {
	return s.cache
}

// Addr returns the bound listen address, or nil before serving starts.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		if errors.Is(err, os.ErrPermission) && s.cfg.Listen.Port < 1024 {
			s.logger.Error().Int("port", s.cfg.Listen.Port).
				Msg("cannot bind privileged port; run privileged or use --port 1079")
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// listener and waits for in-flight handlers to finish. The accept loop
// admits connections unboundedly; a slow client only ties up its own
// goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("plan_dir", s.cfg.PlanDir).
		Dur("cache_ttl", s.cache.TTL()).
		Msg("finger daemon serving")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			s.handlers.Add(1)
			go func() {
				defer s.handlers.Done()
				s.handleConn(conn)
			}()
		}
	})

	err := g.Wait()
	s.handlers.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// handleConn serves one connection: read the request, format the response,
// write it, close. Transport errors are logged and produce no response;
// nothing propagates to the accept loop and the connection is always
// closed exactly once.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With().
		Str("conn_id", ulid.Make().String()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	if s.cfg.Server.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.Server.ReadTimeout))); err != nil {
			logger.Warn().Err(err).Msg("set read deadline")
			return
		}
	}

	// One bounded read, like the original protocol exchange. A peer that
	// closes without sending anything is a valid empty (list-all) request.
	buf := make([]byte, s.cfg.Server.MaxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Warn().Err(err).Msg("read request")
		return
	}
	raw := buf[:n]

	if !utf8.Valid(raw) {
		logger.Warn().Msg("request is not valid utf-8")
		return
	}

	line := strings.TrimSpace(string(raw))
	req := finger.Parse(line)
	logger.Info().
		Str("request", line).
		Str("kind", req.Kind.String()).
		Msg("received request")

	if _, err := conn.Write([]byte(s.formatter.Format(req))); err != nil {
		logger.Warn().Err(err).Msg("write response")
	}
}
