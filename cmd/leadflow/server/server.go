// Package server provides the reference funding application: an importable
// HTTP server rendering the wizard from the step schema, so browser tests
// and the CLI can run against a known target without the production site.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
)

// Config holds server configuration options.
type Config struct {
	Addr         string        // Listen address (e.g., ":8080" or ":0" for random port)
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout

	// Password enables the password gate when non-empty.
	Password string

	FormWebhookURL string
	FileWebhookURL string

	// TransitionDelay is how long the wizard stays in its transitioning
	// state between steps.
	TransitionDelay time.Duration
}

// DefaultConfig returns a configuration suitable for testing.
// Uses "127.0.0.1:0" to bind to a random available loopback port.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		FormWebhookURL:  config.DefaultFormWebhookURL,
		FileWebhookURL:  config.DefaultFileWebhookURL,
		TransitionDelay: 300 * time.Millisecond,
	}
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) error {
		if l == nil {
			return errors.New("nil logger")
		}
		s.logger = l
		return nil
	}
}

// WithSchema renders the wizard from s instead of the default schema.
func WithSchema(schema formtest.Schema) Option {
	return func(s *Server) error {
		if schema.Len() == 0 {
			return errors.New("empty schema")
		}
		s.schema = schema
		return nil
	}
}

// Server serves the reference wizard.
type Server struct {
	cfg        Config
	schema     formtest.Schema
	logger     *log.Logger
	pages      *pages
	sessions   *sessionStore
	httpServer *http.Server
	listener   net.Listener
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		schema:   formtest.DefaultSchema(),
		logger:   logging.Discard(),
		sessions: newSessionStore(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if cfg.TransitionDelay < 0 {
		return nil, fmt.Errorf("negative transition delay %v", cfg.TransitionDelay)
	}

	p, err := newPages(s.schema, cfg)
	if err != nil {
		return nil, err
	}
	s.pages = p

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped", "err", err)
		}
	}()

	s.logger.Info("Reference app listening", "addr", s.addr, "gated", s.cfg.Password != "")
	return s.addr, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns a browsable base URL for the listening address. Unspecified
// hosts are replaced by the loopback address.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
