package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/whisper-serve/internal/audio"
	"github.com/snarg/whisper-serve/internal/config"
	"github.com/snarg/whisper-serve/internal/engine"
	"github.com/snarg/whisper-serve/internal/metrics"
)

// State is the server lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Options configures a Server. The engine gateway is injected so hosts and
// tests control which engine (if any) backs the endpoint.
type Options struct {
	Addr      string
	Gateway   *engine.Gateway
	Decoder   audio.Decoder
	Config    *config.Config
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

// Server owns the listening socket and the HTTP serving loop. Start and Stop
// are idempotent: Start while running and Stop while stopped are no-ops, and
// a stopped server can be started again.
type Server struct {
	mu    sync.Mutex
	state State
	ln    net.Listener
	http  *http.Server // created per Start; a shut-down http.Server is not reusable

	handler      http.Handler
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	addr         string
	log          zerolog.Logger
}

// New builds the router and server. It does not bind the socket; Start does.
func New(opts Options) *Server {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(metrics.InstrumentHandler)

	modelsH := NewModelsHandler(opts.Config.ModelName)
	transcriptionsH := NewTranscriptionsHandler(opts.Gateway, opts.Decoder, opts.Config.ModelOptions(), opts.Config.MaxBodyBytes)
	healthH := NewHealthHandler(opts.Gateway, opts.Version, opts.StartTime)

	// Exact-match routes with the trailing-slash variants clients send.
	r.Get("/v1/models", modelsH.List)
	r.Get("/v1/models/", modelsH.List)
	r.Post("/v1/audio/transcriptions", transcriptionsH.Transcribe)
	r.Post("/v1/audio/transcriptions/", transcriptionsH.Transcribe)

	r.Get("/healthz", healthH.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	notFound := func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return &Server{
		handler:      r,
		readTimeout:  opts.Config.ReadTimeout,
		writeTimeout: opts.Config.WriteTimeout,
		idleTimeout:  opts.Config.IdleTimeout,
		addr:         opts.Addr,
		log:          opts.Log,
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound address, or "" when not running. With a ":0" listen
// address this is how callers learn the assigned port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start binds the socket and launches the serving loop. A bind failure (port
// in use, permission denied) is logged and returned and the server stays
// stopped; the host process decides whether that is fatal. Calling Start on
// a running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.state = StateStopped
		s.mu.Unlock()
		s.log.Error().Err(err).Str("addr", s.addr).Msg("failed to start server")
		return err
	}
	s.ln = ln
	s.http = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}
	srv := s.http
	s.state = StateRunning
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("server started")

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("serve loop exited")
		}
	}()
	return nil
}

// Stop drains in-flight connections until ctx expires, then releases the
// socket. Calling Stop on a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	srv := s.http
	s.mu.Unlock()

	s.log.Info().Msg("server stopping")
	err := srv.Shutdown(ctx)
	if err != nil {
		// Shutdown timed out; abandon whatever is still in flight.
		srv.Close()
	}

	s.mu.Lock()
	s.ln = nil
	s.http = nil
	s.state = StateStopped
	s.mu.Unlock()

	s.log.Info().Msg("server stopped")
	return err
}
