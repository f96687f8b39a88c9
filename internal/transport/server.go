// Package transport serves the chat websocket and the JSON API over HTTP.
package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"floodguard/internal/chat"
	"floodguard/internal/logging"
	"floodguard/internal/metrics"
	"floodguard/internal/projects"
	"floodguard/internal/tools"
)

// TurnHandler runs one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn chat.Turn, emit chat.EmitFunc) error
}

// Config configures the listener.
type Config struct {
	Addr         string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// NewsResults is the article count of GET /api/news.
	NewsResults int
}

// Deps are the services behind the routes. Tools, News, Metrics and
// VectorReady may be nil.
type Deps struct {
	Engine      *projects.Engine
	Chat        TurnHandler
	News        chat.NewsSearcher
	Tools       *tools.Registry
	Metrics     *metrics.Metrics
	VectorReady func() bool
}

// Server owns the HTTP listener.
type Server struct {
	cfg      Config
	deps     Deps
	upgrader websocket.Upgrader
	srv      *http.Server
}

// NewServer builds a server; call Run to listen.
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.NewsResults <= 0 {
		cfg.NewsResults = 5
	}
	s := &Server{cfg: cfg, deps: deps}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/news", s.handleNews)
	mux.HandleFunc("GET /api/tools", s.handleListTools)
	mux.HandleFunc("POST /api/tools/{name}", s.handleTool)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	return cors(s.cfg.CORSOrigins, mux)
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	logging.Transport("listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.srv.Shutdown(shutdownCtx)
		<-errCh
		logging.Transport("server stopped")
		return err
	}
}
