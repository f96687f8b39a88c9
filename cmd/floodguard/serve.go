package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"floodguard/internal/logging"
	"floodguard/internal/transport"
)

// serveCmd runs the websocket and REST API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat websocket and REST API",
	Long: `Loads the project dataset and serves:

  GET  /api/chat           websocket conversation stream
  POST /api/search         structured project search
  GET  /api/news           related news articles
  GET  /api/tools          capability listing
  POST /api/tools/{name}   capability execution
  GET  /health             readiness
  GET  /metrics            Prometheus metrics

Projects are indexed for semantic search in the background when
vector.enabled is set.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, sessions, err := a.pipeline()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := transport.NewServer(transport.Config{
		Addr:         addr,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		NewsResults:  cfg.News.MaxResults,
	}, transport.Deps{
		Engine:      a.engine,
		Chat:        pipeline,
		News:        a.news,
		Tools:       a.registry,
		Metrics:     a.metrics,
		VectorReady: a.vectorReady,
	})

	logging.Boot("FloodGuard starting: provider=%s projects=%d addr=%s", cfg.LLM.Provider, a.engine.Len(), addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		sessions.Run(gctx, cfg.GetSweepInterval())
		return nil
	})
	g.Go(func() error {
		a.indexProjects(gctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logging.BootError("server exited: %v", err)
		return err
	}
	logging.Boot("FloodGuard stopped")
	return nil
}
