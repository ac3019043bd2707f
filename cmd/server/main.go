package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kurobon/gitgraph/internal/config"
	"github.com/kurobon/gitgraph/internal/history"
	"github.com/kurobon/gitgraph/internal/refresh"
	"github.com/kurobon/gitgraph/internal/render"
	"github.com/kurobon/gitgraph/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize Core Dependencies
	source, err := history.Open(cfg.RepoPath)
	if err != nil {
		log.Fatal(err)
	}
	source.MaxWalk = cfg.MaxWalk

	session := refresh.NewSession(source, cfg.PageSize, cfg.Spacing)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Loading history from %s", cfg.RepoPath)
	if _, err := session.Reload(ctx); err != nil {
		log.Printf("Warning: initial load failed: %v", err)
		log.Println("The graph stays empty until POST /api/graph/reload succeeds")
	}

	if cfg.PollInterval > 0 {
		go func() {
			if err := session.Poll(ctx, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Poller exited: %v", err)
			}
		}()
	}

	// Initialize HTTP Server
	srv := server.NewServer(session)
	if cfg.Color {
		srv.TextStyle = render.DefaultStyle()
	}

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv}
	go func() {
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
