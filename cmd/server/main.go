package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/config"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	opts, err := gameOptions(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trees := ai.NewTrees()
	if cfg.WarmTrees && opts.AI == ai.KindTree {
		start := time.Now()
		done := trees.Warm(ctx, opts.Size, opts.InitialPlayer)
		go func() {
			if err := <-done; err != nil {
				log.Printf("warming game tree: %v", err)
				return
			}
			log.Printf("game tree %dx%d ready in %v", opts.Size, opts.Size, time.Since(start))
		}()
	}

	svc := app.NewService(
		app.WithTrees(trees),
		app.WithDefaults(opts),
		app.WithLogger(log.Default()),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
		// streams (SSE, websocket) end with the signal context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("server stopped")
}

func gameOptions(cfg config.Config) (app.Options, error) {
	first, err := domain.ParseState(cfg.InitialPlayer)
	if err != nil {
		return app.Options{}, err
	}
	side, err := domain.ParseState(cfg.AISide)
	if err != nil {
		return app.Options{}, err
	}
	kind, err := ai.ParseKind(cfg.AI)
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{Size: cfg.BoardSize, InitialPlayer: first, AI: kind, AISide: side}, nil
}
