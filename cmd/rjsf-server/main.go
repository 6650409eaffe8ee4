package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeanc18rlos/contentful-rjsf/internal/app"
	"github.com/jeanc18rlos/contentful-rjsf/internal/appconfig"
)

func main() {
	flags := appconfig.RegisterFlags(flag.CommandLine)
	shutdownGrace := flag.Duration("grace", 5*time.Second, "Shutdown grace period")
	sweep := flag.Duration("sweep", time.Minute, "How often idle sessions are expired")
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := appconfig.NewLogger(cfg.Log, os.Stderr)

	stack, err := app.Build(cfg, logger)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer stack.Close()

	srv, err := stack.Server()
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Run(ctx, *sweep)

	logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "theme", cfg.Theme.Name)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Fatalf("listen: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	srv.Close()
}
