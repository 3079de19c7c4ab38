package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	cfg, err := LoadConfig(es)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	defaultLang := parseDefaultLanguage(cfg.DefaultLanguage)
	roster := NewRoster()
	hub := NewHub(log, cfg.EventHistory)
	notifier := newNotifier(cfg.SlackBotToken, cfg.SlackChannel, log)
	classifier := NewAnthropicClassifier(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.ClassifyTimeout)
	dispatcher := NewDispatcher(classifier, roster, hub, notifier, defaultLang, log)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           newMux(NewPartyHandler(dispatcher, defaultLang, log), roster, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Party bot listening", "address", srv.Addr, "model", cfg.AnthropicModel, "language", defaultLang.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
