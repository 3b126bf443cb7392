// Package bot wires the bot's long-running components together and manages
// their lifecycle: the webhook HTTP server and the task scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/groupmebot/internal/database"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger          *slog.Logger
	store           database.Store
	server          *http.Server
	scheduler       *Scheduler
	shutdownTimeout time.Duration
}

// NewBot creates a new instance of the bot from its already built components.
func NewBot(
	logger *slog.Logger,
	store database.Store,
	server *http.Server,
	scheduler *Scheduler,
	shutdownTimeout time.Duration,
) *Bot {
	return &Bot{
		logger:          logger.With("component", "bot_orchestrator"),
		store:           store,
		server:          server,
		scheduler:       scheduler,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts the HTTP server and the scheduler and blocks until ctx is
// cancelled or either of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	if err := b.store.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting HTTP server", "addr", b.server.Addr)
		err := b.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			b.logger.Info("HTTP server stopped")
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), b.shutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error stopping HTTP server", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
