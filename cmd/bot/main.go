// Package main contains the entrypoint for the GroupMe event bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/groupmebot/internal/bot"
	"github.com/edgard/groupmebot/internal/bot/handlers"
	"github.com/edgard/groupmebot/internal/bot/tasks"
	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/database"
	"github.com/edgard/groupmebot/internal/groupme"
	"github.com/edgard/groupmebot/internal/logger"
	"github.com/edgard/groupmebot/internal/mailer"
	"github.com/edgard/groupmebot/internal/server"
	"github.com/edgard/groupmebot/internal/sheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// platform clients, HTTP server, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	clock := clockwork.NewRealClock()
	relay := groupme.NewClient(cfg.GroupMe, log)
	oauth := groupme.NewOAuth(cfg.GroupMe)
	events := sheet.NewAdapter(
		sheet.NewGoogleSource(cfg.Sheets.CredentialsFile, log),
		store,
		cfg.Scheduler.Location(),
		clock,
		log,
	)

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		Relay:  relay,
		OAuth:  oauth,
		Events: events,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		Relay:  relay,
		Events: events,
		Mailer: mailer.New(cfg.Mail, log),
		Clock:  clock,
	}

	dispatcher := handlers.NewDispatcher(handlers.RegisterAllCommands(hDeps), log)
	srv := server.New(server.Deps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Relay:      relay,
		Dispatcher: dispatcher,
		OAuth:      oauth,
	})

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), clock)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, store, srv.NewHTTPServer(), sched, cfg.Server.ShutdownTimeout)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
