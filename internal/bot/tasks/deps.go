// Package tasks implements the bot's scheduled tasks: the cron-driven event
// summary post, calendar event creation for tomorrow's events and database
// maintenance.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/database"
	"github.com/edgard/groupmebot/internal/groupme"
	"github.com/edgard/groupmebot/internal/mailer"
	"github.com/edgard/groupmebot/internal/sheet"
)

// EventSource reads events and recipients from the linked spreadsheet.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]sheet.Event, error)
	FormattedUpcoming(ctx context.Context, count int) (string, error)
	Emails(ctx context.Context) ([]string, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Relay  groupme.Client
	Events EventSource
	Mailer mailer.Mailer
	Clock  clockwork.Clock
}

func (d TaskDeps) location() *time.Location {
	if d.Config == nil {
		return time.UTC
	}
	return d.Config.Scheduler.Location()
}

func (d TaskDeps) timezone() string {
	if d.Config == nil || d.Config.Scheduler.Timezone == "" {
		return config.DefaultSchedulerTimezone
	}
	return d.Config.Scheduler.Timezone
}

func (d TaskDeps) upcomingCount() int {
	if d.Config != nil && d.Config.Scheduler.UpcomingCount > 0 {
		return d.Config.Scheduler.UpcomingCount
	}
	return config.DefaultSchedulerUpcomingCount
}
