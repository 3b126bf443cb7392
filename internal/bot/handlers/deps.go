package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/database"
	"github.com/edgard/groupmebot/internal/groupme"
)

// Authorizer builds the platform authorization link.
type Authorizer interface {
	AuthorizeURL() string
}

// EventLister renders upcoming events from the linked spreadsheet.
type EventLister interface {
	FormattedUpcoming(ctx context.Context, count int) (string, error)
}

// HandlerDeps provides dependencies for chat command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Relay  groupme.Client
	OAuth  Authorizer
	Events EventLister
}

func (d HandlerDeps) upcomingCount() int {
	if d.Config != nil && d.Config.Scheduler.UpcomingCount > 0 {
		return d.Config.Scheduler.UpcomingCount
	}
	return config.DefaultSchedulerUpcomingCount
}
