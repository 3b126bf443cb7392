package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/edgard/groupmebot/internal/database"
	errs "github.com/edgard/groupmebot/internal/errors"
)

// ScheduleUsage is the reply to an unknown /schedule subcommand.
const ScheduleUsage = "Unknown subcommand.\nUsage:\n\t/schedule show [count]\n\t/schedule set <cron expression>\n\t/schedule link <google sheets link>"

// NewScheduleHandler returns a handler for the /schedule command and its
// show, set and link subcommands.
func NewScheduleHandler(deps HandlerDeps) HandlerFunc {
	return scheduleHandler{deps}.Handle
}

type scheduleHandler struct {
	deps HandlerDeps
}

func (h scheduleHandler) Handle(ctx context.Context, req Request) (string, error) {
	sub, rest := splitFirst(req.Args)
	if sub == "" {
		sub = "show"
	}

	switch strings.ToLower(sub) {
	case "show":
		return h.show(ctx, rest)
	case "set":
		return h.set(ctx, rest)
	case "link":
		return h.link(ctx, rest)
	default:
		return ScheduleUsage, nil
	}
}

func (h scheduleHandler) show(ctx context.Context, arg string) (string, error) {
	count := h.deps.upcomingCount()
	if isDigits(arg) {
		if n, err := strconv.Atoi(arg); err == nil {
			count = n
		}
	}
	if h.deps.Events == nil {
		return "", errs.NewNotConfigured(database.MsgNoSheet)
	}
	return h.deps.Events.FormattedUpcoming(ctx, count)
}

func (h scheduleHandler) set(ctx context.Context, arg string) (string, error) {
	schedule := strings.TrimSpace(arg)
	if schedule == "" {
		return "Please provide a cron expression (e.g., '* * * * *').", nil
	}
	if err := h.deps.Store.SaveSchedule(ctx, schedule); err != nil {
		return "", err
	}
	h.deps.Logger.InfoContext(ctx, "Posting schedule updated", "schedule", schedule)
	return "Updated posting schedule to: " + schedule, nil
}

func (h scheduleHandler) link(ctx context.Context, arg string) (string, error) {
	link := strings.TrimSpace(arg)
	if link == "" {
		return "Please provide the Google Sheet URL.", nil
	}
	if err := h.deps.Store.SaveSheetLink(ctx, link); err != nil {
		return "", err
	}
	h.deps.Logger.InfoContext(ctx, "Sheet link updated", "link", link)
	return "Updated sheet link to: " + link, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
