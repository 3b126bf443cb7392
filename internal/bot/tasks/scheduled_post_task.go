package tasks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	errs "github.com/edgard/groupmebot/internal/errors"
)

// SummarySubject is the subject line of the emailed event summary.
const SummarySubject = "Upcoming Events"

// newScheduledPostTask posts the upcoming-events summary whenever the
// persisted cron expression matches the current minute. Each matching minute
// fires at most once.
func newScheduledPostTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "scheduled_post")
	loc := deps.location()

	var (
		mu        sync.Mutex
		lastFired time.Time
	)

	return func(ctx context.Context) error {
		expr, err := deps.Store.GetSchedule(ctx)
		if errors.Is(err, errs.ErrNotConfigured) {
			log.DebugContext(ctx, "No posting schedule set, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read posting schedule: %w", err)
		}

		minute := deps.Clock.Now().In(loc).Truncate(time.Minute)
		match, err := cronMatches(expr, minute)
		if err != nil {
			log.WarnContext(ctx, "Invalid posting schedule, skipping", "schedule", expr, "error", err)
			return nil
		}
		if !match {
			return nil
		}

		mu.Lock()
		if lastFired.Equal(minute) {
			mu.Unlock()
			return nil
		}
		lastFired = minute
		mu.Unlock()

		summary, err := deps.Events.FormattedUpcoming(ctx, deps.upcomingCount())
		if errors.Is(err, errs.ErrNotConfigured) {
			log.WarnContext(ctx, "Schedule matched but no sheet is linked", "error", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to build event summary: %w", err)
		}

		if err := deps.Relay.PostMessage(ctx, summary); err != nil {
			return fmt.Errorf("failed to post event summary: %w", err)
		}
		log.InfoContext(ctx, "Posted event summary", "minute", minute.Format(time.RFC3339))

		emailSummary(ctx, deps, summary)
		return nil
	}
}

// emailSummary sends the summary to the spreadsheet's recipients. Failures
// are logged only.
func emailSummary(ctx context.Context, deps TaskDeps, summary string) {
	if deps.Mailer == nil {
		return
	}
	log := deps.Logger.With("task", "scheduled_post")

	recipients, err := deps.Events.Emails(ctx)
	if err != nil {
		log.WarnContext(ctx, "Failed to read email recipients", "error", err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	if err := deps.Mailer.Send(ctx, recipients, SummarySubject, summaryHTML(summary)); err != nil {
		log.ErrorContext(ctx, "Failed to email event summary", "recipients", len(recipients), "error", err)
	}
}

func summaryHTML(summary string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(summary), "\n", "<br>\n") + "</p>"
}

// cronMatches reports whether the five-field expression fires at t, which
// must already be truncated to the minute.
func cronMatches(expr string, t time.Time) (bool, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return false, err
	}
	return sched.Next(t.Add(-time.Second)).Equal(t), nil
}
