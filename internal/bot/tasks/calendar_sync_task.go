package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/groupme"
	"github.com/edgard/groupmebot/internal/sheet"
)

// newCalendarSyncTask creates a group calendar event for every spreadsheet
// event dated tomorrow that has not been created yet.
func newCalendarSyncTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "calendar_sync")
	loc := deps.location()
	tz := deps.timezone()

	return func(ctx context.Context) error {
		events, err := deps.Events.FetchEvents(ctx)
		if errors.Is(err, errs.ErrNotConfigured) {
			log.DebugContext(ctx, "No sheet linked, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}

		tomorrow := deps.Clock.Now().In(loc).AddDate(0, 0, 1)

		var groupID, token string
		for _, ev := range events {
			if !ev.SameDay(tomorrow) {
				continue
			}

			if groupID == "" {
				groupID, err = deps.Store.GetGroupID(ctx)
				if errors.Is(err, errs.ErrNotConfigured) || (err == nil && groupID == "") {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read group id: %w", err)
				}
			}

			if token == "" {
				token, err = deps.Store.GetToken(ctx)
				if err != nil {
					return fmt.Errorf("failed to read access token: %w", err)
				}
				if token == "" {
					log.WarnContext(ctx, "Admin token not set, cannot create calendar events. Please authenticate.")
					return nil
				}
			}

			created, err := deps.Store.IsCalendarEventCreated(ctx, ev.Key())
			if err != nil {
				return fmt.Errorf("failed to check calendar event %q: %w", ev.Key(), err)
			}
			if created {
				continue
			}

			if err := deps.Relay.CreateEvent(ctx, groupID, token, calendarEvent(ev, tz)); err != nil {
				log.ErrorContext(ctx, "Failed to create calendar event", "event", ev.Key(), "error", err)
				continue
			}
			if err := deps.Store.MarkCalendarEventCreated(ctx, ev.Key(), groupID); err != nil {
				return fmt.Errorf("failed to record calendar event %q: %w", ev.Key(), err)
			}
			log.InfoContext(ctx, "Created calendar event", "event", ev.Key(), "group_id", groupID)
		}
		return nil
	}
}

func calendarEvent(ev sheet.Event, tz string) groupme.CalendarEvent {
	return groupme.CalendarEvent{
		Name:        ev.DateText + " - " + ev.Leader + "'s Event",
		StartAt:     ev.Date,
		EndAt:       ev.Date.Add(time.Hour),
		Timezone:    tz,
		Description: ev.String(),
		IsAllDay:    true,
		Location:    groupme.Location{Name: ev.LocationDisplay},
	}
}
