// Package sheet reads the group's event schedule from a spreadsheet.
package sheet

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/groupmebot/internal/logger"
)

// Worksheet titles read from the spreadsheet. Others are ignored.
const (
	WorksheetSchedule  = "Schedule"
	WorksheetAddresses = "Names + Addresses"
	WorksheetNames     = "Names"
)

var worksheetTitles = []string{WorksheetSchedule, WorksheetAddresses, WorksheetNames}

// Source fetches worksheets by title from the spreadsheet behind link.
// Titles missing from the spreadsheet are absent from the result.
type Source interface {
	Worksheets(ctx context.Context, link string, titles []string) (map[string][]Record, error)
}

// LinkStore provides the configured spreadsheet link.
type LinkStore interface {
	GetSheetLink(ctx context.Context) (string, error)
}

// Snapshot is the parsed content of the last successful fetch.
type Snapshot struct {
	Events    []Event
	Addresses map[string]string
	Emails    []string
	FetchedAt time.Time
}

// Adapter turns spreadsheet rows into events.
type Adapter struct {
	source Source
	links  LinkStore
	loc    *time.Location
	clock  clockwork.Clock
	log    *slog.Logger

	mu   sync.RWMutex
	last *Snapshot
}

// NewAdapter creates an Adapter. Event dates are read in loc.
func NewAdapter(source Source, links LinkStore, loc *time.Location, clock clockwork.Clock, log *slog.Logger) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Adapter{
		source: source,
		links:  links,
		loc:    loc,
		clock:  clock,
		log:    log.With("component", "sheet"),
	}
}

// Refresh re-reads the spreadsheet. A missing link surfaces as the
// store's NotConfigured error.
func (a *Adapter) Refresh(ctx context.Context) (*Snapshot, error) {
	link, err := a.links.GetSheetLink(ctx)
	if err != nil {
		return nil, err
	}

	sheets, err := a.source.Worksheets(ctx, link, worksheetTitles)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Addresses: AddressBook(sheets[WorksheetAddresses]),
		FetchedAt: a.clock.Now(),
	}

	for _, row := range sheets[WorksheetSchedule] {
		ev, err := NewEvent(row, snap.Addresses, a.loc)
		if err != nil {
			a.log.WarnContext(ctx, "Skipping schedule row", "leader", row[ColumnLeader], "error", err)
			continue
		}
		snap.Events = append(snap.Events, ev)
	}

	for _, row := range sheets[WorksheetNames] {
		if email := strings.TrimSpace(row[ColumnEmails]); email != "" {
			snap.Emails = append(snap.Emails, email)
		}
	}

	a.mu.Lock()
	a.last = snap
	a.mu.Unlock()

	a.log.DebugContext(ctx, "Sheet refreshed", "events", len(snap.Events), "addresses", len(snap.Addresses), "emails", len(snap.Emails))
	return snap, nil
}

// Last returns the most recent snapshot, or nil before the first refresh.
func (a *Adapter) Last() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// FetchEvents returns every parseable event in sheet order.
func (a *Adapter) FetchEvents(ctx context.Context) ([]Event, error) {
	snap, err := a.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Events, nil
}

// FetchUpcoming returns at most count events dated now or later, earliest
// first.
func (a *Adapter) FetchUpcoming(ctx context.Context, count int) ([]Event, error) {
	events, err := a.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	return Upcoming(events, a.clock.Now(), count), nil
}

// FormattedUpcoming renders the next count events as a chat message.
func (a *Adapter) FormattedUpcoming(ctx context.Context, count int) (string, error) {
	events, err := a.FetchUpcoming(ctx, count)
	if err != nil {
		return "", err
	}
	return FormatSummary(events), nil
}

// Emails returns the addresses listed on the Names worksheet.
func (a *Adapter) Emails(ctx context.Context) ([]string, error) {
	snap, err := a.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Emails, nil
}

// Upcoming filters events to those not before now, sorts them by date and
// keeps the first count.
func Upcoming(events []Event, now time.Time, count int) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if !ev.Date.Before(now) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if count < 0 {
		count = 0
	}
	if len(out) > count {
		out = out[:count]
	}
	return out
}
