package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the format of the Schedule worksheet's Date column.
const DateLayout = "01/02/2006"

// Schedule worksheet columns.
const (
	ColumnDate     = "Date"
	ColumnLeader   = "Leader"
	ColumnLocation = "Location"
	ColumnTime     = "Time"
	ColumnDessert  = "Dessert"
	ColumnNotes    = "Notes"
)

// Names + Addresses and Names worksheet columns.
const (
	ColumnNames   = "Names"
	ColumnAddress = "Address"
	ColumnEmails  = "Emails"
)

// NoUpcomingEvents is returned by FormatSummary for an empty list.
const NoUpcomingEvents = "No upcoming events"

// Record is one worksheet row keyed by the header row. Every cell is text.
type Record map[string]string

// Event is one Schedule row with its location resolved to an address.
type Event struct {
	Date            time.Time
	DateText        string
	Leader          string
	LocationName    string
	LocationDisplay string
	EventTime       string
	Dessert         string
	Notes           string
}

// AddressBook maps trimmed, lowercased names to addresses. Rows missing
// either column are ignored.
func AddressBook(rows []Record) map[string]string {
	book := make(map[string]string, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row[ColumnNames])
		address := strings.TrimSpace(row[ColumnAddress])
		if name == "" || address == "" {
			continue
		}
		book[strings.ToLower(name)] = address
	}
	return book
}

// NewEvent builds an Event from a Schedule row. The date is interpreted in
// loc at midnight.
func NewEvent(row Record, addresses map[string]string, loc *time.Location) (Event, error) {
	ev := Event{
		DateText:     row[ColumnDate],
		Leader:       row[ColumnLeader],
		LocationName: row[ColumnLocation],
		EventTime:    row[ColumnTime],
		Dessert:      row[ColumnDessert],
		Notes:        row[ColumnNotes],
	}

	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(ev.DateText), loc)
	if err != nil {
		return Event{}, fmt.Errorf("invalid date %q: %w", ev.DateText, err)
	}
	ev.Date = date

	ev.LocationDisplay = ev.LocationName
	if address, ok := addresses[strings.ToLower(strings.TrimSpace(ev.LocationName))]; ok {
		ev.LocationDisplay = address
	}

	return ev, nil
}

// Key identifies the event for the created-calendar-event log.
func (e Event) Key() string {
	return strings.Join([]string{e.Date.Format(DateLayout), e.Leader, e.LocationName}, "|")
}

// SameDay reports whether the event falls on the calendar date of t in
// the event's location.
func (e Event) SameDay(t time.Time) bool {
	t = t.In(e.Date.Location())
	y1, m1, d1 := e.Date.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Date.Format("Mon Jan 02 2006"))
	b.WriteString("\n")
	if e.EventTime != "" {
		b.WriteString("Time: " + e.EventTime + "\n")
	}
	b.WriteString("Leader: " + e.Leader + "\nLocation: " + e.LocationDisplay)
	if e.Dessert != "" {
		b.WriteString("\nDessert: " + e.Dessert)
	}
	if e.Notes != "" {
		b.WriteString("\nNotes: " + e.Notes)
	}
	return b.String()
}

// FormatSummary renders events as a chat message.
func FormatSummary(events []Event) string {
	if len(events) == 0 {
		return NoUpcomingEvents
	}

	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, ev.String())
	}
	return "Upcoming Events:\n\n" + strings.Join(parts, "\n\n")
}

// cellText coerces a spreadsheet cell of any native type to text.
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Records converts raw worksheet values to records keyed by the first row.
// Rows with no non-empty cell are dropped.
func Records(values [][]any) []Record {
	if len(values) == 0 {
		return nil
	}

	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		header[i] = strings.TrimSpace(cellText(cell))
	}

	records := make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(Record, len(header))
		empty := true
		for i, col := range header {
			if col == "" {
				continue
			}
			var text string
			if i < len(row) {
				text = cellText(row[i])
			}
			if text != "" {
				empty = false
			}
			rec[col] = text
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records
}
