package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/database"
	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/groupme"
	"github.com/edgard/groupmebot/internal/sheet"
)

type fakeRelay struct {
	mu      sync.Mutex
	deleted []string
	failIDs map[string]bool
}

func (f *fakeRelay) PostMessage(context.Context, string) error { return nil }

func (f *fakeRelay) DeleteMessage(_ context.Context, _, messageID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	if f.failIDs[messageID] {
		return errs.NewUpstreamCallFailed("delete returned 404", nil)
	}
	return nil
}

func (f *fakeRelay) CreateEvent(context.Context, string, string, groupme.CalendarEvent) error {
	return nil
}

func (f *fakeRelay) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeAuthorizer struct{}

func (fakeAuthorizer) AuthorizeURL() string {
	return "https://oauth.groupme.com/oauth/authorize?client_id=abc&redirect_uri=https%3A%2F%2Fexample.com%2Fcb"
}

type fakeSource struct {
	rows []sheet.Record
}

func (f fakeSource) Worksheets(context.Context, string, []string) (map[string][]sheet.Record, error) {
	return map[string][]sheet.Record{sheet.WorksheetSchedule: f.rows}, nil
}

type testEnv struct {
	store      database.Store
	relay      *fakeRelay
	dispatcher *Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	source := fakeSource{rows: []sheet.Record{
		{"Date": "06/10/2026", "Leader": "Carol", "Location": "Hall"},
		{"Date": "06/03/2026", "Leader": "Bob", "Location": "Church", "Time": "7pm"},
		{"Date": "06/17/2026", "Leader": "Eve", "Location": "Library"},
		{"Date": "06/24/2026", "Leader": "Finn", "Location": "Park"},
	}}

	relay := &fakeRelay{failIDs: map[string]bool{}}
	deps := HandlerDeps{
		Config: &config.Config{Scheduler: config.SchedulerConfig{UpcomingCount: 3}},
		Store:  store,
		Relay:  relay,
		OAuth:  fakeAuthorizer{},
		Events: sheet.NewAdapter(source, store, time.UTC, clock, nil),
	}

	return &testEnv{
		store:      store,
		relay:      relay,
		dispatcher: NewDispatcher(RegisterAllCommands(deps), nil),
	}
}

func (e *testEnv) dispatch(t *testing.T, text string) string {
	t.Helper()
	reply, ok := e.dispatcher.Dispatch(context.Background(), "Alice", text)
	if !ok {
		t.Fatalf("Dispatch(%q) was not treated as a command", text)
	}
	return reply
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/ping", "ping", "", true},
		{"/PING", "ping", "", true},
		{"/echo  hello   world ", "echo", "hello   world", true},
		{"/schedule show\t5", "schedule", "show\t5", true},
		{"/", "", "", true},
		{"hello /ping", "", "", false},
		{" /ping", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			name, args, ok := ParseCommand(tt.text)
			if name != tt.wantName || args != tt.wantArgs || ok != tt.wantOK {
				t.Errorf("ParseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.text, name, args, ok, tt.wantName, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestClosestCommand(t *testing.T) {
	t.Parallel()

	names := []string{"authenticate", "clear", "echo", "hello", "help", "ping", "schedule"}
	tests := []struct {
		word   string
		want   string
		wantOK bool
	}{
		{"pnig", "ping", true},
		{"helo", "hello", true},
		{"schedul", "schedule", true},
		{"xyz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			got, ok := closestCommand(tt.word, names)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("closestCommand(%q) = (%q, %v), want (%q, %v)", tt.word, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	t.Run("ties go to the greatest name", func(t *testing.T) {
		t.Parallel()
		got, ok := closestCommand("abcz", []string{"abcy", "abcx"})
		if !ok || got != "abcy" {
			t.Errorf("closestCommand() = (%q, %v), want abcy", got, ok)
		}
	})

	t.Run("empty registry", func(t *testing.T) {
		t.Parallel()
		if _, ok := closestCommand("ping", nil); ok {
			t.Error("no suggestion expected without commands")
		}
	})
}

func TestDispatchSimpleCommands(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		text string
		want string
	}{
		{"/ping", "Pong!"},
		{"/Ping", "Pong!"},
		{"/hello", "Hi, Alice!"},
		{"/echo", "(nothing to echo)"},
		{"/echo a  b\tc", "a  b\tc"},
		{"/authenticate", "Click here to authenticate: https://oauth.groupme.com/oauth/authorize?client_id=abc&redirect_uri=https%3A%2F%2Fexample.com%2Fcb"},
		{"/pnig", "Unknown command '/pnig'. Did you mean '/ping'?"},
		{"/frobnicate", "Unknown command '/frobnicate'. Type '/help' to see available commands."},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := env.dispatch(t, tt.text); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}

	if _, ok := env.dispatcher.Dispatch(context.Background(), "Alice", "just chatting"); ok {
		t.Error("plain text should not be a command")
	}
}

func TestHelp(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch(t, "/help")
	lines := strings.Split(reply, "\n")
	if lines[0] != "Available commands:" {
		t.Fatalf("first line = %q", lines[0])
	}

	wantOrder := []string{"authenticate", "clear", "echo", "hello", "help", "ping", "schedule"}
	if len(lines) != len(wantOrder)+1 {
		t.Fatalf("got %d command lines, want %d:\n%s", len(lines)-1, len(wantOrder), reply)
	}
	for i, name := range wantOrder {
		if !strings.HasPrefix(lines[i+1], "/"+name+" - ") {
			t.Errorf("line %d = %q, want /%s", i+1, lines[i+1], name)
		}
	}
	if lines[6] != "/ping - Responds with 'Pong!'." {
		t.Errorf("ping line = %q", lines[6])
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		env := newTestEnv(t)
		if got := env.dispatch(t, "/clear"); got != NoTokenMsg {
			t.Errorf("reply = %q", got)
		}
		if n := len(env.relay.Deleted()); n != 0 {
			t.Errorf("made %d delete calls, want 0", n)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.store.SaveToken(ctx, "tok"); err != nil {
			t.Fatal(err)
		}
		for i, id := range []string{"m1", "m2", "m3", "m4"} {
			msg := &database.Message{ID: id, CreatedAt: int64(i), GroupID: "g1", SenderID: "s"}
			if err := env.store.SaveMessage(ctx, msg); err != nil {
				t.Fatal(err)
			}
		}
		env.relay.failIDs["m2"] = true
		env.relay.failIDs["m4"] = true

		if got := env.dispatch(t, "/clear"); got != "Cleared 2 recent bot messages." {
			t.Errorf("reply = %q", got)
		}
		if n := len(env.relay.Deleted()); n != 4 {
			t.Errorf("made %d delete calls, want 4", n)
		}
		remaining, err := env.store.GetAllMessages(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(remaining) != 0 {
			t.Errorf("%d messages left in the log", len(remaining))
		}
	})

	t.Run("token and empty log", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.store.SaveToken(ctx, "tok"); err != nil {
			t.Fatal(err)
		}
		if got := env.dispatch(t, "/clear"); got != "Cleared 0 recent bot messages." {
			t.Errorf("reply = %q", got)
		}
	})
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("show without link", func(t *testing.T) {
		if got := env.dispatch(t, "/schedule show"); got != database.MsgNoSheet {
			t.Errorf("reply = %q", got)
		}
		if got := env.dispatch(t, "/schedule"); got != database.MsgNoSheet {
			t.Errorf("default subcommand reply = %q", got)
		}
	})

	t.Run("set round trips trimmed", func(t *testing.T) {
		if got := env.dispatch(t, "/schedule set *  *  *  *  *  "); got != "Updated posting schedule to: *  *  *  *  *" {
			t.Errorf("reply = %q", got)
		}
		stored, err := env.store.GetSchedule(ctx)
		if err != nil || stored != "*  *  *  *  *" {
			t.Errorf("stored schedule = %q, %v", stored, err)
		}
	})

	t.Run("empty arguments", func(t *testing.T) {
		if got := env.dispatch(t, "/schedule set"); got != "Please provide a cron expression (e.g., '* * * * *')." {
			t.Errorf("set reply = %q", got)
		}
		if got := env.dispatch(t, "/schedule link   "); got != "Please provide the Google Sheet URL." {
			t.Errorf("link reply = %q", got)
		}
	})

	t.Run("unknown subcommand", func(t *testing.T) {
		if got := env.dispatch(t, "/schedule delete"); got != ScheduleUsage {
			t.Errorf("reply = %q", got)
		}
	})

	t.Run("link then show", func(t *testing.T) {
		link := "https://docs.google.com/spreadsheets/d/abc/edit"
		if got := env.dispatch(t, "/schedule LINK "+link); got != "Updated sheet link to: "+link {
			t.Errorf("reply = %q", got)
		}

		reply := env.dispatch(t, "/schedule show")
		if !strings.HasPrefix(reply, "Upcoming Events:\n\nWed Jun 03 2026") {
			t.Errorf("show reply = %q", reply)
		}
		if n := strings.Count(reply, "Leader: "); n != 3 {
			t.Errorf("default show listed %d events, want 3", n)
		}

		if n := strings.Count(env.dispatch(t, "/schedule show 1"), "Leader: "); n != 1 {
			t.Errorf("show 1 listed %d events", n)
		}
		if n := strings.Count(env.dispatch(t, "/schedule show two"), "Leader: "); n != 3 {
			t.Errorf("non-digit count listed %d events, want default 3", n)
		}
		if got := env.dispatch(t, "/schedule show 0"); got != sheet.NoUpcomingEvents {
			t.Errorf("show 0 = %q", got)
		}
	})
}

type failingLister struct{ err error }

func (f failingLister) FormattedUpcoming(context.Context, int) (string, error) {
	return "", f.err
}

func TestDispatchHandlerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not configured", errs.NewNotConfigured("link a sheet first"), "link a sheet first"},
		{"upstream", errs.NewUpstreamCallFailed("sheets down", errors.New("503")), ErrorReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDispatcher(RegisterAllCommands(HandlerDeps{Events: failingLister{tt.err}}), nil)
			got, ok := d.Dispatch(context.Background(), "Bob", "/schedule show")
			if !ok || got != tt.want {
				t.Errorf("Dispatch() = (%q, %v), want %q", got, ok, tt.want)
			}
		})
	}
}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	mw := func(tag string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req Request) (string, error) {
				calls = append(calls, tag)
				return next(ctx, req)
			}
		}
	}
	h := chain(func(context.Context, Request) (string, error) {
		calls = append(calls, "handler")
		return "", nil
	}, []Middleware{mw("outer"), mw("inner")})

	if _, err := h(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	if strings.Join(calls, ",") != "outer,inner,handler" {
		t.Errorf("calls = %v", calls)
	}
}
