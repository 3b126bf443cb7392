package groupme

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edgard/groupmebot/internal/config"
	errs "github.com/edgard/groupmebot/internal/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	status, reply := f.status, f.reply
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeAPI) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, api *fakeAPI) (Client, config.GroupMeConfig) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := config.GroupMeConfig{
		BotID:          "bot-123",
		BotName:        "Test Bot",
		ClientID:       "client-abc",
		ClientSecret:   "secret-xyz",
		RedirectURI:    "https://example.com/oauth/callback",
		APIURL:         srv.URL,
		OAuthURL:       "https://oauth.groupme.com",
		RequestTimeout: 5 * time.Second,
	}
	return NewClient(cfg, nil), cfg
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{status: http.StatusAccepted}
	client, _ := newTestClient(t, api)

	if err := client.PostMessage(context.Background(), "Pong!"); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	if len(api.Requests()) != 1 {
		t.Fatalf("got %d requests, want 1", len(api.Requests()))
	}
	req := api.Requests()[0]
	if req.Method != http.MethodPost || req.Path != "/v3/bots/post" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	var payload map[string]string
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["bot_id"] != "bot-123" || payload["text"] != "Pong!" {
		t.Errorf("payload = %v", payload)
	}
}

func TestDeleteMessage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	client, _ := newTestClient(t, api)

	if err := client.DeleteMessage(context.Background(), "g1", "m42", "tok"); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}

	req := api.Requests()[0]
	if req.Method != http.MethodDelete || req.Path != "/v3/conversations/g1/messages/m42" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if req.Query.Get("token") != "tok" {
		t.Errorf("token query = %q", req.Query.Get("token"))
	}
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{status: http.StatusCreated}
	client, _ := newTestClient(t, api)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	event := CalendarEvent{
		Name:        "06/01/2026 - Alice's Event",
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
		Timezone:    "America/New_York",
		Description: "Leader: Alice",
		IsAllDay:    true,
		Location:    Location{Name: "12 Oak St"},
	}
	if err := client.CreateEvent(context.Background(), "g1", "tok", event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	req := api.Requests()[0]
	if req.Path != "/v3/conversations/g1/events/create" {
		t.Errorf("path = %s", req.Path)
	}
	if req.Header.Get("X-Access-Token") != "tok" {
		t.Errorf("X-Access-Token = %q", req.Header.Get("X-Access-Token"))
	}

	var payload map[string]any
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["is_all_day"] != true || payload["timezone"] != "America/New_York" {
		t.Errorf("payload = %v", payload)
	}
	loc, _ := payload["location"].(map[string]any)
	if loc["name"] != "12 Oak St" {
		t.Errorf("location = %v", payload["location"])
	}
	if _, ok := loc["address"]; ok {
		t.Error("empty address should be omitted")
	}
}

func TestUpstreamFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{status: http.StatusUnauthorized, reply: `{"meta":{"code":401}}`}
	client, _ := newTestClient(t, api)

	err := client.DeleteMessage(context.Background(), "g1", "m1", "bad")
	if !errors.Is(err, errs.ErrUpstreamCallFailed) {
		t.Fatalf("error = %v, want UpstreamCallFailed", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q should mention the status", err)
	}
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()

	_, cfg := newTestClient(t, &fakeAPI{})
	raw := NewOAuth(cfg).AuthorizeURL()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	if u.Host != "oauth.groupme.com" || u.Path != "/oauth/authorize" {
		t.Errorf("URL = %s", raw)
	}
	if u.Query().Get("client_id") != "client-abc" {
		t.Errorf("client_id = %q", u.Query().Get("client_id"))
	}
	if u.Query().Get("redirect_uri") != "https://example.com/oauth/callback" {
		t.Errorf("redirect_uri = %q", u.Query().Get("redirect_uri"))
	}
}

func TestExchange(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{reply: `{"access_token":"tok-1","token_type":"bearer"}`}
		_, cfg := newTestClient(t, api)

		token, err := NewOAuth(cfg).Exchange(context.Background(), "code-9")
		if err != nil {
			t.Fatalf("Exchange failed: %v", err)
		}
		if token != "tok-1" {
			t.Errorf("token = %q", token)
		}

		req := api.Requests()[0]
		if req.Path != "/oauth/access_token" {
			t.Errorf("path = %s", req.Path)
		}
		form, _ := url.ParseQuery(string(req.Body))
		if form.Get("code") != "code-9" || form.Get("client_id") != "client-abc" || form.Get("client_secret") != "secret-xyz" {
			t.Errorf("form = %v", form)
		}
		if form.Get("redirect_uri") != "https://example.com/oauth/callback" {
			t.Errorf("redirect_uri = %q", form.Get("redirect_uri"))
		}
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{status: http.StatusBadRequest, reply: `{"error":"invalid_grant"}`}
		_, cfg := newTestClient(t, api)

		_, err := NewOAuth(cfg).Exchange(context.Background(), "bad")
		if !errors.Is(err, errs.ErrUpstreamCallFailed) {
			t.Fatalf("error = %v, want UpstreamCallFailed", err)
		}
		if !strings.Contains(err.Error(), "invalid_grant") {
			t.Errorf("error %q should carry the response body", err)
		}
	})
}
