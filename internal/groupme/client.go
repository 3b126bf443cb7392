// Package groupme implements the outbound calls the bot makes to the GroupMe
// API: bot posts, message deletion, calendar event creation and the OAuth
// token exchange.
package groupme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edgard/groupmebot/internal/config"
	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/logger"
	"github.com/edgard/groupmebot/internal/metrics"
)

// Client defines the messaging platform operations used throughout the application.
type Client interface {
	// PostMessage posts text to the group as the bot.
	PostMessage(ctx context.Context, text string) error
	// DeleteMessage deletes one message from a group using an admin token.
	DeleteMessage(ctx context.Context, groupID, messageID, token string) error
	// CreateEvent creates a calendar event in a group using an admin token.
	CreateEvent(ctx context.Context, groupID, token string, event CalendarEvent) error
}

// Location is the place attached to a calendar event.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// CalendarEvent is the payload of the events/create call.
type CalendarEvent struct {
	Name        string    `json:"name"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Timezone    string    `json:"timezone"`
	Description string    `json:"description"`
	IsAllDay    bool      `json:"is_all_day"`
	Location    Location  `json:"location"`
}

type botPost struct {
	BotID string `json:"bot_id"`
	Text  string `json:"text"`
}

type httpClient struct {
	http    *http.Client
	baseURL string
	botID   string
	log     *slog.Logger
}

// NewClient creates a Client for the configured API base URL and bot id.
func NewClient(cfg config.GroupMeConfig, log *slog.Logger) Client {
	if log == nil {
		log = logger.Discard()
	}
	return &httpClient{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		botID:   cfg.BotID,
		log:     log.With("component", "groupme"),
	}
}

func (c *httpClient) PostMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(botPost{BotID: c.botID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode bot post: %w", err)
	}

	err = c.do(ctx, "post_message", http.MethodPost, c.baseURL+"/v3/bots/post", body, nil)
	if err != nil {
		return err
	}

	c.log.DebugContext(ctx, "Posted bot message", "text_preview", logger.TruncateString(text, 50))
	return nil
}

func (c *httpClient) DeleteMessage(ctx context.Context, groupID, messageID, token string) error {
	endpoint := fmt.Sprintf("%s/v3/conversations/%s/messages/%s?token=%s",
		c.baseURL, url.PathEscape(groupID), url.PathEscape(messageID), url.QueryEscape(token))

	return c.do(ctx, "delete_message", http.MethodDelete, endpoint, nil, nil)
}

func (c *httpClient) CreateEvent(ctx context.Context, groupID, token string, event CalendarEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode calendar event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/events/create", c.baseURL, url.PathEscape(groupID))
	headers := map[string]string{"X-Access-Token": token}

	if err := c.do(ctx, "create_event", http.MethodPost, endpoint, body, headers); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "Calendar event created", "group_id", groupID, "name", event.Name)
	return nil
}

// do sends one request and turns transport errors and non-2xx responses
// into UpstreamCallFailed errors.
func (c *httpClient) do(ctx context.Context, op, method, endpoint string, body []byte, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RelayCalls.WithLabelValues(op, metrics.OutcomeFailure).Inc()
		c.log.ErrorContext(ctx, "GroupMe request failed", "operation", op, "error", err)
		return errs.NewUpstreamCallFailed(op+" request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.RelayCalls.WithLabelValues(op, metrics.OutcomeFailure).Inc()
		c.log.WarnContext(ctx, "GroupMe returned non-success status",
			"operation", op, "status", resp.StatusCode, "body", logger.TruncateString(string(respBody), 200))
		return errs.NewUpstreamCallFailed(
			fmt.Sprintf("%s returned %d", op, resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(respBody))))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	metrics.RelayCalls.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
	return nil
}
