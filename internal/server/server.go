// Package server exposes the bot's HTTP surface: the chat webhook, the OAuth
// callback, a health check and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/groupmebot/internal/config"
	"github.com/edgard/groupmebot/internal/database"
	"github.com/edgard/groupmebot/internal/groupme"
	"github.com/edgard/groupmebot/internal/logger"
	"github.com/edgard/groupmebot/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Dispatcher turns chat text into a command reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, sender, text string) (string, bool)
}

// TokenExchanger trades an OAuth authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Relay      groupme.Client
	Dispatcher Dispatcher
	OAuth      TokenExchanger
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
	log  *slog.Logger
}

// New creates a Server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	return &Server{deps: deps, log: deps.Logger.With("component", "http")}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthcheck", s.handleOK)
	mux.HandleFunc("GET /{$}", s.handleOK)
	mux.HandleFunc("POST /{$}", s.handleOK)
	mux.HandleFunc("POST /new_event", s.handleNewEvent)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
	mux.Handle("GET /metrics", promhttp.Handler())
	return logger.Middleware(s.log)(mux)
}

// NewHTTPServer builds the http.Server for the configured address.
func (s *Server) NewHTTPServer() *http.Server {
	cfg := s.deps.Config.Server
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func (s *Server) handleOK(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// inboundEvent is the webhook payload for one chat message.
type inboundEvent struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	GroupID   string `json:"group_id"`
	SenderID  string `json:"sender_id"`
}

// handleNewEvent always acknowledges with 200 ok; failures are logged.
func (s *Server) handleNewEvent(w http.ResponseWriter, r *http.Request) {
	defer writeText(w, http.StatusOK, "ok")

	ctx := r.Context()
	var ev inboundEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		s.log.WarnContext(ctx, "Ignoring malformed webhook payload", "error", err)
		return
	}

	s.processEvent(ctx, ev)
}

func (s *Server) processEvent(ctx context.Context, ev inboundEvent) {
	botName := s.deps.Config.GroupMe.BotName
	fromBot := ev.Name == botName

	if ev.GroupID != "" {
		if err := s.deps.Store.SaveGroupID(ctx, ev.GroupID); err != nil {
			s.log.ErrorContext(ctx, "Failed to save group id", "group_id", ev.GroupID, "error", err)
		}
	}

	if ev.Text != "" && (fromBot || strings.HasPrefix(ev.Text, "/")) {
		msg := &database.Message{
			ID:        ev.ID,
			CreatedAt: ev.CreatedAt,
			GroupID:   ev.GroupID,
			SenderID:  ev.SenderID,
		}
		if err := s.deps.Store.SaveMessage(ctx, msg); err != nil {
			s.log.ErrorContext(ctx, "Failed to log message", "message_id", ev.ID, "error", err)
		}
	}

	switch {
	case fromBot:
		metrics.WebhookEvents.WithLabelValues("bot").Inc()
		return
	case ev.Text == "":
		metrics.WebhookEvents.WithLabelValues("empty").Inc()
		return
	}

	reply, isCommand := s.deps.Dispatcher.Dispatch(ctx, ev.Name, ev.Text)
	if !isCommand {
		metrics.WebhookEvents.WithLabelValues("chat").Inc()
		return
	}
	metrics.WebhookEvents.WithLabelValues("command").Inc()
	s.log.DebugContext(ctx, "Command dispatched", "sender", ev.Name, "text", logger.TruncateString(ev.Text, 64))

	if reply == "" {
		return
	}
	if err := s.deps.Relay.PostMessage(ctx, reply); err != nil {
		s.log.ErrorContext(ctx, "Failed to relay reply", "sender", ev.Name, "error", err)
	}
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	token := query.Get("access_token")
	if token == "" {
		code := query.Get("code")
		if code == "" {
			writeText(w, http.StatusBadRequest, "Missing code parameter")
			return
		}

		var err error
		token, err = s.deps.OAuth.Exchange(ctx, code)
		if err != nil {
			s.log.ErrorContext(ctx, "OAuth code exchange failed", "error", err)
			writeText(w, http.StatusInternalServerError, "Error during token exchange: "+err.Error())
			return
		}
	}

	if err := s.deps.Store.SaveToken(ctx, token); err != nil {
		s.log.ErrorContext(ctx, "Failed to save access token", "error", err)
		writeText(w, http.StatusInternalServerError, "Failed to save access token.")
		return
	}

	s.log.InfoContext(ctx, "Access token saved")
	writeText(w, http.StatusOK, "Authentication complete. Token saved.")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
