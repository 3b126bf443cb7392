package handlers

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/logger"
	"github.com/edgard/groupmebot/internal/metrics"
)

// CommandPrefix marks a message as a command.
const CommandPrefix = "/"

// suggestionCutoff is the minimum similarity ratio for a "did you mean" reply.
const suggestionCutoff = 0.6

// ErrorReply is sent when a handler fails for a reason the user cannot fix.
const ErrorReply = "Sorry, something went wrong while running that command."

// Dispatcher routes slash commands to registered handlers.
type Dispatcher struct {
	commands map[string]HandlerFunc
	names    []string
	log      *slog.Logger
}

// NewDispatcher wraps every registered handler in its middleware.
func NewDispatcher(registered map[string]RegisteredHandler, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}

	d := &Dispatcher{
		commands: make(map[string]HandlerFunc, len(registered)),
		names:    make([]string, 0, len(registered)),
		log:      log.With("component", "dispatcher"),
	}
	for name, reg := range registered {
		d.commands[name] = chain(reg.Handler, reg.Middleware)
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)
	return d
}

// Dispatch returns the reply to text, and false when text is not a command.
// Handler errors never escape: NotConfigured errors become their message and
// anything else becomes ErrorReply.
func (d *Dispatcher) Dispatch(ctx context.Context, sender, text string) (string, bool) {
	name, args, ok := ParseCommand(text)
	if !ok {
		return "", false
	}

	handler, found := d.commands[name]
	if !found {
		metrics.CommandsDispatched.WithLabelValues("unknown").Inc()
		if best, ok := closestCommand(name, d.names); ok {
			return "Unknown command '/" + name + "'. Did you mean '/" + best + "'?", true
		}
		return "Unknown command '/" + name + "'. Type '/help' to see available commands.", true
	}

	metrics.CommandsDispatched.WithLabelValues(name).Inc()
	reply, err := handler(ctx, Request{Command: name, Sender: sender, Args: args})
	if err != nil {
		if msg, ok := errs.UserMessage(err); ok {
			return msg, true
		}
		d.log.ErrorContext(ctx, "Command handler failed", "command", name, "sender", sender, "error", err)
		return ErrorReply, true
	}
	return reply, true
}

// ParseCommand splits "/Name rest of text" into the lowercase name and the
// remainder. Whitespace inside the remainder is kept.
func ParseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, CommandPrefix) {
		return "", "", false
	}
	head, rest := splitFirst(text)
	return strings.ToLower(strings.TrimPrefix(head, CommandPrefix)), rest, true
}

// splitFirst returns the first whitespace-delimited word of s and the
// remainder with surrounding whitespace removed.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// closestCommand returns the name most similar to word when its ratio
// reaches the cutoff. Equal scores go to the greatest name.
func closestCommand(word string, names []string) (string, bool) {
	target := strings.Split(word, "")

	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, name := range names {
		score := difflib.NewMatcher(strings.Split(name, ""), target).Ratio()
		if score < suggestionCutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && name > best) {
			best, bestScore, found = name, score, true
		}
	}
	return best, found
}
