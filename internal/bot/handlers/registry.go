package handlers

import (
	"context"

	"github.com/edgard/groupmebot/internal/logger"
)

// Request is one parsed command invocation.
type Request struct {
	Command string
	Sender  string
	Args    string
}

// HandlerFunc answers a command with reply text.
type HandlerFunc func(ctx context.Context, req Request) (string, error)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// RegisteredHandler represents a command handler with its description and middleware.
// The description is what /help prints for the command.
type RegisteredHandler struct {
	Handler     HandlerFunc
	Description string
	Middleware  []Middleware
}

// RegisterAllCommands builds the command table, keyed by lowercase name.
// The table is not modified after it is returned.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}

	handlers := make(map[string]RegisteredHandler)
	logged := []Middleware{Logged(deps)}

	handlers["authenticate"] = RegisteredHandler{
		Handler:     NewAuthenticateHandler(deps),
		Description: "Provides an authentication link for the admin to authorize the bot.",
		Middleware:  logged,
	}
	handlers["clear"] = RegisteredHandler{
		Handler:     NewClearHandler(deps),
		Description: "Deletes recent bot messages from the chat. (Requires admin authentication with the /authenticate command)",
		Middleware:  logged,
	}
	handlers["echo"] = RegisteredHandler{
		Handler:     NewEchoHandler(deps),
		Description: "Repeats whatever text the user provides.",
	}
	handlers["hello"] = RegisteredHandler{
		Handler:     NewHelloHandler(deps),
		Description: "Responds with a greeting.",
	}
	handlers["ping"] = RegisteredHandler{
		Handler:     NewPingHandler(deps),
		Description: "Responds with 'Pong!'.",
	}
	handlers["schedule"] = RegisteredHandler{
		Handler:     NewScheduleHandler(deps),
		Description: "Manage or view the posting schedule. Subcommands: show [count], set <cron>, link <sheet url>.",
		Middleware:  logged,
	}
	handlers["help"] = RegisteredHandler{
		Handler:     NewHelpHandler(handlers),
		Description: "Prints this message",
	}

	return handlers
}
