// Package handlers contains the chat command handlers, the command table
// and the dispatcher that routes slash commands to them.
package handlers

import (
	"context"
	"time"

	"github.com/edgard/groupmebot/internal/logger"
)

// Logged creates a middleware that logs each invocation with its sender,
// duration and outcome.
func Logged(deps HandlerDeps) Middleware {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("middleware", "Logged")

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (string, error) {
			start := time.Now()
			reply, err := next(ctx, req)
			if err != nil {
				log.WarnContext(ctx, "Command failed", "command", req.Command, "sender", req.Sender, "duration", time.Since(start), "error", err)
				return reply, err
			}
			log.InfoContext(ctx, "Command handled", "command", req.Command, "sender", req.Sender, "duration", time.Since(start))
			return reply, nil
		}
	}
}

// chain applies middleware so that the first element runs outermost.
func chain(h HandlerFunc, mws []Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
