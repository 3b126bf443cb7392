package handlers

import (
	"context"
	"fmt"
)

// NoTokenMsg is the /clear reply when no admin has authenticated yet.
const NoTokenMsg = "No access token found. Please authenticate with /authenticate."

// NewClearHandler returns a handler for the /clear command.
func NewClearHandler(deps HandlerDeps) HandlerFunc {
	return clearHandler{deps}.Handle
}

type clearHandler struct {
	deps HandlerDeps
}

// Handle deletes every logged message through the platform and then empties
// the log. Individual delete failures only lower the reported count.
func (h clearHandler) Handle(ctx context.Context, _ Request) (string, error) {
	log := h.deps.Logger.With("handler", "clear")

	token, err := h.deps.Store.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" {
		return NoTokenMsg, nil
	}

	messages, err := h.deps.Store.GetAllMessages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read message log: %w", err)
	}

	deleted := 0
	for _, msg := range messages {
		if err := h.deps.Relay.DeleteMessage(ctx, msg.GroupID, msg.ID, token); err != nil {
			log.WarnContext(ctx, "Failed to delete message", "message_id", msg.ID, "group_id", msg.GroupID, "error", err)
			continue
		}
		deleted++
	}

	if err := h.deps.Store.ClearMessages(ctx); err != nil {
		return "", fmt.Errorf("failed to clear message log: %w", err)
	}

	log.InfoContext(ctx, "Cleared message log", "logged", len(messages), "deleted", deleted)
	return fmt.Sprintf("Cleared %d recent bot messages.", deleted), nil
}
