package handlers

import (
	"context"

	errs "github.com/edgard/groupmebot/internal/errors"
)

// NewAuthenticateHandler returns a handler for the /authenticate command.
func NewAuthenticateHandler(deps HandlerDeps) HandlerFunc {
	return authenticateHandler{deps}.Handle
}

type authenticateHandler struct {
	deps HandlerDeps
}

func (h authenticateHandler) Handle(_ context.Context, _ Request) (string, error) {
	if h.deps.OAuth == nil {
		return "", errs.NewNotConfigured("Authentication is not configured for this bot.")
	}
	return "Click here to authenticate: " + h.deps.OAuth.AuthorizeURL(), nil
}
