package errors_test

import (
	"errors"
	"fmt"
	"testing"

	errs "github.com/edgard/groupmebot/internal/errors"
)

func TestKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"not configured", errs.NewNotConfigured("no link"), errs.ErrNotConfigured, errs.CodeNotConfigured},
		{"upstream", errs.NewUpstreamCallFailed("post failed", cause), errs.ErrUpstreamCallFailed, errs.CodeUpstreamCallFailed},
		{"config", errs.NewConfigurationMissing("bot id empty", nil), errs.ErrConfigurationMissing, errs.CodeConfigurationMissing},
		{"mail", errs.NewMailDeliveryFailed(cause), errs.ErrMailDeliveryFailed, errs.CodeMailDeliveryFailed},
		{"wrapped", fmt.Errorf("outer: %w", errs.NewNotConfigured("x")), errs.ErrNotConfigured, errs.CodeNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			if got := errs.Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}

	if errors.Is(errs.NewNotConfigured("x"), errs.ErrMailDeliveryFailed) {
		t.Error("NotConfigured must not match MailDeliveryFailed")
	}
	if got := errs.Code(cause); got != errs.CodeUnknown {
		t.Errorf("Code(plain) = %q, want %q", got, errs.CodeUnknown)
	}
	if !errors.Is(errs.NewMailDeliveryFailed(cause), cause) {
		t.Error("mail error should unwrap to its cause")
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	msg, ok := errs.UserMessage(fmt.Errorf("show: %w", errs.NewNotConfigured("Please link a sheet")))
	if !ok || msg != "Please link a sheet" {
		t.Errorf("UserMessage() = %q, %v", msg, ok)
	}

	if _, ok := errs.UserMessage(errs.NewUpstreamCallFailed("boom", nil)); ok {
		t.Error("UserMessage() should ignore non NotConfigured errors")
	}
}
