package handlers

import (
	"context"
	"sort"
	"strings"
)

// NewHelpHandler returns a handler for the /help command. It lists every
// command in commands, including those added after this call.
func NewHelpHandler(commands map[string]RegisteredHandler) HandlerFunc {
	return func(_ context.Context, _ Request) (string, error) {
		return helpText(commands), nil
	}
}

func helpText(commands map[string]RegisteredHandler) string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	lines = append(lines, "Available commands:")
	for _, name := range names {
		desc := commands[name].Description
		if desc == "" {
			desc = "(no description)"
		}
		lines = append(lines, "/"+name+" - "+desc)
	}
	return strings.Join(lines, "\n")
}
