package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Hint is an error message with optional suggestions and follow-up commands
type Hint struct {
	Problem     string
	Suggestions []string
	Commands    []string
}

// FormatError renders a hint the way the CLI reports failures:
//
//	✗ unknown entity: Emplyee
//	  Did you mean: Employee?
//	  → cascade validate
func FormatError(h Hint) string {
	var b strings.Builder

	header := color.New(color.FgRed, color.Bold)
	header.Fprintf(&b, "✗ %s\n", h.Problem)

	if len(h.Suggestions) > 0 {
		fmt.Fprintf(&b, "  Did you mean: %s?\n", strings.Join(h.Suggestions, ", "))
	}
	for _, cmd := range h.Commands {
		fmt.Fprintf(&b, "  → %s\n", cmd)
	}
	return b.String()
}
