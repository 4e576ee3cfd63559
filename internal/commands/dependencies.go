package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/readalong/internal/api"
	"github.com/diogo/readalong/internal/tui"
)

// ClientFactory builds the assistant client for the effective settings
type ClientFactory func(s Settings) (api.AssistantClientInterface, error)

// ChatRunner runs the interactive chat until the user quits
type ChatRunner func(ctx context.Context, session tui.ChatSession, modelName string, opts ...tui.Option) error

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient creates the assistant service client.
	NewClient ClientFactory

	// RunChat is the terminal chat surface.
	RunChat ChatRunner

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether stdout is a terminal
	IsTerminal func() bool

	// TerminalWidth returns the stdout width in columns
	TerminalWidth func() int

	// CopyText writes text to the system clipboard
	CopyText func(text string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:     newAssistantClient,
		RunChat:       tui.RunChat,
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		IsTerminal:    isStdoutTTY,
		TerminalWidth: getTerminalWidth,
		CopyText:      clipboard.WriteAll,
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// hasPipedInput reports whether r is a pipe or file rather than a terminal
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
