package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/render"
	"github.com/diogo/readalong/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#1dd1a1"),
}

// queryOptions are the one-shot output switches
type queryOptions struct {
	raw    bool
	output string
	copy   bool
}

// spinner handles the animated loading indicator. A nil spinner is silent.
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner writing to w
func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	if s == nil {
		return
	}
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	theme := render.GetTUITheme()
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(s.frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(theme.Text).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	if s == nil {
		return
	}
	s.stopOnce()
	<-s.done

	color := render.GetTUITheme().Assistant
	checkmark := lipgloss.NewStyle().Foreground(color).Bold(true).Render("✓")
	fmt.Fprintf(s.w, "%s %s\n", checkmark, lipgloss.NewStyle().Foreground(color).Render(message))
}

// stopWithError stops the spinner
func (s *spinner) stopWithError() {
	if s == nil {
		return
	}
	s.stopOnce()
	<-s.done
}

// runQuery sends one story passage and prints the assistant reply.
// Decoration (spinner, bubble, markdown) is used only when stdout is a
// terminal and raw output was not requested.
func runQuery(ctx context.Context, deps *Dependencies, s Settings, story string, opts queryOptions) error {
	story = strings.TrimSpace(story)
	if story == "" {
		return fmt.Errorf("story cannot be empty")
	}

	decorate := !opts.raw && deps.IsTerminal()
	progress := func(message string) *spinner {
		if !decorate {
			return nil
		}
		sp := newSpinner(deps.Stderr, message)
		sp.start()
		return sp
	}
	fail := func(sp *spinner, err error, what string) error {
		sp.stopWithError()
		if decorate {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, what))
		}
		return fmt.Errorf("%s: %w", strings.ToLower(what), err)
	}

	spin := progress("Preparing the reading companion")
	client, err := openClient(ctx, deps, s)
	if err != nil {
		return fail(spin, err, "Could not reach the assistant")
	}
	defer closeClient(ctx, client)
	spin.stopWithSuccess("Ready")

	sess := newSession(client, s.Config)
	defer closeSession(ctx, sess)

	spin = progress("Thinking of questions")
	start := time.Now()
	reply, err := sess.Submit(ctx, story)
	if err != nil {
		return fail(spin, err, "Turn failed")
	}
	spin.stopWithSuccess("Done")
	slog.DebugContext(logging.WithFields(ctx, logging.Fields{SessionID: sess.ID()}), "query finished",
		"duration_ms", time.Since(start).Milliseconds())

	text := reply.Content

	if s.Config.CopyToClipboard || opts.copy {
		copyReply(deps, text, decorate)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorate {
			fmt.Fprintln(deps.Stderr, successStyle().Render(fmt.Sprintf("✓ Reply saved to %s", opts.output)))
		}
		return nil
	}

	if opts.raw {
		fmt.Fprint(deps.Stdout, text)
		return nil
	}
	if !decorate {
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	printBubble(deps, s, text)
	return nil
}

// copyReply copies text to the clipboard; failures only warn
func copyReply(deps *Dependencies, text string, decorate bool) {
	if err := deps.CopyText(text); err != nil {
		if decorate {
			warn := lipgloss.NewStyle().Foreground(render.GetTUITheme().Warning)
			fmt.Fprintln(deps.Stderr, warn.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		}
		slog.Warn("failed to copy reply to clipboard", "error", err)
		return
	}
	if decorate {
		fmt.Fprintln(deps.Stderr, successStyle().Render("✓ Copied to clipboard"))
	}
}

// printBubble renders the reply as markdown inside the assistant bubble
func printBubble(deps *Dependencies, s Settings, text string) {
	theme := render.GetTUITheme()

	bubbleWidth := deps.TerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	label := lipgloss.NewStyle().Foreground(theme.Assistant).Bold(true).Render("✦ Read Along")
	fmt.Fprintln(deps.Stdout)
	fmt.Fprintln(deps.Stdout, label)

	rendered := render.MarkdownOrPlain(text, render.OptionsFromConfig(s.Config.Markdown, contentWidth))
	rendered = strings.TrimRight(rendered, "\n")

	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Assistant).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginBottom(1).
		Width(bubbleWidth).
		Render(rendered)
	fmt.Fprintln(deps.Stdout, bubble)
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Assistant)
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, prefix string) string {
	if err == nil {
		return ""
	}
	return tui.FormatError(fmt.Errorf("%s: %w", prefix, err))
}
