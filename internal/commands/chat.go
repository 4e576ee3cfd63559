package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/diogo/readalong/internal/config"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/render"
	"github.com/diogo/readalong/internal/tui"
)

func newChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive reading chat",
		Long: `Start an interactive chat with the reading companion.

Paste a page of the story and press Enter; the assistant answers with five
questions to ask the child. The whole conversation shares one thread, so
later pages can build on earlier ones.

Press Esc while waiting to cancel a turn. Type /copy to copy the last reply,
/exit or press Ctrl+C to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(flags, deps)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), deps, s)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies, s Settings) error {
	// Logs go to a file while the alt screen is up
	if logPath, err := config.GetLogPath(); err == nil {
		if f, err := logging.SetupFile(s.Config.Verbose, logPath); err == nil {
			defer f.Close()
		}
	}

	if !render.SetTUITheme(s.Config.TUITheme) {
		slog.Warn("unknown tui theme, using default", "theme", s.Config.TUITheme)
	}
	tui.UpdateTheme()

	spin := newSpinner(deps.Stderr, "Preparing the reading companion")
	spin.start()
	client, err := openClient(ctx, deps, s)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Could not reach the assistant"))
		return err
	}
	defer closeClient(ctx, client)
	spin.stopWithSuccess("Ready")

	sess := newSession(client, s.Config)
	defer closeSession(ctx, sess)

	return deps.RunChat(ctx, sess, client.GetModel().Name,
		tui.WithMarkdown(render.OptionsFromConfig(s.Config.Markdown, 0)),
		tui.WithClipboard(deps.CopyText),
	)
}
