// Package commands provides CLI commands for readalong.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/readalong/internal/models"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd creates the readalong command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	flags := &globalFlags{}
	var (
		outputFlag string
		fileFlag   string
		rawFlag    bool
		copyFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "readalong [story]",
		Short: "Reading companion that asks children questions about a story",
		Long: `readalong sends a passage of a children's story to a hosted assistant that
answers with five questions for a young reader: recall, feelings, a new word,
a prediction and a connection to the child's own life.

The assistant runs on Azure OpenAI. Set AZURE_OAI_KEY and AZURE_OAI_ENDPOINT
in the environment or in a .env file.

Examples:
  readalong chat                          Start an interactive reading chat
  readalong serve                         Open the chat in a browser
  readalong "Once upon a time..."         Ask about a single passage
  readalong -f chapter1.txt               Read the passage from a file
  cat chapter1.txt | readalong            Read the passage from stdin
  readalong -f page.txt -o questions.md   Save the questions to a file`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "readalong %s (built %s)\n", Version, BuildTime)
				return nil
			}

			story, ok, err := readStory(deps, fileFlag, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}

			s, err := loadSettings(flags, deps)
			if err != nil {
				return err
			}

			return runQuery(cmd.Context(), deps, s, story, queryOptions{
				raw:    rawFlag,
				output: outputFlag,
				copy:   copyFlag,
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.model, "model", "m", "",
		fmt.Sprintf("Model deployment to use (default %s)", models.DefaultModel))
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Log requests and run status changes")
	cmd.PersistentFlags().DurationVar(&flags.pollTimeout, "poll-timeout", 0,
		fmt.Sprintf("Give up waiting for the assistant after this long (default %s)", models.DefaultPollTimeout))
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Load secrets from this dotenv file instead of .env")

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the reply to a file")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the story from a file")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the reply text")
	cmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the reply to the clipboard")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(deps, flags))
	cmd.AddCommand(newServeCmd(deps, flags))
	cmd.AddCommand(newConfigCmd(deps, flags))

	return cmd
}

// readStory picks the story text from -f, the positional argument or stdin,
// in that order. ok is false when no input was given at all.
func readStory(deps *Dependencies, file string, args []string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if hasPipedInput(deps.Stdin) {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	return "", false, nil
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
