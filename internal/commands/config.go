package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/readalong/internal/config"
	"github.com/diogo/readalong/internal/render"
)

// newConfigCmd creates the config command
func newConfigCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective settings",
		Long: `Show the settings readalong runs with: the settings file merged with
command-line flags, and the service credentials with the key masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			flags.applyFlags(&cfg)

			var envFiles []string
			if flags.envFile != "" {
				envFiles = append(envFiles, flags.envFile)
			}
			creds, credErr := config.LoadCredentials(envFiles...)

			return printConfig(cmd.OutOrStdout(), cfg, creds, credErr)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}

func printConfig(w io.Writer, cfg config.Config, creds config.Credentials, credErr error) error {
	path, _ := config.GetConfigPath()

	assistant := cfg.AssistantID
	if assistant == "" {
		assistant = "(created for each run)"
	}
	instructions := cfg.InstructionsFile
	if instructions == "" {
		instructions = "(built-in)"
	}
	style := cfg.Markdown.Style
	if env := os.Getenv(render.StyleEnv); env != "" {
		style = env + " (" + render.StyleEnv + ")"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Settings file", path},
		{"Model", cfg.DefaultModel},
		{"Known models", strings.Join(config.AvailableModels(), ", ")},
		{"API version", cfg.APIVersion},
		{"Assistant", assistant},
		{"Instructions", instructions},
		{"Poll interval", cfg.PollInterval().String()},
		{"Poll timeout", cfg.PollTimeout().String()},
		{"Max retries", fmt.Sprint(cfg.MaxRetries)},
		{"Request timeout", cfg.RequestTimeout().String()},
		{"Delete thread on exit", fmt.Sprint(cfg.DeleteThreadOnExit)},
		{"Copy to clipboard", fmt.Sprint(cfg.CopyToClipboard)},
		{"Verbose", fmt.Sprint(cfg.Verbose)},
		{"TUI theme", cfg.TUITheme},
		{"Markdown style", style},
		{"Server address", cfg.ServerAddr},
	}
	if credErr != nil {
		rows = append(rows, [2]string{"Credentials", credErr.Error()})
	} else {
		rows = append(rows,
			[2]string{"Endpoint", creds.Endpoint},
			[2]string{"API key", creds.MaskedKey()},
		)
	}

	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}
