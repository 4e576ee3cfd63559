package commands

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/diogo/readalong/internal/server"
	"github.com/diogo/readalong/internal/session"
)

func newServeCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reading chat in a browser",
		Long: `Serve a small chat page for the reading companion.

The server holds one conversation at a time and is meant for a single
reader on this machine. "New story" on the page starts a fresh thread.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(flags, deps)
			if err != nil {
				return err
			}
			addr := s.Config.ServerAddr
			if addrFlag != "" {
				addr = addrFlag
			}
			return runServe(cmd.Context(), deps, s, addr)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, 127.0.0.1:8501)")
	return cmd
}

func runServe(ctx context.Context, deps *Dependencies, s Settings, addr string) error {
	client, err := openClient(ctx, deps, s)
	if err != nil {
		return err
	}
	defer closeClient(ctx, client)

	if !s.Config.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(
		func() *session.Session { return newSession(client, s.Config) },
		server.WithModelName(client.GetModel().Name),
	)

	fmt.Fprintf(deps.Stderr, "Reading companion on http://%s (Ctrl+C to stop)\n", addr)
	return srv.Run(ctx, addr)
}
