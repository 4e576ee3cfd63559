package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diogo/readalong/internal/api"
	"github.com/diogo/readalong/internal/config"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/poller"
	"github.com/diogo/readalong/internal/session"
)

// cleanupTimeout bounds teardown calls made after the command finished
const cleanupTimeout = 10 * time.Second

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	model       string
	verbose     bool
	pollTimeout time.Duration
	envFile     string
}

// Settings is everything a command needs to talk to the service
type Settings struct {
	Config       config.Config
	Credentials  config.Credentials
	Instructions string
}

// ModelName returns the deployment the assistant runs on
func (s Settings) ModelName() string {
	return models.ModelFromName(s.Config.DefaultModel).Name
}

// applyFlags lets command-line flags override the settings file
func (f *globalFlags) applyFlags(cfg *config.Config) {
	if f.model != "" {
		cfg.DefaultModel = f.model
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.pollTimeout > 0 {
		cfg.PollTimeoutSeconds = int((f.pollTimeout + time.Second - 1) / time.Second)
	}
}

// loadSettings reads the settings file, applies flags, loads the secrets and
// the instruction text, and sets up logging on deps.Stderr.
func loadSettings(f *globalFlags, deps *Dependencies) (Settings, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return Settings{}, err
	}
	f.applyFlags(&cfg)

	logging.Setup(cfg.Verbose, deps.Stderr)

	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	creds, err := config.LoadCredentials(envFiles...)
	if err != nil {
		return Settings{}, err
	}

	instructions, err := config.LoadInstructions(cfg)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Config:       cfg,
		Credentials:  creds,
		Instructions: instructions,
	}, nil
}

// newAssistantClient is the production ClientFactory
func newAssistantClient(s Settings) (api.AssistantClientInterface, error) {
	client, err := api.NewClient(s.Credentials,
		api.WithModel(models.ModelFromName(s.Config.DefaultModel)),
		api.WithInstructions(s.Instructions),
		api.WithAssistantID(s.Config.AssistantID),
		api.WithAPIVersion(s.Config.APIVersion),
		api.WithMaxRetries(s.Config.MaxRetries),
		api.WithRequestTimeout(s.Config.RequestTimeout()),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newSession opens a chat session with the configured polling behavior
func newSession(client api.AssistantClientInterface, cfg config.Config) *session.Session {
	p := poller.New(
		poller.WithInterval(cfg.PollInterval()),
		poller.WithTimeout(cfg.PollTimeout()),
	)
	return session.New(client,
		session.WithPoller(p),
		session.WithDeleteThreadOnExit(cfg.DeleteThreadOnExit),
	)
}

// openClient creates and initializes the assistant client
func openClient(ctx context.Context, deps *Dependencies, s Settings) (api.AssistantClientInterface, error) {
	client, err := deps.NewClient(s)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Init(ctx); err != nil {
		closeClient(ctx, client)
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	slog.DebugContext(ctx, "assistant ready", "assistant_id", client.AssistantID(), "model", client.GetModel().Name)
	return client, nil
}

// closeClient tears the client down even when ctx is already cancelled
func closeClient(ctx context.Context, client api.AssistantClientInterface) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := client.Close(cleanupCtx); err != nil {
		slog.WarnContext(cleanupCtx, "failed to close client", "error", err)
	}
}

// closeSession ends the session even when ctx is already cancelled
func closeSession(ctx context.Context, sess *session.Session) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := sess.Close(cleanupCtx); err != nil {
		slog.WarnContext(logging.WithFields(cleanupCtx, logging.Fields{SessionID: sess.ID()}), "failed to close session", "error", err)
	}
}
