package commands

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/diogo/readalong/internal/api"
	"github.com/diogo/readalong/internal/config"
	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/tui"
)

// testDeps wires the commands to a mock client and in-memory streams
type testDeps struct {
	*Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	mock   *api.MockAssistantClient

	mu      sync.Mutex
	copied  []string
	chatRan bool
}

func newTestDeps(mock *api.MockAssistantClient, terminal bool) *testDeps {
	td := &testDeps{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		mock:   mock,
	}
	td.Dependencies = &Dependencies{
		NewClient: func(Settings) (api.AssistantClientInterface, error) {
			return mock, nil
		},
		RunChat: func(ctx context.Context, session tui.ChatSession, modelName string, opts ...tui.Option) error {
			td.mu.Lock()
			td.chatRan = true
			td.mu.Unlock()
			return nil
		},
		Stdin:         strings.NewReader(""),
		Stdout:        td.stdout,
		Stderr:        td.stderr,
		IsTerminal:    func() bool { return terminal },
		TerminalWidth: func() int { return 80 },
		CopyText: func(text string) error {
			td.mu.Lock()
			defer td.mu.Unlock()
			td.copied = append(td.copied, text)
			return nil
		},
	}
	return td
}

func completingMock(reply string) *api.MockAssistantClient {
	return &api.MockAssistantClient{
		InitialStatus: models.RunStatusCompleted,
		Reply:         reply,
	}
}

func testSettings() Settings {
	cfg := config.DefaultConfig()
	cfg.Markdown.Style = "notty"
	return Settings{
		Config: cfg,
		Credentials: config.Credentials{
			APIKey:   "test-key-1234",
			Endpoint: "https://example.openai.azure.com/",
		},
		Instructions: config.DefaultInstructions(),
	}
}
