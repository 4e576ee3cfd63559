// Package api talks to the hosted Assistants service (Azure OpenAI).
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/diogo/readalong/internal/config"
	"github.com/diogo/readalong/internal/models"
)

// AssistantName is the display name given to assistants created by readalong
const AssistantName = "readalong story questions"

// AssistantClientInterface is the set of service operations a chat session needs
type AssistantClientInterface interface {
	Init(ctx context.Context) error
	Close(ctx context.Context) error
	AssistantID() string
	GetModel() models.Model

	CreateAssistant(ctx context.Context) (string, error)
	DeleteAssistant(ctx context.Context) error
	CreateThread(ctx context.Context) (string, error)
	DeleteThread(ctx context.Context, threadID string) error
	PostUserMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID string) (*models.Run, error)
	PollRun(ctx context.Context, run *models.Run) (*models.Run, error)
	CancelRun(ctx context.Context, run *models.Run) error
	FetchLatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error)
}

// AssistantClient is the Assistants API client backed by openai-go
type AssistantClient struct {
	sdk openai.Client

	creds          config.Credentials
	apiVersion     string
	model          models.Model
	instructions   string
	maxRetries     int
	requestTimeout time.Duration
	httpClient     *http.Client

	assistantID   string
	ownsAssistant bool

	mu     sync.RWMutex
	closed bool
}

// ClientOption is a function that configures the client
type ClientOption func(*AssistantClient)

// WithModel sets the model (deployment) the assistant is created with
func WithModel(model models.Model) ClientOption {
	return func(c *AssistantClient) {
		c.model = model
	}
}

// WithInstructions sets the instruction text of the assistant definition
func WithInstructions(instructions string) ClientOption {
	return func(c *AssistantClient) {
		c.instructions = instructions
	}
}

// WithAssistantID reuses an existing assistant instead of creating one
func WithAssistantID(id string) ClientOption {
	return func(c *AssistantClient) {
		c.assistantID = id
	}
}

// WithAPIVersion overrides the api-version query parameter
func WithAPIVersion(version string) ClientOption {
	return func(c *AssistantClient) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithMaxRetries sets how often the SDK retries transient failures
func WithMaxRetries(n int) ClientOption {
	return func(c *AssistantClient) {
		c.maxRetries = n
	}
}

// WithRequestTimeout sets the timeout of each individual request
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *AssistantClient) {
		c.requestTimeout = d
	}
}

// WithHTTPClient replaces the default tls-client backed HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AssistantClient) {
		c.httpClient = client
	}
}

// NewClient creates a new AssistantClient. No request is made until Init.
func NewClient(creds config.Credentials, opts ...ClientOption) (*AssistantClient, error) {
	if err := config.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	client := &AssistantClient{
		creds:          creds,
		apiVersion:     models.DefaultAPIVersion,
		model:          models.ModelGPT4oMini,
		instructions:   config.DefaultInstructions(),
		maxRetries:     2,
		requestTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		transport, err := NewTLSTransport(client.requestTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = &http.Client{Transport: NewInspectingTransport(transport)}
	}

	client.sdk = openai.NewClient(
		azure.WithEndpoint(creds.Endpoint, client.apiVersion),
		azure.WithAPIKey(creds.APIKey),
		option.WithHTTPClient(client.httpClient),
		option.WithMaxRetries(client.maxRetries),
		option.WithRequestTimeout(client.requestTimeout),
	)

	return client, nil
}

// Init makes sure an assistant definition exists, creating one when no id
// was configured.
func (c *AssistantClient) Init(ctx context.Context) error {
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}
	if c.AssistantID() != "" {
		return nil
	}
	_, err := c.CreateAssistant(ctx)
	return err
}

// Close deletes the assistant if this client created it
func (c *AssistantClient) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	owns := c.ownsAssistant
	c.mu.Unlock()

	if !owns {
		return nil
	}
	return c.DeleteAssistant(ctx)
}

// IsClosed returns whether the client is closed
func (c *AssistantClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// AssistantID returns the id of the assistant runs are started against
func (c *AssistantClient) AssistantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assistantID
}

// GetModel returns the assistant model
func (c *AssistantClient) GetModel() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Endpoint returns the configured service endpoint
func (c *AssistantClient) Endpoint() string {
	return c.creds.Endpoint
}

// CreateAssistant creates the assistant definition from the model and the
// instruction text and remembers its id.
func (c *AssistantClient) CreateAssistant(ctx context.Context) (string, error) {
	model := c.GetModel()

	assistant, err := c.sdk.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        openai.ChatModel(model.Name),
		Name:         openai.String(AssistantName),
		Instructions: openai.String(c.instructions),
	})
	if err != nil {
		return "", classifyError(err, "create assistant", "assistants")
	}

	c.mu.Lock()
	c.assistantID = assistant.ID
	c.ownsAssistant = true
	c.mu.Unlock()

	slog.DebugContext(ctx, "assistant created", "assistant_id", assistant.ID, "model", model.Name)
	return assistant.ID, nil
}

// DeleteAssistant deletes the current assistant definition
func (c *AssistantClient) DeleteAssistant(ctx context.Context) error {
	id := c.AssistantID()
	if id == "" {
		return nil
	}

	if _, err := c.sdk.Beta.Assistants.Delete(ctx, id); err != nil {
		return classifyError(err, "delete assistant", "assistants/"+id)
	}

	c.mu.Lock()
	c.assistantID = ""
	c.ownsAssistant = false
	c.mu.Unlock()

	slog.DebugContext(ctx, "assistant deleted", "assistant_id", id)
	return nil
}
