package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
)

// CreateThread opens a new conversation thread and returns its id
func (c *AssistantClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.sdk.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", classifyError(err, "create thread", "threads")
	}

	slog.DebugContext(logging.WithFields(ctx, logging.Fields{ThreadID: thread.ID}), "thread created")
	return thread.ID, nil
}

// DeleteThread removes a thread and its messages from the service
func (c *AssistantClient) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := c.sdk.Beta.Threads.Delete(ctx, threadID); err != nil {
		return classifyError(err, "delete thread", "threads/"+threadID)
	}
	return nil
}

// PostUserMessage appends a user message to the thread
func (c *AssistantClient) PostUserMessage(ctx context.Context, threadID, text string) error {
	_, err := c.sdk.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return classifyError(err, "post message", "threads/"+threadID+"/messages")
	}
	return nil
}

// FetchLatestAssistantMessage returns the newest message of the thread.
// The text parts of the message are joined with blank lines.
func (c *AssistantClient) FetchLatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error) {
	endpoint := "threads/" + threadID + "/messages"

	page, err := c.sdk.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(1),
	})
	if err != nil {
		return models.Message{}, classifyError(err, "list messages", endpoint)
	}

	if len(page.Data) == 0 {
		return models.Message{}, apierrors.NewParseError("thread has no messages", endpoint)
	}

	latest := page.Data[0]
	if string(latest.Role) != string(models.RoleAssistant) {
		return models.Message{}, apierrors.NewParseError(
			fmt.Sprintf("latest message is from %q, not the assistant", latest.Role), endpoint)
	}

	var parts []string
	for _, content := range latest.Content {
		if content.Type == "text" && content.Text.Value != "" {
			parts = append(parts, content.Text.Value)
		}
	}
	if len(parts) == 0 {
		return models.Message{}, apierrors.NewParseError("assistant message has no text content", endpoint)
	}

	return models.AssistantMessage(strings.Join(parts, "\n\n")), nil
}
