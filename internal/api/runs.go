package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
)

// StartRun asks the assistant to process the thread
func (c *AssistantClient) StartRun(ctx context.Context, threadID string) (*models.Run, error) {
	assistantID := c.AssistantID()
	if assistantID == "" {
		return nil, fmt.Errorf("no assistant: call Init first")
	}

	run, err := c.sdk.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, classifyError(err, "start run", "threads/"+threadID+"/runs")
	}

	ctx = logging.WithFields(ctx, logging.Fields{ThreadID: threadID, RunID: run.ID})
	slog.DebugContext(ctx, "run started", "status", run.Status)
	return toRun(run, threadID), nil
}

// PollRun fetches the current state of a run once
func (c *AssistantClient) PollRun(ctx context.Context, run *models.Run) (*models.Run, error) {
	latest, err := c.sdk.Beta.Threads.Runs.Get(ctx, run.ThreadID, run.ID)
	if err != nil {
		return nil, classifyError(err, "poll run", "threads/"+run.ThreadID+"/runs/"+run.ID)
	}
	return toRun(latest, run.ThreadID), nil
}

// CancelRun asks the service to stop a run that is still pending
func (c *AssistantClient) CancelRun(ctx context.Context, run *models.Run) error {
	if _, err := c.sdk.Beta.Threads.Runs.Cancel(ctx, run.ThreadID, run.ID); err != nil {
		return classifyError(err, "cancel run", "threads/"+run.ThreadID+"/runs/"+run.ID+"/cancel")
	}
	slog.DebugContext(logging.WithFields(ctx, logging.Fields{ThreadID: run.ThreadID, RunID: run.ID}), "run cancelled")
	return nil
}

func toRun(run *openai.Run, threadID string) *models.Run {
	if run.ThreadID != "" {
		threadID = run.ThreadID
	}
	return &models.Run{
		ID:        run.ID,
		ThreadID:  threadID,
		Status:    models.RunStatus(run.Status),
		LastError: run.LastError.Message,
	}
}
