// Package session holds one conversation with the assistant: its thread,
// its transcript and the turn-by-turn exchange flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/readalong/internal/api"
	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/poller"
)

var (
	// ErrEmptyUtterance is returned for empty or whitespace-only input
	ErrEmptyUtterance = errors.New("message is empty")
	// ErrClosed is returned when a closed session is used
	ErrClosed = errors.New("session is closed")
)

// cleanupTimeout bounds the best-effort calls made after a turn was aborted
const cleanupTimeout = 10 * time.Second

const utteranceLogLimit = 80

// FallbackReply is the assistant text shown when a run ends without completing
func FallbackReply(status models.RunStatus) string {
	return fmt.Sprintf("The assistant could not finish this turn (run status: %s).", status)
}

// Session maintains one thread and its transcript across turns
type Session struct {
	id     string
	client api.AssistantClientInterface
	poller *poller.Poller
	store  *Store

	deleteThreadOnExit bool

	threadMu sync.Mutex
	threadID string

	// turnMu serializes turns; at most one run is polled at a time
	turnMu sync.Mutex
	closed atomic.Bool
}

// Option configures a Session
type Option func(*Session)

// WithPoller sets the poller used to wait for runs
func WithPoller(p *poller.Poller) Option {
	return func(s *Session) {
		s.poller = p
	}
}

// WithDeleteThreadOnExit removes the remote thread on Close
func WithDeleteThreadOnExit(enabled bool) Option {
	return func(s *Session) {
		s.deleteThreadOnExit = enabled
	}
}

// WithID sets the local session id used in logs
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// New creates a session. The thread is created lazily on first use.
func New(client api.AssistantClientInterface, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		client: client,
		poller: poller.New(),
		store:  NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the local session id
func (s *Session) ID() string {
	return s.id
}

// All returns a copy of the transcript
func (s *Session) All() []models.Message {
	return s.store.All()
}

// Len returns the number of transcript messages
func (s *Session) Len() int {
	return s.store.Len()
}

// Append adds messages to the transcript without talking to the service
func (s *Session) Append(msgs ...models.Message) {
	s.store.Append(msgs...)
}

// LastReply returns the text of the latest assistant message
func (s *Session) LastReply() (string, bool) {
	msg, ok := s.store.Last(models.RoleAssistant)
	return msg.Content, ok
}

// ThreadID returns the session's thread id, creating the thread on first use.
// Concurrent callers share a single creation; a failed creation is retried
// by the next caller.
func (s *Session) ThreadID(ctx context.Context) (string, error) {
	s.threadMu.Lock()
	defer s.threadMu.Unlock()

	if s.threadID != "" {
		return s.threadID, nil
	}

	id, err := s.client.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	s.threadID = id

	slog.DebugContext(logging.WithFields(s.logContext(ctx), logging.Fields{ThreadID: id}), "thread bound to session")
	return id, nil
}

// currentThread returns the thread id without creating one
func (s *Session) currentThread() string {
	s.threadMu.Lock()
	defer s.threadMu.Unlock()
	return s.threadID
}

func (s *Session) logContext(ctx context.Context) context.Context {
	return logging.WithFields(ctx, logging.Fields{SessionID: s.id, Component: "session"})
}

// Submit runs one full turn: post the utterance, run the assistant, wait for
// the run and read the reply. On success the user message and the reply are
// appended together and the reply is returned. On failure nothing is
// appended and the session stays usable.
func (s *Session) Submit(ctx context.Context, utterance string) (models.Message, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return models.Message{}, ErrEmptyUtterance
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if s.closed.Load() {
		return models.Message{}, ErrClosed
	}

	ctx = s.logContext(ctx)
	start := time.Now()

	threadID, err := s.ThreadID(ctx)
	if err != nil {
		return models.Message{}, err
	}
	ctx = logging.WithFields(ctx, logging.Fields{ThreadID: threadID})
	slog.DebugContext(ctx, "turn started", "utterance", logging.Truncate(text, utteranceLogLimit))

	if err := s.client.PostUserMessage(ctx, threadID, text); err != nil {
		return models.Message{}, err
	}

	run, err := s.client.StartRun(ctx, threadID)
	if err != nil {
		return models.Message{}, err
	}
	ctx = logging.WithFields(ctx, logging.Fields{RunID: run.ID})

	final, err := s.poller.Wait(ctx, run, s.client.PollRun)
	if err != nil {
		// the run is still active on the thread and would block the next post
		s.cancelRun(ctx, run)
		return models.Message{}, err
	}

	var reply models.Message
	if final.Status.IsCompleted() {
		reply, err = s.client.FetchLatestAssistantMessage(ctx, threadID)
		if err != nil {
			return models.Message{}, err
		}
	} else {
		slog.WarnContext(ctx, "run did not complete",
			"error", apierrors.NewRunNotCompletedError(final.ID, string(final.Status), final.LastError))
		reply = models.AssistantMessage(FallbackReply(final.Status))
	}

	s.store.Append(models.UserMessage(text), reply)

	slog.DebugContext(ctx, "turn finished",
		"status", final.Status,
		"duration_ms", time.Since(start).Milliseconds(),
		"transcript_len", s.store.Len())

	return reply, nil
}

// cancelRun asks the service to stop an abandoned run. It runs detached from
// ctx, which is usually already done at this point.
func (s *Session) cancelRun(ctx context.Context, run *models.Run) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.client.CancelRun(cleanupCtx, run); err != nil {
		slog.WarnContext(cleanupCtx, "failed to cancel run", "error", err)
	}
}

// Close ends the session. The remote thread is deleted when configured;
// the in-memory transcript is dropped. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}
	s.store.Reset()

	threadID := s.currentThread()
	if !s.deleteThreadOnExit || threadID == "" {
		return nil
	}

	if err := s.client.DeleteThread(ctx, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	slog.DebugContext(logging.WithFields(s.logContext(ctx), logging.Fields{ThreadID: threadID}), "thread deleted")
	return nil
}

// IsClosed reports whether Close was called
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}
