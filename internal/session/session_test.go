package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diogo/readalong/internal/api"
	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/poller"
)

// countingClock fires immediately and counts waits
type countingClock struct {
	mu    sync.Mutex
	waits int
}

func (c *countingClock) after(time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits++
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func newTestSession(mock *api.MockAssistantClient, opts ...poller.Option) (*Session, *countingClock) {
	clock := &countingClock{}
	opts = append([]poller.Option{poller.WithClock(clock.after)}, opts...)
	return New(mock, WithPoller(poller.New(opts...))), clock
}

func TestSubmit_AlternatingTranscript(t *testing.T) {
	mock := &api.MockAssistantClient{Replies: []string{"r1", "r2", "r3"}}
	s, _ := newTestSession(mock)
	ctx := context.Background()

	inputs := []string{"story one", "story two", "story three"}
	for _, in := range inputs {
		if _, err := s.Submit(ctx, in); err != nil {
			t.Fatalf("Submit(%q) returned error: %v", in, err)
		}
	}

	got := s.All()
	if len(got) != 2*len(inputs) {
		t.Fatalf("Len = %d, want %d", len(got), 2*len(inputs))
	}
	for i, msg := range got {
		wantRole := models.RoleUser
		if i%2 == 1 {
			wantRole = models.RoleAssistant
		}
		if msg.Role != wantRole {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, wantRole)
		}
	}
	if got[0].Content != "story one" || got[5].Content != "r3" {
		t.Errorf("unexpected transcript: %v", got)
	}
}

func TestSubmit_ThreadIDStable(t *testing.T) {
	mock := &api.MockAssistantClient{Reply: "ok"}
	s, _ := newTestSession(mock)
	ctx := context.Background()

	first, err := s.ThreadID(ctx)
	if err != nil {
		t.Fatalf("ThreadID() returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Submit(ctx, "a story"); err != nil {
			t.Fatalf("Submit() returned error: %v", err)
		}
	}
	again, _ := s.ThreadID(ctx)

	if first != again {
		t.Errorf("thread id changed from %s to %s", first, again)
	}
	if mock.CreateThreadCalls != 1 {
		t.Errorf("CreateThread calls = %d, want 1", mock.CreateThreadCalls)
	}
}

func TestThreadID_ConcurrentCallersShareCreation(t *testing.T) {
	mock := &api.MockAssistantClient{}
	s, _ := newTestSession(mock)

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = s.ThreadID(context.Background())
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("callers saw different thread ids: %v", ids)
		}
	}
	if mock.CreateThreadCalls != 1 {
		t.Errorf("CreateThread calls = %d, want 1", mock.CreateThreadCalls)
	}
}

func TestThreadID_RetriesAfterFailure(t *testing.T) {
	mock := &api.MockAssistantClient{CreateThreadErr: apierrors.NewAPIError(500, "threads", "down")}
	s, _ := newTestSession(mock)

	if _, err := s.ThreadID(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	mock.CreateThreadErr = nil
	if id, err := s.ThreadID(context.Background()); err != nil || id == "" {
		t.Errorf("ThreadID() = %q, %v", id, err)
	}
}

func TestSubmit_WaitsOncePerPendingStatus(t *testing.T) {
	mock := &api.MockAssistantClient{
		InitialStatus: models.RunStatusQueued,
		Statuses:      []models.RunStatus{models.RunStatusInProgress, models.RunStatusCompleted},
		Reply:         "1. Who lost the slipper?",
	}
	s, clock := newTestSession(mock)

	reply, err := s.Submit(context.Background(), "Cinderella went to the ball.")
	if err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if clock.waits != 2 {
		t.Errorf("waits = %d, want 2", clock.waits)
	}
	if reply.Content != "1. Who lost the slipper?" {
		t.Errorf("reply = %q", reply.Content)
	}
	if mock.FetchCalls != 1 {
		t.Errorf("Fetch calls = %d, want 1", mock.FetchCalls)
	}
}

func TestSubmit_FailedRunFallback(t *testing.T) {
	mock := &api.MockAssistantClient{
		Statuses:     []models.RunStatus{models.RunStatusFailed},
		RunLastError: "server_error",
	}
	s, _ := newTestSession(mock)
	ctx := context.Background()

	reply, err := s.Submit(ctx, "a story")
	if err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if reply.Content != FallbackReply(models.RunStatusFailed) {
		t.Errorf("reply = %q", reply.Content)
	}
	if !strings.Contains(reply.Content, "failed") {
		t.Errorf("fallback should name the status: %q", reply.Content)
	}
	if mock.FetchCalls != 0 {
		t.Error("no message should be fetched for a failed run")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	mock.Statuses = []models.RunStatus{models.RunStatusCompleted}
	mock.Reply = "recovered"
	reply, err = s.Submit(ctx, "another story")
	if err != nil {
		t.Fatalf("Submit() after failure returned error: %v", err)
	}
	if reply.Content != "recovered" || s.Len() != 4 {
		t.Errorf("reply = %q, Len() = %d", reply.Content, s.Len())
	}
}

func TestSubmit_FallbackIsDeterministic(t *testing.T) {
	for _, status := range []models.RunStatus{models.RunStatusCancelled, models.RunStatusExpired, models.RunStatusRequiresAction} {
		if FallbackReply(status) != FallbackReply(status) {
			t.Errorf("FallbackReply(%s) is not deterministic", status)
		}
		if !strings.Contains(FallbackReply(status), string(status)) {
			t.Errorf("FallbackReply(%s) = %q", status, FallbackReply(status))
		}
	}
}

func TestAll_Idempotent(t *testing.T) {
	mock := &api.MockAssistantClient{Reply: "ok"}
	s, _ := newTestSession(mock)
	if _, err := s.Submit(context.Background(), "story"); err != nil {
		t.Fatal(err)
	}

	if first, second := s.All(), s.All(); !reflect.DeepEqual(first, second) {
		t.Errorf("All() differs between calls: %v vs %v", first, second)
	}
}

func TestSubmit_EmptyUtteranceRejected(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t "} {
		mock := &api.MockAssistantClient{}
		s, _ := newTestSession(mock)

		_, err := s.Submit(context.Background(), in)
		if !errors.Is(err, ErrEmptyUtterance) {
			t.Errorf("Submit(%q) error = %v, want ErrEmptyUtterance", in, err)
		}
		if s.Len() != 0 {
			t.Errorf("Submit(%q) appended messages", in)
		}
		for name, n := range mock.Calls() {
			if n != 0 {
				t.Errorf("Submit(%q) called %s %d times", in, name, n)
			}
		}
	}
}

func TestSubmit_TrimsUtterance(t *testing.T) {
	mock := &api.MockAssistantClient{Reply: "ok"}
	s, _ := newTestSession(mock)

	if _, err := s.Submit(context.Background(), "  the fox  \n"); err != nil {
		t.Fatal(err)
	}
	if mock.Posted[0] != "the fox" || s.All()[0].Content != "the fox" {
		t.Errorf("utterance not trimmed: posted %q", mock.Posted[0])
	}
}

func TestSubmit_TimeoutCancelsRun(t *testing.T) {
	mock := &api.MockAssistantClient{Statuses: []models.RunStatus{models.RunStatusInProgress}}
	s := New(mock, WithPoller(poller.New(poller.WithInterval(2*time.Millisecond), poller.WithTimeout(20*time.Millisecond))))

	_, err := s.Submit(context.Background(), "a long story")
	if !apierrors.IsTimeoutError(err) {
		t.Fatalf("Submit() error = %v, want TimeoutError", err)
	}
	if mock.CancelCalls != 1 {
		t.Errorf("CancelRun calls = %d, want 1", mock.CancelCalls)
	}
	if s.Len() != 0 {
		t.Errorf("transcript changed on timeout: %v", s.All())
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	mock := &api.MockAssistantClient{Block: true}
	s, _ := newTestSession(mock)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.Submit(ctx, "a story")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Submit() error = %v, want context.Canceled", err)
	}
	if mock.CancelCalls != 1 {
		t.Errorf("CancelRun calls = %d, want 1", mock.CancelCalls)
	}
	if s.Len() != 0 {
		t.Error("transcript changed on cancel")
	}
}

func TestSubmit_ServiceErrorLeavesSessionUsable(t *testing.T) {
	tests := []struct {
		name    string
		inject  func(m *api.MockAssistantClient)
		clear   func(m *api.MockAssistantClient)
		cancels int
	}{
		{
			name:   "post message",
			inject: func(m *api.MockAssistantClient) { m.PostMessageErr = apierrors.NewAPIError(500, "messages", "boom") },
			clear:  func(m *api.MockAssistantClient) { m.PostMessageErr = nil },
		},
		{
			name:   "start run",
			inject: func(m *api.MockAssistantClient) { m.StartRunErr = apierrors.NewUsageLimitError("slow down") },
			clear:  func(m *api.MockAssistantClient) { m.StartRunErr = nil },
		},
		{
			name:    "poll",
			inject:  func(m *api.MockAssistantClient) { m.PollErr = apierrors.NewAPIError(502, "runs", "bad gateway") },
			clear:   func(m *api.MockAssistantClient) { m.PollErr = nil },
			cancels: 1,
		},
		{
			name: "poll after progress",
			inject: func(m *api.MockAssistantClient) {
				m.Statuses = []models.RunStatus{models.RunStatusInProgress}
				m.PollErr = apierrors.NewAPIError(503, "runs", "unavailable")
			},
			clear: func(m *api.MockAssistantClient) {
				m.Statuses = nil
				m.PollErr = nil
			},
			cancels: 1,
		},
		{
			name:   "fetch",
			inject: func(m *api.MockAssistantClient) { m.FetchErr = apierrors.NewParseError("no text", "messages") },
			clear:  func(m *api.MockAssistantClient) { m.FetchErr = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &api.MockAssistantClient{Reply: "fine"}
			s, _ := newTestSession(mock)
			ctx := context.Background()

			tt.inject(mock)
			if _, err := s.Submit(ctx, "story"); err == nil {
				t.Fatal("expected error")
			}
			if s.Len() != 0 {
				t.Errorf("transcript changed on error: %v", s.All())
			}
			if mock.CancelCalls != tt.cancels {
				t.Errorf("CancelCalls = %d, want %d", mock.CancelCalls, tt.cancels)
			}

			tt.clear(mock)
			reply, err := s.Submit(ctx, "story")
			if err != nil {
				t.Fatalf("next Submit() returned error: %v", err)
			}
			if reply.Content != "fine" || s.Len() != 2 {
				t.Errorf("reply = %q, Len() = %d", reply.Content, s.Len())
			}
		})
	}
}

func TestSubmit_LogsCorrelationFieldsOnce(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logging.Setup(true, &buf)

	mock := &api.MockAssistantClient{
		Reply:    "ok",
		Statuses: []models.RunStatus{models.RunStatusInProgress, models.RunStatusCompleted},
	}
	s, _ := newTestSession(mock)
	story := strings.Repeat("토끼가 숲으로 갔어요. ", 20)
	if _, err := s.Submit(context.Background(), story); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var sawRun bool
	for _, line := range lines {
		for _, key := range []string{"session_id=", "thread_id=", "run_id="} {
			if n := strings.Count(line, key); n > 1 {
				t.Errorf("%s appears %d times in %q", key, n, line)
			}
		}
		if strings.Contains(line, "run pending") && strings.Contains(line, "run_id=run_1") {
			sawRun = true
		}
		if strings.Contains(line, strings.TrimSpace(story)) {
			t.Errorf("full story logged: %q", line)
		}
	}
	if !sawRun {
		t.Errorf("expected a pending line carrying run_id, got:\n%s", buf.String())
	}
}

func TestSubmit_SerializesTurns(t *testing.T) {
	mock := &api.MockAssistantClient{Reply: "ok"}
	s, _ := newTestSession(mock)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Submit(context.Background(), "story")
		}()
	}
	wg.Wait()

	got := s.All()
	if len(got) != 10 {
		t.Fatalf("Len = %d, want 10", len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if got[i].Role != models.RoleUser || got[i+1].Role != models.RoleAssistant {
			t.Errorf("turn %d is not a user/assistant pair", i/2)
		}
	}
}

func TestClose(t *testing.T) {
	t.Run("deletes thread when configured", func(t *testing.T) {
		mock := &api.MockAssistantClient{Reply: "ok"}
		s := New(mock, WithDeleteThreadOnExit(true), WithPoller(poller.New(poller.WithClock((&countingClock{}).after))))
		ctx := context.Background()

		if _, err := s.Submit(ctx, "story"); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(ctx); err != nil {
			t.Fatalf("Close() returned error: %v", err)
		}
		if err := s.Close(ctx); err != nil {
			t.Fatalf("second Close() returned error: %v", err)
		}

		if mock.DeleteThreadCalls != 1 {
			t.Errorf("DeleteThread calls = %d, want 1", mock.DeleteThreadCalls)
		}
		if s.Len() != 0 || !s.IsClosed() {
			t.Error("Close() should drop the transcript and mark the session closed")
		}
		if _, err := s.Submit(ctx, "more"); !errors.Is(err, ErrClosed) {
			t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
		}
	})

	t.Run("keeps thread by default", func(t *testing.T) {
		mock := &api.MockAssistantClient{Reply: "ok"}
		s, _ := newTestSession(mock)
		ctx := context.Background()

		if _, err := s.Submit(ctx, "story"); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(ctx); err != nil {
			t.Fatal(err)
		}
		if mock.DeleteThreadCalls != 0 {
			t.Error("thread should be kept")
		}
	})
}

func TestSession_IDAndLastReply(t *testing.T) {
	mock := &api.MockAssistantClient{Reply: "the questions"}
	s, _ := newTestSession(mock)

	if s.ID() == "" {
		t.Error("ID() is empty")
	}
	if other := New(mock); other.ID() == s.ID() {
		t.Error("sessions should get distinct ids")
	}
	if _, ok := s.LastReply(); ok {
		t.Error("LastReply() on empty session should report false")
	}

	if _, err := s.Submit(context.Background(), "story"); err != nil {
		t.Fatal(err)
	}
	if got, ok := s.LastReply(); !ok || got != "the questions" {
		t.Errorf("LastReply() = %q, %v", got, ok)
	}
	if got := New(mock, WithID("fixed")).ID(); got != "fixed" {
		t.Errorf("WithID: ID() = %q", got)
	}
}
