package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/diogo/readalong/internal/models"
)

// MockAssistantClient is a scriptable in-memory AssistantClientInterface for tests.
// PollRun walks through Statuses one call at a time; the last status repeats.
type MockAssistantClient struct {
	mu sync.Mutex

	// Mock return values
	Model           models.Model
	AssistantIDVal  string
	ThreadIDVal     string
	RunIDVal        string
	InitialStatus   models.RunStatus
	Statuses        []models.RunStatus
	RunLastError    string
	Reply           string
	Replies         []string
	InitErr         error
	CreateThreadErr error
	PostMessageErr  error
	StartRunErr     error
	PollErr         error
	FetchErr        error
	CancelErr       error
	DeleteThreadErr error

	// Block makes PollRun wait until the context is done
	Block bool

	// Call counters/recorders
	InitCalls         int
	CloseCalls        int
	CreateThreadCalls int
	DeleteThreadCalls int
	PostMessageCalls  int
	StartRunCalls     int
	PollCalls         int
	CancelCalls       int
	FetchCalls        int
	Posted            []string
	ThreadIDs         []string

	runCount int
}

// Ensure MockAssistantClient implements AssistantClientInterface
var _ AssistantClientInterface = (*MockAssistantClient)(nil)

func (m *MockAssistantClient) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitCalls++
	if m.InitErr == nil && m.AssistantIDVal == "" {
		m.AssistantIDVal = "asst_mock"
	}
	return m.InitErr
}

func (m *MockAssistantClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

func (m *MockAssistantClient) AssistantID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AssistantIDVal
}

func (m *MockAssistantClient) GetModel() models.Model {
	if m.Model.Name == "" {
		return models.ModelGPT4oMini
	}
	return m.Model
}

func (m *MockAssistantClient) CreateAssistant(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AssistantIDVal == "" {
		m.AssistantIDVal = "asst_mock"
	}
	return m.AssistantIDVal, nil
}

func (m *MockAssistantClient) DeleteAssistant(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AssistantIDVal = ""
	return nil
}

func (m *MockAssistantClient) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateThreadCalls++
	if m.CreateThreadErr != nil {
		return "", m.CreateThreadErr
	}
	id := m.ThreadIDVal
	if id == "" {
		id = fmt.Sprintf("thread_%d", m.CreateThreadCalls)
	}
	m.ThreadIDs = append(m.ThreadIDs, id)
	return id, nil
}

func (m *MockAssistantClient) DeleteThread(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteThreadCalls++
	return m.DeleteThreadErr
}

func (m *MockAssistantClient) PostUserMessage(ctx context.Context, threadID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostMessageCalls++
	if m.PostMessageErr != nil {
		return m.PostMessageErr
	}
	m.Posted = append(m.Posted, text)
	return nil
}

func (m *MockAssistantClient) StartRun(ctx context.Context, threadID string) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartRunCalls++
	if m.StartRunErr != nil {
		return nil, m.StartRunErr
	}
	m.runCount++
	id := m.RunIDVal
	if id == "" {
		id = fmt.Sprintf("run_%d", m.runCount)
	}
	status := m.InitialStatus
	if status == "" {
		status = models.RunStatusQueued
	}
	return &models.Run{ID: id, ThreadID: threadID, Status: status}, nil
}

func (m *MockAssistantClient) PollRun(ctx context.Context, run *models.Run) (*models.Run, error) {
	m.mu.Lock()
	m.PollCalls++
	block := m.Block
	if m.PollErr != nil {
		err := m.PollErr
		m.mu.Unlock()
		return nil, err
	}
	status := models.RunStatusCompleted
	if len(m.Statuses) > 0 {
		status = m.Statuses[0]
		if len(m.Statuses) > 1 {
			m.Statuses = m.Statuses[1:]
		}
	}
	lastErr := m.RunLastError
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	return &models.Run{ID: run.ID, ThreadID: run.ThreadID, Status: status, LastError: lastErr}, nil
}

func (m *MockAssistantClient) CancelRun(ctx context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls++
	return m.CancelErr
}

func (m *MockAssistantClient) FetchLatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FetchErr != nil {
		return models.Message{}, m.FetchErr
	}
	reply := m.Reply
	if len(m.Replies) > 0 {
		reply = m.Replies[0]
		m.Replies = m.Replies[1:]
	}
	return models.AssistantMessage(reply), nil
}

// Calls returns a snapshot of the call counters as a map, for assertions
func (m *MockAssistantClient) Calls() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"CreateThread": m.CreateThreadCalls,
		"PostMessage":  m.PostMessageCalls,
		"StartRun":     m.StartRunCalls,
		"PollRun":      m.PollCalls,
		"CancelRun":    m.CancelCalls,
		"Fetch":        m.FetchCalls,
	}
}
