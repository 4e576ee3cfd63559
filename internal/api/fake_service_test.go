package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/diogo/readalong/internal/config"
)

// fakeService is an in-memory stand-in for the Assistants REST API
type fakeService struct {
	t *testing.T

	mu         sync.Mutex
	statuses   []string // returned by successive run fetches
	reply      string
	replyRole  string
	noMessages bool
	failPath   string // path suffix answered with failStatus
	failStatus int
	failBody   string

	requests   []string
	posted     []string
	apiKeys    []string
	versions   []string
	deleted    []string
	cancelled  int
	assistants int
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{t: t, reply: "1. Who found the shoe?", replyRole: "assistant"}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...ClientOption) *AssistantClient {
	t.Helper()
	creds := config.Credentials{APIKey: "test-key", Endpoint: srv.URL}
	opts = append([]ClientOption{WithHTTPClient(srv.Client()), WithMaxRetries(0)}, opts...)
	client, err := NewClient(creds, opts...)
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	return client
}

func (f *fakeService) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeService) run(id, status string) map[string]any {
	return map[string]any{
		"id":           id,
		"object":       "thread.run",
		"thread_id":    "thread_1",
		"assistant_id": "asst_1",
		"status":       status,
		"last_error":   nil,
	}
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/openai")
	f.requests = append(f.requests, r.Method+" "+path)
	f.apiKeys = append(f.apiKeys, r.Header.Get("Api-Key"))
	f.versions = append(f.versions, r.URL.Query().Get("api-version"))

	if f.failPath != "" && strings.HasSuffix(path, f.failPath) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.failStatus)
		_, _ = w.Write([]byte(f.failBody))
		return
	}

	switch {
	case r.Method == http.MethodPost && path == "/assistants":
		f.assistants++
		f.write(w, http.StatusOK, map[string]any{
			"id": fmt.Sprintf("asst_%d", f.assistants), "object": "assistant",
			"model": "gpt-4o-mini", "tools": []any{},
		})
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/assistants/"):
		f.deleted = append(f.deleted, path)
		f.write(w, http.StatusOK, map[string]any{"id": strings.TrimPrefix(path, "/assistants/"), "object": "assistant.deleted", "deleted": true})
	case r.Method == http.MethodPost && path == "/threads":
		f.write(w, http.StatusOK, map[string]any{"id": "thread_1", "object": "thread"})
	case r.Method == http.MethodDelete && path == "/threads/thread_1":
		f.deleted = append(f.deleted, path)
		f.write(w, http.StatusOK, map[string]any{"id": "thread_1", "object": "thread.deleted", "deleted": true})
	case r.Method == http.MethodPost && path == "/threads/thread_1/messages":
		var body struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.posted = append(f.posted, body.Content)
		f.write(w, http.StatusOK, map[string]any{"id": "msg_user", "object": "thread.message", "role": "user"})
	case r.Method == http.MethodGet && path == "/threads/thread_1/messages":
		data := []any{}
		if !f.noMessages {
			content := []any{}
			if f.reply != "" {
				content = append(content, map[string]any{
					"type": "text",
					"text": map[string]any{"value": f.reply, "annotations": []any{}},
				})
			}
			data = append(data, map[string]any{
				"id": "msg_1", "object": "thread.message", "thread_id": "thread_1",
				"role": f.replyRole, "content": content,
			})
		}
		f.write(w, http.StatusOK, map[string]any{"object": "list", "data": data, "has_more": false})
	case r.Method == http.MethodPost && path == "/threads/thread_1/runs":
		f.write(w, http.StatusOK, f.run("run_1", "queued"))
	case r.Method == http.MethodGet && path == "/threads/thread_1/runs/run_1":
		status := "completed"
		if len(f.statuses) > 0 {
			status = f.statuses[0]
			f.statuses = f.statuses[1:]
		}
		f.write(w, http.StatusOK, f.run("run_1", status))
	case r.Method == http.MethodPost && path == "/threads/thread_1/runs/run_1/cancel":
		f.cancelled++
		f.write(w, http.StatusOK, f.run("run_1", "cancelling"))
	default:
		f.write(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "NotFound", "message": "no route " + path}})
	}
}
