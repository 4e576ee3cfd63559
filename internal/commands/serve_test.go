package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/diogo/readalong/internal/api"
	apierrors "github.com/diogo/readalong/internal/errors"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mock := completingMock("reply")
	td := newTestDeps(mock, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, td.Dependencies, testSettings(), "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}

	if mock.InitCalls != 1 || mock.CloseCalls != 1 {
		t.Errorf("init/close calls = %d/%d, want 1/1", mock.InitCalls, mock.CloseCalls)
	}
	if !strings.Contains(td.stderr.String(), "http://127.0.0.1:0") {
		t.Errorf("expected address banner, got %q", td.stderr.String())
	}
}

func TestRunServe_InitFailure(t *testing.T) {
	mock := &api.MockAssistantClient{InitErr: apierrors.NewAuthError("invalid key")}
	td := newTestDeps(mock, false)

	if err := runServe(context.Background(), td.Dependencies, testSettings(), "127.0.0.1:0"); !apierrors.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}
