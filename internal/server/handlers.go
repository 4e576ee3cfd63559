package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/logging"
	"github.com/diogo/readalong/internal/models"
	"github.com/diogo/readalong/internal/session"
)

// statusClientClosedRequest is reported when the browser went away mid-turn
const statusClientClosedRequest = 499

type submitRequest struct {
	Content string `json:"content"`
}

type transcriptResponse struct {
	SessionID string           `json:"session_id"`
	Model     string           `json:"model,omitempty"`
	Messages  []models.Message `json:"messages"`
}

type submitResponse struct {
	Reply    models.Message   `json:"reply"`
	Messages []models.Message `json:"messages"`
}

// Page renders the chat page
func (s *Server) Page(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, gin.H{
		"Model": s.modelName,
	})
}

// Messages returns the transcript of the current session
func (s *Server) Messages(c *gin.Context) {
	sess := s.Session()
	c.JSON(http.StatusOK, transcriptResponse{
		SessionID: sess.ID(),
		Model:     s.modelName,
		Messages:  sess.All(),
	})
}

// Submit runs one turn with the posted content and returns the reply
func (s *Server) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := s.Session()
	reply, err := sess.Submit(ctx, req.Content)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(logging.WithFields(ctx, logging.Fields{SessionID: sess.ID()}), "turn failed", "status", status, "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		Reply:    reply,
		Messages: sess.All(),
	})
}

// Export downloads the transcript as Markdown (default) or JSON
func (s *Server) Export(c *gin.Context) {
	format, err := session.ParseExportFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transcript := s.Session().Transcript(s.modelName)
	data, err := transcript.Export(format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType, ext := "text/markdown; charset=utf-8", "md"
	if format == session.ExportFormatJSON {
		contentType, ext = "application/json", "json"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="readalong-%s.%s"`, transcript.SessionID, ext))
	c.Data(http.StatusOK, contentType, data)
}

// Reset closes the current session and opens a fresh one
func (s *Server) Reset(c *gin.Context) {
	ctx := c.Request.Context()

	s.mu.Lock()
	old := s.current
	s.current = s.factory()
	next := s.current
	s.mu.Unlock()

	// Close waits for a turn still running on the old session.
	if err := old.Close(ctx); err != nil {
		slog.WarnContext(logging.WithFields(ctx, logging.Fields{SessionID: old.ID()}), "failed to close session", "error", err)
	}

	c.JSON(http.StatusOK, transcriptResponse{
		SessionID: next.ID(),
		Model:     s.modelName,
		Messages:  next.All(),
	})
}

// statusForError maps a turn failure to an HTTP status
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyUtterance):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	case apierrors.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case apierrors.IsConfigurationError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
