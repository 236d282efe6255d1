package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"oversite-cms/internal/logger"
	"oversite-cms/internal/middleware"
	"oversite-cms/internal/publish"
)

// Publisher defines the publish-gateway operations the handlers need.
type Publisher interface {
	Status(ctx context.Context) (*publish.Status, error)
	Pull(ctx context.Context) error
	Push(ctx context.Context, message string) (*publish.PushResult, error)
	Undo(ctx context.Context) error
}

// PublishHandler holds the dependencies for the publish-workflow handlers.
type PublishHandler struct {
	publisher Publisher
	log       logger.Logger
}

// NewPublishHandler creates a new PublishHandler with the given dependencies.
func NewPublishHandler(p Publisher, log logger.Logger) *PublishHandler {
	return &PublishHandler{publisher: p, log: log}
}

// toolError surfaces the version-control tool's own message verbatim.
func toolError(err error, fallback string) *middleware.AppError {
	message := fallback
	var tErr *publish.ToolError
	if errors.As(err, &tErr) {
		message = tErr.Error()
	}
	return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

// statusHandler reports local changes and ahead/behind counts.
func (h *PublishHandler) statusHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	status, err := h.publisher.Status(r.Context())
	if err != nil {
		return toolError(err, "Failed to read repository status")
	}
	return respondJSON(w, http.StatusOK, status)
}

// pullHandler pulls the tracked branch from the remote.
func (h *PublishHandler) pullHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.publisher.Pull(r.Context()); err != nil {
		return toolError(err, "Failed to pull changes")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Pulled latest changes",
	})
}

// pushRequest is the payload of POST /git/push.
type pushRequest struct {
	Message string `json:"message"`
}

// pushHandler stages, commits, and pushes the content directory.
func (h *PublishHandler) pushHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req pushRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return &middleware.AppError{Error: err, Message: "Invalid request payload", Code: http.StatusBadRequest}
		}
	}

	result, err := h.publisher.Push(r.Context(), req.Message)
	if err != nil {
		return toolError(err, "Failed to push changes")
	}
	if result.NoChanges {
		return respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":   false,
			"noChanges": true,
			"message":   "No changes to publish",
		})
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Changes published successfully",
	})
}

// undoHandler discards every local change under the content directory. The
// admin UI confirms destructive intent before calling this.
func (h *PublishHandler) undoHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.publisher.Undo(r.Context()); err != nil {
		return toolError(err, "Failed to revert changes")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All local changes reverted",
	})
}
