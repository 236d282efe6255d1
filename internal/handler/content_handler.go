package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"oversite-cms/internal/data"
	"oversite-cms/internal/logger"
	"oversite-cms/internal/middleware"
	"oversite-cms/internal/service"

	"github.com/go-chi/chi/v5"
)

// contentTypePattern constrains the caller-supplied namespace so it can never
// escape the data root.
var contentTypePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ContentHandler holds the dependencies for the content CRUD handlers.
type ContentHandler struct {
	contentService service.ContentServicer
	maxUploadBytes int64
	log            logger.Logger
}

// NewContentHandler creates a new ContentHandler with the given dependencies.
func NewContentHandler(cs service.ContentServicer, maxUploadBytes int64, log logger.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: cs,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// contentTypeParam extracts and validates the content-type path parameter.
func contentTypeParam(r *http.Request) (string, *middleware.AppError) {
	contentType := chi.URLParam(r, "contentType")
	if !contentTypePattern.MatchString(contentType) {
		err := fmt.Errorf("invalid content type %q", contentType)
		return "", &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusBadRequest}
	}
	return contentType, nil
}

// idParam extracts and validates the numeric id path parameter.
func idParam(r *http.Request) (int64, *middleware.AppError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		e := fmt.Errorf("invalid item id %q", raw)
		return 0, &middleware.AppError{Error: e, Message: e.Error(), Code: http.StatusBadRequest}
	}
	return id, nil
}

// serviceError maps store errors onto HTTP status codes.
func serviceError(err error, fallback string) *middleware.AppError {
	code := http.StatusInternalServerError
	message := fallback

	var validationErr *data.ValidationError
	switch {
	case errors.Is(err, data.ErrConflict):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, data.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		message = validationErr.Reason
	}
	return &middleware.AppError{Error: err, Message: message, Code: code}
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, code int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to encode response", Code: http.StatusInternalServerError}
	}
	return nil
}

// listHandler returns every item of the content type, sorted by id.
func (h *ContentHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}

	items, err := h.contentService.ListItems(r.Context(), contentType)
	if err != nil {
		return serviceError(err, "Failed to list items")
	}
	return respondJSON(w, http.StatusOK, items)
}

// getHandler returns a single item.
func (h *ContentHandler) getHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}

	item, err := h.contentService.GetItem(r.Context(), contentType, id)
	if err != nil {
		return serviceError(err, "Failed to load item")
	}
	return respondJSON(w, http.StatusOK, item)
}

// createHandler persists a new item under the client-assigned id.
func (h *ContentHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}

	var item data.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid request payload", Code: http.StatusBadRequest}
	}

	created, err := h.contentService.CreateItem(r.Context(), contentType, item)
	if err != nil {
		return serviceError(err, "Failed to create item")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Item created successfully",
		"item":    created,
	})
}

// updateHandler overwrites an item; the path id wins over the payload id.
func (h *ContentHandler) updateHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}

	var item data.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid request payload", Code: http.StatusBadRequest}
	}

	if err := h.contentService.UpdateItem(r.Context(), contentType, id, item); err != nil {
		return serviceError(err, "Failed to save item")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Item saved successfully",
	})
}

// deleteHandler removes an item and its media directory. Idempotent.
func (h *ContentHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}

	if err := h.contentService.DeleteItem(r.Context(), contentType, id); err != nil {
		return serviceError(err, "Failed to delete item")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Item deleted successfully",
	})
}

// uploadHandler accepts one multipart file in the "image" field.
func (h *ContentHandler) uploadHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "No file uploaded", Code: http.StatusBadRequest}
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		e := fmt.Errorf("file of %d bytes exceeds the upload limit", header.Size)
		return &middleware.AppError{Error: e, Message: e.Error(), Code: http.StatusBadRequest}
	}

	asset, err := h.contentService.UploadAsset(r.Context(), contentType, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return serviceError(err, "Failed to store upload")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"url":      asset.URL,
		"filename": asset.Filename,
	})
}

// listImagesHandler returns the images stored for an item.
func (h *ContentHandler) listImagesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}

	assets, err := h.contentService.ListAssets(r.Context(), contentType, id)
	if err != nil {
		return serviceError(err, "Failed to list images")
	}
	return respondJSON(w, http.StatusOK, assets)
}

// deleteImageHandler removes one named asset. Idempotent.
func (h *ContentHandler) deleteImageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	filename := chi.URLParam(r, "filename")

	if err := h.contentService.DeleteAsset(r.Context(), contentType, id, filename); err != nil {
		return serviceError(err, "Failed to delete image")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// bulkFeaturedRequest is the payload of POST /{contentType}/bulk-featured.
type bulkFeaturedRequest struct {
	IDs      []int64 `json:"ids"`
	Featured bool    `json:"featured"`
}

// bulkFeaturedHandler flips the featured flag on a set of items.
func (h *ContentHandler) bulkFeaturedHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	contentType, appErr := contentTypeParam(r)
	if appErr != nil {
		return appErr
	}

	var req bulkFeaturedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid request payload", Code: http.StatusBadRequest}
	}

	updated, err := h.contentService.SetFeatured(r.Context(), contentType, req.IDs, req.Featured)
	if err != nil {
		return serviceError(err, "Failed to update featured status")
	}
	return respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": updated,
	})
}
