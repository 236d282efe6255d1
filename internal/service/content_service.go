package service

import (
	"context"
	"fmt"
	"io"

	"oversite-cms/internal/data"
	"oversite-cms/internal/logger"

	"github.com/microcosm-cc/bluemonday"
)

// ContentRepository defines the persistence operations on items.
type ContentRepository interface {
	List(ctx context.Context, contentType string) ([]data.Item, error)
	Get(ctx context.Context, contentType string, id int64) (data.Item, error)
	Create(ctx context.Context, contentType string, id int64, item data.Item) error
	Put(ctx context.Context, contentType string, id int64, item data.Item) error
	Delete(ctx context.Context, contentType string, id int64) error
}

// MediaRepository defines the persistence operations on uploaded assets.
type MediaRepository interface {
	Save(ctx context.Context, contentType string, id int64, filename, mimeType string, r io.Reader) (*data.MediaAsset, error)
	List(ctx context.Context, contentType string, id int64) ([]data.MediaAsset, error)
	Delete(ctx context.Context, contentType string, id int64, filename string) error
}

// ContentServicer defines the interface for interacting with content.
type ContentServicer interface {
	ListItems(ctx context.Context, contentType string) ([]data.Item, error)
	GetItem(ctx context.Context, contentType string, id int64) (data.Item, error)
	CreateItem(ctx context.Context, contentType string, item data.Item) (data.Item, error)
	UpdateItem(ctx context.Context, contentType string, id int64, item data.Item) error
	DeleteItem(ctx context.Context, contentType string, id int64) error
	UploadAsset(ctx context.Context, contentType string, id int64, filename, mimeType string, r io.Reader) (*data.MediaAsset, error)
	ListAssets(ctx context.Context, contentType string, id int64) ([]data.MediaAsset, error)
	DeleteAsset(ctx context.Context, contentType string, id int64, filename string) error
	SetFeatured(ctx context.Context, contentType string, ids []int64, featured bool) (int, error)
}

// ContentService provides business logic for managing content items and
// their media.
type ContentService struct {
	repo      ContentRepository
	media     MediaRepository
	sanitizer *bluemonday.Policy
	log       logger.Logger
}

// NewContentService creates a new ContentService with the given repositories.
func NewContentService(repo ContentRepository, media MediaRepository, log logger.Logger) *ContentService {
	// The admin panel's rich-text editor produces HTML bodies. UGCPolicy
	// keeps basic formatting while stripping out dangerous markup.
	return &ContentService{
		repo:      repo,
		media:     media,
		sanitizer: bluemonday.UGCPolicy(),
		log:       log,
	}
}

// ListItems returns every item of the content type, sorted by id.
func (s *ContentService) ListItems(ctx context.Context, contentType string) ([]data.Item, error) {
	return s.repo.List(ctx, contentType)
}

// GetItem retrieves a single item by id.
func (s *ContentService) GetItem(ctx context.Context, contentType string, id int64) (data.Item, error) {
	return s.repo.Get(ctx, contentType, id)
}

// CreateItem persists a new item under the id the client assigned to it.
func (s *ContentService) CreateItem(ctx context.Context, contentType string, item data.Item) (data.Item, error) {
	id, ok := item.ID()
	if !ok || id <= 0 {
		return nil, data.NewValidationError("item must carry a positive numeric id")
	}
	s.sanitizeBody(item)
	if err := s.repo.Create(ctx, contentType, id, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem overwrites the stored item. The id from the request path wins
// over whatever id the payload carries.
func (s *ContentService) UpdateItem(ctx context.Context, contentType string, id int64, item data.Item) error {
	item.SetID(id)
	s.sanitizeBody(item)
	return s.repo.Put(ctx, contentType, id, item)
}

// DeleteItem removes the item and its media. Idempotent.
func (s *ContentService) DeleteItem(ctx context.Context, contentType string, id int64) error {
	return s.repo.Delete(ctx, contentType, id)
}

// UploadAsset validates and stores one uploaded file for the item.
func (s *ContentService) UploadAsset(ctx context.Context, contentType string, id int64, filename, mimeType string, r io.Reader) (*data.MediaAsset, error) {
	return s.media.Save(ctx, contentType, id, filename, mimeType, r)
}

// ListAssets returns the images stored for the item.
func (s *ContentService) ListAssets(ctx context.Context, contentType string, id int64) ([]data.MediaAsset, error) {
	return s.media.List(ctx, contentType, id)
}

// DeleteAsset removes a single named asset. Idempotent.
func (s *ContentService) DeleteAsset(ctx context.Context, contentType string, id int64, filename string) error {
	return s.media.Delete(ctx, contentType, id, filename)
}

// SetFeatured flips the featured flag on each of the given items. Items that
// cannot be read or written are skipped and logged rather than aborting the
// batch; the returned count covers the items actually rewritten.
func (s *ContentService) SetFeatured(ctx context.Context, contentType string, ids []int64, featured bool) (int, error) {
	updated := 0
	for _, id := range ids {
		item, err := s.repo.Get(ctx, contentType, id)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Skipping featured update for %s id %d: %v", contentType, id, err))
			continue
		}
		item["featured"] = featured
		if err := s.repo.Put(ctx, contentType, id, item); err != nil {
			s.log.Warn(fmt.Sprintf("Skipping featured update for %s id %d: %v", contentType, id, err))
			continue
		}
		updated++
	}
	return updated, nil
}

// sanitizeBody cleans the rich-text body field in place. Other fields are
// caller-defined and stored verbatim.
func (s *ContentService) sanitizeBody(item data.Item) {
	if body, ok := item["body"].(string); ok {
		item["body"] = s.sanitizer.Sanitize(body)
	}
}
