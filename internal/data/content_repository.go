package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileContentRepository persists items as pretty-printed JSON files, one
// directory per content type, one <id>.json file per item, and one <id>/
// directory per item for uploaded media. The directory tree doubles as the
// unit the publish gateway commits, so no other storage may sit beside it.
type FileContentRepository struct {
	root      string
	medialess map[string]struct{}
}

// NewFileContentRepository creates a repository rooted at the given data
// directory. Content types listed in medialessTypes never get a per-item
// asset directory.
func NewFileContentRepository(root string, medialessTypes []string) *FileContentRepository {
	medialess := make(map[string]struct{}, len(medialessTypes))
	for _, t := range medialessTypes {
		medialess[t] = struct{}{}
	}
	return &FileContentRepository{root: root, medialess: medialess}
}

func (r *FileContentRepository) typeDir(contentType string) string {
	return filepath.Join(r.root, contentType)
}

func (r *FileContentRepository) itemPath(contentType string, id int64) string {
	return filepath.Join(r.root, contentType, fmt.Sprintf("%d.json", id))
}

func (r *FileContentRepository) assetDir(contentType string, id int64) string {
	return filepath.Join(r.root, contentType, fmt.Sprintf("%d", id))
}

// HasMedia reports whether items of the given content type carry an asset
// directory.
func (r *FileContentRepository) HasMedia(contentType string) bool {
	_, medialess := r.medialess[contentType]
	return !medialess
}

// List reads every *.json file directly under the content type's directory
// and returns the items sorted ascending by numeric id. A missing directory
// means "no items yet", not an error.
func (r *FileContentRepository) List(ctx context.Context, contentType string) ([]Item, error) {
	entries, err := os.ReadDir(r.typeDir(contentType))
	if err != nil {
		if os.IsNotExist(err) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	items := []Item{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(r.typeDir(contentType), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read item file %s: %w", entry.Name(), err)
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to parse item file %s: %w", entry.Name(), err)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		a, _ := items[i].ID()
		b, _ := items[j].ID()
		return a < b
	})
	return items, nil
}

// Get retrieves a single item by id.
func (r *FileContentRepository) Get(ctx context.Context, contentType string, id int64) (Item, error) {
	raw, err := os.ReadFile(r.itemPath(contentType, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("item %d in %s: %w", id, contentType, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read item %d: %w", id, err)
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to parse item %d: %w", id, err)
	}
	return item, nil
}

// Create writes a new item file, failing with ErrConflict if the id is
// already taken, and ensures the sibling asset directory exists for
// media-bearing content types.
func (r *FileContentRepository) Create(ctx context.Context, contentType string, id int64, item Item) error {
	path := r.itemPath(contentType, id)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s id %d: %w", contentType, id, ErrConflict)
	}

	if err := os.MkdirAll(r.typeDir(contentType), 0o755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	if err := r.write(path, item); err != nil {
		return err
	}
	if r.HasMedia(contentType) {
		if err := os.MkdirAll(r.assetDir(contentType, id), 0o755); err != nil {
			return fmt.Errorf("failed to create asset directory: %w", err)
		}
	}
	return nil
}

// Put unconditionally overwrites the item file, forcing the stored id to
// match the given one. There is no existence check, so Put doubles as
// create-via-PUT; the content-type directory is created when missing.
func (r *FileContentRepository) Put(ctx context.Context, contentType string, id int64, item Item) error {
	item.SetID(id)
	if err := os.MkdirAll(r.typeDir(contentType), 0o755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	return r.write(r.itemPath(contentType, id), item)
}

// Delete removes the item file and, for media-bearing content types, its
// entire asset directory. Deleting something already gone is a success.
func (r *FileContentRepository) Delete(ctx context.Context, contentType string, id int64) error {
	if err := os.Remove(r.itemPath(contentType, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	if r.HasMedia(contentType) {
		if err := os.RemoveAll(r.assetDir(contentType, id)); err != nil {
			return fmt.Errorf("failed to delete asset directory for item %d: %w", id, err)
		}
	}
	return nil
}

func (r *FileContentRepository) write(path string, item Item) error {
	raw, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write item file: %w", err)
	}
	return nil
}
