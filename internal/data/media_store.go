package data

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// Both the extension and the declared Content-Type of an upload must
	// pass independently against these sets.
	allowedUploadExts = map[string]struct{}{
		"jpeg": {}, "jpg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {}, "mp4": {},
	}
	allowedUploadMIMEs = map[string]struct{}{
		"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/gif": {},
		"image/webp": {}, "image/svg+xml": {}, "video/mp4": {},
	}

	// listableAssetPattern matches the filenames the image listing returns.
	listableAssetPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

	filenameStripPattern  = regexp.MustCompile(`[^a-z0-9-]`)
	filenameHyphenPattern = regexp.MustCompile(`-{2,}`)
)

const maxFilenameBase = 100

// MediaStore manages uploaded files under <root>/<contentType>/<id>/.
type MediaStore struct {
	root string
	now  func() time.Time
}

// NewMediaStore creates a MediaStore rooted at the given data directory.
func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root, now: time.Now}
}

func (s *MediaStore) assetDir(contentType string, id int64) string {
	return filepath.Join(s.root, contentType, fmt.Sprintf("%d", id))
}

// assetURL builds the relative URL the admin client prefixes with its static
// data mount.
func assetURL(contentType string, id int64, filename string) string {
	return path.Join(contentType, fmt.Sprintf("%d", id), filename)
}

// Save validates and stores one uploaded file. The stored filename is the
// sanitized original name suffixed with a millisecond timestamp, so
// re-uploading a file with the same name never replaces an existing asset.
func (s *MediaStore) Save(ctx context.Context, contentType string, id int64, filename, mimeType string, r io.Reader) (*MediaAsset, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedUploadExts[ext]; !ok {
		return nil, NewValidationError(fmt.Sprintf("file extension %q is not allowed", ext))
	}
	if _, ok := allowedUploadMIMEs[strings.ToLower(mimeType)]; !ok {
		return nil, NewValidationError(fmt.Sprintf("file type %q is not allowed", mimeType))
	}

	dir := s.assetDir(contentType, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}

	base := SanitizeFilename(filename)
	millis := s.now().UnixMilli()
	stored := fmt.Sprintf("%s-%d.%s", base, millis, ext)
	// Bump the timestamp if two uploads land within the same millisecond.
	for {
		if _, err := os.Stat(filepath.Join(dir, stored)); os.IsNotExist(err) {
			break
		}
		millis++
		stored = fmt.Sprintf("%s-%d.%s", base, millis, ext)
	}

	f, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return nil, fmt.Errorf("failed to create asset file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return nil, fmt.Errorf("failed to write asset file: %w", err)
	}

	return &MediaAsset{Filename: stored, URL: assetURL(contentType, id, stored)}, nil
}

// List returns the image files present in the item's asset directory. A
// missing directory yields an empty list.
func (s *MediaStore) List(ctx context.Context, contentType string, id int64) ([]MediaAsset, error) {
	entries, err := os.ReadDir(s.assetDir(contentType, id))
	if err != nil {
		if os.IsNotExist(err) {
			return []MediaAsset{}, nil
		}
		return nil, fmt.Errorf("failed to read asset directory: %w", err)
	}

	assets := []MediaAsset{}
	for _, entry := range entries {
		if entry.IsDir() || !listableAssetPattern.MatchString(entry.Name()) {
			continue
		}
		assets = append(assets, MediaAsset{
			Filename: entry.Name(),
			URL:      assetURL(contentType, id, entry.Name()),
		})
	}
	return assets, nil
}

// Delete removes a single named asset. Deleting an asset that is already
// gone is a success.
func (s *MediaStore) Delete(ctx context.Context, contentType string, id int64, filename string) error {
	// Reduce to the base name so the caller cannot escape the asset directory.
	filename = filepath.Base(filename)
	err := os.Remove(filepath.Join(s.assetDir(contentType, id), filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset %s: %w", filename, err)
	}
	return nil
}

// SanitizeFilename normalizes an original upload name into a safe base name:
// lowercased, spaces and underscores turned into hyphens, anything outside
// [a-z0-9-] stripped, hyphen runs collapsed, and length capped.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	base = strings.NewReplacer(" ", "-", "_", "-").Replace(base)
	base = filenameStripPattern.ReplaceAllString(base, "")
	base = filenameHyphenPattern.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > maxFilenameBase {
		base = base[:maxFilenameBase]
	}
	if base == "" {
		base = "file"
	}
	return base
}
