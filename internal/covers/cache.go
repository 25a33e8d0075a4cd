package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/shelfstream/internal/catalog"
	"github.com/mrlokans/shelfstream/internal/utils"
)

// maxCoverSize bounds a single cached image.
const maxCoverSize = 10 << 20

// Cache handles local caching of catalog cover images.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetCover returns the cached cover for an item key, or fetches and caches
// it if not present. Returns the file path to the cached cover, or empty
// string if coverURL is empty.
func (c *Cache) GetCover(ctx context.Context, key, coverURL string) (string, error) {
	coverURL = catalog.SecureURL(coverURL)
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(key, coverURL))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(ctx, coverURL, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// IsCached reports whether the cover for key and coverURL is on disk.
func (c *Cache) IsCached(key, coverURL string) bool {
	coverURL = catalog.SecureURL(coverURL)
	if coverURL == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(c.cacheDir, c.coverFilename(key, coverURL)))
	return err == nil
}

// InvalidateCover removes every cached cover for an item key.
func (c *Cache) InvalidateCover(key string) error {
	pattern := filepath.Join(c.cacheDir, "cover_"+safeKey(key)+"_*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Prune removes cached covers not modified within maxAge and returns how
// many files were removed.
func (c *Cache) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "cover_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to prune cover %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	return removed, nil
}

// coverFilename generates a unique filename based on item key and URL hash.
func (c *Cache) coverFilename(key, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%s_%x.jpg", safeKey(key), hash[:8])
}

func safeKey(key string) string {
	return strings.ReplaceAll(utils.SanitizeFilename(key), " ", "_")
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(ctx context.Context, url, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", catalog.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	// Create temp file in same directory for atomic write
	tmpFile, err := os.CreateTemp(c.cacheDir, "tmp_cover_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, maxCoverSize+1))
	if err != nil {
		return err
	}
	if n > maxCoverSize {
		return fmt.Errorf("cover exceeds %d bytes", maxCoverSize)
	}

	tmpFile.Close()

	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
