package transcript

import (
	"os"
	"path/filepath"
	"strings"
)

// Cache stores fetched transcripts as plain text files so repeated
// analysis runs never refetch. One file per item under
// <dir>/transcripts/<item_id>.txt.
type Cache struct {
	dir string
}

// NewCache creates a file transcript cache rooted at dataDir
func NewCache(dataDir string) *Cache {
	return &Cache{dir: filepath.Join(dataDir, "transcripts")}
}

// Get returns the cached transcript for the item, if present
func (c *Cache) Get(itemID string) (string, bool) {
	data, err := os.ReadFile(c.path(itemID))
	if err != nil {
		return "", false
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

// Put writes the transcript for the item, creating the directory on
// first use
func (c *Cache) Put(itemID, text string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path(itemID), []byte(text), 0o644)
}

func (c *Cache) path(itemID string) string {
	return filepath.Join(c.dir, itemID+".txt")
}
