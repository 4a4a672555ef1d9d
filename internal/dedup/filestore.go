package dedup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// FileStore checks analysis presence by scanning the directory of
// result JSON files. It shares the directory with the file sink and
// never writes to it.
type FileStore struct {
	dir string
}

// NewFileStore creates a dedup store over the analyses directory
// under dataDir
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dir: filepath.Join(dataDir, "analyses")}
}

type resultFile struct {
	Items []struct {
		ItemID string `json:"item_id"`
	} `json:"items"`
}

// HasAnalyzed scans the result files for the item id. A missing
// directory means nothing was analyzed yet.
func (s *FileStore) HasAnalyzed(ctx context.Context, itemID string) (bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		// Fast path: the sink names files by item id.
		if strings.TrimSuffix(entry.Name(), ".json") == itemID {
			return true, nil
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		var rf resultFile
		if err := json.Unmarshal(data, &rf); err != nil {
			continue
		}
		for _, item := range rf.Items {
			if item.ItemID == itemID {
				return true, nil
			}
		}
	}

	return false, nil
}
