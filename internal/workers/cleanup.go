package workers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/pkg/logger"
)

// CleanupWorker removes temporary download artifacts left behind by
// transcript fetching. Result and transcript files are never touched.
type CleanupWorker struct {
	dataDir string
	maxAge  time.Duration
}

// NewCleanupWorker creates the cleanup worker
func NewCleanupWorker(dataDir string, maxAge time.Duration) *CleanupWorker {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &CleanupWorker{dataDir: dataDir, maxAge: maxAge}
}

// Name returns worker name for logging
func (w *CleanupWorker) Name() string { return "cleanup" }

// Run deletes stale temporary files under the data directory
func (w *CleanupWorker) Run(ctx context.Context) error {
	tmpDir := filepath.Join(w.dataDir, "tmp")
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-w.maxAge)
	removed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".tmp") && !strings.HasSuffix(entry.Name(), ".vtt") {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(tmpDir, entry.Name())); err == nil {
			removed++
		}
	}

	if removed > 0 {
		logger.Info("temporary files cleaned",
			zap.Int("removed", removed),
		)
	}
	return nil
}
