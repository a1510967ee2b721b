package daemon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CleanupOldFiles removes the files of dir last modified before now minus
// maxAge and returns how many were removed. A missing dir has nothing to
// clean.
func CleanupOldFiles(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)

	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, errors.Wrapf(err, "failed to list %s", dir)
	}

	removed := 0
	cutoff := now.Add(-maxAge)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()

		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("failed to remove old temp file")
			continue
		}

		removed++
	}

	return removed, nil
}

// RunCleanup cleans dir once right away and then every interval until the
// context ends.
func RunCleanup(ctx context.Context, dir string, interval, maxAge time.Duration) {
	clean := func() {
		removed, err := CleanupOldFiles(dir, maxAge, time.Now())

		if err != nil {
			log.Error().Err(err).Msg("failed to clean temp files")
			return
		}

		if removed > 0 {
			log.Info().Int("removed", removed).Str("dir", dir).Msg("cleaned old temp files")
		}
	}

	clean()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clean()
		}
	}
}
