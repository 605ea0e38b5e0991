// Package csvdir retrieves daily snapshots from a local directory of CSV
// files, for offline runs and tests.
package csvdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kevinlanning/2019-nCoV/internal/domain"
)

// Source implements pipeline.SnapshotSource over a directory. Every *.csv
// file in the directory is one daily snapshot.
type Source struct {
	dir string
}

// NewSource creates a directory-backed snapshot source.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Snapshots reads every CSV in the directory, sorted by file name. An
// unreadable file or missing directory fails the whole retrieval.
func (s *Source) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	if len(names) == 0 {
		if _, statErr := os.Stat(s.dir); statErr != nil {
			return nil, fmt.Errorf("snapshot dir %s: %w", s.dir, statErr)
		}
	}
	sort.Strings(names)

	snapshots := make([]domain.Snapshot, 0, len(names))
	for _, path := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		snapshots = append(snapshots, domain.Snapshot{Name: filepath.Base(path), Data: data})
	}
	return snapshots, nil
}
