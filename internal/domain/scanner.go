// Package domain holds the harness synthesizer, the manifest resolver and the
// build pipeline that sequences them.
package domain

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// SourceExtension is the extension of the files the scanner collects.
const SourceExtension = ".rs"

// Scanner collects the source files of a crate.
type Scanner interface {
	// Scan walks root and returns every regular source file in walk order.
	// Paths matching one of the doublestar exclude patterns, relative to
	// root, are skipped; a matching directory is skipped entirely.
	Scan(root m.Path, exclude []string) ([]m.Path, error)
}

type scanner struct {
	adapter.SourceFSAdapter
}

// NewScanner creates a Scanner backed by the provided filesystem adapter.
func NewScanner(fsAdapter adapter.SourceFSAdapter) Scanner {
	return &scanner{SourceFSAdapter: fsAdapter}
}

func (s *scanner) Scan(root m.Path, exclude []string) ([]m.Path, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	var sources []m.Path

	err := s.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Error("Failed to walk source tree", "path", path, "error", err)
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if path != string(root) && s.excluded(root, path, exclude) {
			slog.Debug("Excluded from scan", "path", path)

			if info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !info.Mode().IsRegular() || filepath.Ext(path) != SourceExtension {
			return nil
		}

		sources = append(sources, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Scanned source tree", "root", root, "files", len(sources))

	return sources, nil
}

func (s *scanner) excluded(root m.Path, path string, exclude []string) bool {
	if len(exclude) == 0 {
		return false
	}

	rel, err := s.RelPath(root, m.Path(path))
	if err != nil {
		return false
	}

	name := filepath.ToSlash(string(rel))
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}

	return false
}
