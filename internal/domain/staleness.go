package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// StalenessGate decides whether a generated artifact must be regenerated.
type StalenessGate interface {
	// ShouldBuild reports whether output is missing or older than any source.
	// A source with exactly the same modification time as output does not
	// count as newer. Metadata errors other than a missing output are returned.
	ShouldBuild(output m.Path, sources []m.Path) (bool, error)
}

type stalenessGate struct {
	adapter.SourceFSAdapter
}

// NewStalenessGate creates a StalenessGate backed by the provided filesystem adapter.
func NewStalenessGate(fsAdapter adapter.SourceFSAdapter) StalenessGate {
	return &stalenessGate{SourceFSAdapter: fsAdapter}
}

func (g *stalenessGate) ShouldBuild(output m.Path, sources []m.Path) (bool, error) {
	outputInfo, err := g.FileInfo(output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Output missing, regenerating", "output", output)
			return true, nil
		}

		return false, fmt.Errorf("stat output %s: %w", output, err)
	}

	for _, source := range sources {
		sourceInfo, err := g.FileInfo(source)
		if err != nil {
			return false, fmt.Errorf("stat source %s: %w", source, err)
		}

		if modifiedAfter(sourceInfo.ModTime(), outputInfo.ModTime()) {
			slog.Debug("Source newer than output", "source", source, "output", output)
			return true, nil
		}
	}

	return false, nil
}

// modifiedAfter compares whole seconds first and breaks ties on nanoseconds.
// Equal timestamps are not "after".
func modifiedAfter(source, output time.Time) bool {
	if source.Unix() != output.Unix() {
		return source.Unix() > output.Unix()
	}

	return source.Nanosecond() > output.Nanosecond()
}
