package domain

import (
	"fmt"
	"log/slog"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// HarnessArgs describes one harness generation.
type HarnessArgs struct {
	SourceDir m.Path
	Output    m.Path
	Prelude   string
	Exclude   []string
	// Inputs are extra files, such as a prelude file, that the output is
	// checked against alongside the scanned sources.
	Inputs []m.Path
	// Force regenerates even when the output is newer than every source.
	Force bool
}

// HarnessResult is the outcome of a harness generation. When Skipped is true
// the output is up to date and only Sources is populated.
type HarnessResult struct {
	Output      m.Path
	Sources     []m.Path
	Registry    m.Registry
	Diagnostics []m.Diagnostic
	Content     string
	Skipped     bool
}

// HarnessGenerator turns a crate's source tree into a harness unit.
type HarnessGenerator interface {
	// Collect scans and extracts without consulting the staleness gate.
	Collect(args HarnessArgs) (HarnessResult, error)

	// Generate returns the rendered harness, or a skipped result when the
	// existing output is up to date. Nothing is written.
	Generate(args HarnessArgs) (HarnessResult, error)
}

type harnessGenerator struct {
	adapter.SourceFSAdapter
	Scanner
	StalenessGate
}

// NewHarnessGenerator creates a HarnessGenerator with the provided dependencies.
func NewHarnessGenerator(fsAdapter adapter.SourceFSAdapter, scanner Scanner, gate StalenessGate) HarnessGenerator {
	return &harnessGenerator{
		SourceFSAdapter: fsAdapter,
		Scanner:         scanner,
		StalenessGate:   gate,
	}
}

func (h *harnessGenerator) Generate(args HarnessArgs) (HarnessResult, error) {
	sources, err := h.Scan(args.SourceDir, args.Exclude)
	if err != nil {
		return HarnessResult{}, fmt.Errorf("scan sources: %w", err)
	}

	if !args.Force {
		gated := append(append([]m.Path(nil), sources...), args.Inputs...)

		stale, err := h.ShouldBuild(args.Output, gated)
		if err != nil {
			return HarnessResult{}, fmt.Errorf("check staleness: %w", err)
		}

		if !stale {
			slog.Info("Harness up to date", "output", args.Output, "sources", len(sources))
			return HarnessResult{Output: args.Output, Sources: sources, Skipped: true}, nil
		}
	}

	result, err := h.extract(args, sources)
	if err != nil {
		return HarnessResult{}, err
	}

	content, err := Assemble(args.Prelude, result.Registry)
	if err != nil {
		return HarnessResult{}, fmt.Errorf("assemble harness: %w", err)
	}

	result.Content = content

	slog.Info("Assembled harness", "output", args.Output, "tests", result.Registry.Len())

	return result, nil
}

func (h *harnessGenerator) Collect(args HarnessArgs) (HarnessResult, error) {
	sources, err := h.Scan(args.SourceDir, args.Exclude)
	if err != nil {
		return HarnessResult{}, fmt.Errorf("scan sources: %w", err)
	}

	return h.extract(args, sources)
}

func (h *harnessGenerator) extract(args HarnessArgs, sources []m.Path) (HarnessResult, error) {
	var (
		tests       []m.Test
		diagnostics []m.Diagnostic
	)

	for _, source := range sources {
		content, err := h.ReadFile(source)
		if err != nil {
			slog.Error("Failed to read source", "path", source, "error", err)
			return HarnessResult{}, fmt.Errorf("read %s: %w", source, err)
		}

		found, notes := ExtractTests(source, string(content))
		for _, note := range notes {
			slog.Warn("Skipped test", "source", note.Source, "line", note.Line, "reason", note.Message)
		}

		tests = append(tests, found...)
		diagnostics = append(diagnostics, notes...)
	}

	registry, err := m.NewRegistry(tests...)
	if err != nil {
		return HarnessResult{}, err
	}

	return HarnessResult{
		Output:      args.Output,
		Sources:     sources,
		Registry:    registry,
		Diagnostics: diagnostics,
	}, nil
}
