package controller

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

// SimpleUI implements UI by printing to the cobra command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayGenerate reports which artifacts were written.
func (s *SimpleUI) DisplayGenerate(ctx context.Context, result domain.GenerateResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if result.Harness.Skipped {
		s.printf("%s %s (up to date)\n", skipStyle.Render("skipped"), domain.HarnessFile)
	} else {
		s.printf("%s %s (%d tests)\n", s.written(result.HarnessWritten), domain.HarnessFile, result.Harness.Registry.Len())
	}

	s.printf("%s %s\n", s.written(result.ManifestWritten), domain.ManifestFile)

	for _, d := range result.Harness.Diagnostics {
		s.printf("%s %s\n", warnStyle.Render("warning"), d)
	}
}

func (s *SimpleUI) written(written bool) string {
	if written {
		return okStyle.Render("wrote")
	}

	return skipStyle.Render("unchanged")
}

// DisplayDiff prints a dry-run diff.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if diff == "" {
		s.printf("No changes\n")
		return
	}

	s.printf("%s", diff)
}

type listedTest struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

type listedDiagnostic struct {
	Source  string `yaml:"source"`
	Line    int    `yaml:"line"`
	Message string `yaml:"message"`
}

type listing struct {
	Tests       []listedTest       `yaml:"tests"`
	Diagnostics []listedDiagnostic `yaml:"diagnostics,omitempty"`
}

// DisplayList renders the discovered tests and near misses.
func (s *SimpleUI) DisplayList(ctx context.Context, result domain.HarnessResult, root m.Path, format ListFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	list := buildListing(result, root)

	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(list)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		s.printf("%s", out)
	case FormatTable, "":
		s.printf("%s", renderTestTable(list))

		for _, d := range list.Diagnostics {
			s.printf("%s %s:%d: %s\n", warnStyle.Render("warning"), d.Source, d.Line, d.Message)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	return nil
}

func buildListing(result domain.HarnessResult, root m.Path) listing {
	list := listing{Tests: make([]listedTest, 0, result.Registry.Len())}

	for _, test := range result.Registry.Tests() {
		list.Tests = append(list.Tests, listedTest{Name: test.Name, Source: relative(root, test.Source)})
	}

	for _, d := range result.Diagnostics {
		list.Diagnostics = append(list.Diagnostics, listedDiagnostic{
			Source:  relative(root, d.Source),
			Line:    d.Line,
			Message: d.Message,
		})
	}

	return list
}

func renderTestTable(list listing) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Source"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, test := range list.Tests {
		table.Append([]string{test.Name, test.Source})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(list.Tests)), ""})

	table.Render()

	return tableBuffer.String()
}

func relative(root m.Path, path m.Path) string {
	if root == "" {
		return filepath.ToSlash(string(path))
	}

	rel, err := filepath.Rel(string(root), string(path))
	if err != nil {
		return filepath.ToSlash(string(path))
	}

	return filepath.ToSlash(rel)
}

// DisplayBuild reports the fused library.
func (s *SimpleUI) DisplayBuild(ctx context.Context, library m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s %s\n", okStyle.Render("built"), pathStyle.Render(string(library)))
}

// DisplayPackage reports the laid out Xcode project.
func (s *SimpleUI) DisplayPackage(ctx context.Context, project m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s %s\n", okStyle.Render("packaged"), pathStyle.Render(string(project)))
}

// DisplayTestsPassed reports a successful xcodebuild test run.
func (s *SimpleUI) DisplayTestsPassed(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s all tests passed\n", okStyle.Render("ok"))
}

// DisplayWatching announces the watched directory.
func (s *SimpleUI) DisplayWatching(ctx context.Context, root m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Watching %s (Ctrl+C to stop)\n", pathStyle.Render(string(root)))
}

// DisplayError prints a non-fatal error.
func (s *SimpleUI) DisplayError(_ context.Context, err error) {
	s.printf("%s %v\n", errorStyle.Render("error"), err)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
