package domain

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// Fixed names of the Xcode project laid out next to the harness.
const (
	ProjectName   = "RustTests.xcodeproj"
	BridgeName    = "RustTests.m"
	ProjectScheme = "RustTests"
)

// DefaultDestination is the simulator xcodebuild targets when none is configured.
const DefaultDestination = "platform=iOS Simulator,name=iPhone 15"

// ErrNoTemplate is returned when packaging without a project template directory.
var ErrNoTemplate = errors.New("xcode project template directory not configured")

//go:embed templates/RustTests.m
var bridgeSource string

// PackageArgs describes the Xcode project layout.
type PackageArgs struct {
	BuildDir    m.Path
	TemplateDir m.Path
}

// Packager lays out the Xcode project and drives its tests.
type Packager interface {
	// Package copies the project template into the build directory and writes
	// the XCTest bridge. It returns the project path.
	Package(args PackageArgs) (m.Path, error)

	// RunTests runs the project's test scheme on every destination.
	RunTests(ctx context.Context, buildDir m.Path, destinations []string, out io.Writer) error
}

type packager struct {
	adapter.SourceFSAdapter
	adapter.XcodeAdapter
}

// NewPackager creates a Packager with the provided dependencies.
func NewPackager(fsAdapter adapter.SourceFSAdapter, xcode adapter.XcodeAdapter) Packager {
	return &packager{
		SourceFSAdapter: fsAdapter,
		XcodeAdapter:    xcode,
	}
}

func (p *packager) Package(args PackageArgs) (m.Path, error) {
	if args.TemplateDir == "" {
		return "", ErrNoTemplate
	}

	info, err := p.FileInfo(args.TemplateDir)
	if err != nil {
		return "", fmt.Errorf("stat template %s: %w", args.TemplateDir, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("template %s is not a directory", args.TemplateDir)
	}

	project := p.JoinPath(string(args.BuildDir), ProjectName)

	if err := p.CopyDir(args.TemplateDir, project); err != nil {
		slog.Error("Failed to copy project template", "template", args.TemplateDir, "error", err)
		return "", fmt.Errorf("copy template %s: %w", args.TemplateDir, err)
	}

	bridge := p.JoinPath(string(args.BuildDir), BridgeName)
	if err := p.WriteFile(bridge, []byte(bridgeSource), 0o644); err != nil {
		slog.Error("Failed to write test bridge", "path", bridge, "error", err)
		return "", fmt.Errorf("write %s: %w", bridge, err)
	}

	slog.Info("Packaged project", "project", project)

	return project, nil
}

func (p *packager) RunTests(ctx context.Context, buildDir m.Path, destinations []string, out io.Writer) error {
	if len(destinations) == 0 {
		destinations = []string{DefaultDestination}
	}

	project := p.JoinPath(string(buildDir), ProjectName)

	if _, err := p.FileInfo(project); err != nil {
		return fmt.Errorf("stat project %s: %w", project, err)
	}

	slog.Info("Running tests", "project", project, "destinations", destinations)

	if err := p.Test(ctx, project, ProjectScheme, destinations, out); err != nil {
		slog.Error("Tests failed", "project", project, "error", err)
		return fmt.Errorf("xcodebuild test: %w", err)
	}

	return nil
}
