package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// Build profiles understood by the cross-build driver.
const (
	ProfileDebug   = "debug"
	ProfileRelease = "release"
)

// UniversalLibrary is the file name of the fused static library.
const UniversalLibrary = "libRustTests.a"

// DefaultTargets are the Apple targets built when none are configured.
var DefaultTargets = []m.Target{"x86_64-apple-ios", "aarch64-apple-ios"}

// ErrNoTargets is returned when a build is requested for an empty target list.
var ErrNoTargets = errors.New("no build targets")

// BuildArgs describes one cross-build of the harness crate.
type BuildArgs struct {
	BuildDir m.Path
	Targets  []m.Target
	Profile  string
	// Parallel caps the number of concurrent cargo builds. Values below 1 mean 1.
	Parallel int
}

// CrossBuilder compiles the harness crate for every target and fuses the results.
type CrossBuilder interface {
	// Build returns the path of the universal library.
	Build(ctx context.Context, args BuildArgs, out io.Writer) (m.Path, error)
}

type crossBuilder struct {
	adapter.SourceFSAdapter
	adapter.CargoAdapter
	adapter.LipoAdapter
}

// NewCrossBuilder creates a CrossBuilder with the provided dependencies.
func NewCrossBuilder(fsAdapter adapter.SourceFSAdapter, cargo adapter.CargoAdapter, lipo adapter.LipoAdapter) CrossBuilder {
	return &crossBuilder{
		SourceFSAdapter: fsAdapter,
		CargoAdapter:    cargo,
		LipoAdapter:     lipo,
	}
}

func (b *crossBuilder) Build(ctx context.Context, args BuildArgs, out io.Writer) (m.Path, error) {
	if len(args.Targets) == 0 {
		return "", ErrNoTargets
	}

	profile := args.Profile
	if profile == "" {
		profile = ProfileDebug
	}

	if profile != ProfileDebug && profile != ProfileRelease {
		return "", fmt.Errorf("unknown build profile %q", profile)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(args.Parallel, 1))

	for _, target := range args.Targets {
		group.Go(func() error {
			slog.Info("Building target", "target", target, "profile", profile)

			if err := b.CargoAdapter.Build(groupCtx, args.BuildDir, target, profile == ProfileRelease, out); err != nil {
				slog.Error("Failed to build target", "target", target, "error", err)
				return fmt.Errorf("build %s: %w", target, err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return "", err
	}

	inputs := make([]m.Path, 0, len(args.Targets))
	for _, target := range args.Targets {
		inputs = append(inputs, TargetArtifact(b.SourceFSAdapter, args.BuildDir, target, profile))
	}

	output := b.JoinPath(string(args.BuildDir), UniversalLibrary)
	partial := b.JoinPath(string(args.BuildDir), "."+UniversalLibrary+".partial")

	if err := b.Create(ctx, partial, inputs, out); err != nil {
		if rmErr := b.Remove(partial); rmErr != nil {
			slog.Warn("Failed to remove partial library", "path", partial, "error", rmErr)
		}

		slog.Error("Failed to fuse libraries", "output", output, "error", err)

		return "", fmt.Errorf("lipo: %w", err)
	}

	if err := b.Rename(partial, output); err != nil {
		return "", fmt.Errorf("rename %s: %w", partial, err)
	}

	slog.Info("Built universal library", "path", output, "targets", len(args.Targets))

	return output, nil
}

// TargetArtifact is where cargo leaves the harness static library for target.
func TargetArtifact(fs adapter.SourceFSAdapter, buildDir m.Path, target m.Target, profile string) m.Path {
	return fs.JoinPath(string(buildDir), "target", string(target), profile, "lib"+HarnessLibName+".a")
}
