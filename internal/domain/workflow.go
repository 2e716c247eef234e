package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// Artifact names inside the build directory.
const (
	HarnessFile  = "lib.rs"
	ManifestFile = "Cargo.toml"
	sourceDir    = "src"
)

const artifactPerm = 0o644

// WorkflowArgs carries the resolved configuration for one CLI invocation.
type WorkflowArgs struct {
	CrateDir m.Path
	// BuildDir is resolved against CrateDir when relative.
	BuildDir    m.Path
	PreludeFile m.Path
	Exclude     []string
	Force       bool
	// DryRun computes every artifact and reports diffs without writing.
	DryRun bool

	Targets  []m.Target
	Profile  string
	Parallel int

	TemplateDir  m.Path
	Destinations []string

	Debounce time.Duration
}

// GenerateResult reports what a generation produced.
type GenerateResult struct {
	Harness         HarnessResult
	BuildDir        m.Path
	HarnessWritten  bool
	ManifestWritten bool
	// Diff is the unified diff of both artifacts against disk. Only set on dry runs.
	Diff string
}

// Workflow sequences the generation, build, packaging and test steps.
type Workflow interface {
	Generate(ctx context.Context, args WorkflowArgs) (GenerateResult, error)
	List(args WorkflowArgs) (HarnessResult, error)
	Build(ctx context.Context, args WorkflowArgs, out io.Writer) (m.Path, error)
	Package(args WorkflowArgs) (m.Path, error)
	Test(ctx context.Context, args WorkflowArgs, out io.Writer) error
	Watch(ctx context.Context, args WorkflowArgs, onGenerate func(GenerateResult), onError func(error)) error
}

type workflow struct {
	adapter.SourceFSAdapter
	HarnessGenerator
	ManifestResolver
	CrossBuilder
	Packager
	SourceWatcher
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	generator HarnessGenerator,
	resolver ManifestResolver,
	builder CrossBuilder,
	packager Packager,
	watcher SourceWatcher,
) Workflow {
	return &workflow{
		SourceFSAdapter:  fsAdapter,
		HarnessGenerator: generator,
		ManifestResolver: resolver,
		CrossBuilder:     builder,
		Packager:         packager,
		SourceWatcher:    watcher,
	}
}

type layout struct {
	crateDir m.Path
	srcDir   m.Path
	buildDir m.Path
	harness  m.Path
	manifest m.Path
}

func (w *workflow) layout(args WorkflowArgs) (layout, error) {
	crate := string(args.CrateDir)
	if crate == "" {
		crate = "."
	}

	crateDir, err := filepath.Abs(crate)
	if err != nil {
		return layout{}, fmt.Errorf("resolve crate %s: %w", crate, err)
	}

	buildDir := args.BuildDir
	if buildDir == "" {
		buildDir = HarnessPackageName
	}

	l := layout{crateDir: m.Path(crateDir)}
	buildDir = l.resolve(buildDir)

	l.srcDir = w.JoinPath(crateDir, sourceDir)
	l.buildDir = buildDir
	l.harness = w.JoinPath(string(buildDir), HarnessFile)
	l.manifest = w.JoinPath(string(buildDir), ManifestFile)

	return l, nil
}

// resolve anchors a relative path at the crate directory.
func (l layout) resolve(path m.Path) m.Path {
	if filepath.IsAbs(string(path)) {
		return path
	}

	return m.Path(filepath.Join(string(l.crateDir), string(path)))
}

func (w *workflow) harnessArgs(args WorkflowArgs, l layout) (HarnessArgs, error) {
	hArgs := HarnessArgs{
		SourceDir: l.srcDir,
		Output:    l.harness,
		Prelude:   DefaultPrelude,
		Exclude:   args.Exclude,
		Force:     args.Force || args.DryRun,
	}

	if args.PreludeFile != "" {
		preludeFile := l.resolve(args.PreludeFile)

		content, err := w.ReadFile(preludeFile)
		if err != nil {
			return HarnessArgs{}, fmt.Errorf("read prelude %s: %w", preludeFile, err)
		}

		hArgs.Prelude = string(content)
		hArgs.Inputs = []m.Path{preludeFile}
	}

	return hArgs, nil
}

func (w *workflow) Generate(ctx context.Context, args WorkflowArgs) (GenerateResult, error) {
	l, err := w.layout(args)
	if err != nil {
		return GenerateResult{}, err
	}

	hArgs, err := w.harnessArgs(args, l)
	if err != nil {
		return GenerateResult{}, err
	}

	harness, err := w.HarnessGenerator.Generate(hArgs)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("generate harness: %w", err)
	}

	manifest, err := w.Resolve(ctx, l.crateDir)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("resolve manifest: %w", err)
	}

	manifestBytes, err := RenderManifest(manifest)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("render manifest: %w", err)
	}

	result := GenerateResult{Harness: harness, BuildDir: l.buildDir}

	if args.DryRun {
		result.Diff, err = w.dryRun(l, harness, manifestBytes)
		return result, err
	}

	if err := w.MkdirAll(l.buildDir); err != nil {
		slog.Error("Failed to create build directory", "path", l.buildDir, "error", err)
		return GenerateResult{}, fmt.Errorf("create %s: %w", l.buildDir, err)
	}

	if !harness.Skipped {
		if err := w.WriteFile(l.harness, []byte(harness.Content), artifactPerm); err != nil {
			slog.Error("Failed to write harness", "path", l.harness, "error", err)
			return GenerateResult{}, fmt.Errorf("write %s: %w", l.harness, err)
		}

		result.HarnessWritten = true
	}

	existing, err := w.readExisting(l.manifest)
	if err != nil {
		return GenerateResult{}, err
	}

	if string(existing) != string(manifestBytes) {
		if err := w.WriteFile(l.manifest, manifestBytes, artifactPerm); err != nil {
			slog.Error("Failed to write manifest", "path", l.manifest, "error", err)
			return GenerateResult{}, fmt.Errorf("write %s: %w", l.manifest, err)
		}

		result.ManifestWritten = true
	}

	slog.Info("Generated harness crate",
		"build_dir", l.buildDir,
		"harness_written", result.HarnessWritten,
		"manifest_written", result.ManifestWritten)

	return result, nil
}

func (w *workflow) dryRun(l layout, harness HarnessResult, manifest []byte) (string, error) {
	var diff string

	for _, artifact := range []struct {
		path    m.Path
		content string
	}{
		{l.harness, harness.Content},
		{l.manifest, string(manifest)},
	} {
		existing, err := w.readExisting(artifact.path)
		if err != nil {
			return "", err
		}

		name := string(artifact.path)
		if rel, err := w.RelPath(l.crateDir, artifact.path); err == nil {
			name = string(rel)
		}

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(existing)),
			B:        difflib.SplitLines(artifact.content),
			FromFile: "a/" + filepath.ToSlash(name),
			ToFile:   "b/" + filepath.ToSlash(name),
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", artifact.path, err)
		}

		diff += text
	}

	return diff, nil
}

// readExisting returns nil for a file that does not exist yet.
func (w *workflow) readExisting(path m.Path) ([]byte, error) {
	content, err := w.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return content, nil
}

func (w *workflow) List(args WorkflowArgs) (HarnessResult, error) {
	l, err := w.layout(args)
	if err != nil {
		return HarnessResult{}, err
	}

	hArgs, err := w.harnessArgs(args, l)
	if err != nil {
		return HarnessResult{}, err
	}

	return w.Collect(hArgs)
}

func (w *workflow) Build(ctx context.Context, args WorkflowArgs, out io.Writer) (m.Path, error) {
	args.DryRun = false

	generated, err := w.Generate(ctx, args)
	if err != nil {
		return "", err
	}

	targets := args.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	library, err := w.CrossBuilder.Build(ctx, BuildArgs{
		BuildDir: generated.BuildDir,
		Targets:  targets,
		Profile:  args.Profile,
		Parallel: args.Parallel,
	}, out)
	if err != nil {
		return "", fmt.Errorf("cross-build: %w", err)
	}

	return library, nil
}

func (w *workflow) Package(args WorkflowArgs) (m.Path, error) {
	l, err := w.layout(args)
	if err != nil {
		return "", err
	}

	if err := w.MkdirAll(l.buildDir); err != nil {
		return "", fmt.Errorf("create %s: %w", l.buildDir, err)
	}

	return w.Packager.Package(PackageArgs{BuildDir: l.buildDir, TemplateDir: args.TemplateDir})
}

func (w *workflow) Test(ctx context.Context, args WorkflowArgs, out io.Writer) error {
	if args.TemplateDir == "" {
		return ErrNoTemplate
	}

	if _, err := w.Build(ctx, args, out); err != nil {
		return err
	}

	if _, err := w.Package(args); err != nil {
		return fmt.Errorf("package: %w", err)
	}

	l, err := w.layout(args)
	if err != nil {
		return err
	}

	return w.RunTests(ctx, l.buildDir, args.Destinations, out)
}

func (w *workflow) Watch(ctx context.Context, args WorkflowArgs, onGenerate func(GenerateResult), onError func(error)) error {
	l, err := w.layout(args)
	if err != nil {
		return err
	}

	args.DryRun = false

	return w.SourceWatcher.Watch(ctx, WatchArgs{
		Root:     l.srcDir,
		Debounce: args.Debounce,
		Regenerate: func(ctx context.Context) error {
			result, err := w.Generate(ctx, args)
			if err != nil {
				return err
			}

			if onGenerate != nil {
				onGenerate(result)
			}

			// Forced generation applies to the first pass only.
			args.Force = false

			return nil
		},
		OnError: onError,
	})
}
