package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/tidwall/gjson"

	m "iostest.dev/pkg/iostest/internal/model"
)

// ErrMalformedOutput is returned when a cargo subcommand prints something
// other than the structured document it is documented to print.
var ErrMalformedOutput = errors.New("malformed cargo output")

const cargoTool = "cargo"

// CargoAdapter wraps the cargo subcommands iostest depends on.
type CargoAdapter interface {
	// ReadManifest returns the crate's declared manifest (`cargo read-manifest`).
	ReadManifest(ctx context.Context, crateDir m.Path) (m.DeclaredManifest, error)

	// Metadata returns a fresh snapshot of the crate's resolved package graph
	// (`cargo metadata`).
	Metadata(ctx context.Context, crateDir m.Path) (m.PackageGraph, error)

	// Build compiles the crate at manifestDir for target, streaming cargo's
	// output to out.
	Build(ctx context.Context, manifestDir m.Path, target m.Target, release bool, out io.Writer) error
}

// LocalCargoAdapter invokes the cargo found on PATH.
type LocalCargoAdapter struct {
	cmd CommandAdapter
}

// NewLocalCargoAdapter constructs a LocalCargoAdapter running through cmd.
func NewLocalCargoAdapter(cmd CommandAdapter) *LocalCargoAdapter {
	return &LocalCargoAdapter{cmd: cmd}
}

// ReadManifest runs `cargo read-manifest` for the crate in crateDir.
func (a *LocalCargoAdapter) ReadManifest(ctx context.Context, crateDir m.Path) (m.DeclaredManifest, error) {
	out, err := a.cmd.Output(ctx, string(crateDir), cargoTool,
		"read-manifest", "--manifest-path", manifestPath(crateDir))
	if err != nil {
		return m.DeclaredManifest{}, err
	}

	return ParseReadManifest(out)
}

// Metadata runs `cargo metadata` for the crate in crateDir.
func (a *LocalCargoAdapter) Metadata(ctx context.Context, crateDir m.Path) (m.PackageGraph, error) {
	out, err := a.cmd.Output(ctx, string(crateDir), cargoTool,
		"metadata", "--format-version", "1", "--manifest-path", manifestPath(crateDir))
	if err != nil {
		return m.PackageGraph{}, err
	}

	return ParseMetadata(out)
}

// Build runs `cargo build --target` against the manifest in manifestDir.
func (a *LocalCargoAdapter) Build(ctx context.Context, manifestDir m.Path, target m.Target, release bool, out io.Writer) error {
	args := []string{"build", "--target", string(target), "--manifest-path", manifestPath(manifestDir)}
	if release {
		args = append(args, "--release")
	}

	return a.cmd.Run(ctx, string(manifestDir), out, cargoTool, args...)
}

func manifestPath(dir m.Path) string {
	return filepath.Join(string(dir), "Cargo.toml")
}

// ParseReadManifest decodes the JSON document printed by `cargo read-manifest`.
func ParseReadManifest(data []byte) (m.DeclaredManifest, error) {
	if !gjson.ValidBytes(data) {
		return m.DeclaredManifest{}, fmt.Errorf("%w: read-manifest did not print a JSON object", ErrMalformedOutput)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return m.DeclaredManifest{}, fmt.Errorf("%w: read-manifest did not print a JSON object", ErrMalformedOutput)
	}

	name, err := requireString(doc, "name")
	if err != nil {
		return m.DeclaredManifest{}, err
	}

	manifest := m.DeclaredManifest{
		Name:    name,
		Version: doc.Get("version").String(),
	}

	deps := doc.Get("dependencies")
	if !deps.Exists() || deps.Type == gjson.Null {
		return manifest, nil
	}

	if !deps.IsArray() {
		return m.DeclaredManifest{}, fmt.Errorf("%w: field %q is not an array", ErrMalformedOutput, "dependencies")
	}

	for i, dep := range deps.Array() {
		declared, err := parseDeclaredDependency(dep, i)
		if err != nil {
			return m.DeclaredManifest{}, err
		}

		manifest.Dependencies = append(manifest.Dependencies, declared)
	}

	slog.Debug("parsed crate manifest", "name", manifest.Name, "dependencies", len(manifest.Dependencies))

	return manifest, nil
}

func parseDeclaredDependency(dep gjson.Result, index int) (m.DeclaredDependency, error) {
	field := fmt.Sprintf("dependencies.%d", index)

	if !dep.IsObject() {
		return m.DeclaredDependency{}, fmt.Errorf("%w: field %q is not an object", ErrMalformedOutput, field)
	}

	name, err := requireString(dep, "name")
	if err != nil {
		return m.DeclaredDependency{}, fmt.Errorf("%s: %w", field, err)
	}

	kind := m.DependencyNormal
	if k := dep.Get("kind"); k.Type == gjson.String {
		kind = m.DependencyKind(k.String())
	}

	declared := m.DeclaredDependency{
		Name:   name,
		Rename: dep.Get("rename").String(),
		Req:    dep.Get("req").String(),
		Kind:   kind,
	}

	for _, feature := range dep.Get("features").Array() {
		declared.Features = append(declared.Features, feature.String())
	}

	return declared, nil
}

// ParseMetadata decodes the JSON document printed by `cargo metadata --format-version 1`.
func ParseMetadata(data []byte) (m.PackageGraph, error) {
	if !gjson.ValidBytes(data) {
		return m.PackageGraph{}, fmt.Errorf("%w: metadata did not print a JSON object", ErrMalformedOutput)
	}

	doc := gjson.ParseBytes(data)

	packages := doc.Get("packages")
	if !packages.IsArray() {
		return m.PackageGraph{}, fmt.Errorf("%w: missing array field %q", ErrMalformedOutput, "packages")
	}

	graph := m.PackageGraph{}

	for i, pkg := range packages.Array() {
		field := fmt.Sprintf("packages.%d", i)

		id, err := requireString(pkg, "id")
		if err != nil {
			return m.PackageGraph{}, fmt.Errorf("%s: %w", field, err)
		}

		name, err := requireString(pkg, "name")
		if err != nil {
			return m.PackageGraph{}, fmt.Errorf("%s: %w", field, err)
		}

		version, err := requireString(pkg, "version")
		if err != nil {
			return m.PackageGraph{}, fmt.Errorf("%s: %w", field, err)
		}

		graph.Packages = append(graph.Packages, m.GraphPackage{ID: id, Name: name, Version: version})
	}

	root := doc.Get("resolve.root")
	if root.Type != gjson.String {
		return graph, nil
	}

	graph.Root = root.String()

	doc.Get("resolve.nodes").ForEach(func(_, node gjson.Result) bool {
		if node.Get("id").String() != graph.Root {
			return true
		}

		for _, dep := range node.Get("dependencies").Array() {
			graph.DirectDeps = append(graph.DirectDeps, dep.String())
		}

		for _, dep := range node.Get("deps").Array() {
			graph.RootDeps = append(graph.RootDeps, parseGraphDependency(dep))
		}

		return false
	})

	slog.Debug("parsed package graph", "packages", len(graph.Packages), "root", graph.Root, "direct", len(graph.DirectDeps))

	return graph, nil
}

// parseGraphDependency decodes one `resolve.nodes[].deps[]` entry. A null
// dep_kinds kind means a normal dependency.
func parseGraphDependency(dep gjson.Result) m.GraphDependency {
	edge := m.GraphDependency{
		Name:      dep.Get("name").String(),
		PackageID: dep.Get("pkg").String(),
	}

	for _, kind := range dep.Get("dep_kinds").Array() {
		value := kind.Get("kind")
		if value.Type != gjson.String {
			edge.Kinds = append(edge.Kinds, m.DependencyNormal)
			continue
		}

		edge.Kinds = append(edge.Kinds, m.DependencyKind(value.String()))
	}

	return edge
}

func requireString(obj gjson.Result, field string) (string, error) {
	value := obj.Get(field)
	if !value.Exists() {
		return "", fmt.Errorf("%w: missing field %q", ErrMalformedOutput, field)
	}

	if value.Type != gjson.String {
		return "", fmt.Errorf("%w: field %q is not a string", ErrMalformedOutput, field)
	}

	return value.String(), nil
}
