package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/blang/semver/v4"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

var (
	// ErrUnsupportedSource is returned for a package id that is neither a
	// local path nor the crates.io registry.
	ErrUnsupportedSource = errors.New("unsupported source type")

	// ErrDuplicateDependency is returned when two dependencies claim the same
	// key with different origins.
	ErrDuplicateDependency = errors.New("duplicate dependency")
)

const (
	crateManifestName = "Cargo.toml"
	cratesIORegistry  = `(?:registry\+https://github\.com/rust-lang/crates\.io-index|sparse\+https://index\.crates\.io/)`
)

// Package ids come in two spellings: the legacy `name version (source)`
// form and the PackageIdSpec form `source#[name@]version` of newer cargo.
var (
	legacyPathID     = regexp.MustCompile(`^\S+ \S+ \(path\+file://(.+)\)$`)
	legacyRegistryID = regexp.MustCompile(`^\S+ (\S+) \(` + cratesIORegistry + `\)$`)
	specPathID       = regexp.MustCompile(`^path\+file://([^#]+)#\S+$`)
	specRegistryID   = regexp.MustCompile(`^` + cratesIORegistry + `#(?:[^@\s]+@)?(\S+)$`)
)

// ManifestResolver resolves the dependency table of the harness crate.
type ManifestResolver interface {
	// Resolve reads the crate in crateDir and returns the harness manifest:
	// the crate itself as a path dependency plus every dev-dependency with
	// its origin resolved. crateDir should be absolute.
	Resolve(ctx context.Context, crateDir m.Path) (m.Manifest, error)
}

type manifestResolver struct {
	adapter.CargoAdapter
}

// NewManifestResolver creates a ManifestResolver backed by the provided cargo adapter.
func NewManifestResolver(cargo adapter.CargoAdapter) ManifestResolver {
	return &manifestResolver{CargoAdapter: cargo}
}

func (r *manifestResolver) Resolve(ctx context.Context, crateDir m.Path) (m.Manifest, error) {
	declared, err := r.ReadManifest(ctx, crateDir)
	if err != nil {
		slog.Error("Failed to read crate manifest", "crate", crateDir, "error", err)
		return m.Manifest{}, fmt.Errorf("read crate manifest: %w", err)
	}

	devDeps := TestOnlyDependencies(declared)

	var resolved []m.Dependency

	if len(devDeps) > 0 {
		graph, err := r.Metadata(ctx, crateDir)
		if err != nil {
			slog.Error("Failed to read package graph", "crate", crateDir, "error", err)
			return m.Manifest{}, fmt.Errorf("read package graph: %w", err)
		}

		resolved, err = ResolveOrigins(devDeps, graph)
		if err != nil {
			return m.Manifest{}, err
		}
	}

	manifest, err := ComposeManifest(declared.Name, crateDir, resolved)
	if err != nil {
		return m.Manifest{}, err
	}

	slog.Info("Resolved harness manifest", "crate", declared.Name, "dependencies", len(manifest.Dependencies))

	return manifest, nil
}

// TestOnlyDependencies keeps the dev-dependencies of a declared manifest,
// defaulting a missing requirement to AnyVersion.
func TestOnlyDependencies(declared m.DeclaredManifest) []m.DeclaredDependency {
	var devDeps []m.DeclaredDependency

	for _, dep := range declared.Dependencies {
		if dep.Kind != m.DependencyDev {
			continue
		}

		if dep.Req == "" {
			dep.Req = m.AnyVersion
		}

		devDeps = append(devDeps, dep)
	}

	return devDeps
}

// ResolveOrigins matches each dev-dependency against the package graph and
// classifies the matched package's origin. Dependencies missing from the
// graph are skipped.
func ResolveOrigins(devDeps []m.DeclaredDependency, graph m.PackageGraph) ([]m.Dependency, error) {
	resolved := make([]m.Dependency, 0, len(devDeps))

	for _, declared := range devDeps {
		pkg, ok := findPackage(graph, declared)
		if !ok {
			slog.Debug("Dev-dependency not in package graph", "name", declared.Name, "req", declared.Req)
			continue
		}

		origin, err := ClassifyPackageID(pkg.ID)
		if err != nil {
			return nil, err
		}

		dep := m.Dependency{
			Name:     declared.Key(),
			Origin:   origin,
			Features: declared.Features,
		}
		if declared.Rename != "" {
			dep.Package = declared.Name
		}

		resolved = append(resolved, dep)
	}

	return resolved, nil
}

// findPackage picks the graph package a dev-dependency resolved to. The root
// node names its edges by extern name, so a dev edge with the dependency's key
// wins outright. Otherwise the highest version satisfying the requirement is
// taken, direct dependencies first.
func findPackage(graph m.PackageGraph, declared m.DeclaredDependency) (m.GraphPackage, bool) {
	byID := make(map[string]m.GraphPackage, len(graph.Packages))
	for _, pkg := range graph.Packages {
		byID[pkg.ID] = pkg
	}

	extern := strings.ReplaceAll(declared.Key(), "-", "_")
	for _, edge := range graph.RootDeps {
		if edge.Name != extern || !edge.HasKind(m.DependencyDev) {
			continue
		}

		if pkg, ok := byID[edge.PackageID]; ok && pkg.Name == declared.Name {
			return pkg, true
		}
	}

	accepts, err := ParseRequirement(declared.Req)
	if err != nil {
		slog.Debug("Ignoring version requirement", "name", declared.Name, "req", declared.Req, "error", err)
		accepts = anyVersion
	}

	direct := make([]m.GraphPackage, 0, len(graph.DirectDeps))
	for _, id := range graph.DirectDeps {
		if pkg, ok := byID[id]; ok {
			direct = append(direct, pkg)
		}
	}

	if pkg, ok := highestMatching(direct, declared.Name, accepts); ok {
		return pkg, true
	}

	return highestMatching(graph.Packages, declared.Name, accepts)
}

func highestMatching(candidates []m.GraphPackage, name string, accepts semver.Range) (m.GraphPackage, bool) {
	var (
		best    m.GraphPackage
		bestVer semver.Version
		found   bool
	)

	for _, pkg := range candidates {
		if pkg.Name != name {
			continue
		}

		ver, err := semver.ParseTolerant(pkg.Version)
		if err != nil || !accepts(ver) {
			continue
		}

		if !found || ver.GT(bestVer) {
			best, bestVer, found = pkg, ver, true
		}
	}

	return best, found
}

// ClassifyPackageID derives a dependency origin from a cargo package id.
func ClassifyPackageID(id string) (m.Origin, error) {
	if match := legacyPathID.FindStringSubmatch(id); match != nil {
		return localOriginFromURL(match[1]), nil
	}

	if match := specPathID.FindStringSubmatch(id); match != nil {
		return localOriginFromURL(match[1]), nil
	}

	version := ""
	if match := legacyRegistryID.FindStringSubmatch(id); match != nil {
		version = match[1]
	} else if match := specRegistryID.FindStringSubmatch(id); match != nil {
		version = match[1]
	}

	if version == "" {
		return m.Origin{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, id)
	}

	if _, err := semver.Parse(version); err != nil {
		return m.Origin{}, fmt.Errorf("%w: invalid version %q in %s", ErrUnsupportedSource, version, id)
	}

	return m.RemoteOrigin(version), nil
}

func localOriginFromURL(raw string) m.Origin {
	path := raw
	if unescaped, err := url.PathUnescape(raw); err == nil {
		path = unescaped
	}

	path = strings.TrimSuffix(path, "/"+crateManifestName)

	return m.LocalOrigin(m.Path(filepath.Clean(path)))
}

// ComposeManifest builds the harness manifest from the crate's own identity
// and its resolved dev-dependencies. Entries sharing a key are merged when
// their origins agree and rejected otherwise.
func ComposeManifest(crateName string, crateDir m.Path, devDeps []m.Dependency) (m.Manifest, error) {
	manifest := HarnessManifest()

	candidates := make([]m.Dependency, 0, len(devDeps)+1)
	candidates = append(candidates, m.Dependency{
		Name:   crateName,
		Origin: m.LocalOrigin(m.Path(filepath.Clean(string(crateDir)))),
	})
	candidates = append(candidates, devDeps...)

	for _, dep := range candidates {
		existing, ok := manifest.Dependencies[dep.Name]
		if !ok {
			dep.Features = normalizeFeatures(dep.Features)
			manifest.Dependencies[dep.Name] = dep

			continue
		}

		merged, err := mergeDependency(existing, dep)
		if err != nil {
			slog.Error("Conflicting dependency", "name", dep.Name, "existing", existing.Origin, "incoming", dep.Origin)
			return m.Manifest{}, err
		}

		manifest.Dependencies[dep.Name] = merged
	}

	return manifest, nil
}

func mergeDependency(existing, incoming m.Dependency) (m.Dependency, error) {
	if existing.Origin != incoming.Origin || existing.Package != incoming.Package {
		return m.Dependency{}, fmt.Errorf("%w %q: %s conflicts with %s",
			ErrDuplicateDependency, incoming.Name, existing.Origin, incoming.Origin)
	}

	features := make([]string, 0, len(existing.Features)+len(incoming.Features))
	features = append(features, existing.Features...)
	features = append(features, incoming.Features...)

	existing.Features = normalizeFeatures(features)

	return existing, nil
}

// normalizeFeatures sorts and deduplicates; an empty set becomes nil.
func normalizeFeatures(features []string) []string {
	if len(features) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))

	for _, feature := range features {
		if _, ok := set[feature]; ok {
			continue
		}

		set[feature] = struct{}{}
		out = append(out, feature)
	}

	sort.Strings(out)

	return out
}
