package model

// OriginKind classifies where a dependency comes from.
type OriginKind string

const (
	// OriginLocal is a crate on the local filesystem, referenced by path.
	OriginLocal OriginKind = "local"
	// OriginRemote is a crate fetched from the registry, referenced by version.
	OriginRemote OriginKind = "remote"
)

// Origin is the resolved provenance of a dependency. Exactly one of Path or
// Version is set, according to Kind.
type Origin struct {
	Kind    OriginKind
	Path    Path
	Version string
}

// LocalOrigin returns an Origin pointing at a crate root on disk.
func LocalOrigin(path Path) Origin {
	return Origin{Kind: OriginLocal, Path: path}
}

// RemoteOrigin returns an Origin pinned to a registry version or requirement.
func RemoteOrigin(version string) Origin {
	return Origin{Kind: OriginRemote, Version: version}
}

func (o Origin) String() string {
	if o.Kind == OriginLocal {
		return "path " + string(o.Path)
	}

	return "version " + o.Version
}

// Dependency is one entry of the harness manifest's dependency table.
type Dependency struct {
	// Name is the key in the dependency table (the rename, if any).
	Name string
	// Package is the real crate name when Name is a rename, empty otherwise.
	Package  string
	Origin   Origin
	Features []string
}

// DependencyKind is the cargo dependency kind tag.
type DependencyKind string

// Dependency kinds as reported by cargo. A missing kind means normal.
const (
	DependencyNormal DependencyKind = "normal"
	DependencyDev    DependencyKind = "dev"
	DependencyBuild  DependencyKind = "build"
)

// AnyVersion is the requirement assumed when a dependency does not declare one.
const AnyVersion = "*"

// DeclaredDependency is a dependency as listed by `cargo read-manifest`.
type DeclaredDependency struct {
	Name     string
	Rename   string
	Req      string
	Kind     DependencyKind
	Features []string
}

// Key returns the name the dependency is referred to by in Rust code.
func (d DeclaredDependency) Key() string {
	if d.Rename != "" {
		return d.Rename
	}

	return d.Name
}

// DeclaredManifest is the subset of a crate's own manifest the resolver needs.
type DeclaredManifest struct {
	Name         string
	Version      string
	Dependencies []DeclaredDependency
}

// GraphPackage is a package entry from `cargo metadata`.
type GraphPackage struct {
	ID      string
	Name    string
	Version string
}

// GraphDependency is one edge out of the root node of the resolve graph.
type GraphDependency struct {
	// Name is the extern crate name: the rename if any, with '-' mapped to '_'.
	Name      string
	PackageID string
	Kinds     []DependencyKind
}

// HasKind reports whether the edge is declared with kind.
func (d GraphDependency) HasKind(kind DependencyKind) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}

	return false
}

// PackageGraph is a one-shot snapshot of the packages reachable from a crate.
// It is never persisted.
type PackageGraph struct {
	Root       string
	Packages   []GraphPackage
	DirectDeps []string
	// RootDeps carries the named edges of the root node when cargo reports them.
	RootDeps []GraphDependency
}
