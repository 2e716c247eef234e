package model

// PackageMeta is the `[package]` section of the harness manifest.
type PackageMeta struct {
	Name    string
	Version string
}

// LibTarget is the `[lib]` section of the harness manifest.
type LibTarget struct {
	Name      string
	Path      string
	CrateType []string
}

// Manifest describes the synthetic harness crate.
type Manifest struct {
	Package      PackageMeta
	Lib          LibTarget
	Dependencies map[string]Dependency
}
