package domain

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	m "iostest.dev/pkg/iostest/internal/model"
)

// Fixed identity of the synthetic harness crate.
const (
	HarnessPackageName    = "tests-ios"
	HarnessPackageVersion = "0.0.0"
	HarnessLibName        = "tests_ios"
	HarnessLibPath        = "lib.rs"
	HarnessCrateType      = "staticlib"
)

const manifestHeader = "# Generated by iostest. Changes will be overwritten.\n\n"

type cargoManifest struct {
	Package      cargoPackage               `toml:"package"`
	Lib          cargoLib                   `toml:"lib"`
	Dependencies map[string]cargoDependency `toml:"dependencies,omitempty"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type cargoLib struct {
	Name      string   `toml:"name"`
	Path      string   `toml:"path"`
	CrateType []string `toml:"crate-type"`
}

type cargoDependency struct {
	Path     string   `toml:"path,omitempty"`
	Version  string   `toml:"version,omitempty"`
	Package  string   `toml:"package,omitempty"`
	Features []string `toml:"features,omitempty"`
}

// HarnessManifest returns a manifest with the fixed package and lib sections
// and an empty dependency table.
func HarnessManifest() m.Manifest {
	return m.Manifest{
		Package: m.PackageMeta{Name: HarnessPackageName, Version: HarnessPackageVersion},
		Lib: m.LibTarget{
			Name:      HarnessLibName,
			Path:      HarnessLibPath,
			CrateType: []string{HarnessCrateType},
		},
		Dependencies: map[string]m.Dependency{},
	}
}

// RenderManifest serializes manifest as Cargo.toml. Dependency tables are
// emitted in key order, so equal manifests render to equal bytes.
func RenderManifest(manifest m.Manifest) ([]byte, error) {
	doc := cargoManifest{
		Package: cargoPackage{Name: manifest.Package.Name, Version: manifest.Package.Version},
		Lib: cargoLib{
			Name:      manifest.Lib.Name,
			Path:      manifest.Lib.Path,
			CrateType: manifest.Lib.CrateType,
		},
		Dependencies: make(map[string]cargoDependency, len(manifest.Dependencies)),
	}

	for key, dep := range manifest.Dependencies {
		entry := cargoDependency{Package: dep.Package, Features: dep.Features}

		switch dep.Origin.Kind {
		case m.OriginLocal:
			entry.Path = string(dep.Origin.Path)
		case m.OriginRemote:
			entry.Version = dep.Origin.Version
		default:
			return nil, fmt.Errorf("dependency %q has no origin", key)
		}

		doc.Dependencies[key] = entry
	}

	var buf bytes.Buffer

	buf.WriteString(manifestHeader)

	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseManifest reads a Cargo.toml produced by RenderManifest.
func ParseManifest(data []byte) (m.Manifest, error) {
	var doc cargoManifest
	if err := toml.Unmarshal(data, &doc); err != nil {
		return m.Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	manifest := m.Manifest{
		Package: m.PackageMeta{Name: doc.Package.Name, Version: doc.Package.Version},
		Lib: m.LibTarget{
			Name:      doc.Lib.Name,
			Path:      doc.Lib.Path,
			CrateType: doc.Lib.CrateType,
		},
		Dependencies: make(map[string]m.Dependency, len(doc.Dependencies)),
	}

	for key, entry := range doc.Dependencies {
		dep := m.Dependency{Name: key, Package: entry.Package, Features: entry.Features}

		switch {
		case entry.Path != "" && entry.Version == "":
			dep.Origin = m.LocalOrigin(m.Path(entry.Path))
		case entry.Version != "" && entry.Path == "":
			dep.Origin = m.RemoteOrigin(entry.Version)
		default:
			return m.Manifest{}, fmt.Errorf("dependency %q must have exactly one of path or version", key)
		}

		manifest.Dependencies[key] = dep
	}

	return manifest, nil
}
