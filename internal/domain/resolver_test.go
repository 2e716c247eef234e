package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"iostest.dev/pkg/iostest/internal/adapter"
	adaptermocks "iostest.dev/pkg/iostest/internal/adapter/mocks"
	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

func TestClassifyPackageID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want m.Origin
	}{
		{
			name: "legacy path",
			id:   "pkg 1.0.0 (path+file:///a/b/Cargo.toml)",
			want: m.LocalOrigin("/a/b"),
		},
		{
			name: "legacy path to directory",
			id:   "pkg 1.0.0 (path+file:///a/b)",
			want: m.LocalOrigin("/a/b"),
		},
		{
			name: "legacy path with escapes",
			id:   "pkg 1.0.0 (path+file:///my%20crates/pkg)",
			want: m.LocalOrigin("/my crates/pkg"),
		},
		{
			name: "legacy registry",
			id:   "pkg 1.0.0 (registry+https://github.com/rust-lang/crates.io-index)",
			want: m.RemoteOrigin("1.0.0"),
		},
		{
			name: "spec path",
			id:   "path+file:///work/helpers#0.1.0",
			want: m.LocalOrigin("/work/helpers"),
		},
		{
			name: "spec path with name",
			id:   "path+file:///work/crates/helpers#helpers@0.1.0",
			want: m.LocalOrigin("/work/crates/helpers"),
		},
		{
			name: "spec registry",
			id:   "registry+https://github.com/rust-lang/crates.io-index#serde@1.0.197",
			want: m.RemoteOrigin("1.0.197"),
		},
		{
			name: "spec sparse registry",
			id:   "sparse+https://index.crates.io/#quickcheck@1.0.3",
			want: m.RemoteOrigin("1.0.3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ClassifyPackageID(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyPackageID_Unsupported(t *testing.T) {
	ids := []string{
		"pkg 1.0.0 (git+https://github.com/example/pkg#abc123)",
		"pkg 1.0.0 (registry+https://my.registry/index)",
		"git+https://github.com/example/pkg#pkg@1.0.0",
		"pkg 1.0 (registry+https://github.com/rust-lang/crates.io-index)",
		"",
	}

	for _, id := range ids {
		_, err := domain.ClassifyPackageID(id)
		require.ErrorIs(t, err, domain.ErrUnsupportedSource, "id %q", id)
		assert.Contains(t, err.Error(), id)
	}
}

func TestComposeManifest(t *testing.T) {
	manifest, err := domain.ComposeManifest("demo", "/work/demo", []m.Dependency{
		{Name: "quickcheck", Origin: m.RemoteOrigin("1.0.3"), Features: []string{"b", "a"}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.HarnessPackageName, manifest.Package.Name)
	assert.Equal(t, domain.HarnessPackageVersion, manifest.Package.Version)
	assert.Equal(t, m.LibTarget{Name: "tests_ios", Path: "lib.rs", CrateType: []string{"staticlib"}}, manifest.Lib)

	want := map[string]m.Dependency{
		"demo":       {Name: "demo", Origin: m.LocalOrigin("/work/demo")},
		"quickcheck": {Name: "quickcheck", Origin: m.RemoteOrigin("1.0.3"), Features: []string{"a", "b"}},
	}
	if diff := cmp.Diff(want, manifest.Dependencies); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeManifest_MergesEqualOrigins(t *testing.T) {
	manifest, err := domain.ComposeManifest("demo", "/work/demo", []m.Dependency{
		{Name: "demo", Origin: m.LocalOrigin("/work/demo"), Features: []string{"testing"}},
		{Name: "rand", Origin: m.RemoteOrigin("0.8.5"), Features: []string{"std"}},
		{Name: "rand", Origin: m.RemoteOrigin("0.8.5"), Features: []string{"small_rng", "std"}},
	})
	require.NoError(t, err)

	require.Len(t, manifest.Dependencies, 2)
	assert.Equal(t, []string{"testing"}, manifest.Dependencies["demo"].Features)
	assert.Equal(t, []string{"small_rng", "std"}, manifest.Dependencies["rand"].Features)
}

func TestComposeManifest_RejectsConflictingOrigins(t *testing.T) {
	_, err := domain.ComposeManifest("demo", "/work/demo", []m.Dependency{
		{Name: "demo", Origin: m.RemoteOrigin("0.1.0")},
	})

	require.ErrorIs(t, err, domain.ErrDuplicateDependency)
	assert.Contains(t, err.Error(), `"demo"`)
	assert.Contains(t, err.Error(), "path /work/demo")
	assert.Contains(t, err.Error(), "version 0.1.0")
}

func TestManifestResolver_Resolve(t *testing.T) {
	// Arrange
	cargo := new(adaptermocks.MockCargoAdapter)
	ctx := context.Background()

	cargo.On("ReadManifest", ctx, m.Path("/work/demo")).Return(m.DeclaredManifest{
		Name:    "demo",
		Version: "0.1.0",
		Dependencies: []m.DeclaredDependency{
			{Name: "objc", Req: "^0.2", Kind: m.DependencyNormal},
			{Name: "quickcheck", Req: "^1.0", Kind: m.DependencyDev, Features: []string{"use_logging"}},
			{Name: "helpers", Rename: "test_helpers", Kind: m.DependencyDev},
			{Name: "ghost", Req: "^9", Kind: m.DependencyDev},
			{Name: "cc", Req: "^1", Kind: m.DependencyBuild},
		},
	}, nil).Once()

	cargo.On("Metadata", ctx, m.Path("/work/demo")).Return(m.PackageGraph{
		Root: "demo 0.1.0 (path+file:///work/demo)",
		Packages: []m.GraphPackage{
			{ID: "demo 0.1.0 (path+file:///work/demo)", Name: "demo", Version: "0.1.0"},
			{ID: "quickcheck 0.9.2 (registry+https://github.com/rust-lang/crates.io-index)", Name: "quickcheck", Version: "0.9.2"},
			{ID: "quickcheck 1.0.3 (registry+https://github.com/rust-lang/crates.io-index)", Name: "quickcheck", Version: "1.0.3"},
			{ID: "helpers 0.0.1 (path+file:///work/helpers)", Name: "helpers", Version: "0.0.1"},
		},
		DirectDeps: []string{
			"quickcheck 1.0.3 (registry+https://github.com/rust-lang/crates.io-index)",
			"helpers 0.0.1 (path+file:///work/helpers)",
		},
	}, nil).Once()

	resolver := domain.NewManifestResolver(cargo)

	// Act
	manifest, err := resolver.Resolve(ctx, "/work/demo")

	// Assert
	require.NoError(t, err)

	want := map[string]m.Dependency{
		"demo":         {Name: "demo", Origin: m.LocalOrigin("/work/demo")},
		"quickcheck":   {Name: "quickcheck", Origin: m.RemoteOrigin("1.0.3"), Features: []string{"use_logging"}},
		"test_helpers": {Name: "test_helpers", Package: "helpers", Origin: m.LocalOrigin("/work/helpers")},
	}
	if diff := cmp.Diff(want, manifest.Dependencies); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}

	cargo.AssertExpectations(t)
}

func TestManifestResolver_NoDevDependencies(t *testing.T) {
	cargo := new(adaptermocks.MockCargoAdapter)
	cargo.On("ReadManifest", mock.Anything, m.Path("/work/demo")).Return(m.DeclaredManifest{
		Name:         "demo",
		Dependencies: []m.DeclaredDependency{{Name: "objc", Kind: m.DependencyNormal}},
	}, nil).Once()

	manifest, err := domain.NewManifestResolver(cargo).Resolve(context.Background(), "/work/demo")
	require.NoError(t, err)

	assert.Equal(t, map[string]m.Dependency{
		"demo": {Name: "demo", Origin: m.LocalOrigin("/work/demo")},
	}, manifest.Dependencies)

	cargo.AssertNotCalled(t, "Metadata", mock.Anything, mock.Anything)
	cargo.AssertExpectations(t)
}

func TestManifestResolver_ReadManifestFails(t *testing.T) {
	cargo := new(adaptermocks.MockCargoAdapter)
	exitErr := &adapter.ExitError{Tool: "cargo", Args: []string{"read-manifest"}, Status: 101, Stderr: "error: manifest not found"}
	cargo.On("ReadManifest", mock.Anything, mock.Anything).Return(m.DeclaredManifest{}, exitErr).Once()

	_, err := domain.NewManifestResolver(cargo).Resolve(context.Background(), "/work/demo")

	var target *adapter.ExitError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 101, target.Status)
}

func TestManifestResolver_UnsupportedSource(t *testing.T) {
	cargo := new(adaptermocks.MockCargoAdapter)
	cargo.On("ReadManifest", mock.Anything, mock.Anything).Return(m.DeclaredManifest{
		Name:         "demo",
		Dependencies: []m.DeclaredDependency{{Name: "remote", Kind: m.DependencyDev}},
	}, nil).Once()
	cargo.On("Metadata", mock.Anything, mock.Anything).Return(m.PackageGraph{
		Packages: []m.GraphPackage{
			{ID: "remote 0.3.0 (git+https://example.com/remote#deadbeef)", Name: "remote", Version: "0.3.0"},
		},
	}, nil).Once()

	_, err := domain.NewManifestResolver(cargo).Resolve(context.Background(), "/work/demo")

	require.ErrorIs(t, err, domain.ErrUnsupportedSource)
	assert.Contains(t, err.Error(), "git+https://example.com/remote#deadbeef")
}

func TestManifestResolver_MetadataFails(t *testing.T) {
	cargo := new(adaptermocks.MockCargoAdapter)
	cargo.On("ReadManifest", mock.Anything, mock.Anything).Return(m.DeclaredManifest{
		Name:         "demo",
		Dependencies: []m.DeclaredDependency{{Name: "quickcheck", Kind: m.DependencyDev}},
	}, nil).Once()
	cargo.On("Metadata", mock.Anything, mock.Anything).Return(m.PackageGraph{}, adapter.ErrMalformedOutput).Once()

	_, err := domain.NewManifestResolver(cargo).Resolve(context.Background(), "/work/demo")

	require.ErrorIs(t, err, adapter.ErrMalformedOutput)
}

func TestTestOnlyDependencies(t *testing.T) {
	devDeps := domain.TestOnlyDependencies(m.DeclaredManifest{
		Dependencies: []m.DeclaredDependency{
			{Name: "a", Kind: m.DependencyNormal},
			{Name: "b", Kind: m.DependencyDev},
			{Name: "c", Req: "^2", Kind: m.DependencyDev},
			{Name: "d", Kind: m.DependencyBuild},
		},
	})

	assert.Equal(t, []m.DeclaredDependency{
		{Name: "b", Req: m.AnyVersion, Kind: m.DependencyDev},
		{Name: "c", Req: "^2", Kind: m.DependencyDev},
	}, devDeps)
}

func randGraph() m.PackageGraph {
	return m.PackageGraph{
		Root: "demo 0.1.0 (path+file:///work/demo)",
		Packages: []m.GraphPackage{
			{ID: "demo 0.1.0 (path+file:///work/demo)", Name: "demo", Version: "0.1.0"},
			{ID: "rand 0.7.3 (registry+https://github.com/rust-lang/crates.io-index)", Name: "rand", Version: "0.7.3"},
			{ID: "rand 0.8.5 (registry+https://github.com/rust-lang/crates.io-index)", Name: "rand", Version: "0.8.5"},
		},
		DirectDeps: []string{
			"rand 0.7.3 (registry+https://github.com/rust-lang/crates.io-index)",
			"rand 0.8.5 (registry+https://github.com/rust-lang/crates.io-index)",
		},
	}
}

func TestResolveOrigins_RenamedDevDependencyFollowsRequirement(t *testing.T) {
	// Arrange
	devDeps := []m.DeclaredDependency{
		{Name: "rand", Rename: "rand08", Req: "^0.8", Kind: m.DependencyDev},
	}

	// Act
	resolved, err := domain.ResolveOrigins(devDeps, randGraph())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []m.Dependency{
		{Name: "rand08", Package: "rand", Origin: m.RemoteOrigin("0.8.5")},
	}, resolved)
}

func TestResolveOrigins_RootEdgeNameWins(t *testing.T) {
	// Arrange
	graph := randGraph()
	graph.RootDeps = []m.GraphDependency{
		{
			Name:      "rand",
			PackageID: "rand 0.7.3 (registry+https://github.com/rust-lang/crates.io-index)",
			Kinds:     []m.DependencyKind{m.DependencyNormal},
		},
		{
			Name:      "old_rand",
			PackageID: "rand 0.7.3 (registry+https://github.com/rust-lang/crates.io-index)",
			Kinds:     []m.DependencyKind{m.DependencyDev},
		},
	}
	devDeps := []m.DeclaredDependency{
		{Name: "rand", Rename: "old-rand", Req: m.AnyVersion, Kind: m.DependencyDev},
	}

	// Act
	resolved, err := domain.ResolveOrigins(devDeps, graph)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []m.Dependency{
		{Name: "old-rand", Package: "rand", Origin: m.RemoteOrigin("0.7.3")},
	}, resolved)
}

func TestResolveOrigins_NoVersionSatisfiesRequirement(t *testing.T) {
	resolved, err := domain.ResolveOrigins([]m.DeclaredDependency{
		{Name: "rand", Req: "^0.9", Kind: m.DependencyDev},
	}, randGraph())

	require.NoError(t, err)
	assert.Empty(t, resolved)
}
