package domain_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

func sampleManifest() m.Manifest {
	manifest := domain.HarnessManifest()
	manifest.Dependencies["demo"] = m.Dependency{Name: "demo", Origin: m.LocalOrigin("/work/demo")}
	manifest.Dependencies["quickcheck"] = m.Dependency{
		Name:     "quickcheck",
		Origin:   m.RemoteOrigin("1.0.3"),
		Features: []string{"use_logging"},
	}
	manifest.Dependencies["test_helpers"] = m.Dependency{
		Name:    "test_helpers",
		Package: "helpers",
		Origin:  m.LocalOrigin("/work/helpers"),
	}

	return manifest
}

func TestManifest_RoundTrip(t *testing.T) {
	manifest := sampleManifest()

	data, err := domain.RenderManifest(manifest)
	require.NoError(t, err)

	parsed, err := domain.ParseManifest(data)
	require.NoError(t, err)

	if diff := cmp.Diff(manifest, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderManifest(t *testing.T) {
	data, err := domain.RenderManifest(sampleManifest())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# Generated by iostest."))
	assert.Contains(t, text, "[package]")
	assert.Contains(t, text, "name = 'tests-ios'")
	assert.Contains(t, text, "crate-type = ['staticlib']")
	assert.Contains(t, text, "[dependencies.demo]")
	assert.Contains(t, text, "path = '/work/demo'")
	assert.Contains(t, text, "version = '1.0.3'")
	assert.Contains(t, text, "package = 'helpers'")

	assert.Less(t, strings.Index(text, "[dependencies.demo]"), strings.Index(text, "[dependencies.quickcheck]"))
	assert.Less(t, strings.Index(text, "[dependencies.quickcheck]"), strings.Index(text, "[dependencies.test_helpers]"))
}

func TestRenderManifest_Deterministic(t *testing.T) {
	first, err := domain.RenderManifest(sampleManifest())
	require.NoError(t, err)

	second, err := domain.RenderManifest(sampleManifest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderManifest_MissingOrigin(t *testing.T) {
	manifest := domain.HarnessManifest()
	manifest.Dependencies["bad"] = m.Dependency{Name: "bad"}

	_, err := domain.RenderManifest(manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not toml", input: "[package\nname ="},
		{name: "path and version", input: "[dependencies.x]\npath = '/a'\nversion = '1.0.0'\n"},
		{name: "neither path nor version", input: "[dependencies.x]\nfeatures = ['a']\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseManifest([]byte(tt.input))
			require.Error(t, err)
		})
	}
}
