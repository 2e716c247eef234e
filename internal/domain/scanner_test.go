package domain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iostest.dev/pkg/iostest/internal/adapter"
	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib.rs"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")
	writeFile(t, filepath.Join(root, "nested", "deep", "mod.rs"), "")
	writeFile(t, filepath.Join(root, "nested", "util.rs"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.rs"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "lib.rs"), filepath.Join(root, "link.rs")))

	scanner := domain.NewScanner(adapter.NewLocalSourceFSAdapter())

	sources, err := scanner.Scan(m.Path(root), nil)
	require.NoError(t, err)

	assert.Equal(t, []m.Path{
		m.Path(filepath.Join(root, "lib.rs")),
		m.Path(filepath.Join(root, "nested", "deep", "mod.rs")),
		m.Path(filepath.Join(root, "nested", "util.rs")),
	}, sources)
}

func TestScanner_Exclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib.rs"), "")
	writeFile(t, filepath.Join(root, "generated", "bindings.rs"), "")
	writeFile(t, filepath.Join(root, "nested", "generated", "more.rs"), "")
	writeFile(t, filepath.Join(root, "nested", "keep.rs"), "")
	writeFile(t, filepath.Join(root, "nested", "skip_me.rs"), "")

	scanner := domain.NewScanner(adapter.NewLocalSourceFSAdapter())

	sources, err := scanner.Scan(m.Path(root), []string{"**/generated", "**/skip_*.rs"})
	require.NoError(t, err)

	assert.Equal(t, []m.Path{
		m.Path(filepath.Join(root, "lib.rs")),
		m.Path(filepath.Join(root, "nested", "keep.rs")),
	}, sources)
}

func TestScanner_InvalidPattern(t *testing.T) {
	scanner := domain.NewScanner(adapter.NewLocalSourceFSAdapter())

	_, err := scanner.Scan(m.Path(t.TempDir()), []string{"[unterminated"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unterminated")
}

func TestScanner_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "src")
	scanner := domain.NewScanner(adapter.NewLocalSourceFSAdapter())

	_, err := scanner.Scan(m.Path(missing), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), missing)
}

func TestScanner_SymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "shared", "lib.rs"), "")
	writeFile(t, filepath.Join(base, "shared", "generated", "gen.rs"), "")
	root := filepath.Join(base, "src")
	require.NoError(t, os.Symlink(filepath.Join(base, "shared"), root))

	scanner := domain.NewScanner(adapter.NewLocalSourceFSAdapter())

	sources, err := scanner.Scan(m.Path(root), []string{"generated/**"})
	require.NoError(t, err)

	assert.Equal(t, []m.Path{m.Path(filepath.Join(root, "lib.rs"))}, sources)
}
