package domain_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iostest.dev/pkg/iostest/internal/adapter"
	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

func newHarnessGenerator() domain.HarnessGenerator {
	fs := adapter.NewLocalSourceFSAdapter()
	return domain.NewHarnessGenerator(fs, domain.NewScanner(fs), domain.NewStalenessGate(fs))
}

func TestHarnessGenerator_Generate(t *testing.T) {
	// Arrange
	crate := writeCrate(t)
	args := domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(crate, "src")),
		Output:    m.Path(filepath.Join(crate, "tests-ios", "lib.rs")),
		Prelude:   "// prelude\n",
	}

	// Act
	result, err := newHarnessGenerator().Generate(args)

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, []string{"foo", "bar", "baz"}, result.Registry.Names())
	assert.Len(t, result.Sources, 3)
	assert.Empty(t, result.Diagnostics)
	assert.Contains(t, result.Content, "= &[\n(\"foo\", foo),\n(\"bar\", bar),\n(\"baz\", baz),\n];\n")
}

func TestHarnessGenerator_SkipsUpToDateOutput(t *testing.T) {
	// Arrange
	crate := writeCrate(t)
	output := filepath.Join(crate, "tests-ios", "lib.rs")
	writeFile(t, output, "previous")
	setMtime(t, output, baseTime.Add(time.Minute))

	args := domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(crate, "src")),
		Output:    m.Path(output),
	}
	generator := newHarnessGenerator()

	// Act
	result, err := generator.Generate(args)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Content)
	assert.Len(t, result.Sources, 3)

	t.Run("force bypasses the gate", func(t *testing.T) {
		args.Force = true

		forced, err := generator.Generate(args)
		require.NoError(t, err)
		assert.False(t, forced.Skipped)
		assert.Equal(t, 3, forced.Registry.Len())
	})

	t.Run("touched source regenerates", func(t *testing.T) {
		args.Force = false
		setMtime(t, filepath.Join(crate, "src", "b.rs"), baseTime.Add(2*time.Minute))

		touched, err := generator.Generate(args)
		require.NoError(t, err)
		assert.False(t, touched.Skipped)
	})
}

func TestHarnessGenerator_NewerInputRegenerates(t *testing.T) {
	// Arrange
	crate := writeCrate(t)
	output := filepath.Join(crate, "tests-ios", "lib.rs")
	writeFile(t, output, "previous")
	setMtime(t, output, baseTime.Add(time.Minute))

	prelude := filepath.Join(crate, "prelude.rs")
	writeFile(t, prelude, "// prelude\n")
	setMtime(t, prelude, baseTime.Add(2*time.Minute))

	// Act
	result, err := newHarnessGenerator().Generate(domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(crate, "src")),
		Output:    m.Path(output),
		Prelude:   "// prelude\n",
		Inputs:    []m.Path{m.Path(prelude)},
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Len(t, result.Sources, 3)
}

func TestHarnessGenerator_DuplicateTestName(t *testing.T) {
	crate := writeCrate(t)
	writeFile(t, filepath.Join(crate, "src", "d.rs"), fileC)

	_, err := newHarnessGenerator().Generate(domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(crate, "src")),
		Output:    m.Path(filepath.Join(crate, "tests-ios", "lib.rs")),
	})

	require.ErrorIs(t, err, m.ErrDuplicateTest)
	assert.Contains(t, err.Error(), "c.rs")
	assert.Contains(t, err.Error(), "d.rs")
}

func TestHarnessGenerator_Collect(t *testing.T) {
	crate := writeCrate(t)
	writeFile(t, filepath.Join(crate, "src", "odd.rs"), "    #[test]\n    fn odd(x: u8) {\n    }\n")

	output := filepath.Join(crate, "tests-ios", "lib.rs")
	writeFile(t, output, "previous")
	setMtime(t, output, baseTime.Add(time.Hour))

	result, err := newHarnessGenerator().Collect(domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(crate, "src")),
		Output:    m.Path(output),
	})

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, []string{"foo", "bar", "baz"}, result.Registry.Names())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, m.Path(filepath.Join(crate, "src", "odd.rs")), result.Diagnostics[0].Source)
}

func TestHarnessGenerator_MissingSourceDir(t *testing.T) {
	dir := t.TempDir()

	_, err := newHarnessGenerator().Generate(domain.HarnessArgs{
		SourceDir: m.Path(filepath.Join(dir, "src")),
		Output:    m.Path(filepath.Join(dir, "tests-ios", "lib.rs")),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan sources")
}
