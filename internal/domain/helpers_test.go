package domain_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// baseTime is a fixed mtime so staleness comparisons do not depend on the clock.
var baseTime = time.Date(2024, time.March, 1, 12, 0, 0, 500, time.UTC)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()

	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}

const fileA = `pub fn add(a: u32, b: u32) -> u32 {
    a + b
}

#[cfg(test)]
mod tests {
    use super::*;

    #[test]
    fn foo() {
        assert_eq!(add(1, 2), 3);
    }

    #[test]
    fn bar() {
        let v = vec![1, 2];
        if v.is_empty() {
            panic!("empty");
        }
    }
}
`

const fileB = `pub fn noop() {}
`

const fileC = `#[cfg(test)]
mod tests {
    #[test]
    fn baz() {
        assert!(true);
    }
}
`

// writeCrate lays out a crate with files a.rs (foo, bar), b.rs (no tests)
// and c.rs (baz) under src/, all stamped with baseTime.
func writeCrate(t *testing.T) string {
	t.Helper()

	crate := t.TempDir()
	for name, content := range map[string]string{"a.rs": fileA, "b.rs": fileB, "c.rs": fileC} {
		path := filepath.Join(crate, "src", name)
		writeFile(t, path, content)
		setMtime(t, path, baseTime)
	}

	return crate
}
