package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateTest is returned when two extracted tests share a name.
var ErrDuplicateTest = errors.New("duplicate test name")

// Test is a single `#[test]` function lifted out of a source file.
type Test struct {
	// Name is the bare function name; it doubles as the registry key.
	Name string
	// Body is the full function text, verbatim, including its closing brace.
	Body string
	// Source is the file the test was extracted from.
	Source Path
}

// Registry is the ordered, immutable list of tests that make up a harness.
// Order is file-walk order, then in-file occurrence order.
type Registry struct {
	tests []Test
}

// NewRegistry builds a Registry, rejecting duplicate test names.
func NewRegistry(tests ...Test) (Registry, error) {
	seen := make(map[string]Path, len(tests))

	owned := make([]Test, 0, len(tests))
	for _, test := range tests {
		if prev, ok := seen[test.Name]; ok {
			return Registry{}, fmt.Errorf("%w %q in %s and %s", ErrDuplicateTest, test.Name, prev, test.Source)
		}

		seen[test.Name] = test.Source
		owned = append(owned, test)
	}

	return Registry{tests: owned}, nil
}

// Len returns the number of registered tests.
func (r Registry) Len() int {
	return len(r.tests)
}

// Tests returns a copy of the registered tests in registry order.
func (r Registry) Tests() []Test {
	out := make([]Test, len(r.tests))
	copy(out, r.tests)

	return out
}

// Names returns the test names in registry order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.tests))
	for _, test := range r.tests {
		names = append(names, test.Name)
	}

	return names
}
