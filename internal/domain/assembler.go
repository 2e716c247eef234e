package domain

import (
	_ "embed"
	"fmt"
	"strings"

	m "iostest.dev/pkg/iostest/internal/model"
)

// DefaultPrelude links the harness against the objc runtime and the crate's
// shared test helpers.
//
//go:embed templates/prelude.rs
var DefaultPrelude string

//go:embed templates/export.rs
var exportModule string

// Assemble renders the harness unit: the prelude, every test body, the TESTS
// registry table and the C ABI export module. The output depends only on its
// inputs, so regenerating from an unchanged registry is byte-identical.
func Assemble(prelude string, registry m.Registry) (string, error) {
	var out strings.Builder

	out.WriteString(prelude)

	for _, test := range registry.Tests() {
		out.WriteString("\n")
		out.WriteString(test.Body)
	}

	out.WriteString("\npub static TESTS: &'static [(&'static str, fn())] = &[\n")

	for _, name := range registry.Names() {
		if _, err := fmt.Fprintf(&out, "(\"%[1]s\", %[1]s),\n", name); err != nil {
			return "", fmt.Errorf("render registry entry %s: %w", name, err)
		}
	}

	out.WriteString("];\n")
	out.WriteString("pub mod export {\n")
	out.WriteString(exportModule)
	out.WriteString("}\n")

	return out.String(), nil
}
