// Package model defines the data structures shared by the harness generator,
// the manifest resolver and the build pipeline.
package model

import "fmt"

// Path represents a file system path.
type Path string

// Target is a rustc target triple, e.g. "aarch64-apple-ios".
type Target string

// Diagnostic reports a `#[test]` attribute that the extractor recognized but
// could not turn into a harness entry.
type Diagnostic struct {
	Source  Path
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Source, d.Line, d.Message)
}
