package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "iostest.dev/pkg/iostest/internal/model"
)

// testPattern recognizes exactly one shape: a `#[test]` attribute followed by
// a zero-argument function indented four spaces, running up to the first line
// that is a closing brace at that same indentation. Group 1 is the whole
// function, group 2 its name.
var testPattern = regexp.MustCompile(`#\[test\]\n(    fn ([^\{]*)\(\) \{(?s:.)*?\n    \}\n)`)

// testAttribute finds every `#[test]` occurrence, matched or not.
var testAttribute = regexp.MustCompile(`#\[test\]`)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const (
	unsupportedShapeMessage = "#[test] function not in the supported shape " +
		"(zero-argument `fn name() {` indented four spaces, closed by `    }`)"
	invalidNameMessage = "#[test] function name %q is not a plain identifier"
	crlfMessage        = "#[test] function uses CRLF line endings; only LF is supported"
)

// ExtractTests returns the tests found in text, in occurrence order, together
// with a diagnostic for every `#[test]` attribute that was not extracted.
func ExtractTests(source m.Path, text string) ([]m.Test, []m.Diagnostic) {
	var (
		tests       []m.Test
		diagnostics []m.Diagnostic
	)

	consumed := make(map[int]struct{})

	for _, match := range testPattern.FindAllStringSubmatchIndex(text, -1) {
		consumed[match[0]] = struct{}{}

		name := text[match[4]:match[5]]
		if !identifier.MatchString(name) {
			diagnostics = append(diagnostics, m.Diagnostic{
				Source:  source,
				Line:    lineOf(text, match[0]),
				Message: fmt.Sprintf(invalidNameMessage, name),
			})

			continue
		}

		tests = append(tests, m.Test{
			Name:   name,
			Body:   text[match[2]:match[3]],
			Source: source,
		})
	}

	for _, loc := range testAttribute.FindAllStringIndex(text, -1) {
		if _, ok := consumed[loc[0]]; ok {
			continue
		}

		message := unsupportedShapeMessage
		if strings.HasPrefix(text[loc[1]:], "\r\n") {
			message = crlfMessage
		}

		diagnostics = append(diagnostics, m.Diagnostic{
			Source:  source,
			Line:    lineOf(text, loc[0]),
			Message: message,
		})
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].Line < diagnostics[j].Line
	})

	return tests, diagnostics
}

func lineOf(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
