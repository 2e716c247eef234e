// Package controller provides output adapters for displaying iostest results.
package controller

import (
	"context"
	"fmt"

	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

// ListFormat selects how discovered tests are rendered.
type ListFormat string

// Supported list formats.
const (
	FormatTable ListFormat = "table"
	FormatYAML  ListFormat = "yaml"
)

// ParseListFormat validates a user-supplied list format.
func ParseListFormat(value string) (ListFormat, error) {
	switch ListFormat(value) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want %s or %s)", value, FormatTable, FormatYAML)
	}
}

// UI defines the interface for reporting pipeline progress.
// Implementations can use different output methods.
type UI interface {
	DisplayGenerate(ctx context.Context, result domain.GenerateResult)
	DisplayDiff(ctx context.Context, diff string)
	DisplayList(ctx context.Context, result domain.HarnessResult, root m.Path, format ListFormat) error
	DisplayBuild(ctx context.Context, library m.Path)
	DisplayPackage(ctx context.Context, project m.Path)
	DisplayTestsPassed(ctx context.Context)
	DisplayWatching(ctx context.Context, root m.Path)
	DisplayError(ctx context.Context, err error)
}
