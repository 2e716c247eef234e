package adapter

import (
	"context"
	"io"
	"path/filepath"

	m "iostest.dev/pkg/iostest/internal/model"
)

// XcodeAdapter drives xcodebuild.
type XcodeAdapter interface {
	// Test runs the scheme's tests on every destination.
	Test(ctx context.Context, project m.Path, scheme string, destinations []string, out io.Writer) error
}

// LocalXcodeAdapter invokes the xcodebuild found on PATH.
type LocalXcodeAdapter struct {
	cmd CommandAdapter
}

// NewLocalXcodeAdapter constructs a LocalXcodeAdapter running through cmd.
func NewLocalXcodeAdapter(cmd CommandAdapter) *LocalXcodeAdapter {
	return &LocalXcodeAdapter{cmd: cmd}
}

// Test runs `xcodebuild -project … -scheme … -destination … test`.
func (a *LocalXcodeAdapter) Test(ctx context.Context, project m.Path, scheme string, destinations []string, out io.Writer) error {
	args := []string{"-project", string(project), "-scheme", scheme}
	for _, destination := range destinations {
		args = append(args, "-destination", destination)
	}

	args = append(args, "test")

	return a.cmd.Run(ctx, filepath.Dir(string(project)), out, "xcodebuild", args...)
}
