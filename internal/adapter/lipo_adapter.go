package adapter

import (
	"context"
	"io"

	m "iostest.dev/pkg/iostest/internal/model"
)

// LipoAdapter fuses per-architecture static libraries into one universal library.
type LipoAdapter interface {
	Create(ctx context.Context, output m.Path, inputs []m.Path, out io.Writer) error
}

// LocalLipoAdapter invokes the lipo found on PATH.
type LocalLipoAdapter struct {
	cmd CommandAdapter
}

// NewLocalLipoAdapter constructs a LocalLipoAdapter running through cmd.
func NewLocalLipoAdapter(cmd CommandAdapter) *LocalLipoAdapter {
	return &LocalLipoAdapter{cmd: cmd}
}

// Create runs `lipo -create -output <output> <inputs...>`.
func (a *LocalLipoAdapter) Create(ctx context.Context, output m.Path, inputs []m.Path, out io.Writer) error {
	args := []string{"-create", "-output", string(output)}
	for _, input := range inputs {
		args = append(args, string(input))
	}

	return a.cmd.Run(ctx, "", out, "lipo", args...)
}
