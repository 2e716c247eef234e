// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// Generate records the call and returns the configured result.
func (_m *MockWorkflow) Generate(ctx context.Context, args domain.WorkflowArgs) (domain.GenerateResult, error) {
	ret := _m.Called(ctx, args)
	return ret.Get(0).(domain.GenerateResult), ret.Error(1)
}

// List records the call and returns the configured result.
func (_m *MockWorkflow) List(args domain.WorkflowArgs) (domain.HarnessResult, error) {
	ret := _m.Called(args)
	return ret.Get(0).(domain.HarnessResult), ret.Error(1)
}

// Build records the call and returns the configured library path.
func (_m *MockWorkflow) Build(ctx context.Context, args domain.WorkflowArgs, out io.Writer) (m.Path, error) {
	ret := _m.Called(ctx, args, out)
	return ret.Get(0).(m.Path), ret.Error(1)
}

// Package records the call and returns the configured project path.
func (_m *MockWorkflow) Package(args domain.WorkflowArgs) (m.Path, error) {
	ret := _m.Called(args)
	return ret.Get(0).(m.Path), ret.Error(1)
}

// Test records the call and returns the configured error.
func (_m *MockWorkflow) Test(ctx context.Context, args domain.WorkflowArgs, out io.Writer) error {
	ret := _m.Called(ctx, args, out)
	return ret.Error(0)
}

// Watch records the call and returns the configured error.
func (_m *MockWorkflow) Watch(ctx context.Context, args domain.WorkflowArgs, onGenerate func(domain.GenerateResult), onError func(error)) error {
	ret := _m.Called(ctx, args, onGenerate, onError)
	return ret.Error(0)
}
