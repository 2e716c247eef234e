// Package mocks provides testify mocks for the adapter interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	m "iostest.dev/pkg/iostest/internal/model"
)

// MockCommandAdapter is a mock of adapter.CommandAdapter.
type MockCommandAdapter struct {
	mock.Mock
}

// Output records the call and returns the configured stdout and error.
func (_m *MockCommandAdapter) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	ret := _m.Called(ctx, dir, name, args)

	var out []byte
	if v := ret.Get(0); v != nil {
		out = v.([]byte)
	}

	return out, ret.Error(1)
}

// Run records the call and returns the configured error.
func (_m *MockCommandAdapter) Run(ctx context.Context, dir string, out io.Writer, name string, args ...string) error {
	ret := _m.Called(ctx, dir, out, name, args)
	return ret.Error(0)
}

// MockCargoAdapter is a mock of adapter.CargoAdapter.
type MockCargoAdapter struct {
	mock.Mock
}

// ReadManifest records the call and returns the configured manifest.
func (_m *MockCargoAdapter) ReadManifest(ctx context.Context, crateDir m.Path) (m.DeclaredManifest, error) {
	ret := _m.Called(ctx, crateDir)
	return ret.Get(0).(m.DeclaredManifest), ret.Error(1)
}

// Metadata records the call and returns the configured graph.
func (_m *MockCargoAdapter) Metadata(ctx context.Context, crateDir m.Path) (m.PackageGraph, error) {
	ret := _m.Called(ctx, crateDir)
	return ret.Get(0).(m.PackageGraph), ret.Error(1)
}

// Build records the call and returns the configured error.
func (_m *MockCargoAdapter) Build(ctx context.Context, manifestDir m.Path, target m.Target, release bool, out io.Writer) error {
	ret := _m.Called(ctx, manifestDir, target, release, out)
	return ret.Error(0)
}

// MockLipoAdapter is a mock of adapter.LipoAdapter.
type MockLipoAdapter struct {
	mock.Mock
}

// Create records the call and returns the configured error.
func (_m *MockLipoAdapter) Create(ctx context.Context, output m.Path, inputs []m.Path, out io.Writer) error {
	ret := _m.Called(ctx, output, inputs, out)
	return ret.Error(0)
}

// MockXcodeAdapter is a mock of adapter.XcodeAdapter.
type MockXcodeAdapter struct {
	mock.Mock
}

// Test records the call and returns the configured error.
func (_m *MockXcodeAdapter) Test(ctx context.Context, project m.Path, scheme string, destinations []string, out io.Writer) error {
	ret := _m.Called(ctx, project, scheme, destinations, out)
	return ret.Error(0)
}

// MockWatchAdapter is a mock of adapter.WatchAdapter.
type MockWatchAdapter struct {
	mock.Mock
}

// Watch records the call and returns the configured channels.
func (_m *MockWatchAdapter) Watch(ctx context.Context, root m.Path) (<-chan m.Path, <-chan error, error) {
	ret := _m.Called(ctx, root)

	var changes <-chan m.Path
	if v := ret.Get(0); v != nil {
		changes = v.(<-chan m.Path)
	}

	var errs <-chan error
	if v := ret.Get(1); v != nil {
		errs = v.(<-chan error)
	}

	return changes, errs, ret.Error(2)
}
