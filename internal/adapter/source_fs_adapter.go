// Package adapter contains the infrastructure adapters iostest uses to reach
// the filesystem and the external toolchain (cargo, lipo, xcodebuild).
package adapter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	m "iostest.dev/pkg/iostest/internal/model"
	"iostest.dev/pkg/iostest/pkg"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning crates and writing generated artifacts. It hides
// direct `os` access so the workflow logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Walk traverses root recursively in lexical order. Entries below root are
	// reported with Lstat semantics, so symlinks inside the tree are not followed.
	Walk(root m.Path, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path so the domain can check existence
	// and modification times.
	FileInfo(path m.Path) (os.FileInfo, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path) error

	// WriteFile replaces the file at path atomically.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// CopyDir recursively copies a directory tree, writing every file atomically.
	CopyDir(src, dst m.Path) error

	// Rename moves oldPath to newPath, replacing any existing file.
	Rename(oldPath, newPath m.Path) error

	// Remove deletes a file. A missing file is not an error.
	Remove(path m.Path) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the os-backed implementation of SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over every entry under root. A symlinked root is followed,
// and entries are still reported under root as given.
func (a *LocalSourceFSAdapter) Walk(root m.Path, fn FilepathWalkFunc) error {
	rootStr := string(root)

	resolved, err := filepath.EvalSymlinks(rootStr)
	if err != nil {
		return fn(rootStr, nil, err)
	}

	return filepath.Walk(resolved, func(path string, info os.FileInfo, err error) error {
		switch rel, relErr := filepath.Rel(resolved, path); {
		case relErr != nil:
		case rel == ".":
			path = rootStr
		default:
			path = filepath.Join(rootStr, rel)
		}

		return fn(path, info, err)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// MkdirAll creates path and its parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return pkg.WriteFileAtomic(string(path), content, perm)
}

// CopyDir recursively copies a directory tree.
func (a *LocalSourceFSAdapter) CopyDir(src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		// User state inside a template project is never part of the layout.
		if info.IsDir() && filepath.Base(path) == "xcuserdata" {
			return filepath.SkipDir
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return a.copyFile(path, targetPath, info.Mode().Perm())
	})
}

// Rename moves a file within the same filesystem.
func (a *LocalSourceFSAdapter) Rename(oldPath, newPath m.Path) error {
	return os.Rename(string(oldPath), string(newPath))
}

// Remove deletes a file, ignoring a missing one.
func (a *LocalSourceFSAdapter) Remove(path m.Path) error {
	if err := os.Remove(string(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// copyFile copies a single file.
func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is a file inside the configured template directory
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	content, err := io.ReadAll(sourceFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	return pkg.WriteFileAtomic(dst, content, mode)
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
