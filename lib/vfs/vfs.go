// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/modstash/modstash/lib/opqueue"
)

// Options configures a VFS.
type Options struct {
	// MinifyWorkers bounds the worker pool for JSON re-serialization.
	// Zero selects runtime.NumCPU.
	MinifyWorkers int
}

// VFS serializes and atomically executes filesystem operations. See
// the package documentation for the concurrency model.
type VFS struct {
	queue         *opqueue.Queue
	locks         *lockTable
	logger        *slog.Logger
	minifyWorkers int
}

// New creates a VFS whose queued operations run on queue.
func New(queue *opqueue.Queue, logger *slog.Logger, opts Options) *VFS {
	workers := opts.MinifyWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &VFS{
		queue:         queue,
		locks:         newLockTable(),
		logger:        logger,
		minifyWorkers: workers,
	}
}

// Exists reports whether path names an existing file or directory.
func (v *VFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stat returns file info for path, wrapping the OS error with the
// path when it fails.
func (v *VFS) Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

// ReadFile returns the full content of the file at path.
func (v *VFS) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteOptions selects the write mode for WriteFile.
type WriteOptions struct {
	// Append adds data to the end of an existing file instead of
	// truncating it.
	Append bool

	// Atomic makes the write observable only as a complete unit via
	// a temp-file-then-rename swap. Ignored when Append is set —
	// appends are inherently in-place.
	Atomic bool
}

// WriteFile writes data to path, creating the parent directory tree
// if absent. The write runs under the path lock, which is released on
// every exit path.
func (v *VFS) WriteFile(path string, data []byte, opts WriteOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	guard, err := v.locks.Acquire(path)
	if err != nil {
		return err
	}
	defer guard.Release()

	if opts.Atomic && !opts.Append {
		return writeAtomic(path, data)
	}
	return writeDirect(path, data, opts.Append)
}

// writeAtomic writes to a temp file in the destination directory and
// renames it over the target, so readers observe either the old or
// the new content, never a prefix.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	success = true
	return nil
}

func writeDirect(path string, data []byte, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for writing: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// CopyFile copies a single file, creating the destination directory
// if absent. The destination write is guarded and atomic.
func (v *VFS) CopyFile(src, dst string) error {
	data, err := v.ReadFile(src)
	if err != nil {
		return err
	}
	return v.WriteFile(dst, data, WriteOptions{Atomic: true})
}

// Rename moves a file or directory. The destination parent is created
// if absent.
func (v *VFS) Rename(oldPath, newPath string) error {
	dir := filepath.Dir(newPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// RemoveFile deletes a single file. Removing a file that does not
// exist is an error — callers check Exists first if absence is fine.
func (v *VFS) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// ListFiles returns the names of the regular files directly under
// dir. Lock sidecar files are infrastructure, not content, and are
// excluded.
func (v *VFS) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || isLockSidecar(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ListDirectories returns the names of the subdirectories directly
// under dir.
func (v *VFS) ListDirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// copyFileContents streams src into dst without locking. Used inside
// recursive copies where the whole-tree operation owns the ordering.
func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

// FileExtension returns the substring after the final dot. A path
// with no dot returns unchanged — callers treating the result as an
// extension must tolerate the whole-string case.
func FileExtension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// StripExtension removes everything from the final dot onward. A path
// with no dot returns unchanged.
func StripExtension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return path
	}
	return path[:idx]
}
