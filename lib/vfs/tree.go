// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CopyTree recursively copies the directory at src into dst,
// depth-first. Destination directories are created lazily, just
// before the first file lands in them. When extensions are given,
// only files whose extension is in the allow-list are copied;
// directories are always traversed. Lock sidecar files are never
// copied.
func (v *VFS) CopyTree(src, dst string, extensions ...string) error {
	allowed := newExtensionSet(extensions)

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("listing %s: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := v.CopyTree(srcPath, dstPath, extensions...); err != nil {
				return err
			}
			continue
		}
		if isLockSidecar(entry.Name()) || !allowed.permits(entry.Name()) {
			continue
		}
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dst, err)
		}
		if err := copyFileContents(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTree recursively deletes the directory at path, children
// before parent. Lock sidecar files left behind by earlier writes are
// removed along with everything else.
func (v *VFS) RemoveTree(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("listing %s: %w", path, err)
	}

	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if err := v.RemoveTree(child); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(child); err != nil {
			return fmt.Errorf("removing %s: %w", child, err)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// copyTreeParallel is the fan-out form used by the queued variant:
// sibling subtrees copy concurrently, files within a directory copy
// sequentially. The first failure wins; the rest of the batch still
// runs to completion before the error is returned.
func (v *VFS) copyTreeParallel(src, dst string, allowed extensionSet) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("listing %s: %w", src, err)
	}

	var wg sync.WaitGroup
	errs := newErrorCollector()

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs.record(v.copyTreeParallel(srcPath, dstPath, allowed))
			}()
			continue
		}
		if isLockSidecar(entry.Name()) || !allowed.permits(entry.Name()) {
			continue
		}
		if err := os.MkdirAll(dst, 0o755); err != nil {
			errs.record(fmt.Errorf("creating directory %s: %w", dst, err))
			continue
		}
		errs.record(copyFileContents(srcPath, dstPath))
	}

	wg.Wait()
	return errs.first()
}

// removeTreeParallel deletes sibling subtrees concurrently, then the
// parent once every child has settled. The parent is never removed
// when any child failed.
func (v *VFS) removeTreeParallel(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("listing %s: %w", path, err)
	}

	var wg sync.WaitGroup
	errs := newErrorCollector()

	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs.record(v.removeTreeParallel(child))
			}()
			continue
		}
		if err := os.Remove(child); err != nil {
			errs.record(fmt.Errorf("removing %s: %w", child, err))
		}
	}

	wg.Wait()
	if err := errs.first(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// extensionSet is a lowercase allow-list of file extensions. The
// empty set permits everything.
type extensionSet map[string]struct{}

func newExtensionSet(extensions []string) extensionSet {
	if len(extensions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return set
}

func (s extensionSet) permits(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s[strings.ToLower(FileExtension(name))]
	return ok
}

// errorCollector keeps the first recorded error from a concurrent
// batch.
type errorCollector struct {
	mu  sync.Mutex
	err error
}

func newErrorCollector() *errorCollector {
	return &errorCollector{}
}

func (c *errorCollector) record(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

func (c *errorCollector) first() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
