// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

// MinifyTree re-serializes every .json file under root to minimal
// form, overwriting the original atomically. Transcoding is dispatched
// to a bounded pool of workers; traversal stays with the caller's
// goroutine. The first failure cancels the remaining work and rejects
// the whole batch — there is no partial success report.
func (v *VFS) MinifyTree(ctx context.Context, root string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(FileExtension(d.Name()), "json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan string)
	errs := newErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < v.minifyWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				if err := v.minifyFile(path); err != nil {
					errs.record(err)
					cancel()
					return
				}
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case tasks <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if err := errs.first(); err != nil {
		return err
	}
	// Cancellation without a worker error means the caller's context
	// expired mid-batch.
	if err := ctx.Err(); err != nil {
		return err
	}

	v.logger.Debug("json tree minified", "root", root, "files", len(paths))
	return nil
}

// minifyFile validates and compacts one JSON file in place. Compact
// preserves token content exactly (no number re-parsing), so minified
// output is byte-faithful to the source apart from whitespace.
func (v *VFS) minifyFile(path string) error {
	data, err := v.ReadFile(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return fmt.Errorf("minifying %s: %w", path, err)
	}

	return v.WriteFile(path, buf.Bytes(), WriteOptions{Atomic: true})
}
