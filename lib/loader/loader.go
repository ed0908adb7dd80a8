// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader reads a directory tree of JSON content files into a
// nested in-memory table.
//
// Traversal policy lives here; per-file policy (integrity validation)
// is injected by the caller as an [OnFile] hook, keeping the two
// concerns decoupled. The hydrator supplies a hook that verifies each
// file against a hash manifest.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// OnFile is invoked for every content file before it is included in
// the table. The path is slash-separated and includes the base prefix
// passed to LoadTree. A hook error aborts the load.
type OnFile func(path string, data []byte) error

// LoadTree loads every .json file under root into a nested table
// mirroring the directory structure: directories become nested maps,
// files become decoded JSON values keyed by their extension-stripped
// name. Files with other extensions are ignored.
//
// base is prepended (slash-joined) to the relative path handed to the
// hook; pass "" to receive root-relative paths. A nil hook skips the
// callback entirely.
func LoadTree(root, base string, onFile OnFile) (map[string]any, error) {
	return loadDir(root, base, onFile)
}

func loadDir(dir, rel string, onFile OnFile) (map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	table := make(map[string]any, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())
		childRel := path.Join(rel, entry.Name())

		if entry.IsDir() {
			subtree, err := loadDir(childPath, childRel, onFile)
			if err != nil {
				return nil, err
			}
			table[entry.Name()] = subtree
			continue
		}

		name := entry.Name()
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 || !strings.EqualFold(name[idx+1:], "json") {
			continue
		}

		data, err := os.ReadFile(childPath)
		if err != nil {
			return nil, fmt.Errorf("reading content file %s: %w", childPath, err)
		}

		if onFile != nil {
			if err := onFile(childRel, data); err != nil {
				return nil, fmt.Errorf("content hook for %s: %w", childRel, err)
			}
		}

		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("parsing content file %s: %w", childPath, err)
		}
		table[name[:idx]] = value
	}
	return table, nil
}
