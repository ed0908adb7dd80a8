// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hydrate

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HashTree is a nested mapping of path segments to either a subtree
// or a hex digest leaf, mirroring the content directory tree with
// extensions stripped from leaves. It is an immutable snapshot loaded
// once per run.
type HashTree map[string]any

// Lookup walks the tree one path segment at a time and returns the
// leaf digest for the extension-stripped, slash-separated relative
// path. The second result is false when a segment is missing, a leaf
// appears where a subtree was expected, or the leaf is not a digest
// string.
func (t HashTree) Lookup(relPath string) (string, bool) {
	segments := strings.Split(relPath, "/")
	var current any = map[string]any(t)

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			// Early leaf: the manifest ends where the filesystem
			// still has directories.
			return "", false
		}
		current, ok = node[segment]
		if !ok {
			return "", false
		}
	}

	digest, ok := current.(string)
	return digest, ok
}

// ParseChecks decodes a checks manifest: base64-encoded JSON of a
// nested segment→digest mapping.
func ParseChecks(raw []byte) (HashTree, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding checks manifest: %w", err)
	}

	var tree HashTree
	if err := json.Unmarshal(decoded, &tree); err != nil {
		return nil, fmt.Errorf("parsing checks manifest: %w", err)
	}
	return tree, nil
}

// EncodeChecks serializes a hash tree into the persisted manifest
// format (base64-wrapped JSON).
func EncodeChecks(tree HashTree) ([]byte, error) {
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encoding checks manifest: %w", err)
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(encoded, raw)
	return encoded, nil
}

// GenerateChecks walks the content tree at root and builds a hash
// tree over its .json files, the same file set the loader includes.
// This is the write side of verification: the output round-trips
// through EncodeChecks/ParseChecks and validates the tree it was
// generated from.
func GenerateChecks(root string) (HashTree, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", root, err)
	}

	tree := make(HashTree, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(root, entry.Name())

		if entry.IsDir() {
			subtree, err := GenerateChecks(childPath)
			if err != nil {
				return nil, err
			}
			tree[entry.Name()] = map[string]any(subtree)
			continue
		}

		name := entry.Name()
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 || !strings.EqualFold(name[idx+1:], "json") {
			continue
		}

		data, err := os.ReadFile(childPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", childPath, err)
		}
		tree[name[:idx]] = DigestBytes(data)
	}
	return tree, nil
}

// DigestBytes returns the hex SHA-256 digest of data, the digest
// format stored in checks manifests.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
