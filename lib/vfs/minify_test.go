// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMinifyTreeCompactsAllJSON(t *testing.T) {
	v := newTestVFS(t)
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"a.json":          "{\n  \"key\": \"value\",\n  \"n\": 12345678901234567890\n}",
		"nested/b.json":   "[\n  1,\n  2,\n  3\n]",
		"nested/skip.txt": "  not json, untouched  ",
	})

	if err := v.MinifyTree(context.Background(), root); err != nil {
		t.Fatalf("MinifyTree failed: %v", err)
	}

	got := readTree(t, root)
	if got["a.json"] != `{"key":"value","n":12345678901234567890}` {
		t.Errorf("a.json = %q", got["a.json"])
	}
	if got["nested/b.json"] != `[1,2,3]` {
		t.Errorf("b.json = %q", got["nested/b.json"])
	}
	if got["nested/skip.txt"] != "  not json, untouched  " {
		t.Errorf("non-json file modified: %q", got["nested/skip.txt"])
	}
}

func TestMinifyTreeRejectsBatchOnInvalidJSON(t *testing.T) {
	v := newTestVFS(t)
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"good.json":   `{ "fine": true }`,
		"broken.json": `{ "unterminated": `,
	})

	if err := v.MinifyTree(context.Background(), root); err == nil {
		t.Fatal("MinifyTree succeeded with invalid JSON in the batch")
	}

	// The broken file was never overwritten.
	data, err := os.ReadFile(filepath.Join(root, "broken.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{ "unterminated": ` {
		t.Fatalf("broken file was modified: %q", data)
	}
}

func TestMinifyTreeEmptyTree(t *testing.T) {
	v := newTestVFS(t)
	if err := v.MinifyTree(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("MinifyTree on empty tree failed: %v", err)
	}
}

func TestMinifyTreeQueued(t *testing.T) {
	v := newTestVFS(t)
	root := t.TempDir()
	buildTree(t, root, map[string]string{
		"c.json": "{ \"spaced\" : 1 }",
	})

	pending, err := v.MinifyTreeQueued(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if err := pending.Wait(); err != nil {
		t.Fatalf("queued minify failed: %v", err)
	}

	got := readTree(t, root)
	if got["c.json"] != `{"spaced":1}` {
		t.Fatalf("c.json = %q", got["c.json"])
	}
}
