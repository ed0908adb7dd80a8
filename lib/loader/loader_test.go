// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadTreeMirrorsDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"globals.json":            `{"time": 1.0}`,
		"items/weapons/ak74.json": `{"id": "ak74"}`,
		"items/notes.txt":         "ignored",
	})

	table, err := LoadTree(root, "", nil)
	if err != nil {
		t.Fatalf("LoadTree failed: %v", err)
	}

	globals, ok := table["globals"].(map[string]any)
	if !ok {
		t.Fatalf("globals = %T, want decoded object", table["globals"])
	}
	if globals["time"] != 1.0 {
		t.Errorf("globals.time = %v", globals["time"])
	}

	items, ok := table["items"].(map[string]any)
	if !ok {
		t.Fatalf("items = %T, want subtree", table["items"])
	}
	if _, present := items["notes"]; present {
		t.Error("non-json file included in table")
	}
	weapons, ok := items["weapons"].(map[string]any)
	if !ok {
		t.Fatalf("items/weapons = %T, want subtree", items["weapons"])
	}
	if _, ok := weapons["ak74"].(map[string]any); !ok {
		t.Fatalf("ak74 = %T, want decoded object", weapons["ak74"])
	}
}

func TestLoadTreeInvokesHookBeforeInclusion(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.json":     `1`,
		"sub/b.json": `2`,
	})

	seen := make(map[string]string)
	_, err := LoadTree(root, "database", func(path string, data []byte) error {
		seen[path] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if seen["database/a.json"] != "1" || seen["database/sub/b.json"] != "2" {
		t.Fatalf("hook observations = %v", seen)
	}
}

func TestLoadTreeHookErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.json": `1`})

	sentinel := errors.New("rejected")
	_, err := LoadTree(root, "", func(string, []byte) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("LoadTree = %v, want hook error", err)
	}
}

func TestLoadTreeMissingRootFails(t *testing.T) {
	if _, err := LoadTree(filepath.Join(t.TempDir(), "absent"), "", nil); err == nil {
		t.Fatal("LoadTree of absent root succeeded")
	}
}

func TestLoadTreeMalformedJSONFails(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"broken.json": `{"unterminated`})

	if _, err := LoadTree(root, "", nil); err == nil {
		t.Fatal("LoadTree of malformed JSON succeeded")
	}
}
