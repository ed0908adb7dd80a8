// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modstash.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
contentRoot: /srv/modstash/database
checksFile: /srv/modstash/checks.dat
imagesRoot: /srv/modstash/images
verifiedMode: true
cacheFile: /var/cache/modstash/hashes.cbor.zst
minifyWorkers: 4
queueDepth: 128
mods:
  - /srv/modstash/mods/soundpack
  - /srv/modstash/mods/retexture
imageOverrides:
  /srv/modstash/images/trader/prapor.png: /srv/modstash/mods/retexture/prapor.png
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ContentRoot != "/srv/modstash/database" {
		t.Errorf("ContentRoot = %q", cfg.ContentRoot)
	}
	if !cfg.VerifiedMode {
		t.Error("VerifiedMode = false")
	}
	if len(cfg.Mods) != 2 {
		t.Errorf("Mods = %v", cfg.Mods)
	}
	if cfg.ImageOverrides["/srv/modstash/images/trader/prapor.png"] == "" {
		t.Error("image override missing")
	}
	if cfg.MinifyWorkers != 4 || cfg.QueueDepth != 128 {
		t.Errorf("worker/queue settings = %d, %d", cfg.MinifyWorkers, cfg.QueueDepth)
	}
}

func TestLoadRequiresContentRoot(t *testing.T) {
	path := writeConfig(t, `imagesRoot: /srv/images`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load without contentRoot succeeded")
	}
}

func TestVerifiedModeRequiresChecksFile(t *testing.T) {
	path := writeConfig(t, `
contentRoot: /srv/database
verifiedMode: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("verifiedMode without checksFile accepted")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of absent file succeeded")
	}
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "contentRoot: [unclosed")

	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed YAML succeeded")
	}
}

func TestNegativeWorkerCountRejected(t *testing.T) {
	path := writeConfig(t, `
contentRoot: /srv/database
minifyWorkers: -1
`)

	if _, err := Load(path); err == nil {
		t.Fatal("negative minifyWorkers accepted")
	}
}
