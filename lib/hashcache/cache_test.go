// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hashcache

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreThenMatches(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "bundles", "sounds.bundle")
	writeFile(t, bundle, []byte("bundle payload"))

	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	digest, err := cache.Store(bundle)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest %q is not 32 hex-encoded bytes", digest)
	}

	if !cache.Matches(bundle) {
		t.Fatal("Matches = false for unmodified file")
	}

	got, ok := cache.Get(bundle)
	if !ok || got != digest {
		t.Fatalf("Get = %q, %v; want %q, true", got, ok, digest)
	}
}

func TestMatchesDetectsModification(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "payload.bundle")
	writeFile(t, bundle, []byte("original"))

	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	original, err := cache.Store(bundle)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, bundle, []byte("tampered, and longer"))

	if cache.Matches(bundle) {
		t.Fatal("Matches = true for modified file")
	}
	// Mismatch invalidates the stale entry.
	if _, ok := cache.Get(bundle); ok {
		t.Fatal("stale entry survived mismatch detection")
	}

	refreshed, err := cache.Store(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed == original {
		t.Fatal("re-stored digest equals original despite modified content")
	}
}

func TestMatchesTrustsUnchangedFingerprint(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "payload.bundle")
	writeFile(t, bundle, []byte("version one"))

	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	original, err := cache.Store(bundle)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(bundle)
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite with different bytes of the same length and restore the
	// mtime. The fingerprint is unchanged, so Matches must answer from
	// the cache without hashing — the stale digest surviving proves no
	// re-hash happened.
	writeFile(t, bundle, []byte("version two"))
	if err := os.Chtimes(bundle, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	if !cache.Matches(bundle) {
		t.Fatal("Matches = false with unchanged fingerprint")
	}
	got, ok := cache.Get(bundle)
	if !ok || got != original {
		t.Fatalf("Get = %q, %v; want the cached digest %q", got, ok, original)
	}
}

func TestMatchesRefreshesFingerprintOnTouch(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "payload.bundle")
	writeFile(t, bundle, []byte("steady content"))

	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	digest, err := cache.Store(bundle)
	if err != nil {
		t.Fatal(err)
	}

	// A touch moves the mtime without changing content: Matches falls
	// back to hashing once, sees the same digest, and keeps the entry.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(bundle, future, future); err != nil {
		t.Fatal(err)
	}

	if !cache.Matches(bundle) {
		t.Fatal("Matches = false for touched but unmodified file")
	}
	if got, ok := cache.Get(bundle); !ok || got != digest {
		t.Fatalf("Get = %q, %v after touch; want %q, true", got, ok, digest)
	}
	// The refreshed fingerprint makes the follow-up check cheap again.
	if !cache.Matches(bundle) {
		t.Fatal("Matches = false after fingerprint refresh")
	}
}

func TestMatchesMissingEntryAndMissingFile(t *testing.T) {
	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if cache.Matches(filepath.Join(t.TempDir(), "never-stored")) {
		t.Fatal("Matches = true for path with no entry")
	}

	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.bundle")
	writeFile(t, gone, []byte("soon deleted"))
	if _, err := cache.Store(gone); err != nil {
		t.Fatal(err)
	}
	os.Remove(gone)
	if cache.Matches(gone) {
		t.Fatal("Matches = true for deleted file")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache", "hashes.cbor.zst")
	bundle := filepath.Join(dir, "maps.bundle")
	writeFile(t, bundle, []byte("map data"))

	cache, err := Open(cachePath, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	digest, err := cache.Store(bundle)
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(cachePath, discardLogger())
	if err != nil {
		t.Fatalf("reopening cache: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("reopened cache has %d entries, want 1", reopened.Len())
	}
	got, ok := reopened.Get(bundle)
	if !ok || got != digest {
		t.Fatalf("reopened Get = %q, %v; want %q, true", got, ok, digest)
	}
	if !reopened.Matches(bundle) {
		t.Fatal("reopened cache does not match unmodified file")
	}
}

func TestOpenAbsentFileStartsEmpty(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "missing.cbor.zst"), discardLogger())
	if err != nil {
		t.Fatalf("Open of absent file failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("absent cache file produced %d entries", cache.Len())
	}
}

func TestOpenCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.cbor.zst")
	writeFile(t, path, []byte("not zstd at all"))

	if _, err := Open(path, discardLogger()); err == nil {
		t.Fatal("Open of corrupt cache file succeeded")
	}
}

func TestNormalizedKeysCollapseEquivalentPaths(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "a.bundle")
	writeFile(t, bundle, []byte("content"))

	cache, err := Open("", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Store(bundle); err != nil {
		t.Fatal(err)
	}

	// Same file through a redundant path spelling.
	redundant := filepath.Join(dir, ".", "a.bundle")
	if !cache.Matches(redundant) {
		t.Fatal("equivalent path spelling missed the cache")
	}
	if cache.Len() != 1 {
		t.Fatalf("cache has %d entries, want 1", cache.Len())
	}
}
