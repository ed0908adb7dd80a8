// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hashcache

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/modstash/modstash/lib/codec"
)

// Cache is a process-wide path→content-hash store. All methods are
// safe for concurrent use; mutation happens only during bundle
// manifest ingestion.
type Cache struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// entry pairs a content digest with the size and mtime fingerprint of
// the file it was computed from. An unchanged fingerprint lets Matches
// skip re-hashing the payload.
type entry struct {
	Digest string `cbor:"digest"`
	Size   int64  `cbor:"size"`
	MTime  int64  `cbor:"mtime"`
}

// Open loads the cache persisted at path, or starts empty if the file
// does not exist. An empty path keeps the cache memory-only (used in
// tests and one-shot tooling).
func Open(path string, logger *slog.Logger) (*Cache, error) {
	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]entry),
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading hash cache %s: %w", path, err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing hash cache %s: %w", path, err)
	}
	if err := codec.Unmarshal(raw, &c.entries); err != nil {
		return nil, fmt.Errorf("decoding hash cache %s: %w", path, err)
	}

	logger.Debug("hash cache loaded", "path", path, "entries", len(c.entries))
	return c, nil
}

// Matches reports whether the cached digest for path is still valid.
// The check is cheap: the stored size and mtime are compared against a
// fresh Stat, and the payload is re-hashed only when that fingerprint
// moved. A missing entry, unreadable file, or differing digest all
// report false. A digest mismatch invalidates the stale entry so a
// later Get cannot return it.
func (c *Cache) Matches(path string) bool {
	key := normalize(path)

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		c.logger.Debug("hash cache check failed", "path", path, "error", err)
		return false
	}
	if info.Size() == cached.Size && info.ModTime().UnixNano() == cached.MTime {
		return true
	}

	// Fingerprint moved; fall back to comparing content.
	current, err := HashFile(path)
	if err != nil {
		c.logger.Debug("hash cache check failed", "path", path, "error", err)
		return false
	}
	if current != cached.Digest {
		c.mu.Lock()
		// Re-check: a concurrent Store may have refreshed the entry.
		if c.entries[key] == cached {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return false
	}

	// Same content under a new fingerprint (a touch, or a rewrite with
	// identical bytes). Record the fingerprint so the next check stays
	// cheap.
	c.mu.Lock()
	c.entries[key] = entry{Digest: cached.Digest, Size: info.Size(), MTime: info.ModTime().UnixNano()}
	c.mu.Unlock()
	if err := c.save(); err != nil {
		c.logger.Debug("hash cache fingerprint refresh not persisted", "path", path, "error", err)
	}
	return true
}

// Store hashes the file, records the digest and fingerprint under its
// normalized path, persists the cache, and returns the digest. The
// fingerprint is taken before hashing, so a concurrent modification
// shows up as a moved fingerprint on the next Matches.
func (c *Cache) Store(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	digest, err := HashFile(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[normalize(path)] = entry{Digest: digest, Size: info.Size(), MTime: info.ModTime().UnixNano()}
	c.mu.Unlock()

	if err := c.save(); err != nil {
		return "", err
	}
	return digest, nil
}

// Get returns the cached digest for path, if any. It never touches
// the filesystem.
func (c *Cache) Get(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entries[normalize(path)]
	return cached.Digest, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// save persists the full entry map atomically. A memory-only cache
// saves nothing.
func (c *Cache) save() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	raw, err := codec.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding hash cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	data := encoder.EncodeAll(raw, nil)
	encoder.Close()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating hash cache directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "hashcache-*.cbor.zst")
	if err != nil {
		return fmt.Errorf("creating temp hash cache file: %w", err)
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
		return fmt.Errorf("writing hash cache: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp hash cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("renaming hash cache to %s: %w", c.path, err)
	}

	success = true
	return nil
}

// HashFile streams the file at path through BLAKE3 and returns the
// hex digest. Memory usage is constant regardless of file size.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// normalize produces the canonical cache key for a path: cleaned,
// with forward slashes regardless of platform.
func normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
