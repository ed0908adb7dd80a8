// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/modstash/modstash/lib/hashcache"
	"github.com/modstash/modstash/lib/vfs"
)

// ManifestName is the per-mod bundle declaration file.
const ManifestName = "bundles.json"

// payloadDir is the directory under a mod root holding bundle
// payload files, keyed by bundle key.
const payloadDir = "bundles"

// ErrNotRegistered is returned by Get for an unknown bundle key. The
// caller is presumed misconfigured — bundle keys come from manifests,
// not user input.
var ErrNotRegistered = errors.New("bundle: key not registered")

// ManifestEntry is one declared bundle, read-only after parse.
type ManifestEntry struct {
	Key            string   `json:"key"`
	DependencyKeys []string `json:"dependencyKeys"`
}

type manifestFile struct {
	Manifest []ManifestEntry `json:"manifest"`
}

// Info describes a registered bundle. Path separators are normalized
// to forward slashes regardless of platform.
type Info struct {
	ModPath      string   `json:"modPath"`
	FileName     string   `json:"filename"`
	Hash         string   `json:"hash"`
	Dependencies []string `json:"dependencyKeys"`
}

// clone returns a deep copy sharing no mutable state with the
// original.
func (i *Info) clone() Info {
	copied := *i
	if i.Dependencies != nil {
		copied.Dependencies = append([]string(nil), i.Dependencies...)
	}
	return copied
}

// Registry is the process-wide bundle table. Ingestion and reads are
// safe to interleave; concurrent ingestion of the same key is not
// expected and last-write-wins if it happens.
type Registry struct {
	fs     *vfs.VFS
	cache  *hashcache.Cache
	logger *slog.Logger

	mu      sync.RWMutex
	bundles map[string]*Info
}

// NewRegistry creates an empty registry backed by the given VFS and
// hash cache.
func NewRegistry(fs *vfs.VFS, cache *hashcache.Cache, logger *slog.Logger) *Registry {
	return &Registry{
		fs:      fs,
		cache:   cache,
		logger:  logger,
		bundles: make(map[string]*Info),
	}
}

// AddFromManifest parses <modRoot>/bundles.json and registers every
// declared bundle, overwriting same-key entries. Bundle content is
// hashed only when the hash cache misses or mismatches; the fresh
// hash is persisted before the registry entry is constructed.
func (r *Registry) AddFromManifest(modRoot string) error {
	manifestPath := filepath.Join(modRoot, ManifestName)
	raw, err := r.fs.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	var parsed manifestFile
	if err := json.Unmarshal(jsonc.ToJSON(raw), &parsed); err != nil {
		return fmt.Errorf("parsing %s: %w", manifestPath, err)
	}

	for _, entry := range parsed.Manifest {
		payload := filepath.Join(modRoot, payloadDir, entry.Key)

		var hash string
		if r.cache.Matches(payload) {
			hash, _ = r.cache.Get(payload)
			r.logger.Debug("bundle hash reused", "key", entry.Key)
		} else {
			hash, err = r.cache.Store(payload)
			if err != nil {
				return fmt.Errorf("hashing bundle %q: %w", entry.Key, err)
			}
			r.logger.Debug("bundle hash computed", "key", entry.Key, "hash", hash)
		}

		info := &Info{
			ModPath:  filepath.ToSlash(modRoot),
			FileName: filepath.ToSlash(payload),
			Hash:     hash,
		}
		if len(entry.DependencyKeys) > 0 {
			info.Dependencies = append([]string(nil), entry.DependencyKeys...)
		}

		r.mu.Lock()
		r.bundles[entry.Key] = info
		r.mu.Unlock()
	}

	r.logger.Info("bundle manifest ingested", "mod", modRoot, "bundles", len(parsed.Manifest))
	return nil
}

// Add registers info under key directly, overwriting any existing
// entry. The registry stores its own copy.
func (r *Registry) Add(key string, info Info) {
	owned := info.clone()
	r.mu.Lock()
	r.bundles[key] = &owned
	r.mu.Unlock()
}

// Get returns a deep copy of the entry for key, or an error wrapping
// ErrNotRegistered.
func (r *Registry) Get(key string) (Info, error) {
	r.mu.RLock()
	info, ok := r.bundles[key]
	r.mu.RUnlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrNotRegistered, key)
	}
	return info.clone(), nil
}

// All returns deep copies of every entry, sorted by key for
// deterministic output. Order is an implementation convenience, not a
// guarantee.
func (r *Registry) All() []Info {
	r.mu.RLock()
	keys := make([]string, 0, len(r.bundles))
	for key := range r.bundles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Info, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.bundles[key].clone())
	}
	r.mu.RUnlock()
	return out
}

// Len returns the number of registered bundles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bundles)
}
