// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hydrate

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modstash/modstash/lib/vfs"
)

// imageRoutePrefixes is the fixed ordered list of route prefixes,
// one per images-root subdirectory index. The images root is expected
// to contain at most this many subdirectories, in this (sorted) order.
var imageRoutePrefixes = []string{
	"/files/achievement/",
	"/files/banners/",
	"/files/currency/",
	"/files/handbook/",
	"/files/hideout/",
	"/files/launcher/",
	"/files/quest/",
	"/files/trader/",
}

// FaviconRoute is always registered, independent of the images-root
// layout.
const FaviconRoute = "/favicon.ico"

// faviconFile is the favicon's filename under the images root.
const faviconFile = "favicon.ico"

// Routes maps image route keys to on-disk file paths.
type Routes struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewRoutes creates an empty route table.
func NewRoutes() *Routes {
	return &Routes{routes: make(map[string]string)}
}

func (r *Routes) add(route, path string) {
	r.mu.Lock()
	r.routes[route] = path
	r.mu.Unlock()
}

// Resolve returns the file path registered for route.
func (r *Routes) Resolve(route string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.routes[route]
	return path, ok
}

// Len returns the number of registered routes.
func (r *Routes) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// All returns a copy of the route table.
func (r *Routes) All() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.routes))
	for route, path := range r.routes {
		out[route] = path
	}
	return out
}

// RegisterImages walks the images root and registers every file under
// <prefix><filename-without-extension>, where the prefix is selected
// by the subdirectory's index. Configuration overrides remap literal
// file paths at registration time. The favicon route is always
// registered.
func (h *Hydrator) RegisterImages(routes *Routes) error {
	dirs, err := h.fs.ListDirectories(h.config.ImagesRoot)
	if err != nil {
		return fmt.Errorf("registering images: %w", err)
	}

	for index, dir := range dirs {
		if index >= len(imageRoutePrefixes) {
			h.logger.Warn("images directory beyond known route prefixes, skipped", "dir", dir)
			continue
		}
		prefix := imageRoutePrefixes[index]

		files, err := h.fs.ListFiles(filepath.Join(h.config.ImagesRoot, dir))
		if err != nil {
			return fmt.Errorf("registering images: %w", err)
		}
		for _, file := range files {
			route := prefix + vfs.StripExtension(file)
			routes.add(route, h.resolveImagePath(filepath.Join(h.config.ImagesRoot, dir, file)))
		}
	}

	routes.add(FaviconRoute, h.resolveImagePath(filepath.Join(h.config.ImagesRoot, faviconFile)))

	h.logger.Info("image routes registered", "count", routes.Len())
	return nil
}

// resolveImagePath applies the configuration's literal-path override
// mapping. Paths compare slash-normalized.
func (h *Hydrator) resolveImagePath(path string) string {
	normalized := filepath.ToSlash(path)
	if override, ok := h.config.ImageOverrides[normalized]; ok {
		return override
	}
	return normalized
}
