// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hydrate

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/modstash/modstash/lib/loader"
	"github.com/modstash/modstash/lib/vfs"
)

// Config locates the content tree and controls verification.
type Config struct {
	// ContentRoot is the directory holding the JSON content database.
	ContentRoot string

	// ChecksFile is the path to the hash manifest. Only consulted in
	// verified mode.
	ChecksFile string

	// VerifiedMode enables manifest loading and per-file validation.
	VerifiedMode bool

	// ImagesRoot is the directory of image asset subdirectories.
	ImagesRoot string

	// ImageOverrides remaps a literal image file path to a
	// replacement path at registration time.
	ImageOverrides map[string]string
}

// Hydrator loads the content database while validating files against
// the hash manifest.
type Hydrator struct {
	fs     *vfs.VFS
	logger *slog.Logger
	config Config

	mu     sync.Mutex
	state  ValidationState
	checks HashTree
}

// New creates a hydrator. No disk access happens until Hydrate.
func New(fs *vfs.VFS, logger *slog.Logger, config Config) *Hydrator {
	return &Hydrator{fs: fs, logger: logger, config: config}
}

// State returns the validation state of the current (or most recent)
// run.
func (h *Hydrator) State() ValidationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Hydrate runs the full pipeline: load the hash manifest if verified
// mode is on, then load the content tree with the validation hook
// attached. Validation outcomes land in State; only a missing or
// corrupt content root makes Hydrate itself fail.
func (h *Hydrator) Hydrate() (map[string]any, error) {
	h.mu.Lock()
	h.state = StateUndefined
	h.checks = nil
	h.mu.Unlock()

	if h.config.VerifiedMode {
		h.loadChecks()
	}

	table, err := loader.LoadTree(h.config.ContentRoot, "", h.onFile)
	if err != nil {
		return nil, fmt.Errorf("hydrating content database: %w", err)
	}

	h.logger.Info("content database hydrated",
		"root", h.config.ContentRoot,
		"validation", h.State().String())
	return table, nil
}

// loadChecks loads the hash manifest. Absent manifest → NotFound;
// unparsable manifest → Failed. Both are advisory, hydration
// continues either way.
func (h *Hydrator) loadChecks() {
	if !h.fs.Exists(h.config.ChecksFile) {
		h.setState(StateNotFound)
		h.logger.Info("no checks manifest, content validation skipped", "path", h.config.ChecksFile)
		return
	}

	raw, err := h.fs.ReadFile(h.config.ChecksFile)
	if err != nil {
		h.setState(StateFailed)
		h.logger.Warn("checks manifest unreadable", "path", h.config.ChecksFile, "error", err)
		return
	}

	tree, err := ParseChecks(raw)
	if err != nil {
		h.setState(StateFailed)
		h.logger.Warn("checks manifest unparsable", "path", h.config.ChecksFile, "error", err)
		return
	}

	h.mu.Lock()
	h.state = StateSuccess
	h.checks = tree
	h.mu.Unlock()
	h.logger.Debug("checks manifest loaded", "path", h.config.ChecksFile)
}

// onFile is the per-file validation hook threaded through the loader.
// Active only when a manifest loaded successfully. It records
// failures and always returns nil — validation never aborts
// hydration.
func (h *Hydrator) onFile(path string, data []byte) error {
	h.mu.Lock()
	checks := h.checks
	h.mu.Unlock()
	if checks == nil {
		return nil
	}

	stripped := vfs.StripExtension(path)
	expected, ok := checks.Lookup(stripped)
	if !ok {
		h.markFailed()
		h.logger.Warn("content file has no manifest entry", "path", path)
		return nil
	}

	actual := DigestBytes(data)
	if actual != expected {
		h.markFailed()
		h.logger.Warn("content file digest mismatch",
			"path", path, "expected", expected, "actual", actual)
	}
	return nil
}

// markFailed transitions to Failed. The transition is monotonic: a
// run never recovers to Success once any file has failed.
func (h *Hydrator) markFailed() {
	h.setState(StateFailed)
}

func (h *Hydrator) setState(state ValidationState) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}
