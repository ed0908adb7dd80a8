// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package hydrate

// ValidationState summarizes manifest verification for one hydration
// run.
type ValidationState int

const (
	// StateUndefined is the initial state of every run, and the final
	// state when verified mode is off.
	StateUndefined ValidationState = iota

	// StateSuccess means the manifest loaded and no checked file has
	// mismatched so far.
	StateSuccess

	// StateFailed means the manifest was unparsable, a checked file's
	// digest mismatched, or a checked file had no manifest entry.
	// Failed is terminal within a run.
	StateFailed

	// StateNotFound means verified mode is on but no manifest file
	// exists. Nothing is marked invalid.
	StateNotFound
)

func (s ValidationState) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}
