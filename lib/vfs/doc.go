// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs is the filesystem facade for modstash. Every component
// that touches disk (the bundle registry, the database hydrator, the
// checks generator) goes through a [VFS] instead of calling os
// functions directly.
//
// The facade offers two calling styles with identical semantics:
// blocking methods, and Queued variants that route the same operation
// through the shared [opqueue.Queue] so mutations submitted from
// different goroutines cannot interleave.
//
// Writes are guarded twice. A per-path lock (in-process mutex plus an
// advisory flock on a sidecar .lock file) serializes writers to one
// path, and atomic writes go through a temp-file-then-rename swap so
// a reader can never observe a partially written file. The lock is
// released on every exit path, including failures. Sidecar files stay
// on disk after release but are invisible to listings and tree
// copies.
//
// CPU-bound work — re-serializing JSON trees to minimal form — runs
// on a bounded worker pool while directory traversal stays with the
// caller. The first worker failure rejects the whole batch.
package vfs
