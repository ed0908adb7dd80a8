// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package opqueue provides a single-worker command queue that
// serializes filesystem mutations.
//
// Modstash routes every queued filesystem operation through one
// [Queue] so that two mutations submitted concurrently can never
// interleave destructively: the worker executes commands strictly in
// submission order, one at a time. The queue makes no attempt at
// per-path fairness or parallelism — callers that want concurrent
// reads perform them directly without the queue.
//
// Every submission settles exactly once. The operation's error (or
// nil) is delivered unchanged through [Pending.Wait]; the queue never
// retries and never rewrites failures.
package opqueue
