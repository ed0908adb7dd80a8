// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package hydrate loads the content database from disk, optionally
// verifying every file against a precomputed hash manifest, and
// registers image assets into a route table.
//
// Verification is advisory: a missing manifest, an unparsable
// manifest, or any per-file mismatch is recorded in the run's
// [ValidationState] and logged, but never stops hydration. Only a
// missing or corrupt content root is fatal — without content there is
// no database to serve.
//
// The per-run state machine is
//
//	start -> load manifest (verified mode only) -> hydrate tree ->
//	register images -> done
//
// and the validation state is monotonic within a run: once Failed,
// later successful file checks cannot flip it back.
package hydrate
