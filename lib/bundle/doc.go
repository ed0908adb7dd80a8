// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle tracks externally loadable content bundles declared
// by mods.
//
// A mod declares its bundles in <modRoot>/bundles.json (JSONC —
// comments and trailing commas are tolerated, since these files are
// hand-written). Each manifest entry names a payload file at
// <modRoot>/bundles/<key>. On ingestion the registry consults the
// hash cache: a bundle whose bytes are unchanged since the last run
// reuses its cached content hash, anything else is re-hashed and the
// cache updated before the registry entry is built. A registry entry
// is therefore never stale relative to the cache.
//
// The registry owns its entries exclusively. Readers get deep copies;
// mutating a returned value never affects subsequent reads.
package bundle
