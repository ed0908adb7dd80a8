// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashcache persists content hashes of bundle files so that
// unmodified bundles are not re-hashed on every startup.
//
// The cache maps a normalized file path to the hex BLAKE3 digest of
// that file's content, plus the size and mtime the file had when the
// digest was computed. [Cache.Matches] compares that fingerprint
// against a fresh Stat and re-hashes the payload only when the
// fingerprint moved; [Cache.Store] hashes and records. Entries are
// only ever added or overwritten — the cache never evicts, so entries
// for bundles that disappear from manifests persist indefinitely.
//
// The cache survives restarts as a single zstd-compressed CBOR file
// written atomically (temp file + rename).
package hashcache
