// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLockContended is returned when the advisory lock on a path is
// held by another process and does not free up within the retry
// window. The write fails rather than proceeding unlocked.
var ErrLockContended = errors.New("vfs: path lock contended")

// lockSuffix names the sidecar file that carries the flock. Locking a
// sidecar instead of the target file itself means atomic rename swaps
// of the target never invalidate a held lock. Sidecars stay on disk
// after release (unlinking a lock file races with other processes
// recreating it) and are filtered out of listings and tree copies.
const lockSuffix = ".lock"

// isLockSidecar reports whether name is a lock sidecar file.
func isLockSidecar(name string) bool {
	return strings.HasSuffix(name, lockSuffix)
}

const (
	lockRetries    = 50
	lockRetryDelay = 100 * time.Millisecond
)

// lockTable hands out per-path write locks. In-process writers to the
// same path queue on a shared mutex; cross-process exclusion uses a
// non-blocking flock with bounded retries.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	refs int
	mu   sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*pathLock)}
}

// Guard is a held path lock. Release must be called on every exit
// path; calling it more than once is safe.
type Guard struct {
	table    *lockTable
	key      string
	entry    *pathLock
	lockFile *os.File
	once     sync.Once
}

// Acquire takes the write lock for path. In-process contention blocks
// until the current holder releases; cross-process contention fails
// with ErrLockContended after the retry window.
func (t *lockTable) Acquire(path string) (*Guard, error) {
	key := filepath.ToSlash(filepath.Clean(path))

	t.mu.Lock()
	entry, ok := t.locks[key]
	if !ok {
		entry = &pathLock{}
		t.locks[key] = entry
	}
	entry.refs++
	t.mu.Unlock()

	entry.mu.Lock()

	file, err := t.flockSidecar(path)
	if err != nil {
		entry.mu.Unlock()
		t.release(key, entry)
		return nil, err
	}

	return &Guard{table: t, key: key, entry: entry, lockFile: file}, nil
}

// flockSidecar opens <path>.lock and takes an exclusive flock,
// retrying non-blocking acquisition for the contention window.
func (t *lockTable) flockSidecar(path string) (*os.File, error) {
	lockPath := path + lockSuffix
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", lockPath, err)
	}

	for attempt := 0; attempt < lockRetries; attempt++ {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return file, nil
		}
		if err != unix.EWOULDBLOCK {
			file.Close()
			return nil, fmt.Errorf("flock %s: %w", lockPath, err)
		}
		time.Sleep(lockRetryDelay)
	}

	file.Close()
	return nil, fmt.Errorf("%w: %s", ErrLockContended, path)
}

// Release frees the lock. Safe to call multiple times; only the first
// call has effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		unix.Flock(int(g.lockFile.Fd()), unix.LOCK_UN)
		g.lockFile.Close()
		g.entry.mu.Unlock()
		g.table.release(g.key, g.entry)
	})
}

// release drops a reference to the path entry, removing it from the
// table when no writer holds or awaits it.
func (t *lockTable) release(key string, entry *pathLock) {
	t.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(t.locks, key)
	}
	t.mu.Unlock()
}
