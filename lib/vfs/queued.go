// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"context"
	"io/fs"

	"github.com/modstash/modstash/lib/opqueue"
)

// Queued variants route operations through the shared command queue.
// Semantics are identical to the blocking forms; the queue only adds
// ordering. Value-carrying results are published before the pending
// handle settles, so reading them after Wait is race-free.

// BytesPending is a queued operation that yields a byte slice.
type BytesPending struct {
	pending *opqueue.Pending
	data    []byte
}

// Wait blocks until the operation settles and returns its result.
func (p *BytesPending) Wait() ([]byte, error) {
	if err := p.pending.Wait(); err != nil {
		return nil, err
	}
	return p.data, nil
}

// NamesPending is a queued operation that yields a name list.
type NamesPending struct {
	pending *opqueue.Pending
	names   []string
}

// Wait blocks until the operation settles and returns its result.
func (p *NamesPending) Wait() ([]string, error) {
	if err := p.pending.Wait(); err != nil {
		return nil, err
	}
	return p.names, nil
}

// BoolPending is a queued operation that yields a boolean.
type BoolPending struct {
	pending *opqueue.Pending
	value   bool
}

// Wait blocks until the operation settles and returns its result.
func (p *BoolPending) Wait() (bool, error) {
	if err := p.pending.Wait(); err != nil {
		return false, err
	}
	return p.value, nil
}

// InfoPending is a queued operation that yields file info.
type InfoPending struct {
	pending *opqueue.Pending
	info    fs.FileInfo
}

// Wait blocks until the operation settles and returns its result.
func (p *InfoPending) Wait() (fs.FileInfo, error) {
	if err := p.pending.Wait(); err != nil {
		return nil, err
	}
	return p.info, nil
}

// ExistsQueued queues an existence check.
func (v *VFS) ExistsQueued(path string) (*BoolPending, error) {
	result := &BoolPending{}
	pending, err := v.queue.Submit(func() error {
		result.value = v.Exists(path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.pending = pending
	return result, nil
}

// StatQueued queues a stat.
func (v *VFS) StatQueued(path string) (*InfoPending, error) {
	result := &InfoPending{}
	pending, err := v.queue.Submit(func() error {
		info, err := v.Stat(path)
		result.info = info
		return err
	})
	if err != nil {
		return nil, err
	}
	result.pending = pending
	return result, nil
}

// ReadFileQueued queues a full-file read.
func (v *VFS) ReadFileQueued(path string) (*BytesPending, error) {
	result := &BytesPending{}
	pending, err := v.queue.Submit(func() error {
		data, err := v.ReadFile(path)
		result.data = data
		return err
	})
	if err != nil {
		return nil, err
	}
	result.pending = pending
	return result, nil
}

// WriteFileQueued queues a write. Data is captured by reference; the
// caller must not mutate it before the pending handle settles.
func (v *VFS) WriteFileQueued(path string, data []byte, opts WriteOptions) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.WriteFile(path, data, opts)
	})
}

// CopyFileQueued queues a single-file copy.
func (v *VFS) CopyFileQueued(src, dst string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.CopyFile(src, dst)
	})
}

// RenameQueued queues a rename.
func (v *VFS) RenameQueued(oldPath, newPath string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.Rename(oldPath, newPath)
	})
}

// RemoveFileQueued queues a single-file delete.
func (v *VFS) RemoveFileQueued(path string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.RemoveFile(path)
	})
}

// ListFilesQueued queues a file listing.
func (v *VFS) ListFilesQueued(dir string) (*NamesPending, error) {
	result := &NamesPending{}
	pending, err := v.queue.Submit(func() error {
		names, err := v.ListFiles(dir)
		result.names = names
		return err
	})
	if err != nil {
		return nil, err
	}
	result.pending = pending
	return result, nil
}

// ListDirectoriesQueued queues a directory listing.
func (v *VFS) ListDirectoriesQueued(dir string) (*NamesPending, error) {
	result := &NamesPending{}
	pending, err := v.queue.Submit(func() error {
		names, err := v.ListDirectories(dir)
		result.names = names
		return err
	})
	if err != nil {
		return nil, err
	}
	result.pending = pending
	return result, nil
}

// CopyTreeQueued queues a recursive copy. The queue serializes the
// whole-tree operation against other mutations; inside the operation,
// sibling subtrees fan out in parallel while every child still
// finishes before its parent completes.
func (v *VFS) CopyTreeQueued(src, dst string, extensions ...string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.copyTreeParallel(src, dst, newExtensionSet(extensions))
	})
}

// RemoveTreeQueued queues a recursive delete with the same fan-out
// rules as CopyTreeQueued.
func (v *VFS) RemoveTreeQueued(path string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.removeTreeParallel(path)
	})
}

// MinifyTreeQueued queues a whole-tree JSON minification batch.
func (v *VFS) MinifyTreeQueued(ctx context.Context, root string) (*opqueue.Pending, error) {
	return v.queue.Submit(func() error {
		return v.MinifyTree(ctx, root)
	})
}
