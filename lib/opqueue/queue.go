// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package opqueue

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("opqueue: queue closed")

// DefaultDepth is the channel buffer used when New is given a
// non-positive depth. Submissions beyond the buffer block until the
// worker catches up, which bounds memory under a burst of writes.
const DefaultDepth = 64

// Command pairs an identifier with the operation it runs. The
// identifier exists for log correlation; it carries no scheduling
// meaning.
type Command struct {
	ID string
	Op func() error
}

// Pending is the settled-exactly-once outcome of a submitted command.
type Pending struct {
	id   string
	done chan struct{}
	err  error
}

// ID returns the command identifier assigned at submission.
func (p *Pending) ID() string { return p.id }

// Wait blocks until the command has executed and returns its error
// unchanged. Wait may be called from multiple goroutines; all of them
// observe the same outcome.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Done returns a channel closed when the command has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

type queued struct {
	cmd     Command
	pending *Pending
}

// Queue executes submitted commands on a single worker goroutine in
// submission order.
type Queue struct {
	logger   *slog.Logger
	commands chan queued

	mu     sync.Mutex
	closed bool

	drained chan struct{}
}

// New creates a queue and starts its worker. depth <= 0 selects
// DefaultDepth.
func New(logger *slog.Logger, depth int) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	q := &Queue{
		logger:   logger,
		commands: make(chan queued, depth),
		drained:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.drained)
	for item := range q.commands {
		err := item.cmd.Op()
		if err != nil {
			q.logger.Debug("queued command failed", "command", item.cmd.ID, "error", err)
		}
		item.pending.err = err
		close(item.pending.done)
	}
}

// Submit enqueues op and returns a handle that settles exactly once
// with op's result. Blocks only while the queue buffer is full.
func (q *Queue) Submit(op func() error) (*Pending, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrClosed
	}
	pending := &Pending{id: newCommandID(), done: make(chan struct{})}
	q.commands <- queued{cmd: Command{ID: pending.id, Op: op}, pending: pending}
	q.mu.Unlock()
	return pending, nil
}

// SubmitWait enqueues op and blocks until it has executed, returning
// its error.
func (q *Queue) SubmitWait(op func() error) error {
	pending, err := q.Submit(op)
	if err != nil {
		return err
	}
	return pending.Wait()
}

// Close stops accepting new commands, waits for already-accepted
// commands to finish, and returns. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.drained
		return
	}
	q.closed = true
	close(q.commands)
	q.mu.Unlock()
	<-q.drained
}

// newCommandID returns a short random identifier ("op-" followed by
// 12 hex characters) for log correlation.
func newCommandID() string {
	var raw [6]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("opqueue: reading random bytes: " + err.Error())
	}
	return "op-" + hex.EncodeToString(raw[:])
}
