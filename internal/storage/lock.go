package storage

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent readers; a writer takes every slot.
const maxReaders = 1 << 16

// fileLockRetry is how often a blocked writer polls the lock file
const fileLockRetry = 5 * time.Millisecond

// rwLock is a readers-writers lock with bounded waits.
// The semaphore is FIFO, so a queued writer is not starved by a stream of readers.
// Writers additionally hold an advisory lock on a file next to the data,
// which serializes them against writers in other processes.
type rwLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	file    *flock.Flock
}

// newRWLock creates the lock. An empty lockPath leaves out the file lock.
func newRWLock(timeout time.Duration, lockPath string) *rwLock {
	l := &rwLock{
		sem:     semaphore.NewWeighted(maxReaders),
		timeout: timeout,
	}
	if lockPath != "" {
		l.file = flock.New(lockPath)
	}
	return l
}

// rlock takes a shared slot. Readers never see a half-written batch from another
// process: CSV files are replaced by rename and SQLite reads see committed data.
func (l *rwLock) rlock(ctx context.Context, op string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, &Error{Op: op, Kind: ErrLockTimeout, Err: err}
	}
	return func() { l.sem.Release(1) }, nil
}

func (l *rwLock) lock(ctx context.Context, op string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(ctx, maxReaders); err != nil {
		return nil, &Error{Op: op, Kind: ErrLockTimeout, Err: err}
	}
	if l.file == nil {
		return func() { l.sem.Release(maxReaders) }, nil
	}

	locked, err := l.file.TryLockContext(ctx, fileLockRetry)
	if !locked {
		l.sem.Release(maxReaders)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Error{Op: op, Kind: ErrLockTimeout, Err: ctxErr}
		}
		return nil, ioError(op, err)
	}
	return func() {
		l.file.Unlock()
		l.sem.Release(maxReaders)
	}, nil
}
