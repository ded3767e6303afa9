package lock

import (
	"context"
	"sync"
)

// LocalLocker is an in-process lock.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

// Acquire takes a free lock even when ctx is already done, so a zero wait
// still succeeds without contention.
func (l *LocalLocker) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return l.releaser(), nil
	default:
	}

	select {
	case l.sem <- struct{}{}:
		return l.releaser(), nil
	case <-ctx.Done():
		return nil, ErrLockContention
	}
}

func (l *LocalLocker) releaser() func() {
	var once sync.Once
	return func() { once.Do(func() { <-l.sem }) }
}
