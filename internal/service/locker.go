package service

import "sync"

// keyedLocker serializes operations per submission within this process.
// The durable guard against multi-instance races is the submission version
// check in the repository; this lock just avoids needless version conflicts
// between goroutines sharing one instance.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*submissionLock
}

type submissionLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*submissionLock)}
}

// Lock acquires the lock for key and returns its unlock function.
func (l *keyedLocker) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &submissionLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
