package storage

import "sync"

// lockArena hands out one mutex per partition key, created lazily.
// Appends to different partitions proceed concurrently; appends to the
// same partition serialize on its mutex.
type lockArena struct {
	mu    sync.Mutex
	locks map[PartitionKey]*sync.Mutex
}

func newLockArena() *lockArena {
	return &lockArena{locks: map[PartitionKey]*sync.Mutex{}}
}

func (a *lockArena) get(key PartitionKey) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}
