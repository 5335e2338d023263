package registry

import "sync"

// lockTable hands out one mutex per lock key. Entries are never evicted.
type lockTable struct {
	locks sync.Map // key -> *sync.Mutex
}

func (l *lockTable) mutex(key string) *sync.Mutex {
	if mu, ok := l.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
