// Package lock provides per-key mutual exclusion.
package lock

import "sync"

// Keyed hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	items map[K]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{
		items: make(map[K]*entry),
	}
}

// Lock blocks until key is free and returns the function that releases it.
func (k *Keyed[K]) Lock(key K) (unlock func()) {
	k.mu.Lock()
	e, ok := k.items[key]
	if !ok {
		e = &entry{}
		k.items[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			defer k.mu.Unlock()
			e.refs--
			if e.refs == 0 {
				delete(k.items, key)
			}
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.items)
}
