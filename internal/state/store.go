// Package state owns the in-memory projections the UI reads: the shared
// file list and the upload task collection.
//
// A Store holds one immutable value at a time. Writers pass a function that
// builds the next value from the current one; the function must copy, never
// mutate its argument. Readers get versioned snapshots that stay consistent
// however many updates follow.
package state

import "sync"

// Snapshot is one published value of a Store. Versions grow by one per update.
type Snapshot[T any] struct {
	Version uint64
	Value   T
}

type Store[T any] struct {
	mu      sync.Mutex
	current Snapshot[T]
	subs    map[int]func(Snapshot[T])
	nextSub int
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		current: Snapshot[T]{Value: initial},
		subs:    make(map[int]func(Snapshot[T])),
	}
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update replaces the value with next(current) and publishes the result.
// Updates are serialised; subscribers run after the lock is released and may
// observe snapshots out of order, so they should compare Version.
func (s *Store[T]) Update(next func(T) T) Snapshot[T] {
	s.mu.Lock()
	s.current = Snapshot[T]{Version: s.current.Version + 1, Value: next(s.current.Value)}
	snap := s.current
	fns := make([]func(Snapshot[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return snap
}

// Set publishes v unconditionally.
func (s *Store[T]) Set(v T) Snapshot[T] {
	return s.Update(func(T) T { return v })
}

// Subscribe registers fn for every future snapshot.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
