package application

import "sync"

// stemLocks serialises renders that write the same output files.
type stemLocks struct {
	mu    sync.Mutex
	locks map[string]*stemLock
}

type stemLock struct {
	mu   sync.Mutex
	refs int
}

func newStemLocks() *stemLocks {
	return &stemLocks{locks: make(map[string]*stemLock)}
}

func (s *stemLocks) lock(stem string) func() {
	s.mu.Lock()
	l, ok := s.locks[stem]
	if !ok {
		l = &stemLock{}
		s.locks[stem] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, stem)
		}
		s.mu.Unlock()
	}
}
