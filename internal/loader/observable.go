package loader

import "sync"

// Event is one emission of a State: a new value, or a failure.
// On failure Value still carries the last good value (zero if none).
type Event[T any] struct {
	Value T
	Err   error
}

// State holds the latest value of something the loader fetches and fans it out
// to subscribers. A failure keeps the last good value and sets Err until the
// next successful Publish.
type State[T any] struct {
	mu     sync.RWMutex
	value  T
	has    bool
	err    error
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// NewState returns an empty state container.
func NewState[T any]() *State[T] {
	return &State[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Publish replaces the value, clears the error flag and notifies subscribers.
func (s *State[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	s.has = true
	s.err = nil
	s.broadcast(Event[T]{Value: v})
}

// Fail flags the current value as stale and notifies subscribers.
func (s *State[T]) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.broadcast(Event[T]{Value: s.value, Err: err})
}

// Value returns the latest good value and whether one was ever published.
func (s *State[T]) Value() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.has
}

// Err returns the error of the most recent fetch, nil if it succeeded.
func (s *State[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers a new subscriber. If a value or error is already present
// it is delivered immediately.
func (s *State[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{state: s, ch: make(chan Event[T], 1)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(sub.ch)
		sub.done = true
		return sub
	}
	s.subs[sub] = struct{}{}
	if s.has || s.err != nil {
		sub.ch <- Event[T]{Value: s.value, Err: s.err}
	}
	return sub
}

// Close ends every subscription. Later Publish and Fail calls are ignored.
func (s *State[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.done = true
		close(sub.ch)
	}
	s.subs = nil
}

// broadcast must be called with mu held. Slow subscribers only ever see the
// newest event.
func (s *State[T]) broadcast(ev Event[T]) {
	for sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- ev
		}
	}
}

// Subscription receives the events of one State.
type Subscription[T any] struct {
	state *State[T]
	ch    chan Event[T]
	done  bool // guarded by state.mu
}

// Events is closed when the subscription or its state is closed.
func (sub *Subscription[T]) Events() <-chan Event[T] {
	return sub.ch
}

// Close releases the subscription. It is safe to call more than once.
func (sub *Subscription[T]) Close() {
	s := sub.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	delete(s.subs, sub)
	close(sub.ch)
}
