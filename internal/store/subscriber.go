package store

import (
	"sync"
)

// subscriber delivers snapshots to one callback on its own goroutine.
// Offers never block: a newer snapshot replaces one not yet delivered.
type subscriber struct {
	id   uint64
	path string
	segs []string
	fn   func(Snapshot)

	mu      sync.Mutex
	pending *Snapshot
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(id uint64, path string, segs []string, fn func(Snapshot)) *subscriber {
	return &subscriber{
		id:   id,
		path: path,
		segs: segs,
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *subscriber) offer(snap Snapshot) {
	s.mu.Lock()
	s.pending = &snap
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
			s.mu.Lock()
			snap := s.pending
			s.pending = nil
			s.mu.Unlock()

			if snap == nil {
				continue
			}
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(*snap)
		}
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// subscriberSet tracks the live subscribers of one store
type subscriberSet struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[uint64]*subscriber)}
}

// add registers fn and starts its delivery goroutine
func (ss *subscriberSet) add(path string, segs []string, fn func(Snapshot)) *subscriber {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.nextID++
	sub := newSubscriber(ss.nextID, path, segs, fn)
	ss.subs[sub.id] = sub
	go sub.run()
	return sub
}

func (ss *subscriberSet) remove(sub *subscriber) {
	ss.mu.Lock()
	delete(ss.subs, sub.id)
	ss.mu.Unlock()
	sub.stop()
}

// matching returns the subscribers whose path overlaps segs
func (ss *subscriberSet) matching(segs []string) []*subscriber {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	var out []*subscriber
	for _, sub := range ss.subs {
		if overlaps(sub.segs, segs) {
			out = append(out, sub)
		}
	}
	return out
}

// all returns every live subscriber
func (ss *subscriberSet) all() []*subscriber {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*subscriber, 0, len(ss.subs))
	for _, sub := range ss.subs {
		out = append(out, sub)
	}
	return out
}

// closeAll stops every subscriber
func (ss *subscriberSet) closeAll() {
	ss.mu.Lock()
	subs := ss.subs
	ss.subs = make(map[uint64]*subscriber)
	ss.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}

// cancelFunc unregisters sub when called or when ctx ends
func (ss *subscriberSet) cancelFunc(done <-chan struct{}, sub *subscriber) func() {
	go func() {
		select {
		case <-done:
			ss.remove(sub)
		case <-sub.done:
		}
	}()
	return func() { ss.remove(sub) }
}
