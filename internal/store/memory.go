package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ SessionStore = &MemoryStore{}

// MemoryStore keeps every document in process as a JSON tree.
// All writes are serialized; Transact callbacks run under the write lock
// and must not call back into the store.
type MemoryStore struct {
	mu     sync.RWMutex
	root   any
	subs   *subscriberSet
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		subs:   newSubscriberSet(),
		logger: logger,
	}
}

// WriteFull replaces the value at path
func (s *MemoryStore) WriteFull(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = setNode(s.root, segs, v)
	s.notifyLocked(segs)
	return nil
}

// WritePartial applies patch below path
func (s *MemoryStore) WritePartial(ctx context.Context, path string, patch Patch) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(segs, patch)
}

// ReadOnce decodes the value at path into v
func (s *MemoryStore) ReadOnce(ctx context.Context, path string, v any) error {
	snap, err := s.snapshot(path)
	if err != nil {
		return err
	}
	return snap.Unmarshal(v)
}

// DeletePath removes the value at path
func (s *MemoryStore) DeletePath(ctx context.Context, path string) error {
	return s.WriteFull(ctx, path, nil)
}

// Subscribe delivers the value at path now and after every change
func (s *MemoryStore) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	// Register and offer the initial value under the write lock so no
	// write can slip in between and be delivered out of order.
	s.mu.Lock()
	sub := s.subs.add(path, segs, fn)
	snap, err := s.snapshotLocked(path, segs)
	if err != nil {
		s.mu.Unlock()
		s.subs.remove(sub)
		return nil, err
	}
	sub.offer(snap)
	s.mu.Unlock()

	s.logger.Debug("subscribed", zap.String("path", path))
	return s.subs.cancelFunc(ctx.Done(), sub), nil
}

// Transact runs fn against the current value and applies its patch atomically
func (s *MemoryStore) Transact(ctx context.Context, path string, fn TxFunc) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.snapshotLocked(path, segs)
	if err != nil {
		return err
	}
	patch, err := fn(snap)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	return s.applyLocked(segs, patch)
}

// Close stops every subscription
func (s *MemoryStore) Close() error {
	s.subs.closeAll()
	return nil
}

// Exists reports whether anything is stored at path
func (s *MemoryStore) Exists(path string) bool {
	snap, err := s.snapshot(path)
	return err == nil && snap.Exists()
}

func (s *MemoryStore) snapshot(path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(path, segs)
}

func (s *MemoryStore) snapshotLocked(path string, segs []string) (Snapshot, error) {
	raw, err := encode(getNode(s.root, segs))
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(path, raw), nil
}

func (s *MemoryStore) applyLocked(base []string, patch Patch) error {
	next, err := applyPatch(s.root, base, patch)
	if err != nil {
		return err
	}
	s.root = next
	s.notifyLocked(base)
	return nil
}

// notifyLocked offers a fresh snapshot to every subscriber overlapping segs.
// Offers happen under the write lock so subscribers see writes in order.
func (s *MemoryStore) notifyLocked(segs []string) {
	for _, sub := range s.subs.matching(segs) {
		snap, err := s.snapshotLocked(sub.path, sub.segs)
		if err != nil {
			s.logger.Error("failed to snapshot for subscriber", zap.String("path", sub.path), zap.Error(err))
			continue
		}
		sub.offer(snap)
	}
}
