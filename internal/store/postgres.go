package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ SessionStore = &PostgresStore{}

const (
	// notifyChannel carries the key of every document that changed
	notifyChannel = "session_store"

	schema = `
	CREATE TABLE IF NOT EXISTS session_documents (
		key        TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
)

// PostgresStore keeps one JSONB row per top-level document ("collection/id").
// Every mutation runs in a transaction holding an advisory lock on the
// document key, and announces the key with pg_notify after commit.
// Paths must address a document or something inside one.
type PostgresStore struct {
	pool   *pgxpool.Pool
	subs   *subscriberSet
	logger *zap.Logger

	// refreshMu orders initial reads against notification refreshes so a
	// stale first read never lands after a newer one.
	refreshMu sync.Mutex

	cancelListen context.CancelFunc
	listenDone   chan struct{}
}

// NewPostgresStore connects, creates the table if needed and starts listening
// for change notifications. The caller is responsible for calling Close().
func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &PostgresStore{
		pool:         pool,
		subs:         newSubscriberSet(),
		logger:       logger,
		cancelListen: cancel,
		listenDone:   make(chan struct{}),
	}
	go s.listen(listenCtx)

	return s, nil
}

// documentKey splits path into the row key and the path inside the row
func documentKey(path string) (string, []string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", nil, err
	}
	if len(segs) < 2 {
		return "", nil, fmt.Errorf("%w: %q does not address a document", ErrInvalidPath, path)
	}
	return segs[0] + "/" + segs[1], segs[2:], nil
}

// mutate loads the document under lock, lets fn rewrite it, and stores the
// result. A nil result deletes the row.
func (s *PostgresStore) mutate(ctx context.Context, key string, fn func(doc any) (any, error)) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock document: %v", err)
	}

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM session_documents WHERE key = $1`, key).Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to load document: %v", err)
	}

	doc, err := decodeTree(raw)
	if err != nil {
		return err
	}
	next, err := fn(doc)
	if err != nil {
		return err
	}

	if next == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM session_documents WHERE key = $1`, key); err != nil {
			return fmt.Errorf("failed to delete document: %v", err)
		}
	} else {
		b, err := encode(next, true)
		if err != nil {
			return err
		}
		q := `
		INSERT INTO session_documents (key, doc) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now();
		`
		if _, err := tx.Exec(ctx, q, key, string(b)); err != nil {
			return fmt.Errorf("failed to store document: %v", err)
		}
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, key); err != nil {
		return fmt.Errorf("failed to notify: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// WriteFull replaces the value at path
func (s *PostgresStore) WriteFull(ctx context.Context, path string, value any) error {
	key, rest, err := documentKey(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	return s.mutate(ctx, key, func(doc any) (any, error) {
		return setNode(doc, rest, v), nil
	})
}

// WritePartial applies patch below path in one transaction
func (s *PostgresStore) WritePartial(ctx context.Context, path string, patch Patch) error {
	key, rest, err := documentKey(path)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	return s.mutate(ctx, key, func(doc any) (any, error) {
		return applyPatch(doc, rest, patch)
	})
}

// ReadOnce decodes the value at path into v
func (s *PostgresStore) ReadOnce(ctx context.Context, path string, v any) error {
	snap, err := s.read(ctx, path)
	if err != nil {
		return err
	}
	return snap.Unmarshal(v)
}

func (s *PostgresStore) read(ctx context.Context, path string) (Snapshot, error) {
	key, rest, err := documentKey(path)
	if err != nil {
		return Snapshot{}, err
	}

	var raw []byte
	err = s.pool.QueryRow(ctx, `SELECT doc FROM session_documents WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return NewSnapshot(path, nil), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load document: %v", err)
	}

	doc, err := decodeTree(raw)
	if err != nil {
		return Snapshot{}, err
	}
	b, err := encode(getNode(doc, rest))
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(path, b), nil
}

// DeletePath removes the value at path
func (s *PostgresStore) DeletePath(ctx context.Context, path string) error {
	return s.WriteFull(ctx, path, nil)
}

// Transact runs fn while holding the document lock
func (s *PostgresStore) Transact(ctx context.Context, path string, fn TxFunc) error {
	key, rest, err := documentKey(path)
	if err != nil {
		return err
	}
	return s.mutate(ctx, key, func(doc any) (any, error) {
		raw, err := encode(getNode(doc, rest))
		if err != nil {
			return nil, err
		}
		patch, err := fn(NewSnapshot(path, raw))
		if err != nil {
			return nil, err
		}
		return applyPatch(doc, rest, patch)
	})
}

// Subscribe delivers the value at path now and after every committed change
func (s *PostgresStore) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error) {
	if _, _, err := documentKey(path); err != nil {
		return nil, err
	}
	segs, _ := splitPath(path)

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	sub := s.subs.add(path, segs, fn)
	snap, err := s.read(ctx, path)
	if err != nil {
		s.subs.remove(sub)
		return nil, err
	}
	sub.offer(snap)
	return s.subs.cancelFunc(ctx.Done(), sub), nil
}

// listen holds one connection on LISTEN and refreshes subscribers of every
// announced document. It reconnects after errors until ctx ends.
func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.listenDone)

	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("listener stopped, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.refresh(ctx, n.Payload)
	}
}

// refresh re-reads the value of every subscriber inside document key
func (s *PostgresStore) refresh(ctx context.Context, key string) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	for _, sub := range s.subs.all() {
		subKey, _, err := documentKey(sub.path)
		if err != nil || subKey != key {
			continue
		}
		snap, err := s.read(ctx, sub.path)
		if err != nil {
			s.logger.Error("failed to refresh subscriber", zap.String("path", sub.path), zap.Error(err))
			continue
		}
		sub.offer(snap)
	}
}

// Close stops the listener and subscriptions and closes the pool
func (s *PostgresStore) Close() error {
	s.cancelListen()
	<-s.listenDone
	s.subs.closeAll()
	s.pool.Close()
	return nil
}
