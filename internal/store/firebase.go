package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var _ SessionStore = &FirebaseStore{}

// DefaultPollInterval is how often Firebase subscriptions check for changes
const DefaultPollInterval = 500 * time.Millisecond

// FirebaseStore keeps documents in a Firebase Realtime Database.
// The admin SDK has no streaming listeners, so subscriptions poll with
// ETags and only deliver when the value changed.
type FirebaseStore struct {
	client       *db.Client
	pollInterval time.Duration
	subs         *subscriberSet
	logger       *zap.Logger
}

type NewFirebaseStoreOptions struct {
	CredentialsFile string
	DatabaseURL     string
	PollInterval    time.Duration
	Logger          *zap.Logger
}

// NewFirebaseStore connects to the Realtime Database at opts.DatabaseURL
func NewFirebaseStore(ctx context.Context, opts NewFirebaseStoreOptions) (*FirebaseStore, error) {
	cfg := &firebase.Config{DatabaseURL: opts.DatabaseURL}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, cfg, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Database client: %v", err)
	}

	return NewFirebaseStoreFromClient(client, opts.PollInterval, opts.Logger), nil
}

// NewFirebaseStoreFromClient wraps an existing database client
func NewFirebaseStoreFromClient(client *db.Client, pollInterval time.Duration, logger *zap.Logger) *FirebaseStore {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseStore{
		client:       client,
		pollInterval: pollInterval,
		subs:         newSubscriberSet(),
		logger:       logger,
	}
}

func (s *FirebaseStore) ref(path string) (*db.Ref, error) {
	if _, err := splitPath(path); err != nil {
		return nil, err
	}
	return s.client.NewRef(path), nil
}

// WriteFull replaces the value at path
func (s *FirebaseStore) WriteFull(ctx context.Context, path string, value any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	if v == nil {
		return ref.Delete(ctx)
	}
	return ref.Set(ctx, v)
}

// WritePartial issues one multi-path update. A root entry cannot be
// combined with other entries in a Realtime Database update.
func (s *FirebaseStore) WritePartial(ctx context.Context, path string, patch Patch) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	update := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		segs, err := splitPath(k)
		if err != nil {
			return err
		}
		if len(segs) == 0 {
			if len(patch) > 1 {
				return fmt.Errorf("%w: root entry mixed with child entries", ErrInvalidPath)
			}
			return s.WriteFull(ctx, path, v)
		}
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		update[joinPath("", k)] = nv
	}
	return ref.Update(ctx, update)
}

// ReadOnce decodes the value at path into v
func (s *FirebaseStore) ReadOnce(ctx context.Context, path string, v any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	var raw json.RawMessage
	if err := ref.Get(ctx, &raw); err != nil {
		return err
	}
	return NewSnapshot(path, raw).Unmarshal(v)
}

// DeletePath removes the value at path
func (s *FirebaseStore) DeletePath(ctx context.Context, path string) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	return ref.Delete(ctx)
}

// Transact runs fn inside a Realtime Database transaction. The database
// reruns fn when another client wrote the value concurrently.
func (s *FirebaseStore) Transact(ctx context.Context, path string, fn TxFunc) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}

	return ref.Transaction(ctx, func(node db.TransactionNode) (interface{}, error) {
		var current any
		if err := node.Unmarshal(&current); err != nil {
			return nil, err
		}
		raw, err := encode(current, current != nil)
		if err != nil {
			return nil, err
		}
		patch, err := fn(NewSnapshot(path, raw))
		if err != nil {
			return nil, err
		}
		return applyPatch(prune(current), nil, patch)
	})
}

// Subscribe polls path and delivers the value whenever its ETag changes
func (s *FirebaseStore) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error) {
	ref, err := s.ref(path)
	if err != nil {
		return nil, err
	}
	segs, _ := splitPath(path)

	var raw json.RawMessage
	etag, err := ref.GetWithETag(ctx, &raw)
	if err != nil {
		return nil, err
	}

	sub := s.subs.add(path, segs, fn)
	sub.offer(NewSnapshot(path, raw))
	cancel := s.subs.cancelFunc(ctx.Done(), sub)

	go s.poll(ctx, ref, sub, etag)
	return cancel, nil
}

func (s *FirebaseStore) poll(ctx context.Context, ref *db.Ref, sub *subscriber, etag string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-ticker.C:
			var raw json.RawMessage
			changed, next, err := ref.GetIfChanged(ctx, etag, &raw)
			if err != nil {
				s.logger.Warn("failed to poll subscription", zap.String("path", sub.path), zap.Error(err))
				continue
			}
			if !changed {
				continue
			}
			etag = next
			sub.offer(NewSnapshot(sub.path, raw))
		}
	}
}

// Close stops every subscription. The SDK client holds no other resources.
func (s *FirebaseStore) Close() error {
	s.subs.closeAll()
	return nil
}
