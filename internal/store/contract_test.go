package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string          `json:"name,omitempty"`
	Count int             `json:"count,omitempty"`
	Items map[string]item `json:"items,omitempty"`
}

type item struct {
	Label string `json:"label"`
	Votes int    `json:"votes,omitempty"`
}

// recvSnapshot waits for one delivery so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{}
	}
}

// waitFor reads snapshots until cond holds for one of them
func waitFor(t *testing.T, ch <-chan Snapshot, within time.Duration, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case snap := <-ch:
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching snapshot")
			return Snapshot{}
		}
	}
}

// runContract exercises the behavior every SessionStore backend shares.
// Each subtest gets a fresh document id so backends may share state.
func runContract(t *testing.T, s SessionStore, wait time.Duration) {
	ctx := context.Background()
	var n int
	docPath := func() string {
		n++
		return fmt.Sprintf("docs/%s-%d", t.Name(), n)
	}

	t.Run("ReadMissing", func(t *testing.T) {
		var d doc
		err := s.ReadOnce(ctx, docPath(), &d)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("WriteFullThenRead", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "first", Count: 2}))

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, doc{Name: "first", Count: 2}, d)

		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "second"}))
		d = doc{}
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, doc{Name: "second"}, d)
	})

	t.Run("WritePartialNestedAndDelete", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{
			Name:  "lobby",
			Items: map[string]item{"a": {Label: "A"}, "b": {Label: "B", Votes: 1}},
		}))

		require.NoError(t, s.WritePartial(ctx, p, Patch{
			"count":         3,
			"items/a/votes": 4,
			"items/b":       nil,
			"items/c":       item{Label: "C"},
		}))

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, doc{
			Name:  "lobby",
			Count: 3,
			Items: map[string]item{"a": {Label: "A", Votes: 4}, "c": {Label: "C"}},
		}, d)

		var it item
		require.NoError(t, s.ReadOnce(ctx, p+"/items/c", &it))
		assert.Equal(t, "C", it.Label)
	})

	t.Run("PatchRootKeyDeletesDocument", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "gone soon"}))
		require.NoError(t, s.WritePartial(ctx, p, Patch{"": nil}))

		var d doc
		assert.ErrorIs(t, s.ReadOnce(ctx, p, &d), ErrNotFound)
	})

	t.Run("DeletePath", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "x", Items: map[string]item{"a": {Label: "A"}}}))
		require.NoError(t, s.DeletePath(ctx, p+"/items/a"))

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Empty(t, d.Items)

		require.NoError(t, s.DeletePath(ctx, p))
		assert.ErrorIs(t, s.ReadOnce(ctx, p, &d), ErrNotFound)
	})

	t.Run("TransactAppliesPatch", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Count: 1}))

		err := s.Transact(ctx, p, func(cur Snapshot) (Patch, error) {
			var d doc
			if err := cur.Unmarshal(&d); err != nil {
				return nil, err
			}
			return Patch{"count": d.Count + 1}, nil
		})
		require.NoError(t, err)

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, 2, d.Count)
	})

	t.Run("TransactSeesMissingValue", func(t *testing.T) {
		p := docPath()
		err := s.Transact(ctx, p, func(cur Snapshot) (Patch, error) {
			if cur.Exists() {
				return nil, errors.New("should not exist")
			}
			return Patch{"": doc{Name: "created"}}, nil
		})
		require.NoError(t, err)

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, "created", d.Name)
	})

	t.Run("TransactAbortWritesNothing", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Count: 7}))

		errAbort := errors.New("abort")
		err := s.Transact(ctx, p, func(cur Snapshot) (Patch, error) {
			return Patch{"count": 99}, errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, 7, d.Count)
	})

	t.Run("TransactConcurrentIncrements", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "counter"}))

		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Transact(ctx, p, func(cur Snapshot) (Patch, error) {
					var d doc
					if err := cur.Unmarshal(&d); err != nil {
						return nil, err
					}
					return Patch{"count": d.Count + 1}, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var d doc
		require.NoError(t, s.ReadOnce(ctx, p, &d))
		assert.Equal(t, workers, d.Count)
	})

	t.Run("SubscribeDeliversInitialAndLatest", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Count: 1}))

		ch := make(chan Snapshot, 16)
		cancel, err := s.Subscribe(ctx, p, func(snap Snapshot) { ch <- snap })
		require.NoError(t, err)
		defer cancel()

		first := recvSnapshot(t, ch, wait)
		var d doc
		require.NoError(t, first.Unmarshal(&d))
		assert.Equal(t, 1, d.Count)

		for i := 2; i <= 5; i++ {
			require.NoError(t, s.WritePartial(ctx, p, Patch{"count": i}))
		}

		waitFor(t, ch, wait, func(snap Snapshot) bool {
			var d doc
			return snap.Unmarshal(&d) == nil && d.Count == 5
		})
	})

	t.Run("SubscribeSeesDeletion", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Name: "here"}))

		ch := make(chan Snapshot, 16)
		cancel, err := s.Subscribe(ctx, p, func(snap Snapshot) { ch <- snap })
		require.NoError(t, err)
		defer cancel()

		recvSnapshot(t, ch, wait)
		require.NoError(t, s.DeletePath(ctx, p))

		snap := waitFor(t, ch, wait, func(snap Snapshot) bool { return !snap.Exists() })
		assert.Equal(t, "null", string(snap.Raw()))
	})

	t.Run("CancelStopsDelivery", func(t *testing.T) {
		p := docPath()
		require.NoError(t, s.WriteFull(ctx, p, doc{Count: 1}))

		ch := make(chan Snapshot, 16)
		cancel, err := s.Subscribe(ctx, p, func(snap Snapshot) { ch <- snap })
		require.NoError(t, err)
		recvSnapshot(t, ch, wait)

		cancel()
		require.NoError(t, s.WritePartial(ctx, p, Patch{"count": 2}))

		select {
		case snap := <-ch:
			t.Fatalf("unexpected delivery after cancel: %s", snap.Raw())
		case <-time.After(wait / 2):
		}
	})
}
