package sse

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
)

func recvUpdate(t *testing.T, f *Feed, within time.Duration) Update {
	t.Helper()
	select {
	case u := <-f.Updates():
		return u
	case <-time.After(within):
		t.Fatalf("timed out waiting for update")
		return Update{}
	}
}

func TestFeed_RelaysStateAndClose(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(zaptest.NewLogger(t))
	defer s.Close()

	lobby := &models.Lobby{
		HostID: "p1",
		State:  models.PhaseLobby,
		Mode:   models.ModeAuto,
		Players: map[string]*models.Player{
			"p1": {Name: "Ann", IsHost: true},
		},
	}
	require.NoError(t, s.WriteFull(ctx, models.LobbyPath("ROOM01"), lobby))

	f, err := Subscribe(ctx, s, "ROOM01", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer f.Close()

	u := recvUpdate(t, f, time.Second)
	require.False(t, u.Closed)
	assert.Equal(t, "ROOM01", u.Lobby.ID)
	assert.Equal(t, "p1", u.Lobby.Players["p1"].ID)

	require.NoError(t, s.WritePartial(ctx, models.LobbyPath("ROOM01"), store.Patch{
		models.FieldState: models.PhaseFlashcards,
	}))
	u = recvUpdate(t, f, time.Second)
	assert.Equal(t, models.PhaseFlashcards, u.Lobby.State)

	require.NoError(t, s.DeletePath(ctx, models.LobbyPath("ROOM01")))
	u = recvUpdate(t, f, time.Second)
	assert.True(t, u.Closed)
	assert.Nil(t, u.Lobby)
}

func TestFeed_MissingLobbyIsClosed(t *testing.T) {
	s := store.NewMemoryStore(nil)
	defer s.Close()

	f, err := Subscribe(context.Background(), s, "NONE00", nil)
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, recvUpdate(t, f, time.Second).Closed)
}

func TestFeed_CloseEndsDone(t *testing.T) {
	s := store.NewMemoryStore(nil)
	defer s.Close()

	f, err := Subscribe(context.Background(), s, "NONE00", nil)
	require.NoError(t, err)
	f.Close()

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatalf("feed not done after Close")
	}
}

func TestWriter(t *testing.T) {
	rec := httptest.NewRecorder()

	w, err := NewWriter(rec)
	require.NoError(t, err)
	require.NoError(t, w.Send(EventView, []byte(`{"phase":"lobby"}`)))
	require.NoError(t, w.Ping())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: view\ndata: {\"phase\":\"lobby\"}\n\n: ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
