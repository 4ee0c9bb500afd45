package sse

import (
	"context"

	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
)

// Update is one converged state of a lobby. Closed is set once the lobby
// document is gone; no further updates follow it.
type Update struct {
	Lobby  *models.Lobby
	Closed bool
}

// Feed relays a store subscription on one lobby to a single consumer
type Feed struct {
	updates chan Update
	cancel  func()
	done    <-chan struct{}
}

// Subscribe follows lobbyID until ctx ends or Close is called.
// The first update carries the current state.
func Subscribe(ctx context.Context, s store.SessionStore, lobbyID string, logger *zap.Logger) (*Feed, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancelCtx := context.WithCancel(ctx)
	f := &Feed{
		updates: make(chan Update, BufferSize),
		done:    ctx.Done(),
	}

	closed := false
	cancelSub, err := s.Subscribe(ctx, models.LobbyPath(lobbyID), func(snap store.Snapshot) {
		if closed {
			return
		}

		var u Update
		if !snap.Exists() {
			closed = true
			u.Closed = true
		} else {
			lobby, err := game.DecodeLobby(lobbyID, snap)
			if err != nil {
				logger.Error("dropping undecodable lobby", zap.String("lobby", lobbyID), zap.Error(err))
				return
			}
			u.Lobby = lobby
		}

		select {
		case f.updates <- u:
		case <-ctx.Done():
		}
	})
	if err != nil {
		cancelCtx()
		return nil, err
	}

	f.cancel = func() {
		cancelSub()
		cancelCtx()
	}
	logger.Debug("feed opened", zap.String("lobby", lobbyID))
	return f, nil
}

// Updates delivers lobby states in order. It is never closed; select on Done too.
func (f *Feed) Updates() <-chan Update {
	return f.updates
}

// Done is closed once the feed has been closed
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Close stops the subscription
func (f *Feed) Close() {
	f.cancel()
}
