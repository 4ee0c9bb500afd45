package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/render"
	"github.com/aaronzipp/impostor/internal/sse"
)

// HandleSSE streams the caller's view on every lobby change
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	logger := ctx.Logger.With(zap.String("lobby", m.lobby.ID), zap.String("player", m.playerID))

	feed, err := sse.Subscribe(r.Context(), ctx.Store, m.lobby.ID, logger)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	defer feed.Close()

	sw, err := sse.NewWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Debug("sse client connected")
	defer logger.Debug("sse client disconnected")

	keepAlive := time.NewTicker(sse.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := sw.Ping(); err != nil {
				return
			}
		case u := <-feed.Updates():
			if u.Closed {
				_ = sw.Send(sse.EventLobbyClosed, []byte(`{}`))
				return
			}

			view, err := render.ForPlayer(u.Lobby, m.playerID)
			if errors.Is(err, render.ErrNotMember) {
				_ = sw.Send(sse.EventPlayerLeft, []byte(`{}`))
				return
			}
			if err != nil {
				logger.Error("failed to render view", zap.Error(err))
				continue
			}

			b, err := models.MarshalView(view)
			if err != nil {
				logger.Error("failed to encode view", zap.Error(err))
				continue
			}
			if err := sw.Send(sse.EventView, b); err != nil {
				return
			}
		}
	}
}

// HandleWebSocket hands the connection to the websocket transport
func (ctx *Context) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	ctx.Sockets.Serve(w, r, m.lobby.ID, m.playerID)
}
