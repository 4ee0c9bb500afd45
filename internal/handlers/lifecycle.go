package handlers

import (
	"context"
	"net/http"

	"github.com/aaronzipp/impostor/internal/game"
)

// command runs a round command for the resolved lobby
func (ctx *Context) command(run func(c context.Context, lobbyID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := memberFrom(r)
		if err := run(r.Context(), m.lobby.ID); err != nil {
			ctx.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleStartGame deals roles and words
func (ctx *Context) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	ctx.command(ctx.Machine.StartGame)(w, r)
}

// HandleStartDiscussion moves from flashcards to discussion
func (ctx *Context) HandleStartDiscussion(w http.ResponseWriter, r *http.Request) {
	ctx.command(ctx.Machine.StartDiscussion)(w, r)
}

// HandleStartVoting opens the vote
func (ctx *Context) HandleStartVoting(w http.ResponseWriter, r *http.Request) {
	ctx.command(ctx.Machine.StartVoting)(w, r)
}

// HandleRevealResults tallies the vote
func (ctx *Context) HandleRevealResults(w http.ResponseWriter, r *http.Request) {
	ctx.command(ctx.Machine.RevealResults)(w, r)
}

// HandleReturnToLobby ends the round
func (ctx *Context) HandleReturnToLobby(w http.ResponseWriter, r *http.Request) {
	ctx.command(ctx.Machine.ReturnToLobby)(w, r)
}

// HandleCastVote records the caller's vote for the posted target
func (ctx *Context) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	target := r.FormValue("target")
	if err := game.CheckVote(m.lobby, m.playerID, target); err != nil {
		ctx.writeError(w, err)
		return
	}
	if err := ctx.Machine.CastVote(r.Context(), m.lobby.ID, m.playerID, target); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
