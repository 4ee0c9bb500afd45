package handlers

import (
	"net/http"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/render"
)

type joinResponse struct {
	LobbyID  string `json:"lobbyId"`
	PlayerID string `json:"playerId"`
}

// HandleCreateLobby creates a new lobby hosted by the caller
func (ctx *Context) HandleCreateLobby(w http.ResponseWriter, r *http.Request) {
	lobbyID, playerID, err := ctx.Lobbies.CreateLobby(r.Context(), r.FormValue("name"))
	if err != nil {
		ctx.writeError(w, err)
		return
	}

	setPlayerCookie(w, playerID)
	writeJSON(w, http.StatusCreated, joinResponse{LobbyID: lobbyID, PlayerID: playerID})
}

// HandleJoinLobby adds the caller to an existing lobby
func (ctx *Context) HandleJoinLobby(w http.ResponseWriter, r *http.Request) {
	lobbyID := lobbyIDParam(r)
	playerID, err := ctx.Lobbies.JoinLobby(r.Context(), lobbyID, r.FormValue("name"))
	if err != nil {
		ctx.writeError(w, err)
		return
	}

	setPlayerCookie(w, playerID)
	writeJSON(w, http.StatusCreated, joinResponse{LobbyID: lobbyID, PlayerID: playerID})
}

// HandleLeaveLobby removes the caller. Browsers call it with sendBeacon on unload.
func (ctx *Context) HandleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	if err := ctx.Lobbies.LeaveLobby(r.Context(), m.lobby.ID, m.playerID); err != nil {
		ctx.writeError(w, err)
		return
	}

	clearPlayerCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetLobby returns the caller's view of the lobby
func (ctx *Context) HandleGetLobby(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	view, err := render.ForPlayer(m.lobby, m.playerID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Wrap(view))
}

// HandleUpdateMode switches mode and category
func (ctx *Context) HandleUpdateMode(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	mode := models.Mode(r.FormValue("mode"))
	if err := ctx.Lobbies.UpdateLobbyMode(r.Context(), m.lobby.ID, mode, r.FormValue("category")); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateCustomWord stores the host's secret word and hint
func (ctx *Context) HandleUpdateCustomWord(w http.ResponseWriter, r *http.Request) {
	m := memberFrom(r)
	if err := ctx.Lobbies.UpdateCustomWord(r.Context(), m.lobby.ID, r.FormValue("word"), r.FormValue("hint")); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
