package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/render"
)

const playerCookieName = "player_id"

var errNoSession = errors.New("no session")

type memberKey struct{}

// member is the lobby and player resolved by requireMember
type member struct {
	lobby    *models.Lobby
	playerID string
}

func lobbyIDParam(r *http.Request) string {
	return game.NormalizeCode(chi.URLParam(r, "id"))
}

func memberFrom(r *http.Request) member {
	m, _ := r.Context().Value(memberKey{}).(member)
	return m
}

func setPlayerCookie(w http.ResponseWriter, playerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    playerID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable when serving over HTTPS
	})
}

func clearPlayerCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// getLobbyAndPlayer validates membership using session cookie
func (ctx *Context) getLobbyAndPlayer(r *http.Request, lobbyID string) (*models.Lobby, string, error) {
	cookie, err := r.Cookie(playerCookieName)
	if err != nil || cookie.Value == "" {
		return nil, "", errNoSession
	}
	lobby, err := ctx.Lobbies.GetLobby(r.Context(), lobbyID)
	if err != nil {
		return nil, "", err
	}
	if !lobby.HasPlayer(cookie.Value) {
		return nil, "", render.ErrNotMember
	}
	return lobby, cookie.Value, nil
}

// requireMember rejects requests from anyone who is not a player of the lobby
func (ctx *Context) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lobby, playerID, err := ctx.getLobbyAndPlayer(r, lobbyIDParam(r))
		if err != nil {
			ctx.writeError(w, err)
			return
		}
		c := context.WithValue(r.Context(), memberKey{}, member{lobby: lobby, playerID: playerID})
		next.ServeHTTP(w, r.WithContext(c))
	})
}

// requireHost rejects round and settings commands from non-hosts
func (ctx *Context) requireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := memberFrom(r)
		if m.lobby == nil {
			ctx.writeError(w, game.ErrNotHost)
			return
		}
		if err := game.CheckHost(m.lobby, m.playerID); err != nil {
			ctx.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps command errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, render.ErrNotMember), errors.Is(err, game.ErrNotHost):
		return http.StatusForbidden
	case game.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, game.ErrWrongPhase):
		return http.StatusConflict
	case game.IsPrecondition(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (ctx *Context) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ctx.Logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
