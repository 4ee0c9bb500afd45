package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
	"github.com/aaronzipp/impostor/internal/ws"
)

// Context holds the dependencies shared by every handler
type Context struct {
	Store   store.SessionStore
	Lobbies *game.LobbyManager
	Machine *game.StateMachine
	Words   wordbank.Bank
	Sockets *ws.Handler
	// BaseURL is the public origin used in join links; derived from the request when empty
	BaseURL string
	Logger  *zap.Logger
}

// NewRouter wires every route
func NewRouter(ctx *Context) http.Handler {
	if ctx.Logger == nil {
		ctx.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ctx.logRequests)

	r.Get("/healthz", ctx.HandleHealthz)
	r.Get("/categories", ctx.HandleCategories)
	r.Post("/lobbies", ctx.HandleCreateLobby)

	r.Route("/lobbies/{id}", func(r chi.Router) {
		r.Post("/players", ctx.HandleJoinLobby)
		r.Get("/qr.png", ctx.HandleQRCode)

		r.Group(func(r chi.Router) {
			r.Use(ctx.requireMember)

			r.Get("/", ctx.HandleGetLobby)
			r.Post("/leave", ctx.HandleLeaveLobby)
			r.Post("/votes", ctx.HandleCastVote)
			r.Get("/events", ctx.HandleSSE)
			r.Get("/ws", ctx.HandleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(ctx.requireHost)

				r.Put("/mode", ctx.HandleUpdateMode)
				r.Put("/custom-word", ctx.HandleUpdateCustomWord)
				r.Post("/start", ctx.HandleStartGame)
				r.Post("/discussion", ctx.HandleStartDiscussion)
				r.Post("/voting", ctx.HandleStartVoting)
				r.Post("/reveal", ctx.HandleRevealResults)
				r.Post("/return", ctx.HandleReturnToLobby)
			})
		})
	})

	return r
}

func (ctx *Context) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		ctx.Logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// HandleHealthz reports that the server is up
func (ctx *Context) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleCategories lists the word bank categories
func (ctx *Context) HandleCategories(w http.ResponseWriter, r *http.Request) {
	var categories []string
	if ctx.Words != nil {
		categories = ctx.Words.Categories()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}
