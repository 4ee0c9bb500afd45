package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/render"
	"github.com/aaronzipp/impostor/internal/sse"
	"github.com/aaronzipp/impostor/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

var (
	errLobbyClosed = errors.New("lobby closed")
	errLeft        = errors.New("player left")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves one websocket per player: commands in, views out
type Handler struct {
	store   store.SessionStore
	lobbies *game.LobbyManager
	machine *game.StateMachine
	logger  *zap.Logger
}

type NewHandlerOptions struct {
	Store   store.SessionStore
	Lobbies *game.LobbyManager
	Machine *game.StateMachine
	Logger  *zap.Logger
}

func NewHandler(opts NewHandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   opts.Store,
		lobbies: opts.Lobbies,
		machine: opts.Machine,
		logger:  logger,
	}
}

type client struct {
	conn     *websocket.Conn
	send     chan ServerMessage
	lobbyID  string
	playerID string
}

// Serve upgrades the request and runs the connection until the player
// disconnects, leaves, or the lobby is deleted. The caller has already
// checked that playerID belongs to lobbyID.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, lobbyID, playerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("lobby", lobbyID), zap.String("player", playerID))
	c := &client{
		conn:     conn,
		send:     make(chan ServerMessage, sendBuffer),
		lobbyID:  lobbyID,
		playerID: playerID,
	}

	g, ctx := errgroup.WithContext(r.Context())

	feed, err := sse.Subscribe(ctx, h.store, lobbyID, logger)
	if err != nil {
		logger.Error("failed to subscribe", zap.Error(err))
		_ = conn.WriteJSON(ServerMessage{Type: TypeError, Error: "lobby unavailable"})
		return
	}
	defer feed.Close()

	g.Go(func() error { return c.writePump(ctx) })
	g.Go(func() error { return h.relay(ctx, c, feed) })
	g.Go(func() error { return h.readPump(ctx, c) })

	err = g.Wait()
	logger.Debug("websocket closed", zap.Error(err))
}

func (c *client) enqueue(ctx context.Context, msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-ctx.Done():
	}
}

// relay turns every lobby state into this player's view
func (h *Handler) relay(ctx context.Context, c *client, feed *sse.Feed) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-feed.Updates():
			if u.Closed {
				c.enqueue(ctx, ServerMessage{Type: TypeLobbyClosed})
				return errLobbyClosed
			}

			view, err := render.ForPlayer(u.Lobby, c.playerID)
			if errors.Is(err, render.ErrNotMember) {
				c.enqueue(ctx, ServerMessage{Type: TypePlayerLeft})
				return errLeft
			}
			if err != nil {
				c.enqueue(ctx, ServerMessage{Type: TypeError, Error: err.Error()})
				continue
			}
			c.enqueue(ctx, ServerMessage{Type: TypeView, Phase: view.Phase(), View: view})
		}
	}
}

func (h *Handler) readPump(ctx context.Context, c *client) error {
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := h.dispatch(ctx, c, msg); err != nil {
			c.enqueue(ctx, ServerMessage{Type: TypeError, Error: err.Error()})
		}
	}
}

// hostOnly reports whether t changes settings or moves the round along
func hostOnly(t string) bool {
	switch t {
	case TypeStartGame, TypeStartDiscussion, TypeStartVoting, TypeRevealResults,
		TypeReturnToLobby, TypeUpdateMode, TypeUpdateCustomWord:
		return true
	}
	return false
}

func (h *Handler) dispatch(ctx context.Context, c *client, msg ClientMessage) error {
	if hostOnly(msg.Type) {
		lobby, err := h.lobbies.GetLobby(ctx, c.lobbyID)
		if err != nil {
			return err
		}
		if err := game.CheckHost(lobby, c.playerID); err != nil {
			return err
		}
	}

	switch msg.Type {
	case TypeStartGame:
		return h.machine.StartGame(ctx, c.lobbyID)
	case TypeStartDiscussion:
		return h.machine.StartDiscussion(ctx, c.lobbyID)
	case TypeStartVoting:
		return h.machine.StartVoting(ctx, c.lobbyID)
	case TypeCastVote:
		lobby, err := h.lobbies.GetLobby(ctx, c.lobbyID)
		if err != nil {
			return err
		}
		if err := game.CheckVote(lobby, c.playerID, msg.Target); err != nil {
			return err
		}
		return h.machine.CastVote(ctx, c.lobbyID, c.playerID, msg.Target)
	case TypeRevealResults:
		return h.machine.RevealResults(ctx, c.lobbyID)
	case TypeReturnToLobby:
		return h.machine.ReturnToLobby(ctx, c.lobbyID)
	case TypeUpdateMode:
		return h.lobbies.UpdateLobbyMode(ctx, c.lobbyID, models.Mode(msg.Mode), msg.Category)
	case TypeUpdateCustomWord:
		return h.lobbies.UpdateCustomWord(ctx, c.lobbyID, msg.Word, msg.Hint)
	case TypeLeave:
		return h.lobbies.LeaveLobby(ctx, c.lobbyID, c.playerID)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// writePump owns all writes to the connection. Once ctx ends it flushes
// what is already queued, so a final lobby_closed still goes out, and
// closes the connection, which also ends readPump.
func (c *client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			for {
				select {
				case msg := <-c.send:
					if err := c.write(msg); err != nil {
						return nil
					}
				default:
					_ = c.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return nil
				}
			}
		}
	}
}

func (c *client) write(msg ServerMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}
