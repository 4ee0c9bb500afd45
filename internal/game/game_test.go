package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
)

// seqRandom returns vals in order (modulo n), repeating from the start
type seqRandom struct {
	vals []int
	i    int
}

func (s *seqRandom) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

type env struct {
	store   *store.MemoryStore
	lobbies *LobbyManager
	machine *StateMachine
}

type envOptions struct {
	codes       []string
	rng         []int
	placeholder bool
}

func newEnv(t *testing.T, opts envOptions) *env {
	t.Helper()

	if len(opts.codes) == 0 {
		opts.codes = []string{"ROOM01", "ROOM02", "ROOM03", "ROOM04"}
	}
	if len(opts.rng) == 0 {
		opts.rng = []int{0}
	}

	logger := zaptest.NewLogger(t)
	s := store.NewMemoryStore(logger)
	t.Cleanup(func() { s.Close() })

	bank, err := wordbank.New(map[string][]wordbank.Entry{
		"Animals": {{Word: "Lion", Hints: []string{"A large cat"}}},
		"Food":    {{Word: "Pizza", Hints: []string{"Round and sliced"}}},
	}, &seqRandom{vals: []int{0}})
	require.NoError(t, err)

	var nextCode, nextID int
	lobbies := NewLobbyManager(NewLobbyManagerOptions{
		Store:    s,
		WordBank: bank,
		Logger:   logger,
		NewCode: func() string {
			c := opts.codes[nextCode%len(opts.codes)]
			nextCode++
			return c
		},
		NewID: func() string {
			nextID++
			return fmt.Sprintf("p%d", nextID)
		},
	})
	machine := NewStateMachine(NewStateMachineOptions{
		Store:                s,
		WordBank:             bank,
		Random:               &seqRandom{vals: opts.rng},
		AllowPlaceholderWord: opts.placeholder,
		Logger:               logger,
	})

	return &env{store: s, lobbies: lobbies, machine: machine}
}

// lobbyWith creates a lobby hosted by p1 and joins players p2..pn
func (e *env) lobbyWith(t *testing.T, n int) string {
	t.Helper()
	ctx := context.Background()

	lobbyID, hostID, err := e.lobbies.CreateLobby(ctx, "Host")
	require.NoError(t, err)
	require.Equal(t, "p1", hostID)

	for i := 2; i <= n; i++ {
		_, err := e.lobbies.JoinLobby(ctx, lobbyID, fmt.Sprintf("Player %d", i))
		require.NoError(t, err)
	}
	return lobbyID
}

func (e *env) lobby(t *testing.T, lobbyID string) *models.Lobby {
	t.Helper()
	lobby, err := e.lobbies.GetLobby(context.Background(), lobbyID)
	require.NoError(t, err)
	return lobby
}

func (e *env) raw(t *testing.T, lobbyID string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, e.store.ReadOnce(context.Background(), models.LobbyPath(lobbyID), &doc))
	return doc
}

// toVoting plays a lobby up to the voting phase
func (e *env) toVoting(t *testing.T, lobbyID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.machine.StartGame(ctx, lobbyID))
	require.NoError(t, e.machine.StartDiscussion(ctx, lobbyID))
	require.NoError(t, e.machine.StartVoting(ctx, lobbyID))
}

func countHosts(lobby *models.Lobby) int {
	n := 0
	for _, p := range lobby.Players {
		if p.IsHost {
			n++
		}
	}
	return n
}
