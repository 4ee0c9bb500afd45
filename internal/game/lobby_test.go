package game

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/impostor/internal/models"
)

func TestCreateLobby(t *testing.T) {
	e := newEnv(t, envOptions{})

	lobbyID, playerID, err := e.lobbies.CreateLobby(context.Background(), "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "ROOM01", lobbyID)

	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, playerID, lobby.HostID)
	assert.Equal(t, models.PhaseLobby, lobby.State)
	assert.Equal(t, models.ModeAuto, lobby.Mode)
	assert.Equal(t, DefaultCategory, lobby.Category)
	require.Len(t, lobby.Players, 1)
	assert.Equal(t, "Alice", lobby.Players[playerID].Name)
	assert.True(t, lobby.Players[playerID].IsHost)
}

func TestCreateLobby_RetriesTakenCode(t *testing.T) {
	e := newEnv(t, envOptions{codes: []string{"AAAA11", "AAAA11", "BBBB22"}})
	ctx := context.Background()

	first, _, err := e.lobbies.CreateLobby(ctx, "One")
	require.NoError(t, err)
	second, _, err := e.lobbies.CreateLobby(ctx, "Two")
	require.NoError(t, err)

	assert.Equal(t, "AAAA11", first)
	assert.Equal(t, "BBBB22", second)
	assert.Equal(t, "One", e.lobby(t, first).Host().Name)
}

func TestCreateLobby_CodeExhausted(t *testing.T) {
	e := newEnv(t, envOptions{codes: []string{"SAME01"}})
	ctx := context.Background()

	_, _, err := e.lobbies.CreateLobby(ctx, "One")
	require.NoError(t, err)

	_, _, err = e.lobbies.CreateLobby(ctx, "Two")
	assert.ErrorIs(t, err, ErrCodeExhausted)
	assert.Equal(t, "One", e.lobby(t, "SAME01").Host().Name)
}

func TestCreateLobby_InvalidName(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()

	for _, name := range []string{"", "   ", strings.Repeat("x", MaxNameLength+1)} {
		_, _, err := e.lobbies.CreateLobby(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.True(t, IsPrecondition(err))
	}
}

func TestJoinLobby(t *testing.T) {
	e := newEnv(t, envOptions{})
	lobbyID := e.lobbyWith(t, 1)

	playerID, err := e.lobbies.JoinLobby(context.Background(), lobbyID, "Bob")
	require.NoError(t, err)

	lobby := e.lobby(t, lobbyID)
	require.Len(t, lobby.Players, 2)
	assert.Equal(t, "Bob", lobby.Players[playerID].Name)
	assert.False(t, lobby.Players[playerID].IsHost)
	assert.Equal(t, 1, countHosts(lobby))
}

func TestJoinLobby_NotFound(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()

	_, err := e.lobbies.JoinLobby(ctx, "NOPE42", "Bob")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, e.store.Exists(models.LobbyPath("NOPE42")))

	_, err = e.lobbies.JoinLobby(ctx, "", "Bob")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestLeaveLobby_LastPlayerDeletesLobby(t *testing.T) {
	e := newEnv(t, envOptions{})
	lobbyID := e.lobbyWith(t, 1)

	require.NoError(t, e.lobbies.LeaveLobby(context.Background(), lobbyID, "p1"))

	_, err := e.lobbies.GetLobby(context.Background(), lobbyID)
	assert.ErrorIs(t, err, ErrLobbyNotFound)
	assert.False(t, e.store.Exists(models.LobbyPath(lobbyID)))
}

func TestLeaveLobby_HostMigrates(t *testing.T) {
	e := newEnv(t, envOptions{})
	lobbyID := e.lobbyWith(t, 3)

	require.NoError(t, e.lobbies.LeaveLobby(context.Background(), lobbyID, "p1"))

	lobby := e.lobby(t, lobbyID)
	assert.False(t, lobby.HasPlayer("p1"))
	assert.Equal(t, "p2", lobby.HostID)
	assert.True(t, lobby.Players["p2"].IsHost)
	assert.Equal(t, 1, countHosts(lobby))
}

func TestLeaveLobby_NonHost(t *testing.T) {
	e := newEnv(t, envOptions{})
	lobbyID := e.lobbyWith(t, 3)

	require.NoError(t, e.lobbies.LeaveLobby(context.Background(), lobbyID, "p3"))

	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, []string{"p1", "p2"}, lobby.PlayerIDs())
	assert.Equal(t, "p1", lobby.HostID)
	assert.Equal(t, 1, countHosts(lobby))
}

func TestLeaveLobby_ClearsVotesForLeaver(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 4)
	e.toVoting(t, lobbyID)

	require.NoError(t, e.machine.CastVote(ctx, lobbyID, "p1", "p4"))
	require.NoError(t, e.machine.CastVote(ctx, lobbyID, "p2", "p3"))
	require.NoError(t, e.lobbies.LeaveLobby(ctx, lobbyID, "p4"))

	lobby := e.lobby(t, lobbyID)
	assert.False(t, lobby.Players["p1"].HasVoted())
	assert.Equal(t, "p3", lobby.Players["p2"].VotedFor)
}

func TestLeaveLobby_GameMasterLeavingEndsRound(t *testing.T) {
	e := newEnv(t, envOptions{rng: []int{0}})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 4)
	require.NoError(t, e.lobbies.UpdateLobbyMode(ctx, lobbyID, models.ModeCustom, ""))
	require.NoError(t, e.lobbies.UpdateCustomWord(ctx, lobbyID, "Volcano", "Hot"))
	require.NoError(t, e.machine.StartGame(ctx, lobbyID))
	require.Equal(t, "p2", e.lobby(t, lobbyID).ImpostorID)

	require.NoError(t, e.lobbies.LeaveLobby(ctx, lobbyID, "p1"))

	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, models.PhaseLobby, lobby.State)
	assert.Equal(t, "p2", lobby.HostID)
	assert.Equal(t, 1, countHosts(lobby))
	assert.Empty(t, lobby.ImpostorID)
	assert.Equal(t, "Volcano", lobby.CustomWord)
	for id, p := range lobby.Players {
		assert.False(t, p.Impostor(), id)
		assert.Empty(t, p.Word, id)
		assert.Empty(t, p.Hint, id)
	}
	assert.True(t, lobby.IsGameMaster("p2"))
	assert.Len(t, lobby.PlayingSet(), 2)
}

func TestLeaveLobby_AutoHostLeavingKeepsRound(t *testing.T) {
	e := newEnv(t, envOptions{rng: []int{1}})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 4)
	e.toVoting(t, lobbyID)
	impostor := e.lobby(t, lobbyID).ImpostorID

	require.NoError(t, e.lobbies.LeaveLobby(ctx, lobbyID, "p1"))

	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, models.PhaseVoting, lobby.State)
	assert.Equal(t, impostor, lobby.ImpostorID)
	assert.Equal(t, "p2", lobby.HostID)
}

func TestLeaveLobby_UnknownPlayer(t *testing.T) {
	e := newEnv(t, envOptions{})
	lobbyID := e.lobbyWith(t, 2)

	err := e.lobbies.LeaveLobby(context.Background(), lobbyID, "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Len(t, e.lobby(t, lobbyID).Players, 2)
}

func TestLeaveLobby_OneHostAcrossDepartures(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 5)

	for _, leaving := range []string{"p3", "p1", "p2", "p5"} {
		require.NoError(t, e.lobbies.LeaveLobby(ctx, lobbyID, leaving))
		assert.Equal(t, 1, countHosts(e.lobby(t, lobbyID)), "after %s left", leaving)
	}
	assert.Equal(t, "p4", e.lobby(t, lobbyID).HostID)
}

func TestUpdateLobbyMode(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 1)

	require.NoError(t, e.lobbies.UpdateLobbyMode(ctx, lobbyID, models.ModeCustom, ""))
	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, models.ModeCustom, lobby.Mode)
	assert.Equal(t, DefaultCategory, lobby.Category)

	require.NoError(t, e.lobbies.UpdateLobbyMode(ctx, lobbyID, models.ModeAuto, "Food"))
	lobby = e.lobby(t, lobbyID)
	assert.Equal(t, models.ModeAuto, lobby.Mode)
	assert.Equal(t, "Food", lobby.Category)

	err := e.lobbies.UpdateLobbyMode(ctx, lobbyID, "chaos", "")
	assert.ErrorIs(t, err, ErrInvalidMode)

	err = e.lobbies.UpdateLobbyMode(ctx, lobbyID, models.ModeAuto, "Planets")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, "Food", e.lobby(t, lobbyID).Category)
}

func TestUpdateLobbyMode_OnlyInLobby(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 3)
	require.NoError(t, e.machine.StartGame(ctx, lobbyID))

	err := e.lobbies.UpdateLobbyMode(ctx, lobbyID, models.ModeCustom, "")
	assert.ErrorIs(t, err, ErrWrongPhase)

	err = e.lobbies.UpdateCustomWord(ctx, lobbyID, "Volcano", "")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestUpdateCustomWord(t *testing.T) {
	e := newEnv(t, envOptions{})
	ctx := context.Background()
	lobbyID := e.lobbyWith(t, 1)

	require.NoError(t, e.lobbies.UpdateCustomWord(ctx, lobbyID, " Volcano ", "Hot mountain"))
	lobby := e.lobby(t, lobbyID)
	assert.Equal(t, "Volcano", lobby.CustomWord)
	assert.Equal(t, "Hot mountain", lobby.CustomHint)

	require.NoError(t, e.lobbies.UpdateCustomWord(ctx, lobbyID, "", ""))
	lobby = e.lobby(t, lobbyID)
	assert.Empty(t, lobby.CustomWord)
	assert.Empty(t, lobby.CustomHint)
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("ABCD"))
	assert.True(t, ValidCode("AB12CD34"))
	assert.False(t, ValidCode("ABC"))
	assert.False(t, ValidCode("ABCDEFGHJ"))
	assert.False(t, ValidCode("abcd12"))
	assert.False(t, ValidCode("AB/C12"))
	assert.Equal(t, "ABC123", NormalizeCode(" abc123 "))
}

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateRoomCode()
		require.Len(t, code, RoomCodeLength)
		assert.True(t, ValidCode(code))
		for _, c := range code {
			assert.Contains(t, RoomCodeChars, string(c))
		}
	}
}
