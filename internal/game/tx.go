package game

import (
	"context"
	"fmt"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
)

// lobbyTxFunc computes a patch relative to the lobby document
type lobbyTxFunc func(lobby *models.Lobby) (store.Patch, error)

// transactLobby runs fn against the current lobby inside a store transaction.
// fn may run more than once when the backend retries on contention.
func transactLobby(ctx context.Context, s store.SessionStore, lobbyID string, fn lobbyTxFunc) error {
	if !ValidCode(lobbyID) {
		return fmt.Errorf("%w: %q", ErrLobbyNotFound, lobbyID)
	}
	return s.Transact(ctx, models.LobbyPath(lobbyID), func(cur store.Snapshot) (store.Patch, error) {
		lobby, err := decodeLobby(lobbyID, cur)
		if err != nil {
			return nil, err
		}
		return fn(lobby)
	})
}

func decodeLobby(lobbyID string, snap store.Snapshot) (*models.Lobby, error) {
	if !snap.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, lobbyID)
	}
	var lobby models.Lobby
	if err := snap.Unmarshal(&lobby); err != nil {
		return nil, fmt.Errorf("decoding lobby %s: %w", lobbyID, err)
	}
	fillIDs(lobbyID, &lobby)
	return &lobby, nil
}

// fillIDs restores ids that are implied by the document's keys
func fillIDs(lobbyID string, lobby *models.Lobby) {
	lobby.ID = lobbyID
	for id, p := range lobby.Players {
		if p == nil {
			delete(lobby.Players, id)
			continue
		}
		p.ID = id
	}
}

// DecodeLobby converts a subscription snapshot into a lobby
func DecodeLobby(lobbyID string, snap store.Snapshot) (*models.Lobby, error) {
	return decodeLobby(lobbyID, snap)
}

func requirePhase(lobby *models.Lobby, want models.Phase) error {
	if lobby.State != want {
		return fmt.Errorf("%w: lobby is in %s, want %s", ErrWrongPhase, lobby.State, want)
	}
	return nil
}

func requirePlayer(lobby *models.Lobby, playerID string) (*models.Player, error) {
	p, ok := lobby.Players[playerID]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p, nil
}

// resetRound adds to patch everything that ends a round: the lobby goes back
// to the lobby phase and the listed players lose their round fields.
func resetRound(patch store.Patch, playerIDs []string) {
	patch[models.FieldState] = models.PhaseLobby
	patch[models.FieldImpostorID] = nil
	patch[models.FieldStartingPlayerID] = nil
	patch[models.FieldEliminatedPlayerID] = nil
	for _, id := range playerIDs {
		patch[models.PlayerField(id, models.FieldIsImpostor)] = nil
		patch[models.PlayerField(id, models.FieldWord)] = nil
		patch[models.PlayerField(id, models.FieldHint)] = nil
		patch[models.PlayerField(id, models.FieldVotedFor)] = nil
		patch[models.PlayerField(id, models.FieldEliminated)] = false
	}
}
