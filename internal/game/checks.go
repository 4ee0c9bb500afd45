package game

import (
	"fmt"

	"github.com/aaronzipp/impostor/internal/models"
)

// The commands above trust their callers. Transports run these checks
// against the lobby they resolved before issuing a command.

// CheckHost refuses settings and round commands from anyone but the host
func CheckHost(lobby *models.Lobby, playerID string) error {
	if lobby.HostID != playerID {
		return ErrNotHost
	}
	return nil
}

// CheckVote refuses votes for oneself and votes by or for the game master
func CheckVote(lobby *models.Lobby, voterID, targetID string) error {
	switch {
	case voterID == targetID:
		return fmt.Errorf("%w: players cannot vote for themselves", ErrInvalidVote)
	case lobby.IsGameMaster(voterID):
		return fmt.Errorf("%w: the game master does not vote", ErrInvalidVote)
	case lobby.IsGameMaster(targetID):
		return fmt.Errorf("%w: the game master cannot be voted out", ErrInvalidVote)
	}
	return nil
}
