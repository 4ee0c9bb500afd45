package render

import (
	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/models"
)

// RoundOutcome is how a revealed round ended
type RoundOutcome struct {
	ImpostorID   string
	EliminatedID string // empty on a tie
	Tie          bool
	ImpostorWins bool
}

// Outcome interprets a revealed lobby. It is derived, never stored.
func Outcome(lobby *models.Lobby) RoundOutcome {
	o := RoundOutcome{
		ImpostorID:   lobby.ImpostorID,
		Tie:          lobby.IsTie(),
		ImpostorWins: game.ImpostorWins(lobby),
	}
	if !o.Tie {
		o.EliminatedID = lobby.EliminatedPlayerID
	}
	return o
}
