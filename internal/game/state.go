package game

import (
	"github.com/aaronzipp/impostor/internal/models"
)

// Tally is the outcome of counting one round's votes
type Tally struct {
	// Counts maps each voted-for player id to its number of votes
	Counts   map[string]int
	MaxVotes int
	Winner   string
	Tie      bool
}

// Result returns the value stored as eliminatedPlayerId
func (t Tally) Result() string {
	if t.Tie {
		return models.TieSentinel
	}
	return t.Winner
}

// TallyVotes counts every cast vote. The player with strictly the most votes
// wins; a shared maximum, or no votes at all, is a tie.
func TallyVotes(players map[string]*models.Player) Tally {
	counts := make(map[string]int)
	for _, p := range players {
		if p == nil || !p.HasVoted() {
			continue
		}
		counts[p.VotedFor]++
	}

	t := Tally{Counts: counts}
	for _, n := range counts {
		t.MaxVotes = max(t.MaxVotes, n)
	}

	var leaders []string
	for id, n := range counts {
		if n == t.MaxVotes {
			leaders = append(leaders, id)
		}
	}

	if len(leaders) != 1 {
		t.Tie = true
		return t
	}
	t.Winner = leaders[0]
	return t
}

// ImpostorWins reports the outcome of a revealed round: the impostor wins
// on a tie or when someone else was voted out.
func ImpostorWins(lobby *models.Lobby) bool {
	return lobby.IsTie() || lobby.EliminatedPlayerID != lobby.ImpostorID
}
