package render

import (
	"errors"
	"fmt"

	"github.com/aaronzipp/impostor/internal/game"
	"github.com/aaronzipp/impostor/internal/models"
)

var (
	// ErrNotMember is returned when the viewer is not a player of the lobby
	ErrNotMember = errors.New("not a member of this lobby")
	// ErrUnknownPhase is returned for a document in no known phase
	ErrUnknownPhase = errors.New("unknown phase")
)

// ForPlayer derives what playerID may see of lobby in its current phase
func ForPlayer(lobby *models.Lobby, playerID string) (models.View, error) {
	self, ok := lobby.Players[playerID]
	if !ok || self == nil {
		return nil, ErrNotMember
	}

	switch lobby.State {
	case models.PhaseLobby:
		return lobbyView(lobby, self), nil

	case models.PhaseFlashcards:
		return models.FlashcardsView{
			LobbyID: lobby.ID,
			HostID:  lobby.HostID,
			Players: summaries(lobby, playerID),
			Card:    card(lobby, self),
		}, nil

	case models.PhaseDiscussion:
		v := models.DiscussionView{
			LobbyID: lobby.ID,
			HostID:  lobby.HostID,
			Players: summaries(lobby, playerID),
			Card:    card(lobby, self),
		}
		if p, ok := lobby.Players[lobby.StartingPlayerID]; ok {
			v.StartingPlayer = summary(lobby, p, playerID)
		}
		return v, nil

	case models.PhaseVoting:
		return votingView(lobby, self), nil

	case models.PhaseReveal:
		return revealView(lobby, playerID), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, lobby.State)
}

func lobbyView(lobby *models.Lobby, self *models.Player) models.LobbyView {
	playing := len(lobby.PlayingSet())
	v := models.LobbyView{
		LobbyID:       lobby.ID,
		HostID:        lobby.HostID,
		Mode:          lobby.Mode,
		Category:      lobby.Category,
		Players:       summaries(lobby, self.ID),
		PlayersNeeded: max(0, game.MinPlayers-playing),
	}
	v.CanStart = v.PlayersNeeded == 0
	if self.IsHost {
		v.CustomWord = lobby.CustomWord
		v.CustomHint = lobby.CustomHint
	}
	return v
}

func votingView(lobby *models.Lobby, self *models.Player) models.VotingView {
	v := models.VotingView{
		LobbyID:  lobby.ID,
		HostID:   lobby.HostID,
		Players:  summaries(lobby, self.ID),
		Card:     card(lobby, self),
		VotedFor: self.VotedFor,
	}
	for _, p := range lobby.PlayingSet() {
		v.Voters++
		if p.HasVoted() {
			v.VotesCast++
		}
	}
	return v
}

func revealView(lobby *models.Lobby, playerID string) models.RevealView {
	tally := game.TallyVotes(lobby.Players)
	outcome := Outcome(lobby)
	word, hint := secret(lobby)

	v := models.RevealView{
		LobbyID:      lobby.ID,
		HostID:       lobby.HostID,
		Players:      summaries(lobby, playerID),
		ImpostorID:   lobby.ImpostorID,
		Word:         word,
		Hint:         hint,
		Votes:        make(map[string]string),
		Tally:        tally.Counts,
		EliminatedID: outcome.EliminatedID,
		Tie:          outcome.Tie,
		ImpostorWins: outcome.ImpostorWins,
	}
	if p, ok := lobby.Players[lobby.ImpostorID]; ok {
		v.ImpostorName = p.Name
	}
	for _, p := range lobby.SortedPlayers() {
		if p.HasVoted() {
			v.Votes[p.ID] = p.VotedFor
		}
	}
	return v
}

// secret returns the round's real word and hint, as held by any non-impostor
func secret(lobby *models.Lobby) (string, string) {
	for _, p := range lobby.SortedPlayers() {
		if p.IsImpostor != nil && !p.Impostor() && p.Word != "" {
			return p.Word, p.Hint
		}
	}
	return "", ""
}

func card(lobby *models.Lobby, p *models.Player) *models.RoleCard {
	if p.IsImpostor == nil {
		return nil
	}
	return &models.RoleCard{
		IsImpostor:   p.Impostor(),
		IsGameMaster: lobby.IsGameMaster(p.ID),
		Word:         p.Word,
		Hint:         p.Hint,
	}
}

func summaries(lobby *models.Lobby, viewerID string) []models.PlayerSummary {
	out := make([]models.PlayerSummary, 0, len(lobby.Players))
	for _, p := range lobby.SortedPlayers() {
		out = append(out, summary(lobby, p, viewerID))
	}
	return out
}

func summary(lobby *models.Lobby, p *models.Player, viewerID string) models.PlayerSummary {
	s := models.PlayerSummary{
		ID:     p.ID,
		Name:   p.Name,
		IsHost: p.IsHost,
		IsSelf: p.ID == viewerID,
	}
	switch lobby.State {
	case models.PhaseVoting:
		s.HasVoted = p.HasVoted()
	case models.PhaseReveal:
		s.HasVoted = p.HasVoted()
		s.Eliminated = p.Eliminated
	}
	return s
}
