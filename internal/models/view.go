package models

import "encoding/json"

// View is what one player sees of a lobby in one phase. Each phase has its
// own type carrying only the fields that are meaningful in that phase.
type View interface {
	Phase() Phase
}

// PlayerSummary is the public part of a player, safe to show to everyone
type PlayerSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHost     bool   `json:"isHost"`
	IsSelf     bool   `json:"isSelf"`
	HasVoted   bool   `json:"hasVoted,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

// RoleCard is the private part of a player during a round.
// Players who joined after the round started have none.
type RoleCard struct {
	IsImpostor   bool   `json:"isImpostor"`
	IsGameMaster bool   `json:"isGameMaster"`
	Word         string `json:"word"`
	Hint         string `json:"hint"`
}

// LobbyView is shown between rounds
type LobbyView struct {
	LobbyID       string          `json:"lobbyId"`
	HostID        string          `json:"hostId"`
	Mode          Mode            `json:"mode"`
	Category      string          `json:"category,omitempty"`
	CustomWord    string          `json:"customWord,omitempty"` // host only
	CustomHint    string          `json:"customHint,omitempty"` // host only
	Players       []PlayerSummary `json:"players"`
	CanStart      bool            `json:"canStart"`
	PlayersNeeded int             `json:"playersNeeded"`
}

// FlashcardsView privately reveals each player's card
type FlashcardsView struct {
	LobbyID string          `json:"lobbyId"`
	HostID  string          `json:"hostId"`
	Players []PlayerSummary `json:"players"`
	Card    *RoleCard       `json:"card,omitempty"`
}

// DiscussionView names who opens the discussion
type DiscussionView struct {
	LobbyID        string          `json:"lobbyId"`
	HostID         string          `json:"hostId"`
	Players        []PlayerSummary `json:"players"`
	Card           *RoleCard       `json:"card,omitempty"`
	StartingPlayer PlayerSummary   `json:"startingPlayer"`
}

// VotingView tracks vote progress without revealing targets
type VotingView struct {
	LobbyID   string          `json:"lobbyId"`
	HostID    string          `json:"hostId"`
	Players   []PlayerSummary `json:"players"`
	Card      *RoleCard       `json:"card,omitempty"`
	VotedFor  string          `json:"votedFor,omitempty"`
	VotesCast int             `json:"votesCast"`
	Voters    int             `json:"voters"`
}

// RevealView exposes the whole round
type RevealView struct {
	LobbyID      string            `json:"lobbyId"`
	HostID       string            `json:"hostId"`
	Players      []PlayerSummary   `json:"players"`
	ImpostorID   string            `json:"impostorId"`
	ImpostorName string            `json:"impostorName,omitempty"`
	Word         string            `json:"word"`
	Hint         string            `json:"hint"`
	Votes        map[string]string `json:"votes"`
	Tally        map[string]int    `json:"tally"`
	EliminatedID string            `json:"eliminatedId,omitempty"`
	Tie          bool              `json:"tie"`
	ImpostorWins bool              `json:"impostorWins"`
}

func (LobbyView) Phase() Phase      { return PhaseLobby }
func (FlashcardsView) Phase() Phase { return PhaseFlashcards }
func (DiscussionView) Phase() Phase { return PhaseDiscussion }
func (VotingView) Phase() Phase     { return PhaseVoting }
func (RevealView) Phase() Phase     { return PhaseReveal }

// Envelope tags a view with its phase for the wire
type Envelope struct {
	Phase Phase `json:"phase"`
	View  View  `json:"view"`
}

// Wrap tags v with its phase
func Wrap(v View) Envelope {
	return Envelope{Phase: v.Phase(), View: v}
}

// MarshalView encodes v as a phase-tagged JSON object
func MarshalView(v View) ([]byte, error) {
	return json.Marshal(Wrap(v))
}
