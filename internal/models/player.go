package models

// Player represents a player in the lobby document.
// Round fields are omitted from the document while no round is active.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHost     bool   `json:"isHost"`
	IsImpostor *bool  `json:"isImpostor,omitempty"`
	Word       string `json:"word,omitempty"`
	Hint       string `json:"hint,omitempty"`
	VotedFor   string `json:"votedFor,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

// Impostor reports whether the player holds the impostor role this round
func (p *Player) Impostor() bool {
	return p.IsImpostor != nil && *p.IsImpostor
}

// HasVoted reports whether the player has cast a vote this round
func (p *Player) HasVoted() bool {
	return p.VotedFor != ""
}
