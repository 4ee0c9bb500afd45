package ws

import "github.com/aaronzipp/impostor/internal/models"

// Client message types
const (
	TypeStartGame        = "start_game"
	TypeStartDiscussion  = "start_discussion"
	TypeStartVoting      = "start_voting"
	TypeCastVote         = "cast_vote"
	TypeRevealResults    = "reveal_results"
	TypeReturnToLobby    = "return_to_lobby"
	TypeUpdateMode       = "update_mode"
	TypeUpdateCustomWord = "update_custom_word"
	TypeLeave            = "leave"
)

// Server message types
const (
	TypeView        = "view"
	TypeLobbyClosed = "lobby_closed"
	TypePlayerLeft  = "player_left"
	TypeError       = "error"
)

// ClientMessage is a command from the connected player
type ClientMessage struct {
	Type     string `json:"type"`
	Mode     string `json:"mode,omitempty"`
	Category string `json:"category,omitempty"`
	Word     string `json:"word,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Target   string `json:"target,omitempty"`
}

// ServerMessage carries the player's current view or a command error
type ServerMessage struct {
	Type  string       `json:"type"`
	Phase models.Phase `json:"phase,omitempty"`
	View  models.View  `json:"view,omitempty"`
	Error string       `json:"error,omitempty"`
}
