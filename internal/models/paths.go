package models

// Document layout inside the session store:
//
//	lobbies/{lobbyId}
//	lobbies/{lobbyId}/players/{playerId}
//	lobbies/{lobbyId}/players/{playerId}/{field}
const (
	LobbiesCollection = "lobbies"

	FieldHostID             = "hostId"
	FieldState              = "state"
	FieldMode               = "mode"
	FieldCategory           = "category"
	FieldCustomWord         = "customWord"
	FieldCustomHint         = "customHint"
	FieldPlayers            = "players"
	FieldStartingPlayerID   = "startingPlayerId"
	FieldEliminatedPlayerID = "eliminatedPlayerId"
	FieldImpostorID         = "impostorId"

	FieldIsHost     = "isHost"
	FieldIsImpostor = "isImpostor"
	FieldWord       = "word"
	FieldHint       = "hint"
	FieldVotedFor   = "votedFor"
	FieldEliminated = "eliminated"
)

// LobbyPath returns the store path of a lobby document
func LobbyPath(lobbyID string) string {
	return LobbiesCollection + "/" + lobbyID
}

// PlayerPath returns the path of a player entry relative to its lobby
func PlayerPath(playerID string) string {
	return FieldPlayers + "/" + playerID
}

// PlayerField returns the path of one player field relative to its lobby
func PlayerField(playerID, field string) string {
	return PlayerPath(playerID) + "/" + field
}
