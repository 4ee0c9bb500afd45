package models

import "sort"

// TieSentinel is stored in EliminatedPlayerID when no single player won the vote.
// Player ids are UUIDs, so it never collides with a real id.
const TieSentinel = "tie"

// Lobby is the shared document every client reads and writes, one per session
type Lobby struct {
	ID                 string             `json:"id"`
	HostID             string             `json:"hostId"`
	State              Phase              `json:"state"`
	Mode               Mode               `json:"mode"`
	Category           string             `json:"category,omitempty"`
	CustomWord         string             `json:"customWord,omitempty"`
	CustomHint         string             `json:"customHint,omitempty"`
	Players            map[string]*Player `json:"players,omitempty"`
	StartingPlayerID   string             `json:"startingPlayerId,omitempty"`
	EliminatedPlayerID string             `json:"eliminatedPlayerId,omitempty"`
	ImpostorID         string             `json:"impostorId,omitempty"`
}

// PlayerIDs returns all player ids in key order
func (l *Lobby) PlayerIDs() []string {
	ids := make([]string, 0, len(l.Players))
	for id := range l.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortedPlayers returns the players in key order
func (l *Lobby) SortedPlayers() []*Player {
	players := make([]*Player, 0, len(l.Players))
	for _, id := range l.PlayerIDs() {
		players = append(players, l.Players[id])
	}
	return players
}

// PlayingSet returns the players who take part in a round, in key order.
// In custom mode the host is the game master and does not play.
func (l *Lobby) PlayingSet() []*Player {
	playing := make([]*Player, 0, len(l.Players))
	for _, p := range l.SortedPlayers() {
		if l.Mode == ModeCustom && p.IsHost {
			continue
		}
		playing = append(playing, p)
	}
	return playing
}

// IsGameMaster reports whether playerID narrates the round instead of playing
func (l *Lobby) IsGameMaster(playerID string) bool {
	p, ok := l.Players[playerID]
	return ok && l.Mode == ModeCustom && p.IsHost
}

// Host returns the current host, or nil for an empty lobby
func (l *Lobby) Host() *Player {
	if p, ok := l.Players[l.HostID]; ok {
		return p
	}
	for _, p := range l.SortedPlayers() {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// HasPlayer reports whether id belongs to a current player
func (l *Lobby) HasPlayer(id string) bool {
	_, ok := l.Players[id]
	return ok
}

// IsTie reports whether the last reveal ended without a single winner
func (l *Lobby) IsTie() bool {
	return l.EliminatedPlayerID == TieSentinel
}
