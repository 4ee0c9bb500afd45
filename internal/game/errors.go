package game

import (
	"errors"

	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
)

var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrPlayerNotFound = errors.New("player not found")

	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrCustomWordMissing = errors.New("custom word missing")
	ErrUnknownCategory   = wordbank.ErrUnknownCategory
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrInvalidVote       = errors.New("invalid vote")

	// ErrNotHost is returned by CheckHost for commands reserved to the host
	ErrNotHost = errors.New("only the host can do that")

	// ErrWrongPhase is returned for commands issued out of order
	ErrWrongPhase = errors.New("wrong phase")

	// ErrCodeExhausted is returned when every generated room code was taken
	ErrCodeExhausted = errors.New("could not allocate a room code")
)

// IsNotFound reports whether err means the lobby or player is gone
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLobbyNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, store.ErrNotFound)
}

// IsPrecondition reports whether err refused a command the caller can correct
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNotEnoughPlayers,
		ErrCustomWordMissing,
		ErrUnknownCategory,
		ErrInvalidName,
		ErrInvalidMode,
		ErrInvalidVote,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
