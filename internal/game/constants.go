package game

const (
	// MinPlayers is the minimum number of playing participants required to start a round
	MinPlayers = 3

	// MaxNameLength is the maximum display name length in runes
	MaxNameLength = 24

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes (excluding ambiguous chars)
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// MaxRoomCodeAttempts bounds how often create retries a colliding code
	MaxRoomCodeAttempts = 16

	// DefaultCategory is the word bank category of a new lobby
	DefaultCategory = "Animals"

	// ImpostorWord is shown to the impostor instead of the secret word
	ImpostorWord = "Impostor"

	// ImpostorHint is shown to the impostor instead of the real hint
	ImpostorHint = "Try to blend in!"

	// PlaceholderWord replaces an empty custom word when placeholders are allowed
	PlaceholderWord = "Secret"

	// PlaceholderHint replaces an empty custom hint
	PlaceholderHint = "A secret word"
)
