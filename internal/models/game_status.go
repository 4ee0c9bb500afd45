package models

// Phase represents the lobby's position in the round cycle
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseFlashcards Phase = "flashcards"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseReveal     Phase = "reveal"
)

// phaseCycle is the only forward order a round may take.
var phaseCycle = []Phase{PhaseLobby, PhaseFlashcards, PhaseDiscussion, PhaseVoting, PhaseReveal}

// Valid reports whether p is one of the five known phases
func (p Phase) Valid() bool {
	for _, q := range phaseCycle {
		if p == q {
			return true
		}
	}
	return false
}

// Next returns the phase that follows p. Reveal wraps back to lobby.
func (p Phase) Next() Phase {
	for i, q := range phaseCycle {
		if p == q {
			return phaseCycle[(i+1)%len(phaseCycle)]
		}
	}
	return PhaseLobby
}

// InRound reports whether a round is active (roles and words assigned)
func (p Phase) InRound() bool {
	return p != PhaseLobby && p.Valid()
}

// Mode selects how the secret word is chosen
type Mode string

const (
	// ModeAuto draws the word from the word bank; every player may be the impostor.
	ModeAuto Mode = "auto"
	// ModeCustom uses the host's word; the host sits out as game master.
	ModeCustom Mode = "custom"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeAuto || m == ModeCustom
}
