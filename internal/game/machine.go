package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
)

// StateMachine drives a lobby through
// lobby -> flashcards -> discussion -> voting -> reveal -> lobby.
// Every command reads and writes the lobby in one store transaction and is
// refused when the lobby is not in the phase the command belongs to.
type StateMachine struct {
	store      store.SessionStore
	words      wordbank.Bank
	rng        Random
	allowEmpty bool
	logger     *zap.Logger
}

type NewStateMachineOptions struct {
	Store    store.SessionStore
	WordBank wordbank.Bank
	// Random defaults to DefaultRandom
	Random Random
	// AllowPlaceholderWord starts custom rounds without a custom word,
	// using PlaceholderWord instead of refusing.
	AllowPlaceholderWord bool
	Logger               *zap.Logger
}

func NewStateMachine(opts NewStateMachineOptions) *StateMachine {
	m := &StateMachine{
		store:      opts.Store,
		words:      opts.WordBank,
		rng:        opts.Random,
		allowEmpty: opts.AllowPlaceholderWord,
		logger:     opts.Logger,
	}
	if m.rng == nil {
		m.rng = DefaultRandom
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// roundWord resolves the secret word and hint for a new round
func (m *StateMachine) roundWord(lobby *models.Lobby) (string, string, error) {
	if lobby.Mode == models.ModeCustom {
		word := strings.TrimSpace(lobby.CustomWord)
		hint := strings.TrimSpace(lobby.CustomHint)
		if word == "" {
			if !m.allowEmpty {
				return "", "", ErrCustomWordMissing
			}
			word = PlaceholderWord
		}
		if hint == "" {
			hint = PlaceholderHint
		}
		return word, hint, nil
	}

	if lobby.Category == "" {
		return "", "", fmt.Errorf("%w: no category selected", ErrUnknownCategory)
	}
	if m.words == nil {
		return "", "", errors.New("no word bank configured")
	}
	pick, err := m.words.PickRandomEntry(lobby.Category)
	if err != nil {
		return "", "", err
	}
	return pick.Word, pick.Hint, nil
}

// StartGame assigns the impostor and hands out words and hints
func (m *StateMachine) StartGame(ctx context.Context, lobbyID string) error {
	m.logger.Debug("start game", zap.String("lobby", lobbyID))

	var impostorID string
	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseLobby); err != nil {
			return nil, err
		}

		playing := lobby.PlayingSet()
		if len(playing) < MinPlayers {
			return nil, fmt.Errorf("%w: %d playing, need %d", ErrNotEnoughPlayers, len(playing), MinPlayers)
		}

		impostor := playing[m.rng.Intn(len(playing))]
		word, hint, err := m.roundWord(lobby)
		if err != nil {
			return nil, err
		}
		impostorID = impostor.ID

		patch := store.Patch{
			models.FieldState:              models.PhaseFlashcards,
			models.FieldImpostorID:         impostor.ID,
			models.FieldStartingPlayerID:   nil,
			models.FieldEliminatedPlayerID: nil,
		}
		for _, p := range lobby.SortedPlayers() {
			patch[models.PlayerField(p.ID, models.FieldVotedFor)] = nil
			patch[models.PlayerField(p.ID, models.FieldEliminated)] = false

			isImpostor := p.ID == impostor.ID
			patch[models.PlayerField(p.ID, models.FieldIsImpostor)] = isImpostor
			if isImpostor {
				patch[models.PlayerField(p.ID, models.FieldWord)] = ImpostorWord
				patch[models.PlayerField(p.ID, models.FieldHint)] = ImpostorHint
			} else {
				// the game master sees the real secret too
				patch[models.PlayerField(p.ID, models.FieldWord)] = word
				patch[models.PlayerField(p.ID, models.FieldHint)] = hint
			}
		}
		return patch, nil
	})
	if err != nil {
		m.refused("start game", lobbyID, err)
		return err
	}

	m.logger.Info("round started", zap.String("lobby", lobbyID), zap.String("impostor", impostorID))
	return nil
}

// StartDiscussion picks who speaks first
func (m *StateMachine) StartDiscussion(ctx context.Context, lobbyID string) error {
	m.logger.Debug("start discussion", zap.String("lobby", lobbyID))

	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseFlashcards); err != nil {
			return nil, err
		}
		playing := lobby.PlayingSet()
		if len(playing) == 0 {
			return nil, fmt.Errorf("%w: nobody left to start", ErrNotEnoughPlayers)
		}
		starter := playing[m.rng.Intn(len(playing))]
		return store.Patch{
			models.FieldState:            models.PhaseDiscussion,
			models.FieldStartingPlayerID: starter.ID,
		}, nil
	})
	if err != nil {
		m.refused("start discussion", lobbyID, err)
	}
	return err
}

// StartVoting opens the vote
func (m *StateMachine) StartVoting(ctx context.Context, lobbyID string) error {
	m.logger.Debug("start voting", zap.String("lobby", lobbyID))

	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseDiscussion); err != nil {
			return nil, err
		}
		return store.Patch{models.FieldState: models.PhaseVoting}, nil
	})
	if err != nil {
		m.refused("start voting", lobbyID, err)
	}
	return err
}

// CastVote records voterID's vote for targetID. A later vote by the same
// voter replaces the earlier one.
func (m *StateMachine) CastVote(ctx context.Context, lobbyID, voterID, targetID string) error {
	m.logger.Debug("cast vote", zap.String("lobby", lobbyID), zap.String("player", voterID), zap.String("target", targetID))

	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseVoting); err != nil {
			return nil, err
		}
		if _, err := requirePlayer(lobby, voterID); err != nil {
			return nil, err
		}
		if _, err := requirePlayer(lobby, targetID); err != nil {
			return nil, err
		}
		return store.Patch{
			models.PlayerField(voterID, models.FieldVotedFor): targetID,
		}, nil
	})
	if err != nil {
		m.refused("cast vote", lobbyID, err)
	}
	return err
}

// RevealResults tallies the votes and eliminates the unique winner, if any
func (m *StateMachine) RevealResults(ctx context.Context, lobbyID string) error {
	m.logger.Debug("reveal results", zap.String("lobby", lobbyID))

	var tally Tally
	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseVoting); err != nil {
			return nil, err
		}

		tally = TallyVotes(lobby.Players)
		patch := store.Patch{
			models.FieldState:              models.PhaseReveal,
			models.FieldEliminatedPlayerID: tally.Result(),
		}
		if !tally.Tie {
			patch[models.PlayerField(tally.Winner, models.FieldEliminated)] = true
		}
		return patch, nil
	})
	if err != nil {
		m.refused("reveal results", lobbyID, err)
		return err
	}

	m.logger.Info("results revealed",
		zap.String("lobby", lobbyID),
		zap.String("eliminated", tally.Result()),
		zap.Int("votes", tally.MaxVotes),
	)
	return nil
}

// ReturnToLobby clears every round field. It is accepted from any phase
// and leaves membership and host untouched.
func (m *StateMachine) ReturnToLobby(ctx context.Context, lobbyID string) error {
	m.logger.Debug("return to lobby", zap.String("lobby", lobbyID))

	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		patch := store.Patch{}
		resetRound(patch, lobby.PlayerIDs())
		return patch, nil
	})
	if err != nil {
		m.refused("return to lobby", lobbyID, err)
	}
	return err
}

// refused logs a command the lobby's state did not allow
func (m *StateMachine) refused(command, lobbyID string, err error) {
	if IsNotFound(err) || IsPrecondition(err) || errors.Is(err, ErrWrongPhase) {
		m.logger.Warn("command refused", zap.String("command", command), zap.String("lobby", lobbyID), zap.Error(err))
		return
	}
	m.logger.Error("command failed", zap.String("command", command), zap.String("lobby", lobbyID), zap.Error(err))
}
