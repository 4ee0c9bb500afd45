package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aaronzipp/impostor/internal/models"
	"github.com/aaronzipp/impostor/internal/store"
	"github.com/aaronzipp/impostor/internal/wordbank"
)

var errCodeTaken = errors.New("room code taken")

// LobbyManager creates lobbies and manages their membership
type LobbyManager struct {
	store   store.SessionStore
	words   wordbank.Bank
	logger  *zap.Logger
	newCode func() string
	newID   func() string
}

type NewLobbyManagerOptions struct {
	Store    store.SessionStore
	WordBank wordbank.Bank
	Logger   *zap.Logger
	// NewCode and NewID default to GenerateRoomCode and random UUIDs
	NewCode func() string
	NewID   func() string
}

func NewLobbyManager(opts NewLobbyManagerOptions) *LobbyManager {
	m := &LobbyManager{
		store:   opts.Store,
		words:   opts.WordBank,
		logger:  opts.Logger,
		newCode: opts.NewCode,
		newID:   opts.NewID,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.newCode == nil {
		m.newCode = GenerateRoomCode
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

func (m *LobbyManager) defaultCategory() string {
	if m.words == nil || m.words.HasCategory(DefaultCategory) {
		return DefaultCategory
	}
	if names := m.words.Categories(); len(names) > 0 {
		return names[0]
	}
	return DefaultCategory
}

// CreateLobby writes a new lobby with hostName as its only player
func (m *LobbyManager) CreateLobby(ctx context.Context, hostName string) (lobbyID, playerID string, err error) {
	name, err := normalizeName(hostName)
	if err != nil {
		return "", "", err
	}

	playerID = m.newID()
	for range MaxRoomCodeAttempts {
		code := m.newCode()
		lobby := &models.Lobby{
			ID:       code,
			HostID:   playerID,
			State:    models.PhaseLobby,
			Mode:     models.ModeAuto,
			Category: m.defaultCategory(),
			Players: map[string]*models.Player{
				playerID: {ID: playerID, Name: name, IsHost: true},
			},
		}

		err := m.store.Transact(ctx, models.LobbyPath(code), func(cur store.Snapshot) (store.Patch, error) {
			if cur.Exists() {
				return nil, errCodeTaken
			}
			return store.Patch{"": lobby}, nil
		})
		if errors.Is(err, errCodeTaken) {
			m.logger.Debug("room code collision", zap.String("lobby", code))
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("creating lobby: %w", err)
		}

		m.logger.Info("lobby created", zap.String("lobby", code), zap.String("player", playerID))
		return code, playerID, nil
	}

	return "", "", ErrCodeExhausted
}

// JoinLobby adds a non-host player to an existing lobby
func (m *LobbyManager) JoinLobby(ctx context.Context, lobbyID, playerName string) (string, error) {
	name, err := normalizeName(playerName)
	if err != nil {
		return "", err
	}

	playerID := m.newID()
	err = transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		return store.Patch{
			models.PlayerPath(playerID): &models.Player{ID: playerID, Name: name},
		}, nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("player joined", zap.String("lobby", lobbyID), zap.String("player", playerID))
	return playerID, nil
}

// LeaveLobby removes a player. The last player leaving deletes the lobby;
// a leaving host hands over to the remaining player with the smallest id.
// A game master leaving mid-round ends the round, since the new host
// would otherwise be a playing participant, possibly the impostor.
func (m *LobbyManager) LeaveLobby(ctx context.Context, lobbyID, playerID string) error {
	var deleted, roundEnded bool
	var newHost string

	err := transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		deleted, roundEnded, newHost = false, false, ""

		leaving, err := requirePlayer(lobby, playerID)
		if err != nil {
			return nil, err
		}
		if len(lobby.Players) == 1 {
			deleted = true
			return store.Patch{"": nil}, nil
		}

		patch := store.Patch{models.PlayerPath(playerID): nil}
		for _, p := range lobby.SortedPlayers() {
			if p.ID != playerID && p.VotedFor == playerID {
				patch[models.PlayerField(p.ID, models.FieldVotedFor)] = nil
			}
		}

		if leaving.IsHost || lobby.HostID == playerID {
			for _, id := range lobby.PlayerIDs() {
				if id != playerID {
					newHost = id
					break
				}
			}
			patch[models.FieldHostID] = newHost
			patch[models.PlayerField(newHost, models.FieldIsHost)] = true

			if lobby.Mode == models.ModeCustom && lobby.State.InRound() {
				roundEnded = true
				remaining := make([]string, 0, len(lobby.Players)-1)
				for _, id := range lobby.PlayerIDs() {
					if id != playerID {
						remaining = append(remaining, id)
					}
				}
				resetRound(patch, remaining)
			}
		}
		return patch, nil
	})
	if err != nil {
		return err
	}

	switch {
	case deleted:
		m.logger.Info("lobby deleted", zap.String("lobby", lobbyID))
	case newHost != "":
		m.logger.Info("host migrated",
			zap.String("lobby", lobbyID),
			zap.String("from", playerID),
			zap.String("to", newHost),
			zap.Bool("roundEnded", roundEnded),
		)
	default:
		m.logger.Info("player left", zap.String("lobby", lobbyID), zap.String("player", playerID))
	}
	return nil
}

// UpdateLobbyMode switches between auto and custom mode. A non-empty
// category also replaces the word bank category.
func (m *LobbyManager) UpdateLobbyMode(ctx context.Context, lobbyID string, mode models.Mode, category string) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	category = strings.TrimSpace(category)
	if category != "" && m.words != nil && !m.words.HasCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	return transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseLobby); err != nil {
			return nil, err
		}
		patch := store.Patch{models.FieldMode: mode}
		if category != "" {
			patch[models.FieldCategory] = category
		}
		return patch, nil
	})
}

// UpdateCustomWord stores the host's secret for custom mode. Empty values clear it.
func (m *LobbyManager) UpdateCustomWord(ctx context.Context, lobbyID, word, hint string) error {
	word = strings.TrimSpace(word)
	hint = strings.TrimSpace(hint)

	return transactLobby(ctx, m.store, lobbyID, func(lobby *models.Lobby) (store.Patch, error) {
		if err := requirePhase(lobby, models.PhaseLobby); err != nil {
			return nil, err
		}
		return store.Patch{
			models.FieldCustomWord: emptyToNil(word),
			models.FieldCustomHint: emptyToNil(hint),
		}, nil
	})
}

// GetLobby reads the current lobby document
func (m *LobbyManager) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	if !ValidCode(lobbyID) {
		return nil, fmt.Errorf("%w: %q", ErrLobbyNotFound, lobbyID)
	}

	var lobby models.Lobby
	err := m.store.ReadOnce(ctx, models.LobbyPath(lobbyID), &lobby)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLobbyNotFound, lobbyID)
	}
	if err != nil {
		return nil, err
	}

	fillIDs(lobbyID, &lobby)
	return &lobby, nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
