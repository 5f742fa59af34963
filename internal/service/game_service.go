package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/second-dawn/internal/loadout"
	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
	"github.com/freeeve/second-dawn/pkg/hexgrid"
)

// activationDuration is how long the activation phase may run before the
// timer force-advances it to combat.
const activationDuration = 24 * time.Hour

// homeworldRing places player starting sectors two hexes out from the
// galactic center, spaced evenly around it.
var homeworldRing = []hexgrid.Coord{
	{Q: 2, R: 0}, {Q: -2, R: 0}, {Q: 0, R: 2}, {Q: 0, R: -2}, {Q: 2, R: -2}, {Q: -2, R: 2},
}

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo     repository.GameRepository
	boardRepo    repository.BoardRepository
	resourceRepo repository.ResourceRepository
	cache        repository.SessionCache
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, boardRepo repository.BoardRepository, resourceRepo repository.ResourceRepository, cache repository.SessionCache) *GameService {
	return &GameService{gameRepo: gameRepo, boardRepo: boardRepo, resourceRepo: resourceRepo, cache: cache}
}

// CreateGame creates a new game in lobby status with the host seated.
func (s *GameService) CreateGame(ctx context.Context, name, hostUserID string, maxPlayers int) (*model.Game, error) {
	if maxPlayers < 2 || maxPlayers > 6 {
		maxPlayers = 4
	}
	game, err := s.gameRepo.Create(ctx, name, hostUserID, maxPlayers)
	if err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame seats a player in a lobby game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, species string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != model.StatusLobby {
		return ErrGameNotLobby
	}
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}
	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= game.MaxPlayers {
		return ErrGameFull
	}
	return s.gameRepo.JoinGame(ctx, gameID, userID, species)
}

// CreateInvite mints a join token for a lobby game. Host only.
func (s *GameService) CreateInvite(ctx context.Context, gameID, userID string) (*model.GameInvite, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.StatusLobby {
		return nil, ErrGameNotLobby
	}
	if game.HostUserID != userID {
		return nil, ErrNotHost
	}
	return s.gameRepo.CreateInvite(ctx, gameID, userID)
}

// JoinByInvite resolves an invite token and seats the player.
func (s *GameService) JoinByInvite(ctx context.Context, token, userID, species string) (*model.Game, error) {
	inv, err := s.gameRepo.FindInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}
	if err := s.JoinGame(ctx, inv.GameID, userID, species); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, inv.GameID)
}

// StartGame activates a lobby game: turn order is shuffled, the board is
// seeded with the galactic center and each player's homeworld, starting
// ships and default blueprints are created, and round one opens in the
// activation phase with the lowest seat active.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.StatusLobby {
		return nil, ErrGameNotLobby
	}
	if game.HostUserID != userID {
		return nil, ErrNotHost
	}
	if len(game.Players) < 2 {
		return nil, ErrNotEnough
	}

	order := rand.Perm(len(game.Players))
	turnOrder := make(map[string]int, len(game.Players))
	for i, p := range game.Players {
		turnOrder[p.ID] = order[i]
	}

	tiles, ships, blueprints := buildInitialBoard(gameID, game.Players)
	if err := s.boardRepo.SeedBoard(ctx, gameID, tiles, ships, blueprints); err != nil {
		return nil, fmt.Errorf("seed board: %w", err)
	}
	for _, p := range game.Players {
		if err := s.resourceRepo.InitPlayer(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("init resources: %w", err)
		}
	}

	deadline := time.Now().Add(activationDuration)
	if err := s.gameRepo.SetStarted(ctx, gameID, turnOrder, deadline); err != nil {
		return nil, err
	}
	if err := s.cache.SetPhaseTimer(ctx, gameID, deadline); err != nil {
		return nil, fmt.Errorf("set phase timer: %w", err)
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// buildInitialBoard lays out the starting map: the galactic center with
// its defense system, and one homeworld per player holding a starting
// interceptor. All IDs are assigned up front so ships can reference
// their hex within the seeding transaction.
func buildInitialBoard(gameID string, players []model.Player) ([]model.HexTile, []model.Ship, []model.ShipBlueprint) {
	fullMask := int(hexgrid.MaskOf(0, 1, 2, 3, 4, 5))

	center := model.HexTile{
		ID:         uuid.NewString(),
		GameID:     gameID,
		Q:          0,
		R:          0,
		TileType:   model.TileGalacticCenter,
		Wormholes:  fullMask,
		IsExplored: true,
	}
	tiles := []model.HexTile{center}

	gcds := loadout.GalacticCenterDefense()
	ships := []model.Ship{{
		ID:        uuid.NewString(),
		GameID:    gameID,
		ShipType:  "gcds",
		HexID:     center.ID,
		HP:        gcds.MaxHP,
		IsAncient: true,
	}}

	var blueprints []model.ShipBlueprint
	for i, p := range players {
		coord := homeworldRing[i%len(homeworldRing)]
		home := model.HexTile{
			ID:            uuid.NewString(),
			GameID:        gameID,
			Q:             coord.Q,
			R:             coord.R,
			TileType:      model.TileHomeworld,
			Wormholes:     fullMask,
			IsExplored:    true,
			OwnerPlayerID: p.ID,
		}
		tiles = append(tiles, home)

		stats := loadout.FromSlots("interceptor", loadout.DefaultSlots("interceptor"))
		ships = append(ships, model.Ship{
			ID:       uuid.NewString(),
			GameID:   gameID,
			PlayerID: p.ID,
			ShipType: "interceptor",
			HexID:    home.ID,
			HP:       stats.MaxHP,
		})

		for _, shipType := range []string{"interceptor", "cruiser", "dreadnought", "starbase"} {
			blueprints = append(blueprints, model.ShipBlueprint{
				PlayerID: p.ID,
				ShipType: shipType,
				Slots:    loadout.DefaultSlots(shipType),
			})
		}
	}
	return tiles, ships, blueprints
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns open games or games the user is in.
func (s *GameService) ListGames(ctx context.Context, userID, filter string) ([]model.Game, error) {
	if filter == "my" {
		return s.gameRepo.ListByUser(ctx, userID)
	}
	return s.gameRepo.ListOpen(ctx)
}

// PlayerScore is one row of a game's scoreboard.
type PlayerScore struct {
	PlayerID  string `json:"player_id"`
	UserID    string `json:"user_id"`
	Species   string `json:"species,omitempty"`
	VP        int    `json:"vp"`
	ShipCount int    `json:"ship_count"`
}

// Scores returns the scoreboard for a game, highest victory points first.
func (s *GameService) Scores(ctx context.Context, gameID string) ([]PlayerScore, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	ships, err := s.boardRepo.ListShips(ctx, gameID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, sh := range ships {
		if sh.PlayerID != "" {
			counts[sh.PlayerID]++
		}
	}
	scores := make([]PlayerScore, 0, len(game.Players))
	for _, p := range game.Players {
		scores = append(scores, PlayerScore{
			PlayerID:  p.ID,
			UserID:    p.UserID,
			Species:   p.Species,
			VP:        p.VP,
			ShipCount: counts[p.ID],
		})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].VP > scores[j].VP })
	return scores, nil
}
