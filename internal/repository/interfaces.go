package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/second-dawn/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, hostUserID string, maxPlayers int) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID, species string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	SetStarted(ctx context.Context, gameID string, turnOrder map[string]int, deadline time.Time) error
	SetPhase(ctx context.Context, gameID, phase string, round int, deadline *time.Time) error
	SetFinished(ctx context.Context, gameID, winner string) error
	ListPhaseExpired(ctx context.Context) ([]model.Game, error)
	AddVictoryPoints(ctx context.Context, playerID string, points int) error
	CreateInvite(ctx context.Context, gameID, createdBy string) (*model.GameInvite, error)
	FindInvite(ctx context.Context, token string) (*model.GameInvite, error)
}

// TurnRepository defines action submission and turn rotation operations.
type TurnRepository interface {
	// SubmitTurn records an action, applies its board moves and advances
	// the turn pointer in a single transaction. nextActiveID is the player
	// that becomes active; empty means nobody (all passed). If phase is
	// non-empty the game row is moved to that phase too. Either everything
	// lands or nothing does.
	SubmitTurn(ctx context.Context, action *model.GameAction, passed bool, nextActiveID, phase string, deadline *time.Time, moves []model.ShipMove) error
	ListActions(ctx context.Context, gameID string) ([]model.GameAction, error)
	ListActionsByRound(ctx context.Context, gameID string, round int) ([]model.GameAction, error)
	ResetPasses(ctx context.Context, gameID, firstActiveID string) error
	// ClearActiveTurn deactivates every player in a game. Runs when a
	// deadline forces the game out of the activation phase.
	ClearActiveTurn(ctx context.Context, gameID string) error
}

// BoardRepository defines hex map, ship and blueprint data operations.
type BoardRepository interface {
	SeedBoard(ctx context.Context, gameID string, tiles []model.HexTile, ships []model.Ship, blueprints []model.ShipBlueprint) error
	ListTiles(ctx context.Context, gameID string) ([]model.HexTile, error)
	FindTile(ctx context.Context, tileID string) (*model.HexTile, error)
	TileAt(ctx context.Context, gameID string, q, r int) (*model.HexTile, error)
	ListShips(ctx context.Context, gameID string) ([]model.Ship, error)
	FindShip(ctx context.Context, shipID string) (*model.Ship, error)
	MoveShip(ctx context.Context, shipID, hexID string) error
	BlueprintFor(ctx context.Context, playerID, shipType string) (*model.ShipBlueprint, error)
	// ApplyCombatOutcome removes destroyed ships and writes back the hit
	// points of survivors in one transaction.
	ApplyCombatOutcome(ctx context.Context, destroyedIDs []string, survivorHP map[string]int) error
}

// CombatReportRepository defines combat log persistence.
type CombatReportRepository interface {
	Save(ctx context.Context, report *model.CombatReport) error
	ListByGame(ctx context.Context, gameID string) ([]model.CombatReport, error)
	ListByRound(ctx context.Context, gameID string, round int) ([]model.CombatReport, error)
}

// ResourceRepository defines player economy operations.
type ResourceRepository interface {
	InitPlayer(ctx context.Context, playerID string) error
	GetForPlayer(ctx context.Context, playerID string) (*model.PlayerResources, error)
	AccrueIncome(ctx context.Context, gameID string) error
}

// SessionCache defines live game state operations (Redis).
type SessionCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetPhaseTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearPhaseTimer(ctx context.Context, gameID string) error
	DeleteGameData(ctx context.Context, gameID string) error
}
