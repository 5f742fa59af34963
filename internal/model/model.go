package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game statuses.
const (
	StatusLobby    = "lobby"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Game phases within a round. Phase is empty unless status is active.
const (
	PhaseActivation = "activation"
	PhaseCombat     = "combat"
	PhaseUpkeep     = "upkeep"
)

// Game represents one game session.
type Game struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"` // lobby, active, finished
	Phase         string     `json:"phase,omitempty"`
	Round         int        `json:"round"`
	MaxPlayers    int        `json:"max_players"`
	HostUserID    string     `json:"host_user_id"`
	Winner        string     `json:"winner,omitempty"`
	PhaseDeadline *time.Time `json:"phase_deadline,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Players       []Player   `json:"players,omitempty"`
}

// Player represents a user's seat in a game.
type Player struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	UserID       string    `json:"user_id"`
	Species      string    `json:"species,omitempty"`
	TurnOrder    int       `json:"turn_order"`
	IsActiveTurn bool      `json:"is_active_turn"`
	HasPassed    bool      `json:"has_passed"`
	VP           int       `json:"vp"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Action kinds a player may submit during the activation phase.
const (
	ActionExplore   = "explore"
	ActionInfluence = "influence"
	ActionBuild     = "build"
	ActionResearch  = "research"
	ActionMove      = "move"
	ActionUpgrade   = "upgrade"
	ActionPass      = "pass"
)

// GameAction is an append-only log entry for every accepted submission.
type GameAction struct {
	ID         string          `json:"id"`
	GameID     string          `json:"game_id"`
	PlayerID   string          `json:"player_id"`
	ActionType string          `json:"action_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Round      int             `json:"round"`
	CreatedAt  time.Time       `json:"created_at"`
}

// GameInvite is a join token created by the host.
type GameInvite struct {
	Token     string    `json:"token"`
	GameID    string    `json:"game_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Hex tile types.
const (
	TileGalacticCenter = "galactic_center"
	TileInner          = "inner"
	TileOuter          = "outer"
	TileHomeworld      = "homeworld"
)

// HexTile is one map cell at axial coordinates (q, r). Wormholes holds the
// post-rotation six-bit edge mask.
type HexTile struct {
	ID            string `json:"id"`
	GameID        string `json:"game_id"`
	Q             int    `json:"q"`
	R             int    `json:"r"`
	TileType      string `json:"tile_type"`
	Wormholes     int    `json:"wormholes"`
	Rotation      int    `json:"rotation"`
	IsExplored    bool   `json:"is_explored"`
	OwnerPlayerID string `json:"owner_player_id,omitempty"`
}

// Ship is a ship token on the board. PlayerID is empty for ancient/guardian
// ships that have no owner; HexID is empty once the ship is destroyed.
type Ship struct {
	ID        string `json:"id"`
	GameID    string `json:"game_id"`
	PlayerID  string `json:"player_id,omitempty"`
	ShipType  string `json:"ship_type"`
	HexID     string `json:"hex_id,omitempty"`
	HP        int    `json:"hp"`
	IsAncient bool   `json:"is_ancient"`
}

// ShipMove is a pending board change produced by validating an action.
// It lands in the same transaction that records the action, so a failed
// submission never leaves a half-applied move.
type ShipMove struct {
	ShipID  string
	ToHexID string
}

// ShipBlueprint records the part slots for one ship type owned by one
// player. Slots lists part IDs; empty strings are empty slots.
type ShipBlueprint struct {
	ID       string   `json:"id"`
	PlayerID string   `json:"player_id"`
	ShipType string   `json:"ship_type"`
	Slots    []string `json:"slots"`
}

// CombatReport stores the full play-by-play of one resolved encounter.
// Entries is the JSON stream of shot/damage/combat_end events.
type CombatReport struct {
	ID         string          `json:"id"`
	GameID     string          `json:"game_id"`
	HexID      string          `json:"hex_id"`
	Round      int             `json:"round"`
	AttackerID string          `json:"attacker_id,omitempty"`
	Entries    json.RawMessage `json:"entries"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PlayerResources tracks a player's economy, accrued each upkeep.
type PlayerResources struct {
	PlayerID        string `json:"player_id"`
	Money           int    `json:"money"`
	Science         int    `json:"science"`
	Materials       int    `json:"materials"`
	MoneyIncome     int    `json:"money_income"`
	ScienceIncome   int    `json:"science_income"`
	MaterialsIncome int    `json:"materials_income"`
}
