package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/second-dawn/internal/model"
)

// BoardRepo handles hex tile, ship and blueprint database operations.
type BoardRepo struct {
	db *sql.DB
}

// NewBoardRepo creates a BoardRepo.
func NewBoardRepo(db *sql.DB) *BoardRepo {
	return &BoardRepo{db: db}
}

// SeedBoard inserts the initial map, ships and blueprints for a freshly
// started game in one transaction. The caller assigns tile and ship IDs
// up front so ships can reference their starting hex.
func (r *BoardRepo) SeedBoard(ctx context.Context, gameID string, tiles []model.HexTile, ships []model.Ship, blueprints []model.ShipBlueprint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	tileStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hex_tiles (id, game_id, q, r, tile_type, wormholes, rotation, is_explored, owner_player_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("prepare insert tile: %w", err)
	}
	defer tileStmt.Close()
	for _, t := range tiles {
		_, err := tileStmt.ExecContext(ctx, t.ID, gameID, t.Q, t.R, t.TileType, t.Wormholes, t.Rotation, t.IsExplored, nullStr(t.OwnerPlayerID))
		if err != nil {
			return fmt.Errorf("insert tile: %w", err)
		}
	}

	shipStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ships (id, game_id, player_id, ship_type, hex_id, hp, is_ancient)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare insert ship: %w", err)
	}
	defer shipStmt.Close()
	for _, s := range ships {
		_, err := shipStmt.ExecContext(ctx, s.ID, gameID, nullStr(s.PlayerID), s.ShipType, nullStr(s.HexID), s.HP, s.IsAncient)
		if err != nil {
			return fmt.Errorf("insert ship: %w", err)
		}
	}

	bpStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ship_blueprints (player_id, ship_type, slots) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare insert blueprint: %w", err)
	}
	defer bpStmt.Close()
	for _, b := range blueprints {
		_, err := bpStmt.ExecContext(ctx, b.PlayerID, b.ShipType, pq.Array(b.Slots))
		if err != nil {
			return fmt.Errorf("insert blueprint: %w", err)
		}
	}
	return tx.Commit()
}

// ListTiles returns the full map for a game.
func (r *BoardRepo) ListTiles(ctx context.Context, gameID string) ([]model.HexTile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, q, r, tile_type, wormholes, rotation, is_explored, COALESCE(owner_player_id::text, '')
		 FROM hex_tiles WHERE game_id = $1 ORDER BY q, r`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	var tiles []model.HexTile
	for rows.Next() {
		var t model.HexTile
		if err := rows.Scan(&t.ID, &t.GameID, &t.Q, &t.R, &t.TileType, &t.Wormholes, &t.Rotation, &t.IsExplored, &t.OwnerPlayerID); err != nil {
			return nil, fmt.Errorf("scan tile: %w", err)
		}
		tiles = append(tiles, t)
	}
	return tiles, rows.Err()
}

// FindTile returns one tile by ID.
func (r *BoardRepo) FindTile(ctx context.Context, tileID string) (*model.HexTile, error) {
	var t model.HexTile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, q, r, tile_type, wormholes, rotation, is_explored, COALESCE(owner_player_id::text, '')
		 FROM hex_tiles WHERE id = $1`, tileID,
	).Scan(&t.ID, &t.GameID, &t.Q, &t.R, &t.TileType, &t.Wormholes, &t.Rotation, &t.IsExplored, &t.OwnerPlayerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tile: %w", err)
	}
	return &t, nil
}

// TileAt returns the tile at axial coordinates (q, r), if one is placed.
func (r *BoardRepo) TileAt(ctx context.Context, gameID string, q, rr int) (*model.HexTile, error) {
	var t model.HexTile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, q, r, tile_type, wormholes, rotation, is_explored, COALESCE(owner_player_id::text, '')
		 FROM hex_tiles WHERE game_id = $1 AND q = $2 AND r = $3`, gameID, q, rr,
	).Scan(&t.ID, &t.GameID, &t.Q, &t.R, &t.TileType, &t.Wormholes, &t.Rotation, &t.IsExplored, &t.OwnerPlayerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tile at: %w", err)
	}
	return &t, nil
}

// ListShips returns all ships still on the board for a game.
func (r *BoardRepo) ListShips(ctx context.Context, gameID string) ([]model.Ship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, COALESCE(player_id::text, ''), ship_type, COALESCE(hex_id::text, ''), hp, is_ancient
		 FROM ships WHERE game_id = $1 AND hex_id IS NOT NULL ORDER BY id`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ships: %w", err)
	}
	defer rows.Close()

	var ships []model.Ship
	for rows.Next() {
		var s model.Ship
		if err := rows.Scan(&s.ID, &s.GameID, &s.PlayerID, &s.ShipType, &s.HexID, &s.HP, &s.IsAncient); err != nil {
			return nil, fmt.Errorf("scan ship: %w", err)
		}
		ships = append(ships, s)
	}
	return ships, rows.Err()
}

// FindShip returns one ship by ID.
func (r *BoardRepo) FindShip(ctx context.Context, shipID string) (*model.Ship, error) {
	var s model.Ship
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, COALESCE(player_id::text, ''), ship_type, COALESCE(hex_id::text, ''), hp, is_ancient
		 FROM ships WHERE id = $1`, shipID,
	).Scan(&s.ID, &s.GameID, &s.PlayerID, &s.ShipType, &s.HexID, &s.HP, &s.IsAncient)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ship: %w", err)
	}
	return &s, nil
}

// MoveShip relocates a ship to another hex.
func (r *BoardRepo) MoveShip(ctx context.Context, shipID, hexID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ships SET hex_id = $1 WHERE id = $2`, hexID, shipID,
	)
	if err != nil {
		return fmt.Errorf("move ship: %w", err)
	}
	return nil
}

// BlueprintFor returns a player's blueprint for a ship type.
func (r *BoardRepo) BlueprintFor(ctx context.Context, playerID, shipType string) (*model.ShipBlueprint, error) {
	var b model.ShipBlueprint
	err := r.db.QueryRowContext(ctx,
		`SELECT id, player_id, ship_type, slots FROM ship_blueprints
		 WHERE player_id = $1 AND ship_type = $2`, playerID, shipType,
	).Scan(&b.ID, &b.PlayerID, &b.ShipType, pq.Array(&b.Slots))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blueprint for: %w", err)
	}
	return &b, nil
}

// ApplyCombatOutcome removes destroyed ships from the board and writes
// back survivor hit points in one transaction.
func (r *BoardRepo) ApplyCombatOutcome(ctx context.Context, destroyedIDs []string, survivorHP map[string]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if len(destroyedIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE ships SET hex_id = NULL, hp = 0 WHERE id = ANY($1)`,
			pq.Array(destroyedIDs),
		)
		if err != nil {
			return fmt.Errorf("remove destroyed ships: %w", err)
		}
	}
	for shipID, hp := range survivorHP {
		_, err = tx.ExecContext(ctx,
			`UPDATE ships SET hp = $1 WHERE id = $2`, hp, shipID,
		)
		if err != nil {
			return fmt.Errorf("update survivor hp: %w", err)
		}
	}
	return tx.Commit()
}
