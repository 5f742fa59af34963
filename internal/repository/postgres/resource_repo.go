package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/second-dawn/internal/model"
)

// ResourceRepo handles player economy database operations.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo creates a ResourceRepo.
func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

// InitPlayer creates the starting resource row for a player.
func (r *ResourceRepo) InitPlayer(ctx context.Context, playerID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO player_resources (player_id) VALUES ($1)
		 ON CONFLICT DO NOTHING`, playerID,
	)
	if err != nil {
		return fmt.Errorf("init player resources: %w", err)
	}
	return nil
}

// GetForPlayer returns a player's current stockpile and income.
func (r *ResourceRepo) GetForPlayer(ctx context.Context, playerID string) (*model.PlayerResources, error) {
	var pr model.PlayerResources
	err := r.db.QueryRowContext(ctx,
		`SELECT player_id, money, science, materials, money_income, science_income, materials_income
		 FROM player_resources WHERE player_id = $1`, playerID,
	).Scan(&pr.PlayerID, &pr.Money, &pr.Science, &pr.Materials, &pr.MoneyIncome, &pr.ScienceIncome, &pr.MaterialsIncome)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player resources: %w", err)
	}
	return &pr, nil
}

// AccrueIncome adds each player's per-round income to their stockpile.
// Runs once per upkeep phase for the whole game.
func (r *ResourceRepo) AccrueIncome(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE player_resources pr
		 SET money = pr.money + pr.money_income,
		     science = pr.science + pr.science_income,
		     materials = pr.materials + pr.materials_income
		 FROM players p
		 WHERE p.id = pr.player_id AND p.game_id = $1`, gameID,
	)
	if err != nil {
		return fmt.Errorf("accrue income: %w", err)
	}
	return nil
}
