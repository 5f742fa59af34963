package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/freeeve/second-dawn/internal/model"
)

// TurnRepo handles action log and turn rotation database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// SubmitTurn records one action and rotates the turn pointer atomically.
// The submitting player's pass flag is set when passed is true, the
// action's ship moves are applied, the active flag moves to nextActiveID
// (or to nobody when it is empty), and the game row is advanced to phase
// when non-empty. Either everything lands or nothing does.
func (r *TurnRepo) SubmitTurn(ctx context.Context, action *model.GameAction, passed bool, nextActiveID, phase string, deadline *time.Time, moves []model.ShipMove) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO game_actions (game_id, player_id, action_type, payload, round)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		action.GameID, action.PlayerID, action.ActionType, nullStr(string(action.Payload)), action.Round,
	).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	if passed {
		_, err = tx.ExecContext(ctx,
			`UPDATE players SET has_passed = true WHERE id = $1`, action.PlayerID)
		if err != nil {
			return fmt.Errorf("set pass flag: %w", err)
		}
	}

	for _, mv := range moves {
		_, err = tx.ExecContext(ctx,
			`UPDATE ships SET hex_id = $2 WHERE id = $1`, mv.ShipID, mv.ToHexID)
		if err != nil {
			return fmt.Errorf("move ship %s: %w", mv.ShipID, err)
		}
	}

	// IS NOT DISTINCT FROM: a NULL nextActiveID deactivates everyone
	// instead of writing NULL into the flag.
	_, err = tx.ExecContext(ctx,
		`UPDATE players SET is_active_turn = (id IS NOT DISTINCT FROM $1) WHERE game_id = $2`,
		nullStr(nextActiveID), action.GameID,
	)
	if err != nil {
		return fmt.Errorf("rotate active player: %w", err)
	}

	if phase != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE games SET phase = $1, phase_deadline = $2 WHERE id = $3`,
			phase, deadline, action.GameID,
		)
		if err != nil {
			return fmt.Errorf("advance phase: %w", err)
		}
	}
	return tx.Commit()
}

// ListActions returns the full action log for a game in submission order.
func (r *TurnRepo) ListActions(ctx context.Context, gameID string) ([]model.GameAction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, player_id, action_type, payload, round, created_at
		 FROM game_actions WHERE game_id = $1 ORDER BY created_at`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()
	return scanActions(rows)
}

// ListActionsByRound returns the action log for one round of a game.
func (r *TurnRepo) ListActionsByRound(ctx context.Context, gameID string, round int) ([]model.GameAction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, player_id, action_type, payload, round, created_at
		 FROM game_actions WHERE game_id = $1 AND round = $2 ORDER BY created_at`, gameID, round,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions by round: %w", err)
	}
	defer rows.Close()
	return scanActions(rows)
}

func scanActions(rows *sql.Rows) ([]model.GameAction, error) {
	var actions []model.GameAction
	for rows.Next() {
		var a model.GameAction
		var payload sql.NullString
		if err := rows.Scan(&a.ID, &a.GameID, &a.PlayerID, &a.ActionType, &payload, &a.Round, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if payload.Valid {
			a.Payload = []byte(payload.String)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ResetPasses clears every pass flag for a game and hands the turn to
// firstActiveID. Runs at the start of each activation phase.
func (r *TurnRepo) ResetPasses(ctx context.Context, gameID, firstActiveID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET has_passed = false, is_active_turn = (id = $1) WHERE game_id = $2`,
		firstActiveID, gameID,
	)
	if err != nil {
		return fmt.Errorf("reset passes: %w", err)
	}
	return nil
}

// ClearActiveTurn deactivates every player in a game. Used when a phase
// deadline forces the game out of activation without a final pass.
func (r *TurnRepo) ClearActiveTurn(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET is_active_turn = false WHERE game_id = $1`, gameID,
	)
	if err != nil {
		return fmt.Errorf("clear active turn: %w", err)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
