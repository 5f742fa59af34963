package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/second-dawn/internal/model"
)

// CombatReportRepo handles combat log database operations.
type CombatReportRepo struct {
	db *sql.DB
}

// NewCombatReportRepo creates a CombatReportRepo.
func NewCombatReportRepo(db *sql.DB) *CombatReportRepo {
	return &CombatReportRepo{db: db}
}

// Save inserts a resolved encounter's log. AttackerID may be empty when
// the encounter had no clear initiator.
func (r *CombatReportRepo) Save(ctx context.Context, report *model.CombatReport) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO combat_reports (game_id, hex_id, round, attacker_id, entries)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		report.GameID, report.HexID, report.Round, nullStr(report.AttackerID), []byte(report.Entries),
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("save combat report: %w", err)
	}
	return nil
}

// ListByGame returns every combat report for a game in resolution order.
func (r *CombatReportRepo) ListByGame(ctx context.Context, gameID string) ([]model.CombatReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, hex_id, round, COALESCE(attacker_id::text, ''), entries, created_at
		 FROM combat_reports WHERE game_id = $1 ORDER BY created_at`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list combat reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// ListByRound returns the combat reports for one round of a game.
func (r *CombatReportRepo) ListByRound(ctx context.Context, gameID string, round int) ([]model.CombatReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, hex_id, round, COALESCE(attacker_id::text, ''), entries, created_at
		 FROM combat_reports WHERE game_id = $1 AND round = $2 ORDER BY created_at`, gameID, round,
	)
	if err != nil {
		return nil, fmt.Errorf("list combat reports by round: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]model.CombatReport, error) {
	var reports []model.CombatReport
	for rows.Next() {
		var rep model.CombatReport
		var entries []byte
		if err := rows.Scan(&rep.ID, &rep.GameID, &rep.HexID, &rep.Round, &rep.AttackerID, &entries, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan combat report: %w", err)
		}
		rep.Entries = entries
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
