package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/second-dawn/internal/model"
)

// GameRepo handles game, player and invite database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game in lobby status and seats the host.
func (r *GameRepo) Create(ctx context.Context, name, hostUserID string, maxPlayers int) (*model.Game, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var g model.Game
	err = tx.QueryRowContext(ctx,
		`INSERT INTO games (name, host_user_id, max_players)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, status, round, max_players, host_user_id, created_at`,
		name, hostUserID, maxPlayers,
	).Scan(&g.ID, &g.Name, &g.Status, &g.Round, &g.MaxPlayers, &g.HostUserID, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO players (game_id, user_id) VALUES ($1, $2)`,
		g.ID, hostUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("seat host: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &g, nil
}

// FindByID returns a game by ID with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var phase, winner sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, phase, round, max_players, host_user_id, winner,
		        phase_deadline, created_at, started_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Status, &phase, &g.Round, &g.MaxPlayers, &g.HostUserID, &winner,
		&g.PhaseDeadline, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Phase = phase.String
	g.Winner = winner.String

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return &g, nil
}

// ListOpen returns games in lobby status with open seats.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.status, g.round, g.max_players, g.host_user_id, g.created_at
		 FROM games g
		 WHERE g.status = 'lobby'
		   AND (SELECT COUNT(*) FROM players p WHERE p.game_id = g.id) < g.max_players
		 ORDER BY g.created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &g.Round, &g.MaxPlayers, &g.HostUserID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListByUser returns all games a user has a seat in.
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.status, g.phase, g.round, g.max_players, g.host_user_id, g.winner,
		        g.phase_deadline, g.created_at, g.started_at, g.finished_at
		 FROM games g JOIN players p ON g.id = p.game_id
		 WHERE p.user_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var phase, winner sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &phase, &g.Round, &g.MaxPlayers, &g.HostUserID, &winner,
			&g.PhaseDeadline, &g.CreatedAt, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Phase = phase.String
		g.Winner = winner.String
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListActive returns all games in active status, including their players.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, phase, round, max_players, host_user_id, phase_deadline, created_at
		 FROM games WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var phase sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &phase, &g.Round, &g.MaxPlayers, &g.HostUserID, &g.PhaseDeadline, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Phase = phase.String
		players, err := r.ListPlayers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		g.Players = players
		games = append(games, g)
	}
	return games, rows.Err()
}

// JoinGame seats a player in a lobby game.
func (r *GameRepo) JoinGame(ctx context.Context, gameID, userID, species string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (game_id, user_id, species) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, species,
	)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// ListPlayers returns all players in a game, ordered by turn order then
// join time for lobby games where turn order is not yet assigned.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, user_id, species, turn_order, is_active_turn, has_passed, vp, joined_at
		 FROM players WHERE game_id = $1 ORDER BY turn_order, joined_at`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		var species sql.NullString
		if err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &species, &p.TurnOrder, &p.IsActiveTurn, &p.HasPassed, &p.VP, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Species = species.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// PlayerCount returns the number of players seated in a game.
func (r *GameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE game_id = $1`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("player count: %w", err)
	}
	return count, nil
}

// SetStarted activates a lobby game: turn order is written per player,
// the lowest seat becomes active and round one opens in activation.
func (r *GameRepo) SetStarted(ctx context.Context, gameID string, turnOrder map[string]int, deadline time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	first := ""
	lowest := -1
	for playerID, order := range turnOrder {
		if lowest == -1 || order < lowest {
			lowest = order
			first = playerID
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE players SET turn_order = $1 WHERE id = $2 AND game_id = $3`,
			order, playerID, gameID,
		)
		if err != nil {
			return fmt.Errorf("assign turn order: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE players SET is_active_turn = (id = $1) WHERE game_id = $2`,
		first, gameID,
	)
	if err != nil {
		return fmt.Errorf("set active player: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE games SET status = 'active', phase = 'activation', round = 1,
		        phase_deadline = $1, started_at = now()
		 WHERE id = $2`,
		deadline, gameID,
	)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	return tx.Commit()
}

// SetPhase moves a game to the given phase and round. A nil deadline
// clears the phase deadline.
func (r *GameRepo) SetPhase(ctx context.Context, gameID, phase string, round int, deadline *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET phase = $1, round = $2, phase_deadline = $3 WHERE id = $4`,
		phase, round, deadline, gameID,
	)
	if err != nil {
		return fmt.Errorf("set phase: %w", err)
	}
	return nil
}

// SetFinished marks a game as finished.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', phase = NULL, winner = $1,
		        phase_deadline = NULL, finished_at = now()
		 WHERE id = $2`,
		winner, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// ListPhaseExpired returns active games whose phase deadline has passed.
// Used by the timer fallback poller.
func (r *GameRepo) ListPhaseExpired(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, phase, round, max_players, host_user_id, phase_deadline, created_at
		 FROM games
		 WHERE status = 'active' AND phase_deadline IS NOT NULL AND phase_deadline < now()`)
	if err != nil {
		return nil, fmt.Errorf("list phase expired: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var phase sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &phase, &g.Round, &g.MaxPlayers, &g.HostUserID, &g.PhaseDeadline, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Phase = phase.String
		games = append(games, g)
	}
	return games, rows.Err()
}

// AddVictoryPoints credits combat victory points to a player.
func (r *GameRepo) AddVictoryPoints(ctx context.Context, playerID string, points int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE players SET vp = vp + $1 WHERE id = $2`,
		points, playerID,
	)
	if err != nil {
		return fmt.Errorf("add victory points: %w", err)
	}
	return nil
}

// CreateInvite mints a new join token for a game.
func (r *GameRepo) CreateInvite(ctx context.Context, gameID, createdBy string) (*model.GameInvite, error) {
	var inv model.GameInvite
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO game_invites (token, game_id, created_by) VALUES ($1, $2, $3)
		 RETURNING token, game_id, created_by, created_at`,
		uuid.NewString(), gameID, createdBy,
	).Scan(&inv.Token, &inv.GameID, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return &inv, nil
}

// FindInvite resolves a join token.
func (r *GameRepo) FindInvite(ctx context.Context, token string) (*model.GameInvite, error) {
	var inv model.GameInvite
	err := r.db.QueryRowContext(ctx,
		`SELECT token, game_id, created_by, created_at FROM game_invites WHERE token = $1`,
		token,
	).Scan(&inv.Token, &inv.GameID, &inv.CreatedBy, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	return &inv, nil
}
