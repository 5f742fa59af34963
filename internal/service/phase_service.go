package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
)

// roundLimit ends the game after this many rounds; the player with the
// most victory points wins.
const roundLimit = 8

// upkeepDuration is how long the upkeep phase may sit before the round
// rolls over on its own.
const upkeepDuration = time.Hour

// PhaseService orchestrates phase transitions: combat resolution, upkeep
// and the opening of the next round's activation phase.
type PhaseService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	combatSvc   *CombatService
	upkeep      []UpkeepRunner
	cache       repository.SessionCache
	broadcaster Broadcaster
	locks       *GameLocks
}

// NewPhaseService creates a PhaseService.
func NewPhaseService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	combatSvc *CombatService,
	upkeep []UpkeepRunner,
	cache repository.SessionCache,
	broadcaster Broadcaster,
	locks *GameLocks,
) *PhaseService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if locks == nil {
		locks = NewGameLocks()
	}
	return &PhaseService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		combatSvc:   combatSvc,
		upkeep:      upkeep,
		cache:       cache,
		broadcaster: broadcaster,
		locks:       locks,
	}
}

// AdvancePhase moves a game out of its current phase at the host's
// request. The activation phase cannot be skipped this way: it only
// ends when every player has passed. Advancing out of combat resolves
// all pending encounters first.
func (s *PhaseService) AdvancePhase(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.HostUserID != userID {
		return ErrNotHost
	}
	return s.advance(ctx, gameID, false)
}

// ForceAdvance moves a game out of its current phase after the deadline
// expires. Expiry during activation passes every remaining player.
func (s *PhaseService) ForceAdvance(ctx context.Context, gameID string) error {
	return s.advance(ctx, gameID, true)
}

func (s *PhaseService) advance(ctx context.Context, gameID string, forced bool) error {
	// Per-game lock prevents concurrent advances from keyspace + poller
	// or from a host request racing with timer expiry.
	mu := s.locks.Lock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping phase advance for non-active game")
		return nil
	}

	switch game.Phase {
	case model.PhaseActivation:
		if !forced {
			return ErrWrongPhase
		}
		return s.expireActivation(ctx, game)
	case model.PhaseCombat:
		return s.advanceFromCombat(ctx, game)
	case model.PhaseUpkeep:
		return s.advanceFromUpkeep(ctx, game)
	default:
		return fmt.Errorf("game %s in unknown phase %q", gameID, game.Phase)
	}
}

// expireActivation handles a deadline expiring mid-activation: the game
// moves straight to combat as if everyone had passed. Nobody holds the
// turn outside the activation phase, so the active flag is cleared along
// with the phase change.
func (s *PhaseService) expireActivation(ctx context.Context, game *model.Game) error {
	log.Info().Str("gameId", game.ID).Int("round", game.Round).Msg("Activation deadline expired, forcing combat phase")
	if err := s.turnRepo.ClearActiveTurn(ctx, game.ID); err != nil {
		return err
	}
	deadline := time.Now().Add(combatDuration)
	if err := s.gameRepo.SetPhase(ctx, game.ID, model.PhaseCombat, game.Round, &deadline); err != nil {
		return err
	}
	if err := s.cache.SetPhaseTimer(ctx, game.ID, deadline); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to set combat phase timer")
	}
	s.broadcaster.BroadcastGameEvent(game.ID, "phase_changed", map[string]any{
		"phase":    model.PhaseCombat,
		"round":    game.Round,
		"deadline": deadline.Format(time.RFC3339),
	})
	return s.snapshotState(ctx, game.ID)
}

// advanceFromCombat resolves every contested hex and parks the game in
// the upkeep phase. The round rolls over on the next advance, or on the
// upkeep deadline.
func (s *PhaseService) advanceFromCombat(ctx context.Context, game *model.Game) error {
	count, err := s.combatSvc.ResolveGameCombat(ctx, game)
	if err != nil {
		return fmt.Errorf("resolve combat: %w", err)
	}
	log.Info().Str("gameId", game.ID).Int("round", game.Round).Int("encounters", count).Msg("Combat phase resolved")

	deadline := time.Now().Add(upkeepDuration)
	if err := s.gameRepo.SetPhase(ctx, game.ID, model.PhaseUpkeep, game.Round, &deadline); err != nil {
		return err
	}
	if err := s.cache.SetPhaseTimer(ctx, game.ID, deadline); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to set upkeep phase timer")
	}
	s.broadcaster.BroadcastGameEvent(game.ID, "phase_changed", map[string]any{
		"phase":    model.PhaseUpkeep,
		"round":    game.Round,
		"deadline": deadline.Format(time.RFC3339),
	})
	return s.snapshotState(ctx, game.ID)
}

// advanceFromUpkeep runs the upkeep bookkeeping, ends the game at the
// round limit, and otherwise opens the next activation phase with pass
// flags cleared and the turn back at the lowest seat.
func (s *PhaseService) advanceFromUpkeep(ctx context.Context, game *model.Game) error {
	for _, runner := range s.upkeep {
		if err := runner.Run(ctx, game); err != nil {
			return fmt.Errorf("upkeep: %w", err)
		}
	}

	if game.Round >= roundLimit {
		return s.finishGame(ctx, game)
	}

	first := firstSeat(game.Players)
	if err := s.turnRepo.ResetPasses(ctx, game.ID, first); err != nil {
		return err
	}
	nextRound := game.Round + 1
	deadline := time.Now().Add(activationDuration)
	if err := s.gameRepo.SetPhase(ctx, game.ID, model.PhaseActivation, nextRound, &deadline); err != nil {
		return err
	}
	if err := s.cache.SetPhaseTimer(ctx, game.ID, deadline); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to set activation phase timer")
	}

	log.Info().Str("gameId", game.ID).Int("round", nextRound).Time("deadline", deadline).Msg("Round advanced to activation")
	s.broadcaster.BroadcastGameEvent(game.ID, "phase_changed", map[string]any{
		"phase":    model.PhaseActivation,
		"round":    nextRound,
		"deadline": deadline.Format(time.RFC3339),
	})
	return s.snapshotState(ctx, game.ID)
}

// finishGame ends the game at the round limit. The player with the most
// victory points wins; a tie for first is a draw.
func (s *PhaseService) finishGame(ctx context.Context, game *model.Game) error {
	winner := ""
	best := -1
	tied := false
	for _, p := range game.Players {
		switch {
		case p.VP > best:
			best = p.VP
			winner = p.UserID
			tied = false
		case p.VP == best:
			tied = true
		}
	}
	if tied {
		winner = ""
	}

	log.Info().Str("gameId", game.ID).Str("winner", winner).Int("vp", best).Msg("Round limit reached, game over")
	if err := s.gameRepo.SetFinished(ctx, game.ID, winner); err != nil {
		return err
	}
	s.broadcaster.BroadcastGameEvent(game.ID, "game_ended", map[string]any{
		"winner": winner,
	})
	return s.cache.DeleteGameData(ctx, game.ID)
}

// snapshotState caches a JSON snapshot of the full game for fast reads.
func (s *PhaseService) snapshotState(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("reload game for snapshot: %w", err)
	}
	if game == nil {
		return fmt.Errorf("game %s disappeared before snapshot", gameID)
	}
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game snapshot: %w", err)
	}
	return s.cache.SetGameState(ctx, gameID, data)
}

// RecoverActiveGames rehydrates Redis timers and snapshots for all
// active games from Postgres. Called on server startup to restore state
// lost during a restart.
func (s *PhaseService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")
	for _, game := range games {
		if err := s.snapshotState(ctx, game.ID); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game snapshot")
			continue
		}
		if game.PhaseDeadline != nil && time.Now().Before(*game.PhaseDeadline) {
			if err := s.cache.SetPhaseTimer(ctx, game.ID, *game.PhaseDeadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore phase timer")
			}
		}
		log.Info().Str("gameId", game.ID).Str("phase", game.Phase).Int("round", game.Round).Msg("Recovered game state")
	}
	return nil
}

// firstSeat returns the player ID with the lowest turn order.
func firstSeat(players []model.Player) string {
	first := ""
	lowest := -1
	for _, p := range players {
		if lowest == -1 || p.TurnOrder < lowest {
			lowest = p.TurnOrder
			first = p.ID
		}
	}
	return first
}
