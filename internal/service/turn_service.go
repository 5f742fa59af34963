package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
)

// combatDuration is the retreat window before the combat phase
// force-resolves.
const combatDuration = 12 * time.Hour

// validActions is the set of action types accepted during activation.
var validActions = map[string]bool{
	model.ActionExplore:   true,
	model.ActionInfluence: true,
	model.ActionBuild:     true,
	model.ActionResearch:  true,
	model.ActionMove:      true,
	model.ActionUpgrade:   true,
	model.ActionPass:      true,
}

// TurnService handles action submission and turn rotation during the
// activation phase.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	effects     *EffectRegistry
	cache       repository.SessionCache
	broadcaster Broadcaster
	locks       *GameLocks
}

// NewTurnService creates a TurnService.
func NewTurnService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, effects *EffectRegistry, cache repository.SessionCache, broadcaster Broadcaster, locks *GameLocks) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if locks == nil {
		locks = NewGameLocks()
	}
	return &TurnService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		effects:     effects,
		cache:       cache,
		broadcaster: broadcaster,
		locks:       locks,
	}
}

// SubmitAction validates and records one action for the active player,
// then rotates the turn. The preconditions are checked in a fixed order
// so clients get the most specific rejection: game active, activation
// phase, seat in the game, holding the turn, not already passed, known
// action type. The action's effect is validated up front and its board
// moves land in the same transaction that records the action; a failing
// effect rejects the submission with no trace in the log.
//
// When a pass leaves every player passed, the game moves to the combat
// phase in the same transaction that records the pass.
func (s *TurnService) SubmitAction(ctx context.Context, gameID, userID, actionType string, payload json.RawMessage) (*model.GameAction, error) {
	mu := s.locks.Lock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		return nil, ErrGameNotActive
	}
	if game.Phase != model.PhaseActivation {
		return nil, ErrWrongPhase
	}

	player := playerByUser(game, userID)
	if player == nil {
		return nil, ErrNotInGame
	}
	if !player.IsActiveTurn {
		return nil, ErrNotYourTurn
	}
	if player.HasPassed {
		return nil, ErrAlreadyPassed
	}
	if !validActions[actionType] {
		return nil, ErrInvalidAction
	}

	var moves []model.ShipMove
	if actionType != model.ActionPass {
		moves, err = s.effects.Apply(ctx, game, player, actionType, payload)
		if err != nil {
			return nil, err
		}
	}

	passed := actionType == model.ActionPass
	next := nextActivePlayer(game.Players, player.ID, passed)

	phase := ""
	var deadline *time.Time
	if next == "" {
		phase = model.PhaseCombat
		d := time.Now().Add(combatDuration)
		deadline = &d
	}

	action := &model.GameAction{
		GameID:     gameID,
		PlayerID:   player.ID,
		ActionType: actionType,
		Payload:    payload,
		Round:      game.Round,
	}
	if err := s.turnRepo.SubmitTurn(ctx, action, passed, next, phase, deadline, moves); err != nil {
		return nil, err
	}

	if phase == model.PhaseCombat {
		if err := s.cache.SetPhaseTimer(ctx, gameID, *deadline); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to set combat phase timer")
		}
		log.Info().Str("gameId", gameID).Int("round", game.Round).Msg("All players passed, entering combat phase")
		s.broadcaster.BroadcastGameEvent(gameID, "phase_changed", map[string]any{
			"phase":    model.PhaseCombat,
			"round":    game.Round,
			"deadline": deadline.Format(time.RFC3339),
		})
	}

	s.broadcaster.BroadcastGameEvent(gameID, "action_submitted", map[string]any{
		"player_id":   player.ID,
		"action_type": actionType,
		"next_player": next,
	})
	return action, nil
}

// ListActions returns the action log for a game, optionally filtered to
// one round (round < 0 means all rounds).
func (s *TurnService) ListActions(ctx context.Context, gameID string, round int) ([]model.GameAction, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if round < 0 {
		return s.turnRepo.ListActions(ctx, gameID)
	}
	return s.turnRepo.ListActionsByRound(ctx, gameID, round)
}

// playerByUser finds a user's seat in a game.
func playerByUser(game *model.Game, userID string) *model.Player {
	for i := range game.Players {
		if game.Players[i].UserID == userID {
			return &game.Players[i]
		}
	}
	return nil
}

// nextActivePlayer picks who holds the turn after current acts. The scan
// runs forward from current's seat in turn order, wrapping, and skips
// players who have passed. When current is passing, they are skipped
// too; an empty result means everyone has passed.
func nextActivePlayer(players []model.Player, currentID string, currentPassing bool) string {
	sorted := make([]model.Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TurnOrder < sorted[j].TurnOrder })

	cur := -1
	for i, p := range sorted {
		if p.ID == currentID {
			cur = i
			break
		}
	}
	if cur == -1 {
		return ""
	}
	for off := 1; off <= len(sorted); off++ {
		p := sorted[(cur+off)%len(sorted)]
		if p.ID == currentID {
			if currentPassing || p.HasPassed {
				continue
			}
			return p.ID
		}
		if !p.HasPassed {
			return p.ID
		}
	}
	return ""
}
