package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
	"github.com/freeeve/second-dawn/pkg/combat"
	"github.com/freeeve/second-dawn/pkg/hexgrid"
)

// CombatService resolves encounters at the end of the combat phase and
// handles retreat declarations during it.
type CombatService struct {
	gameRepo    repository.GameRepository
	boardRepo   repository.BoardRepository
	reportRepo  repository.CombatReportRepository
	broadcaster Broadcaster
	locks       *GameLocks
	newRNG      func() combat.RNG
}

// NewCombatService creates a CombatService. rngFactory may be nil, in
// which case each encounter gets a time-seeded roller.
func NewCombatService(gameRepo repository.GameRepository, boardRepo repository.BoardRepository, reportRepo repository.CombatReportRepository, broadcaster Broadcaster, locks *GameLocks, rngFactory func() combat.RNG) *CombatService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if locks == nil {
		locks = NewGameLocks()
	}
	if rngFactory == nil {
		rngFactory = func() combat.RNG { return combat.NewRNG(uint64(time.Now().UnixNano())) }
	}
	return &CombatService{
		gameRepo:    gameRepo,
		boardRepo:   boardRepo,
		reportRepo:  reportRepo,
		broadcaster: broadcaster,
		locks:       locks,
		newRNG:      rngFactory,
	}
}

// RetreatShip pulls one of the caller's ships out of a contested hex to
// an adjacent hex free of hostiles. Only legal during the combat phase,
// before encounters resolve. The ship must actually be under threat:
// its hex must hold a hostile, and the destination must not.
func (s *CombatService) RetreatShip(ctx context.Context, gameID, userID, shipID, toHexID string) error {
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
		return ErrGameNotActive
	}
	if game.Phase != model.PhaseCombat {
		return ErrWrongPhase
	}
	player := playerByUser(game, userID)
	if player == nil {
		return ErrNotInGame
	}

	ship, err := s.boardRepo.FindShip(ctx, shipID)
	if err != nil {
		return err
	}
	if ship == nil || ship.GameID != gameID {
		return ErrShipNotFound
	}
	if ship.PlayerID != player.ID {
		return ErrNotYourShip
	}
	if ship.HexID == "" {
		return fmt.Errorf("%w: ship is not on the board", ErrInvalidRetreat)
	}

	from, err := s.boardRepo.FindTile(ctx, ship.HexID)
	if err != nil {
		return err
	}
	if from == nil {
		return ErrHexNotFound
	}
	dest, err := s.boardRepo.FindTile(ctx, toHexID)
	if err != nil {
		return err
	}
	if dest == nil || dest.GameID != gameID {
		return ErrHexNotFound
	}
	fromCoord := hexgrid.Coord{Q: from.Q, R: from.R}
	destCoord := hexgrid.Coord{Q: dest.Q, R: dest.R}
	if !fromCoord.Adjacent(destCoord) {
		return fmt.Errorf("%w: destination is not adjacent", ErrInvalidRetreat)
	}

	ships, err := s.boardRepo.ListShips(ctx, gameID)
	if err != nil {
		return err
	}
	if !hasHostile(ships, ship.HexID, player.ID) {
		return fmt.Errorf("%w: no hostile ships at current hex", ErrInvalidRetreat)
	}
	if hasHostile(ships, dest.ID, player.ID) {
		return fmt.Errorf("%w: hostile ships at destination", ErrInvalidRetreat)
	}

	if err := s.boardRepo.MoveShip(ctx, ship.ID, dest.ID); err != nil {
		return err
	}
	log.Info().Str("gameId", gameID).Str("shipId", shipID).Str("toHex", dest.ID).Msg("Ship retreated")
	s.broadcaster.BroadcastGameEvent(gameID, "ship_retreated", map[string]any{
		"ship_id":   shipID,
		"player_id": player.ID,
		"to_hex_id": dest.ID,
	})
	return nil
}

// hasHostile reports whether any ship at hexID is hostile to playerID.
// Ancient ships are hostile to everyone.
func hasHostile(ships []model.Ship, hexID, playerID string) bool {
	for _, sh := range ships {
		if sh.HexID != hexID {
			continue
		}
		if sh.PlayerID == "" || sh.PlayerID != playerID {
			return true
		}
	}
	return false
}

// ResolveGameCombat finds every contested hex, fights each encounter to
// completion, persists the play-by-play, removes destroyed ships, writes
// back survivor hit points, and credits victory points. Returns the
// number of encounters resolved.
func (s *CombatService) ResolveGameCombat(ctx context.Context, game *model.Game) (int, error) {
	ships, err := s.boardRepo.ListShips(ctx, game.ID)
	if err != nil {
		return 0, err
	}

	placed := make([]combat.Placement, 0, len(ships))
	for i := range ships {
		sh := &ships[i]
		if sh.HexID == "" {
			continue
		}
		placed = append(placed, combat.Placement{
			Cell: sh.HexID,
			Unit: unitForShip(ctx, s.boardRepo, sh),
		})
	}

	encounters := combat.DiscoverEncounters(placed)
	for _, enc := range encounters {
		if err := s.resolveEncounter(ctx, game, enc); err != nil {
			return 0, fmt.Errorf("resolve encounter at %s: %w", enc.Cell, err)
		}
	}
	return len(encounters), nil
}

// unitForShip builds a combat unit from a ship's derived stats. Current
// hull damage carries into the fight.
func unitForShip(ctx context.Context, boardRepo repository.BoardRepository, sh *model.Ship) *combat.Unit {
	stats := shipStats(ctx, boardRepo, sh)
	faction := combat.Environmental
	if sh.PlayerID != "" {
		faction = combat.PlayerFaction(sh.PlayerID)
	}
	hp := stats.MaxHP
	if sh.HP > 0 && sh.HP < hp {
		hp = sh.HP
	}
	return combat.NewUnit(sh.ID, faction, stats.MaxHP, hp, stats.Initiative, stats.Accuracy, stats.Defense, stats.Weapons)
}

func (s *CombatService) resolveEncounter(ctx context.Context, game *model.Game, enc *combat.Encounter) error {
	result, err := combat.Resolve(enc, s.newRNG())
	if err != nil {
		return err
	}

	entries, err := json.Marshal(result.Log)
	if err != nil {
		return fmt.Errorf("marshal combat log: %w", err)
	}
	report := &model.CombatReport{
		GameID:  game.ID,
		HexID:   enc.Cell,
		Round:   game.Round,
		Entries: entries,
	}
	if err := s.reportRepo.Save(ctx, report); err != nil {
		return err
	}

	destroyedIDs := make([]string, 0, len(result.Destroyed))
	for _, u := range result.Destroyed {
		destroyedIDs = append(destroyedIDs, u.ID)
	}
	survivorHP := make(map[string]int)
	for _, u := range enc.Units {
		if u.Alive() {
			survivorHP[u.ID] = u.HP
		}
	}
	if err := s.boardRepo.ApplyCombatOutcome(ctx, destroyedIDs, survivorHP); err != nil {
		return err
	}

	for faction, points := range result.Awards {
		if pid := faction.PlayerID(); pid != "" && points > 0 {
			if err := s.gameRepo.AddVictoryPoints(ctx, pid, points); err != nil {
				return err
			}
		}
	}

	log.Info().Str("gameId", game.ID).Str("hex", enc.Cell).
		Str("winner", result.Winner).
		Int("destroyed", len(destroyedIDs)).
		Msg("Encounter resolved")
	s.broadcaster.BroadcastGameEvent(game.ID, "combat_resolved", map[string]any{
		"hex_id":    enc.Cell,
		"winner":    result.Winner,
		"destroyed": destroyedIDs,
		"report_id": report.ID,
	})
	return nil
}

// Reports returns combat reports for a game, optionally filtered to one
// round (round < 0 means all rounds).
func (s *CombatService) Reports(ctx context.Context, gameID string, round int) ([]model.CombatReport, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if round < 0 {
		return s.reportRepo.ListByGame(ctx, gameID)
	}
	return s.reportRepo.ListByRound(ctx, gameID, round)
}
