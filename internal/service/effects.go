package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freeeve/second-dawn/internal/loadout"
	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
	"github.com/freeeve/second-dawn/pkg/hexgrid"
)

// EffectHandler validates the board-level consequence of one action type
// and returns the moves it would make. Handlers never write: the returned
// moves are applied in the same transaction that records the action, so a
// failed submission changes nothing at all.
type EffectHandler interface {
	Apply(ctx context.Context, game *model.Game, player *model.Player, payload json.RawMessage) ([]model.ShipMove, error)
}

// EffectRegistry maps action types to their handlers. Action types with
// no handler are recorded in the log without touching the board.
type EffectRegistry struct {
	handlers map[string]EffectHandler
}

// NewEffectRegistry creates a registry with the standard handlers wired.
func NewEffectRegistry(boardRepo repository.BoardRepository) *EffectRegistry {
	return &EffectRegistry{
		handlers: map[string]EffectHandler{
			model.ActionMove: &MoveEffect{boardRepo: boardRepo},
		},
	}
}

// Register adds or replaces the handler for an action type.
func (r *EffectRegistry) Register(actionType string, h EffectHandler) {
	r.handlers[actionType] = h
}

// Apply runs the handler for an action type, if one is registered, and
// returns the board moves to commit alongside the action.
func (r *EffectRegistry) Apply(ctx context.Context, game *model.Game, player *model.Player, actionType string, payload json.RawMessage) ([]model.ShipMove, error) {
	h, ok := r.handlers[actionType]
	if !ok {
		return nil, nil
	}
	moves, err := h.Apply(ctx, game, player, payload)
	if err != nil {
		return nil, &EffectError{ActionType: actionType, Err: err}
	}
	return moves, nil
}

// MovePayload is the request body of a move action.
type MovePayload struct {
	ShipID  string `json:"ship_id"`
	ToHexID string `json:"to_hex_id"`
}

// MoveEffect relocates one of the player's ships along wormhole
// connections, up to the ship's drive range.
type MoveEffect struct {
	boardRepo repository.BoardRepository
}

// Apply validates a ship move and returns it as a pending board change.
func (e *MoveEffect) Apply(ctx context.Context, game *model.Game, player *model.Player, payload json.RawMessage) ([]model.ShipMove, error) {
	var p MovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if p.ShipID == "" || p.ToHexID == "" {
		return nil, fmt.Errorf("%w: ship_id and to_hex_id are required", ErrInvalidAction)
	}

	ship, err := e.boardRepo.FindShip(ctx, p.ShipID)
	if err != nil {
		return nil, err
	}
	if ship == nil || ship.GameID != game.ID {
		return nil, ErrShipNotFound
	}
	if ship.PlayerID != player.ID {
		return nil, ErrNotYourShip
	}
	if ship.HexID == "" {
		return nil, fmt.Errorf("%w: ship is not on the board", ErrInvalidAction)
	}

	dest, err := e.boardRepo.FindTile(ctx, p.ToHexID)
	if err != nil {
		return nil, err
	}
	if dest == nil || dest.GameID != game.ID {
		return nil, ErrHexNotFound
	}

	tiles, err := e.boardRepo.ListTiles(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	stats := shipStats(ctx, e.boardRepo, ship)
	if stats.Movement < 1 {
		return nil, fmt.Errorf("%w: ship has no drive", ErrInvalidAction)
	}
	if !reachable(tiles, ship.HexID, dest.ID, stats.Movement) {
		return nil, fmt.Errorf("%w: no wormhole path within drive range", ErrInvalidAction)
	}
	return []model.ShipMove{{ShipID: ship.ID, ToHexID: dest.ID}}, nil
}

// shipStats derives a ship's profile from its owner's blueprint, falling
// back to the fixed ancient profiles and then the bare-hull defaults.
func shipStats(ctx context.Context, boardRepo repository.BoardRepository, ship *model.Ship) loadout.Stats {
	if ship.IsAncient {
		if ship.ShipType == "gcds" {
			return loadout.GalacticCenterDefense()
		}
		return loadout.AncientInterceptor()
	}
	bp, err := boardRepo.BlueprintFor(ctx, ship.PlayerID, ship.ShipType)
	if err != nil || bp == nil {
		return loadout.Default()
	}
	return loadout.FromSlots(ship.ShipType, bp.Slots)
}

// reachable walks the wormhole graph breadth-first from the source hex
// and reports whether dest is within maxHops connected hops. Two tiles
// connect only when both sides of the shared edge carry a wormhole.
func reachable(tiles []model.HexTile, fromHexID, destHexID string, maxHops int) bool {
	if fromHexID == destHexID {
		return false
	}
	byCoord := make(map[hexgrid.Coord]*model.HexTile, len(tiles))
	byID := make(map[string]*model.HexTile, len(tiles))
	for i := range tiles {
		t := &tiles[i]
		byCoord[hexgrid.Coord{Q: t.Q, R: t.R}] = t
		byID[t.ID] = t
	}
	start, ok := byID[fromHexID]
	if !ok {
		return false
	}

	type node struct {
		tile *model.HexTile
		dist int
	}
	visited := map[string]bool{start.ID: true}
	queue := []node{{tile: start, dist: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.dist >= maxHops {
			continue
		}
		from := hexgrid.Coord{Q: cur.tile.Q, R: cur.tile.R}
		for _, nb := range from.Neighbors() {
			next, ok := byCoord[nb]
			if !ok || visited[next.ID] {
				continue
			}
			if !hexgrid.WormholeConnected(from, hexgrid.WormholeMask(cur.tile.Wormholes), nb, hexgrid.WormholeMask(next.Wormholes)) {
				continue
			}
			if next.ID == destHexID {
				return true
			}
			visited[next.ID] = true
			queue = append(queue, node{tile: next, dist: cur.dist + 1})
		}
	}
	return false
}

// IsEffectError reports whether err came from an effect handler.
func IsEffectError(err error) bool {
	var ee *EffectError
	return errors.As(err, &ee)
}
