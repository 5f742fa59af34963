package service

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotLobby   = errors.New("game is not in lobby status")
	ErrGameNotActive  = errors.New("game is not active")
	ErrGameFull       = errors.New("game is full")
	ErrNotEnough      = errors.New("need at least 2 players to start")
	ErrNotHost        = errors.New("only the host can do this")
	ErrAlreadyJoined  = errors.New("already joined this game")
	ErrNotInGame      = errors.New("you are not in this game")
	ErrInviteNotFound = errors.New("invite not found")

	ErrWrongPhase     = errors.New("action not allowed in this phase")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrAlreadyPassed  = errors.New("you have already passed this round")
	ErrInvalidAction  = errors.New("invalid action")
	ErrShipNotFound   = errors.New("ship not found")
	ErrHexNotFound    = errors.New("hex not found")
	ErrNotYourShip    = errors.New("ship belongs to another player")
	ErrInvalidRetreat = errors.New("invalid retreat")
)

// EffectError wraps a failure from an action's effect handler. The
// submission is rejected without recording anything, and the underlying
// cause stays reachable through errors.Is / errors.As.
type EffectError struct {
	ActionType string
	Err        error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("%s effect failed: %v", e.ActionType, e.Err)
}

func (e *EffectError) Unwrap() error { return e.Err }
