package service

import "sync"

// GameLocks serializes state transitions per game. Turn submission,
// forced phase advances from the timer, and retreats can all race on
// the same game row; everything that mutates a game takes its lock.
type GameLocks struct {
	locks sync.Map
}

// NewGameLocks creates a GameLocks.
func NewGameLocks() *GameLocks {
	return &GameLocks{}
}

// Lock returns the mutex for a given game ID.
func (g *GameLocks) Lock(gameID string) *sync.Mutex {
	v, _ := g.locks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
