package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/second-dawn/internal/repository"
)

// TimerListener listens for Redis keyspace notifications on expired timer
// keys and force-advances the phase when a game's deadline passes. Also
// runs a polling fallback to catch expirations if keyspace notifications
// are unavailable.
type TimerListener struct {
	rdb      *redis.Client
	phaseSvc *PhaseService
	gameRepo repository.GameRepository
}

// NewTimerListener creates a TimerListener.
func NewTimerListener(rdb *redis.Client, phaseSvc *PhaseService, gameRepo repository.GameRepository) *TimerListener {
	return &TimerListener{rdb: rdb, phaseSvc: phaseSvc, gameRepo: gameRepo}
}

// Start begins listening for expired key events and runs a polling fallback.
func (t *TimerListener) Start(ctx context.Context) {
	go t.listenKeyspace(ctx)
	t.pollExpiredDeadlines(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollExpiredDeadlines periodically checks for games past their phase
// deadline and advances them.
func (t *TimerListener) pollExpiredDeadlines(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("Phase deadline poller started (10s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Phase deadline poller stopped")
			return
		case <-ticker.C:
			t.checkExpiredDeadlines(ctx)
		}
	}
}

// checkExpiredDeadlines finds active games past their deadline and
// force-advances them.
func (t *TimerListener) checkExpiredDeadlines(ctx context.Context) {
	games, err := t.gameRepo.ListPhaseExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired phase deadlines")
		return
	}
	if len(games) > 0 {
		log.Info().Int("count", len(games)).Msg("Poller found expired phase deadlines")
	}
	for _, g := range games {
		log.Info().Str("gameId", g.ID).Str("phase", g.Phase).Int("round", g.Round).Msg("Poller advancing expired phase")
		if err := t.phaseSvc.ForceAdvance(ctx, g.ID); err != nil {
			log.Error().Err(err).Str("gameId", g.ID).Msg("Phase advance failed from poller")
		}
	}
}

// handleExpiry processes an expired key. Only acts on game timer keys.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "game:") || !strings.HasSuffix(key, ":timer") {
		return
	}

	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return
	}
	gameID := parts[1]

	log.Info().Str("gameId", gameID).Msg("Timer expired, forcing phase advance")
	if err := t.phaseSvc.ForceAdvance(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Phase advance failed after timer expiry")
	}
}
