package service

import (
	"context"

	"github.com/freeeve/second-dawn/internal/model"
	"github.com/freeeve/second-dawn/internal/repository"
)

// UpkeepRunner performs the end-of-round bookkeeping during the upkeep
// phase. Runners are applied in registration order; a failing runner
// aborts the phase advance.
type UpkeepRunner interface {
	Run(ctx context.Context, game *model.Game) error
}

// ResourceUpkeep credits each player's per-round income.
type ResourceUpkeep struct {
	resourceRepo repository.ResourceRepository
}

// NewResourceUpkeep creates a ResourceUpkeep.
func NewResourceUpkeep(resourceRepo repository.ResourceRepository) *ResourceUpkeep {
	return &ResourceUpkeep{resourceRepo: resourceRepo}
}

// Run accrues income for everyone in the game.
func (u *ResourceUpkeep) Run(ctx context.Context, game *model.Game) error {
	return u.resourceRepo.AccrueIncome(ctx, game.ID)
}
