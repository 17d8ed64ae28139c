package service

import (
	"context"
	"log/slog"

	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/store"
	"github.com/lehuagavin/genslides/internal/validation"
)

// CostService reports the generation ledger of a project.
type CostService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCostService creates a new cost service.
func NewCostService(st *store.Store, logger *slog.Logger) *CostService {
	return &CostService{store: st, logger: logger}
}

// Pricing returns the per-image prices the estimate is computed with.
func (s *CostService) Pricing() domain.Pricing {
	return s.store.Pricing()
}

// GetCost returns the ledger, creating the project on first access.
func (s *CostService) GetCost(ctx context.Context, slug string) (domain.CostInfo, error) {
	if err := validation.Identifier("slug", slug); err != nil {
		return domain.CostInfo{}, err
	}
	p, err := s.store.GetOrCreate(ctx, slug)
	if err != nil {
		return domain.CostInfo{}, storeError(err, slug)
	}
	return p.Cost, nil
}
