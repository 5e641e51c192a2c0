package category

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/pkg/numerator"
)

// Service provides business logic for the Category catalog.
type Service struct {
	*domain.CatalogService[*Category]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Category service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "category",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeDelete(svc.ensureNoChildren)

	return svc
}

// prepareForCreate generates a code if not provided.
func (s *Service) prepareForCreate(ctx context.Context, c *Category) error {
	if c.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, c.TenantID, numerator.DefaultConfig("CAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}
	return nil
}

// ensureNoChildren blocks deleting a category that still has subcategories.
func (s *Service) ensureNoChildren(ctx context.Context, c *Category) error {
	children, err := s.repo.GetTree(ctx, c.TenantID, &c.ID)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return apperror.NewConflict("category has subcategories").
			WithDetail("category_id", c.ID.String()).
			WithDetail("children", len(children))
	}
	return nil
}
