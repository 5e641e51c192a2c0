package brand

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/pkg/numerator"
)

// Service provides business logic for the Brand catalog.
type Service struct {
	*domain.CatalogService[*Brand]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Brand service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Brand]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "brand",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, b *Brand) error {
	if b.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, b.TenantID, numerator.DefaultConfig("BR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		b.Code = code
	}
	return nil
}
