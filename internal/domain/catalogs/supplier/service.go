package supplier

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/pkg/numerator"
)

// Service provides business logic for the Supplier catalog.
type Service struct {
	*domain.CatalogService[*Supplier]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Supplier service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "supplier",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, sup *Supplier) error {
	if sup.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, sup.TenantID, numerator.DefaultConfig("SUP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sup.Code = code
	}
	return nil
}

// FindActive retrieves all active suppliers for a tenant.
func (s *Service) FindActive(ctx context.Context, tenantID id.ID) ([]*Supplier, error) {
	return s.repo.FindActive(ctx, tenantID)
}

// Deactivate marks a supplier as inactive without deleting it.
func (s *Service) Deactivate(ctx context.Context, supplierID id.ID) error {
	sup, err := s.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	sup.Active = false
	return s.Update(ctx, sup)
}
