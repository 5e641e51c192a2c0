package warehouse

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/pkg/numerator"
)

// Service provides business logic for the Warehouse catalog.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo      Repository
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and the default flag.
func (s *Service) prepareForCreate(ctx context.Context, wh *Warehouse) error {
	if wh.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, wh.TenantID, numerator.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}

	// Only one location per tenant may be the default.
	if wh.IsDefault {
		if err := s.repo.ClearDefault(ctx, wh.TenantID); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, wh *Warehouse) error {
	if wh.IsDefault {
		if err := s.repo.ClearDefault(ctx, wh.TenantID); err != nil {
			return err
		}
	}
	return nil
}

// --- Entity-specific methods ---

// FindDefault returns the tenant's default location.
func (s *Service) FindDefault(ctx context.Context, tenantID id.ID) (*Warehouse, error) {
	return s.repo.FindDefault(ctx, tenantID)
}

// FindActive retrieves all active locations for a tenant.
func (s *Service) FindActive(ctx context.Context, tenantID id.ID) ([]*Warehouse, error) {
	return s.repo.FindActive(ctx, tenantID)
}

// SetDefault makes the given location the tenant's default, clearing the
// flag on the previous one in the same transaction.
func (s *Service) SetDefault(ctx context.Context, warehouseID id.ID) error {
	wh, err := s.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}

	if !wh.Active {
		return apperror.NewBusinessRule("WAREHOUSE_INACTIVE", "inactive location cannot be the default").
			WithDetail("warehouseId", warehouseID.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.ClearDefault(ctx, wh.TenantID); err != nil {
			return err
		}
		wh.IsDefault = true
		return s.repo.Update(ctx, wh)
	})
}

// Deactivate marks a location as inactive without deleting it.
func (s *Service) Deactivate(ctx context.Context, warehouseID id.ID) error {
	wh, err := s.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	wh.Active = false
	wh.IsDefault = false
	return s.Update(ctx, wh)
}
