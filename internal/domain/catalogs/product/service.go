package product

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

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code and enforces SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, p.TenantID, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.TenantID, p.SKU)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	return nil
}

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*Product, error) {
	p, err := s.repo.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// FindByBarcode retrieves a product by barcode.
func (s *Service) FindByBarcode(ctx context.Context, tenantID id.ID, barcode string) (*Product, error) {
	p, err := s.repo.FindByBarcode(ctx, tenantID, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}
	return p, nil
}

// FindLowStock retrieves products below their reorder level.
func (s *Service) FindLowStock(ctx context.Context, tenantID id.ID) ([]*Product, error) {
	return s.repo.FindLowStock(ctx, tenantID)
}

// Deactivate marks a product as not sellable without deleting it.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	p, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	p.Active = false
	return s.Update(ctx, p)
}
