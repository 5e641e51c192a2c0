package productvariant

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/internal/domain/catalogs/product"
	"stoka/pkg/numerator"
)

// Service provides business logic for the ProductVariant catalog.
type Service struct {
	*domain.CatalogService[*ProductVariant]
	repo        Repository
	productRepo product.Repository
	txManager   tx.Manager
	numerator   *numerator.Service
}

// NewService creates a new ProductVariant service.
func NewService(repo Repository, productRepo product.Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*ProductVariant]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "product variant",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		productRepo:    productRepo,
		txManager:      txManager,
		numerator:      num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnAfterCreate(svc.flagParentProduct)

	return svc
}

// prepareForCreate generates a code, checks the parent product and
// enforces SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, v *ProductVariant) error {
	if v.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, v.TenantID, numerator.DefaultConfig("VAR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		v.Code = code
	}

	parent, err := s.productRepo.GetByID(ctx, v.ProductID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("product", v.ProductID.String())
		}
		return err
	}
	if parent.TenantID != v.TenantID {
		return apperror.NewNotFound("product", v.ProductID.String())
	}

	exists, err := s.repo.ExistsBySKU(ctx, v.TenantID, v.SKU)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product variant", "sku", v.SKU)
	}

	return nil
}

// flagParentProduct marks the parent product as variant-carrying after the
// first variant is created.
func (s *Service) flagParentProduct(ctx context.Context, v *ProductVariant) error {
	parent, err := s.productRepo.GetByID(ctx, v.ProductID)
	if err != nil {
		return err
	}
	if parent.HasVariants {
		return nil
	}
	parent.HasVariants = true
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.productRepo.Update(ctx, parent)
	})
}

// FindByProduct retrieves all variants of a product.
func (s *Service) FindByProduct(ctx context.Context, tenantID, productID id.ID) ([]*ProductVariant, error) {
	return s.repo.FindByProduct(ctx, tenantID, productID)
}

// FindBySKU retrieves a variant by SKU.
func (s *Service) FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*ProductVariant, error) {
	v, err := s.repo.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product variant", sku)
		}
		return nil, err
	}
	return v, nil
}
