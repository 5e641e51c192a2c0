package stock

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/core/types"
	"stoka/internal/domain/ledger"
	"stoka/pkg/logger"
)

// MovementBuilder constructs the ledger row once the counter lock is
// held and the before snapshot is known.
type MovementBuilder func(before types.Quantity) (entity.Movement, error)

// Service maintains stock counters and keeps the ledger in lockstep.
type Service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	txManager  tx.Manager
}

// NewService creates a stock service.
func NewService(repo Repository, ledgerRepo ledger.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
	}
}

// Apply locks the counter, applies the signed change (clamped so the
// counter never goes below zero), appends the ledger row built by the
// caller and persists the counter. One transaction end to end; nested
// calls join the caller's transaction.
//
// The returned movement carries the clamped change; a change that clamps
// to zero appends nothing and returns nil.
func (s *Service) Apply(ctx context.Context, tenantID id.ID, t Target, change types.Quantity, build MovementBuilder) (*entity.Movement, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var recorded *entity.Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.repo.GetForUpdate(ctx, tenantID, t)
		if err != nil {
			return fmt.Errorf("lock stock counter: %w", err)
		}

		before := level.Quantity
		applied := change
		if applied.IsNegative() && before+applied < 0 {
			applied = before.Neg()
		}
		if applied.IsZero() {
			return nil
		}

		m, err := build(before)
		if err != nil {
			return err
		}
		// The builder may have been constructed with the requested
		// change; rebuild the triple with the clamped value.
		m.QuantityChange = applied
		m.QuantityAfter = before + applied

		if err := s.ledgerRepo.Insert(ctx, &m); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		level.Quantity = before + applied
		level.LastMovementAt = m.CreatedAt
		level.UpdatedAt = time.Now().UTC()
		if err := s.repo.Save(ctx, level); err != nil {
			return fmt.Errorf("save stock counter: %w", err)
		}

		recorded = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// AddStock increases the counter by a positive quantity and records a
// manual adjustment.
func (s *Service) AddStock(ctx context.Context, tenantID id.ID, t Target, qty types.Quantity, reason string, actorID id.ID) (*entity.Movement, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.String())
	}
	return s.Apply(ctx, tenantID, t, qty, func(before types.Quantity) (entity.Movement, error) {
		return ledger.NewAdjustment(tenantID, t.WarehouseID, t.ProductID, t.VariantID, before, qty, actorID, reason)
	})
}

// ReduceStock decreases the counter by a positive quantity, clamped at
// zero, and records a manual adjustment.
func (s *Service) ReduceStock(ctx context.Context, tenantID id.ID, t Target, qty types.Quantity, reason string, actorID id.ID) (*entity.Movement, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.String())
	}
	return s.Apply(ctx, tenantID, t, qty.Neg(), func(before types.Quantity) (entity.Movement, error) {
		return ledger.NewAdjustment(tenantID, t.WarehouseID, t.ProductID, t.VariantID, before, qty.Neg(), actorID, reason)
	})
}

// SetStock moves the counter to an absolute value and records the
// difference as a manual adjustment.
func (s *Service) SetStock(ctx context.Context, tenantID id.ID, t Target, newQuantity types.Quantity, reason string, actorID id.ID) (*entity.Movement, error) {
	if newQuantity.IsNegative() {
		return nil, apperror.NewValidation("quantity cannot be negative").
			WithDetail("quantity", newQuantity.String())
	}

	var recorded *entity.Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.repo.GetForUpdate(ctx, tenantID, t)
		if err != nil {
			return fmt.Errorf("lock stock counter: %w", err)
		}

		change := newQuantity - level.Quantity
		if change.IsZero() {
			return nil
		}

		m, err := ledger.NewAdjustment(tenantID, t.WarehouseID, t.ProductID, t.VariantID, level.Quantity, change, actorID, reason)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.Insert(ctx, &m); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}

		level.Quantity = newQuantity
		level.LastMovementAt = m.CreatedAt
		level.UpdatedAt = time.Now().UTC()
		if err := s.repo.Save(ctx, level); err != nil {
			return fmt.Errorf("save stock counter: %w", err)
		}

		recorded = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if recorded != nil {
		logger.Debug(ctx, "stock set",
			"product_id", t.ProductID.String(),
			"quantity", newQuantity.String())
	}
	return recorded, nil
}

// CheckAvailability verifies under a pessimistic lock that at least the
// required quantity is on hand. Call inside the transaction that will
// consume the stock.
func (s *Service) CheckAvailability(ctx context.Context, tenantID id.ID, t Target, required types.Quantity) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.repo.GetForUpdate(ctx, tenantID, t)
		if err != nil {
			return fmt.Errorf("lock stock counter: %w", err)
		}
		if level.Quantity < required {
			return apperror.NewInsufficientStock(t.ProductID.String(), required.Float64(), level.Quantity.Float64())
		}
		return nil
	})
}

// OnHand reads the counter without locking.
func (s *Service) OnHand(ctx context.Context, tenantID id.ID, t Target) (types.Quantity, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	level, err := s.repo.Get(ctx, tenantID, t)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return level.Quantity, nil
}

// TotalOnHand sums a product's counters across warehouses.
func (s *Service) TotalOnHand(ctx context.Context, tenantID, productID id.ID) (types.Quantity, error) {
	return s.repo.TotalOnHand(ctx, tenantID, productID)
}
