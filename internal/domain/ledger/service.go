package ledger

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/core/types"
	"stoka/pkg/logger"
)

// Service provides ledger operations: append, reverse, history and
// balance reconstruction.
type Service struct {
	repo      Repository
	counters  CounterStore
	txManager tx.Manager
}

// NewService creates a ledger service.
func NewService(repo Repository, counters CounterStore, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		counters:  counters,
		txManager: txManager,
	}
}

// Record appends a movement. The caller is expected to have computed the
// before snapshot under a counter lock; Record only verifies the triple.
func (s *Service) Record(ctx context.Context, m *entity.Movement) error {
	if !m.IsConsistent() {
		return apperror.NewValidation("movement snapshot is inconsistent").
			WithDetail("before", m.QuantityBefore.String()).
			WithDetail("change", m.QuantityChange.String()).
			WithDetail("after", m.QuantityAfter.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, m); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		return nil
	})
}

// RecordBatch appends many movements in one transaction.
func (s *Service) RecordBatch(ctx context.Context, ms []entity.Movement) error {
	for i := range ms {
		if !ms[i].IsConsistent() {
			return apperror.NewValidation("movement snapshot is inconsistent").
				WithDetail("index", i)
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertBatch(ctx, ms); err != nil {
			return fmt.Errorf("insert movements: %w", err)
		}
		return nil
	})
}

// GetByID retrieves one movement.
func (s *Service) GetByID(ctx context.Context, tenantID, movementID id.ID) (*entity.Movement, error) {
	m, err := s.repo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, err
	}
	return m, nil
}

// Reverse records a compensating movement for a hand-entered adjustment.
// Document-driven movements are corrected through their documents and
// return MOVEMENT_NOT_REVERSIBLE. A movement can be reversed once.
func (s *Service) Reverse(ctx context.Context, tenantID, movementID id.ID, reason string, actorID id.ID) (*entity.Movement, error) {
	original, err := s.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}

	if !original.CanReverse() {
		return nil, apperror.NewMovementNotReversible(original.ID.String(), string(original.Type))
	}

	reversed, err := s.repo.HasReversal(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}
	if reversed {
		return nil, apperror.NewConflict("movement is already reversed").
			WithDetail("movement_id", movementID.String())
	}

	var reversal entity.Movement
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock the counter first so the before snapshot and the counter
		// move together.
		delta := original.QuantityChange.Neg()
		before, err := s.counters.ApplyDelta(ctx, tenantID, original.WarehouseID, original.ProductID, original.VariantID, delta)
		if err != nil {
			return err
		}

		// The counter clamps at zero, but a reversal has to negate the
		// original exactly or the ledger and the counter diverge. Refuse
		// when the units are no longer on hand; the rollback restores
		// the counter.
		if delta.IsNegative() && before+delta < 0 {
			return apperror.NewInsufficientStock(original.ProductID.String(), delta.Neg().Float64(), before.Float64())
		}

		reversal, err = entity.NewMovement(
			tenantID,
			original.WarehouseID,
			original.ProductID,
			original.VariantID,
			entity.MovementTypeAdjustment,
			before,
			delta,
			entity.ReversalRef(original.ID),
			actorID,
			reason,
		)
		if err != nil {
			return err
		}

		return s.repo.Insert(ctx, &reversal)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement reversed",
		"movement_id", movementID.String(),
		"reversal_id", reversal.ID.String())

	return &reversal, nil
}

// History retrieves filtered movements, newest first.
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]entity.Movement, error) {
	if id.IsNil(f.TenantID) {
		return nil, apperror.NewValidation("tenant id is required")
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

// BalanceAt reconstructs the on-hand quantity for a dimension at a given
// instant by summing the ledger.
func (s *Service) BalanceAt(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, at time.Time) (types.Quantity, error) {
	return s.repo.SumChange(ctx, tenantID, warehouseID, productID, variantID, at)
}
