package order

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/core/types"
	"stoka/internal/domain"
	"stoka/internal/domain/ledger"
	"stoka/internal/domain/stock"
	"stoka/pkg/logger"
	"stoka/pkg/numerator"
)

// Service provides business operations for order documents.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator *numerator.Service
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Order]
	audit     domain.ChangeRecorder
}

// NewService creates an order service.
func NewService(repo Repository, stockSvc *stock.Service, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		numerator: num,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Order](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// WithAudit attaches a change recorder. Lifecycle transitions are
// recorded in the same transaction as the document update.
func (s *Service) WithAudit(rec domain.ChangeRecorder) *Service {
	s.audit = rec
	return s
}

func (s *Service) recordAudit(ctx context.Context, doc *Order, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, doc.TenantID, "order", doc.ID, "status_change", changes); err != nil {
		logger.Warn(ctx, "audit record failed", "entity", "order", "error", err)
	}
}

// Create creates a new order with its lines.
func (s *Service) Create(ctx context.Context, doc *Order) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, doc.TenantID, numerator.DefaultConfig("ORD"), nil, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "order created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", docID.String())
		}
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// StartProcessing moves a pending order to processing.
func (s *Service) StartProcessing(ctx context.Context, orderID id.ID) error {
	doc, err := s.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := doc.StartProcessing(); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		s.recordAudit(ctx, doc, map[string]any{"status": string(doc.Status)})
		return nil
	})
}

// Ship consumes stock for every line with sale movements and stamps
// shipped_at, all in one transaction. Availability is checked under the
// counter lock before anything moves.
func (s *Service) Ship(ctx context.Context, orderID id.ID, actorID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("order", orderID.String())
			}
			return err
		}

		lines, err := s.repo.GetLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if err := doc.MarkShipped(time.Now()); err != nil {
			return err
		}

		for _, line := range doc.Lines {
			target := stock.Target{
				WarehouseID: doc.WarehouseID,
				ProductID:   line.ProductID,
				VariantID:   line.VariantID,
			}

			if err := s.stock.CheckAvailability(ctx, doc.TenantID, target, line.Quantity); err != nil {
				return err
			}

			qty := line.Quantity
			note := fmt.Sprintf("shipment for %s", doc.Number)
			if _, err := s.stock.Apply(ctx, doc.TenantID, target, qty.Neg(), func(before types.Quantity) (entity.Movement, error) {
				return ledger.NewSaleMovement(doc.TenantID, target.WarehouseID, target.ProductID, target.VariantID,
					before, qty, doc.ID, actorID, note)
			}); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		s.recordAudit(ctx, doc, map[string]any{"status": string(doc.Status)})

		logger.Info(ctx, "order shipped", "id", doc.ID, "number", doc.Number)
		return nil
	})
}

// Deliver marks a shipped order as delivered.
func (s *Service) Deliver(ctx context.Context, orderID id.ID) error {
	doc, err := s.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := doc.MarkDelivered(time.Now()); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		s.recordAudit(ctx, doc, map[string]any{"status": string(doc.Status)})
		return nil
	})
}

// Cancel aborts the order. A shipped order restocks every line with
// return movements in the same transaction.
func (s *Service) Cancel(ctx context.Context, orderID id.ID, actorID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("order", orderID.String())
			}
			return err
		}

		lines, err := s.repo.GetLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		wasShipped := doc.Status == StatusShipped
		if err := doc.MarkCancelled(); err != nil {
			return err
		}

		if wasShipped {
			for _, line := range doc.Lines {
				target := stock.Target{
					WarehouseID: doc.WarehouseID,
					ProductID:   line.ProductID,
					VariantID:   line.VariantID,
				}
				qty := line.Quantity
				note := fmt.Sprintf("restock from cancelled %s", doc.Number)
				if _, err := s.stock.Apply(ctx, doc.TenantID, target, qty, func(before types.Quantity) (entity.Movement, error) {
					return ledger.NewReturnMovement(doc.TenantID, target.WarehouseID, target.ProductID, target.VariantID,
						before, qty, doc.ID, actorID, note)
				}); err != nil {
					return err
				}
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		s.recordAudit(ctx, doc, map[string]any{
			"status":    string(doc.Status),
			"restocked": wasShipped,
		})

		logger.Info(ctx, "order cancelled",
			"id", doc.ID, "number", doc.Number, "restocked", wasShipped)
		return nil
	})
}

// Refund refunds a delivered order and restocks every line with return
// movements.
func (s *Service) Refund(ctx context.Context, orderID id.ID, actorID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("order", orderID.String())
			}
			return err
		}

		lines, err := s.repo.GetLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if err := doc.MarkRefunded(); err != nil {
			return err
		}

		for _, line := range doc.Lines {
			target := stock.Target{
				WarehouseID: doc.WarehouseID,
				ProductID:   line.ProductID,
				VariantID:   line.VariantID,
			}
			qty := line.Quantity
			note := fmt.Sprintf("return from refunded %s", doc.Number)
			if _, err := s.stock.Apply(ctx, doc.TenantID, target, qty, func(before types.Quantity) (entity.Movement, error) {
				return ledger.NewReturnMovement(doc.TenantID, target.WarehouseID, target.ProductID, target.VariantID,
					before, qty, doc.ID, actorID, note)
			}); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		s.recordAudit(ctx, doc, map[string]any{"status": string(doc.Status)})
		return nil
	})
}

// MarkPaid settles the customer payment.
func (s *Service) MarkPaid(ctx context.Context, orderID id.ID) error {
	doc, err := s.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	doc.MarkPaid()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
