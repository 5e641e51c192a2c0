package purchase

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

// Receipt summarizes one receiving call.
type Receipt struct {
	ItemID id.ID `json:"itemId"`

	// Requested is what the caller asked for; Received is the clamped
	// quantity actually put on stock
	Requested types.Quantity `json:"requested"`
	Received  types.Quantity `json:"received"`

	// Status of the document after the receipt
	Status Status `json:"status"`
}

// LineFailure records a per-line error from ReceiveAllItems.
type LineFailure struct {
	ItemID id.ID  `json:"itemId"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// ReceiveAllResult aggregates the outcome of receiving every open line.
type ReceiveAllResult struct {
	Receipts []Receipt     `json:"receipts"`
	Failures []LineFailure `json:"failures"`
	Status   Status        `json:"status"`
}

// Service provides business operations for purchase documents.
type Service struct {
	repo      Repository
	stock     *stock.Service
	numerator *numerator.Service
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Purchase]
	audit     domain.ChangeRecorder
}

// NewService creates a purchase service.
func NewService(repo Repository, stockSvc *stock.Service, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		numerator: num,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Purchase](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Purchase] {
	return s.hooks
}

// WithAudit attaches a change recorder. Transitions and receipts are
// recorded in the same transaction as the document update.
func (s *Service) WithAudit(rec domain.ChangeRecorder) *Service {
	s.audit = rec
	return s
}

func (s *Service) recordAudit(ctx context.Context, doc *Purchase, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, doc.TenantID, "purchase", doc.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit record failed", "entity", "purchase", "error", err)
	}
}

// Create creates a new purchase document with its lines.
func (s *Service) Create(ctx context.Context, doc *Purchase) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, doc.TenantID, numerator.DefaultConfig("PO"), nil, doc.Date)
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

	logger.Info(ctx, "purchase created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a purchase with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("purchase", docID.String())
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

// Update updates a purchase that has not started receiving.
func (s *Service) Update(ctx context.Context, doc *Purchase) error {
	if !doc.CanModify() {
		return apperror.NewBusinessRule("PURCHASE_LOCKED",
			"purchase can no longer be modified").
			WithDetail("status", string(doc.Status))
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a purchase. Barred once any line has receipts.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.HasReceipts() {
		return apperror.NewBusinessRule("PURCHASE_HAS_RECEIPTS",
			"cannot delete a purchase with received goods").
			WithDetail("purchase_id", docID.String())
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, docID)
	})
}

// Confirm makes the purchase receivable.
func (s *Service) Confirm(ctx context.Context, docID id.ID) error {
	return s.mutate(ctx, docID, (*Purchase).Confirm)
}

// Submit moves a draft to pending.
func (s *Service) Submit(ctx context.Context, docID id.ID) error {
	return s.mutate(ctx, docID, (*Purchase).Submit)
}

// Cancel aborts a purchase without receipts.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	return s.mutate(ctx, docID, (*Purchase).Cancel)
}

func (s *Service) mutate(ctx context.Context, docID id.ID, fn func(*Purchase) error) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}
		s.recordAudit(ctx, doc, "status_change", map[string]any{"status": string(doc.Status)})
		return nil
	})
}

// ReceiveItem receives goods against one line. The requested quantity is
// clamped to the line remainder; the clamped amount goes on stock, the
// ledger and the line in one transaction, and the document status is
// recomputed from the line aggregates.
func (s *Service) ReceiveItem(ctx context.Context, purchaseID, itemID id.ID, requested types.Quantity, actorID id.ID) (*Receipt, error) {
	if !requested.IsPositive() {
		return nil, apperror.NewValidation("requested quantity must be positive").
			WithDetail("quantity", requested.String())
	}

	var receipt *Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, purchaseID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("purchase", purchaseID.String())
			}
			return err
		}

		lines, err := s.repo.GetLines(ctx, purchaseID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if !doc.CanReceiveItems() {
			return apperror.NewPurchaseNotReceivable(purchaseID.String(), string(doc.Status))
		}

		item := doc.FindLine(itemID)
		if item == nil {
			return apperror.NewNotFound("purchase item", itemID.String())
		}

		remainder := item.Remainder()
		if !remainder.IsPositive() {
			return apperror.NewLineFullyReceived(itemID.String())
		}

		actual := requested
		if actual > remainder {
			actual = remainder
		}

		target := stock.Target{
			WarehouseID: doc.WarehouseID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
		}
		note := fmt.Sprintf("receipt against %s", doc.Number)
		if _, err := s.stock.Apply(ctx, doc.TenantID, target, actual, func(before types.Quantity) (entity.Movement, error) {
			return ledger.NewPurchaseMovement(doc.TenantID, target.WarehouseID, target.ProductID, target.VariantID,
				before, actual, doc.ID, actorID, note)
		}); err != nil {
			return err
		}

		item.QuantityReceived += actual
		if err := s.repo.UpdateLine(ctx, doc.ID, item); err != nil {
			return fmt.Errorf("update line: %w", err)
		}

		doc.RecomputeStatus(time.Now())
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		s.recordAudit(ctx, doc, "receive", map[string]any{
			"item_id":  itemID.String(),
			"received": actual.String(),
			"status":   string(doc.Status),
		})

		receipt = &Receipt{
			ItemID:    itemID,
			Requested: requested,
			Received:  actual,
			Status:    doc.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase item received",
		"purchase_id", purchaseID.String(),
		"item_id", itemID.String(),
		"received", receipt.Received.String(),
		"status", string(receipt.Status))

	return receipt, nil
}

// ReceiveAllItems receives the open remainder of every line. Lines are
// processed independently; a failing line is recorded and the rest
// proceed.
func (s *Service) ReceiveAllItems(ctx context.Context, purchaseID id.ID, actorID id.ID) (*ReceiveAllResult, error) {
	doc, err := s.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if !doc.CanReceiveItems() {
		return nil, apperror.NewPurchaseNotReceivable(purchaseID.String(), string(doc.Status))
	}

	result := &ReceiveAllResult{}
	for _, line := range doc.Lines {
		remainder := line.Remainder()
		if !remainder.IsPositive() {
			continue
		}

		receipt, err := s.ReceiveItem(ctx, purchaseID, line.ID, remainder, actorID)
		if err != nil {
			result.Failures = append(result.Failures, LineFailure{
				ItemID: line.ID,
				Err:    err,
				Reason: err.Error(),
			})
			continue
		}
		result.Receipts = append(result.Receipts, *receipt)
		result.Status = receipt.Status
	}

	if result.Status == "" {
		result.Status = doc.Status
	}
	return result, nil
}

// RecordPayment registers a partial or full supplier payment.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, amount types.Money) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.RecordPayment(amount); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
}

// MarkPaid settles the purchase in full.
func (s *Service) MarkPaid(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.MarkPaid()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
}

// List retrieves purchases with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, filter)
}
