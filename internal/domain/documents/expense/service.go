package expense

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/domain"
	"stoka/pkg/logger"
	"stoka/pkg/numerator"
)

// Service provides business operations for expense documents.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.ChangeRecorder
}

// NewService creates an expense service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// WithAudit attaches a change recorder. Decisions are recorded in the
// same transaction as the document update.
func (s *Service) WithAudit(rec domain.ChangeRecorder) *Service {
	s.audit = rec
	return s
}

func (s *Service) recordAudit(ctx context.Context, doc *Expense, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, doc.TenantID, "expense", doc.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit record failed", "entity", "expense", "error", err)
	}
}

// Create creates a pending expense.
func (s *Service) Create(ctx context.Context, doc *Expense) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, doc.TenantID, numerator.DefaultConfig("EXP"), nil, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "expense created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an expense.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Expense, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("expense", docID.String())
		}
		return nil, err
	}
	return doc, nil
}

// Approve rules in favour of a pending expense.
func (s *Service) Approve(ctx context.Context, expenseID, approverID id.ID) error {
	return s.decide(ctx, expenseID, "approve", func(e *Expense) error {
		return e.Approve(approverID, time.Now())
	})
}

// Reject rules against a pending expense with a reason.
func (s *Service) Reject(ctx context.Context, expenseID, approverID id.ID, reason string) error {
	return s.decide(ctx, expenseID, "reject", func(e *Expense) error {
		return e.Reject(approverID, reason, time.Now())
	})
}

// MarkPaid settles an approved expense.
func (s *Service) MarkPaid(ctx context.Context, expenseID id.ID) error {
	return s.decide(ctx, expenseID, "status_change", func(e *Expense) error {
		return e.MarkPaid(time.Now())
	})
}

func (s *Service) decide(ctx context.Context, expenseID id.ID, action string, fn func(*Expense) error) error {
	doc, err := s.GetByID(ctx, expenseID)
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
		s.recordAudit(ctx, doc, action, map[string]any{"status": string(doc.Status)})
		return nil
	})
}

// Update edits a still-pending expense.
func (s *Service) Update(ctx context.Context, doc *Expense) error {
	if doc.IsDecided() {
		return apperror.NewBusinessRule("EXPENSE_DECIDED",
			"decided expenses cannot be edited").
			WithDetail("status", string(doc.Status))
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
}

// Delete soft-deletes a pending expense.
func (s *Service) Delete(ctx context.Context, expenseID id.ID) error {
	doc, err := s.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if doc.IsDecided() {
		return apperror.NewBusinessRule("EXPENSE_DECIDED",
			"decided expenses cannot be deleted").
			WithDetail("status", string(doc.Status))
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, expenseID)
	})
}

// List retrieves expenses with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	return s.repo.List(ctx, filter)
}
