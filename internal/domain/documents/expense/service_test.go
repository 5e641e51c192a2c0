package expense

import (
	"context"
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
	"stoka/internal/domain"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memExpenseRepo struct {
	docs map[id.ID]*Expense
}

func newMemExpenseRepo() *memExpenseRepo {
	return &memExpenseRepo{docs: make(map[id.ID]*Expense)}
}

func (r *memExpenseRepo) Create(ctx context.Context, doc *Expense) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memExpenseRepo) GetByID(ctx context.Context, docID id.ID) (*Expense, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("expense", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memExpenseRepo) Update(ctx context.Context, doc *Expense) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("expense", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memExpenseRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *memExpenseRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	var result domain.ListResult[*Expense]
	for _, doc := range r.docs {
		cp := *doc
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func newTestExpense(t *testing.T, svc *Service) *Expense {
	t.Helper()
	doc := NewExpense(id.New(), "rent", types.MustMoney("1200.00"), time.Now())
	doc.Number = "EXP-000001"
	if err := svc.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return doc
}

func TestApprovalFlow(t *testing.T) {
	repo := newMemExpenseRepo()
	svc := NewService(repo, nil, nopTx{})
	ctx := context.Background()
	doc := newTestExpense(t, svc)
	approverID := id.New()

	if err := svc.Approve(ctx, doc.ID, approverID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	loaded, _ := svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusApproved {
		t.Errorf("status = %s, want approved", loaded.Status)
	}
	if loaded.ApproverID == nil || *loaded.ApproverID != approverID || loaded.DecidedAt == nil {
		t.Error("decision must record approver and timestamp")
	}

	// Approve is one-shot.
	err := svc.Approve(ctx, doc.ID, approverID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
	}

	if err := svc.MarkPaid(ctx, doc.ID); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	loaded, _ = svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusPaid || loaded.PaidAt == nil {
		t.Errorf("expense = %s/%v, want paid with a timestamp", loaded.Status, loaded.PaidAt)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	repo := newMemExpenseRepo()
	svc := NewService(repo, nil, nopTx{})
	ctx := context.Background()
	doc := newTestExpense(t, svc)

	if err := svc.Reject(ctx, doc.ID, id.New(), ""); err == nil {
		t.Error("Reject without a reason must fail")
	}

	if err := svc.Reject(ctx, doc.ID, id.New(), "no receipt attached"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	loaded, _ := svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", loaded.Status)
	}
	if loaded.RejectionReason == nil || *loaded.RejectionReason != "no receipt attached" {
		t.Error("rejection reason must be stored")
	}

	// Rejected expenses can never be paid.
	if err := svc.MarkPaid(ctx, doc.ID); err == nil {
		t.Error("MarkPaid on a rejected expense must fail")
	}
}

func TestMarkPaid_RequiresApproval(t *testing.T) {
	repo := newMemExpenseRepo()
	svc := NewService(repo, nil, nopTx{})
	doc := newTestExpense(t, svc)

	err := svc.MarkPaid(context.Background(), doc.ID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
	}
}

func TestDecidedExpensesAreFrozen(t *testing.T) {
	repo := newMemExpenseRepo()
	svc := NewService(repo, nil, nopTx{})
	ctx := context.Background()
	doc := newTestExpense(t, svc)

	if err := svc.Approve(ctx, doc.ID, id.New()); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	loaded, _ := svc.GetByID(ctx, doc.ID)

	err := svc.Update(ctx, loaded)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "EXPENSE_DECIDED" {
		t.Fatalf("Update err = %v, want EXPENSE_DECIDED", err)
	}

	err = svc.Delete(ctx, doc.ID)
	appErr, ok = apperror.AsAppError(err)
	if !ok || appErr.Code != "EXPENSE_DECIDED" {
		t.Fatalf("Delete err = %v, want EXPENSE_DECIDED", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo := newMemExpenseRepo()
	svc := NewService(repo, nil, nopTx{})
	ctx := context.Background()

	doc := NewExpense(id.New(), "", types.MustMoney("10.00"), time.Now())
	doc.Number = "EXP-000002"
	if err := svc.Create(ctx, doc); err == nil {
		t.Error("Create without category must fail")
	}

	doc = NewExpense(id.New(), "transport", types.MustMoney("0"), time.Now())
	doc.Number = "EXP-000003"
	if err := svc.Create(ctx, doc); err == nil {
		t.Error("Create with zero amount must fail")
	}
}

type trailEntry struct {
	tenantID   id.ID
	entityType string
	entityID   id.ID
	action     string
}

type memTrail struct {
	entries []trailEntry
}

func (a *memTrail) RecordChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action string, changes map[string]any) error {
	a.entries = append(a.entries, trailEntry{tenantID, entityType, entityID, action})
	return nil
}

func TestDecisions_RecordAuditTrail(t *testing.T) {
	repo := newMemExpenseRepo()
	trail := &memTrail{}
	svc := NewService(repo, nil, nopTx{}).WithAudit(trail)
	ctx := context.Background()

	doc := newTestExpense(t, svc)

	approverID := id.New()
	if err := svc.Approve(ctx, doc.ID, approverID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := svc.MarkPaid(ctx, doc.ID); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	if len(trail.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(trail.entries))
	}
	if trail.entries[0].action != "approve" || trail.entries[0].entityID != doc.ID {
		t.Errorf("first entry = %+v, want an approve record", trail.entries[0])
	}
	if trail.entries[1].action != "status_change" || trail.entries[1].entityType != "expense" {
		t.Errorf("second entry = %+v, want a status_change record", trail.entries[1])
	}
	if trail.entries[0].tenantID != doc.TenantID {
		t.Errorf("tenant = %s, want %s", trail.entries[0].tenantID, doc.TenantID)
	}
}
