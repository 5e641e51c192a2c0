package ledger

import (
	"context"
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	movements  []entity.Movement
	lastFilter HistoryFilter
}

func (r *memRepo) Insert(ctx context.Context, m *entity.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memRepo) InsertBatch(ctx context.Context, ms []entity.Movement) error {
	r.movements = append(r.movements, ms...)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, tenantID, movementID id.ID) (*entity.Movement, error) {
	for i := range r.movements {
		if r.movements[i].TenantID == tenantID && r.movements[i].ID == movementID {
			cp := r.movements[i]
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID.String())
}

func (r *memRepo) HasReversal(ctx context.Context, tenantID, movementID id.ID) (bool, error) {
	for i := range r.movements {
		m := &r.movements[i]
		if m.TenantID == tenantID && m.ReferenceKind == entity.ReferenceReversal &&
			m.ReferenceID != nil && *m.ReferenceID == movementID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) List(ctx context.Context, f HistoryFilter) ([]entity.Movement, error) {
	r.lastFilter = f
	var out []entity.Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].TenantID == f.TenantID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memRepo) SumChange(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, until time.Time) (types.Quantity, error) {
	var total types.Quantity
	for i := range r.movements {
		m := &r.movements[i]
		if m.TenantID == tenantID && m.WarehouseID == warehouseID && m.ProductID == productID &&
			!m.CreatedAt.After(until) {
			total += m.QuantityChange
		}
	}
	return total, nil
}

// memCounters clamps at zero like the real counter store.
type memCounters struct {
	quantities map[id.ID]types.Quantity // keyed by product id, enough for tests
}

func newMemCounters() *memCounters {
	return &memCounters{quantities: make(map[id.ID]types.Quantity)}
}

func (c *memCounters) ApplyDelta(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, delta types.Quantity) (types.Quantity, error) {
	before := c.quantities[productID]
	applied := delta
	if applied.IsNegative() && before+applied < 0 {
		applied = before.Neg()
	}
	c.quantities[productID] = before + applied
	return before, nil
}

func newTestService() (*Service, *memRepo, *memCounters) {
	repo := &memRepo{}
	counters := newMemCounters()
	return NewService(repo, counters, nopTx{}), repo, counters
}

func TestRecord_RejectsInconsistentSnapshot(t *testing.T) {
	svc, repo, _ := newTestService()

	m, err := NewAdjustment(id.New(), id.New(), id.New(), nil, qty(10), qty(2), id.New(), "count")
	if err != nil {
		t.Fatalf("NewAdjustment failed: %v", err)
	}
	m.QuantityAfter = qty(99)

	if err := svc.Record(context.Background(), &m); err == nil {
		t.Fatal("Record must reject an inconsistent snapshot")
	}
	if len(repo.movements) != 0 {
		t.Error("nothing may be appended on rejection")
	}
}

func TestRecord_AppendsConsistent(t *testing.T) {
	svc, repo, _ := newTestService()

	m, err := NewPurchaseMovement(id.New(), id.New(), id.New(), nil, qty(0), qty(12), id.New(), id.New(), "receipt")
	if err != nil {
		t.Fatalf("NewPurchaseMovement failed: %v", err)
	}
	if err := svc.Record(context.Background(), &m); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(repo.movements) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(repo.movements))
	}
}

func TestReverse_ManualAdjustment(t *testing.T) {
	svc, repo, counters := newTestService()
	ctx := context.Background()
	tenantID := id.New()
	productID := id.New()

	original, err := NewAdjustment(tenantID, id.New(), productID, nil, qty(0), qty(5), id.New(), "found extra units")
	if err != nil {
		t.Fatalf("NewAdjustment failed: %v", err)
	}
	repo.movements = append(repo.movements, original)
	counters.quantities[productID] = qty(5)

	rev, err := svc.Reverse(ctx, tenantID, original.ID, "miscounted", id.New())
	if err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}

	if rev.QuantityBefore != qty(5) || rev.QuantityChange != qty(-5) || rev.QuantityAfter != qty(0) {
		t.Errorf("reversal snapshot = %s/%s/%s, want 5/-5/0",
			rev.QuantityBefore, rev.QuantityChange, rev.QuantityAfter)
	}
	if rev.ReferenceKind != entity.ReferenceReversal || rev.ReferenceID == nil || *rev.ReferenceID != original.ID {
		t.Error("reversal must reference the original movement")
	}
	if counters.quantities[productID] != qty(0) {
		t.Errorf("counter = %s, want 0.0000", counters.quantities[productID])
	}
	if len(repo.movements) != 2 {
		t.Errorf("ledger rows = %d, want 2 (original is never touched)", len(repo.movements))
	}
}

func TestReverse_RefusedWhenStockDrawnDown(t *testing.T) {
	svc, repo, counters := newTestService()
	ctx := context.Background()
	tenantID := id.New()
	productID := id.New()

	original, err := NewAdjustment(tenantID, id.New(), productID, nil, qty(0), qty(5), id.New(), "found extra units")
	if err != nil {
		t.Fatalf("NewAdjustment failed: %v", err)
	}
	repo.movements = append(repo.movements, original)

	// Only 2 of the 5 adjusted units remain on hand.
	counters.quantities[productID] = qty(2)

	_, err = svc.Reverse(ctx, tenantID, original.ID, "miscounted", id.New())
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInsufficientStock {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInsufficientStock)
	}
	if len(repo.movements) != 1 {
		t.Errorf("ledger rows = %d, want 1 (a refused reversal appends nothing)", len(repo.movements))
	}
}

func TestReverse_DocumentDrivenRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	tenantID := id.New()

	sale, err := NewSaleMovement(tenantID, id.New(), id.New(), nil, qty(10), qty(2), id.New(), id.New(), "shipment")
	if err != nil {
		t.Fatalf("NewSaleMovement failed: %v", err)
	}
	repo.movements = append(repo.movements, sale)

	_, err = svc.Reverse(context.Background(), tenantID, sale.ID, "undo", id.New())
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeMovementNotReversible {
		t.Fatalf("err = %v, want %s", err, apperror.CodeMovementNotReversible)
	}
}

func TestReverse_OnlyOnce(t *testing.T) {
	svc, repo, counters := newTestService()
	ctx := context.Background()
	tenantID := id.New()
	productID := id.New()

	original, err := NewAdjustment(tenantID, id.New(), productID, nil, qty(0), qty(3), id.New(), "count")
	if err != nil {
		t.Fatalf("NewAdjustment failed: %v", err)
	}
	repo.movements = append(repo.movements, original)
	counters.quantities[productID] = qty(3)

	if _, err := svc.Reverse(ctx, tenantID, original.ID, "undo", id.New()); err != nil {
		t.Fatalf("first Reverse failed: %v", err)
	}

	_, err = svc.Reverse(ctx, tenantID, original.ID, "undo again", id.New())
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Fatalf("err = %v, want %s", err, apperror.CodeConflict)
	}
}

func TestHistory_DefaultsAndValidation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.History(ctx, HistoryFilter{}); err == nil {
		t.Error("History without tenant must fail")
	}

	if _, err := svc.History(ctx, HistoryFilter{TenantID: id.New()}); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if repo.lastFilter.Limit != 100 {
		t.Errorf("default limit = %d, want 100", repo.lastFilter.Limit)
	}
}

func TestMovementConstructors_NormalizeSigns(t *testing.T) {
	tenantID, warehouseID, productID := id.New(), id.New(), id.New()
	actorID := id.New()

	sale, err := NewSaleMovement(tenantID, warehouseID, productID, nil, qty(10), qty(4), id.New(), actorID, "")
	if err != nil {
		t.Fatalf("NewSaleMovement failed: %v", err)
	}
	if sale.QuantityChange != qty(-4) {
		t.Errorf("sale change = %s, want -4.0000", sale.QuantityChange)
	}

	purchase, err := NewPurchaseMovement(tenantID, warehouseID, productID, nil, qty(0), qty(-4), id.New(), actorID, "")
	if err != nil {
		t.Fatalf("NewPurchaseMovement failed: %v", err)
	}
	if purchase.QuantityChange != qty(4) {
		t.Errorf("purchase change = %s, want 4.0000", purchase.QuantityChange)
	}

	damaged, err := NewDamagedMovement(tenantID, warehouseID, productID, nil, qty(10), qty(1), actorID, "")
	if err != nil {
		t.Fatalf("NewDamagedMovement failed: %v", err)
	}
	if damaged.QuantityChange != qty(-1) {
		t.Errorf("damaged change = %s, want -1.0000", damaged.QuantityChange)
	}

	adj, err := NewAdjustment(tenantID, warehouseID, productID, nil, qty(10), qty(-3), actorID, "")
	if err != nil {
		t.Fatalf("NewAdjustment failed: %v", err)
	}
	if adj.QuantityChange != qty(-3) {
		t.Errorf("adjustment keeps the caller sign, got %s", adj.QuantityChange)
	}
}
