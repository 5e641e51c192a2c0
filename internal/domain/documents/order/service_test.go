package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
	"stoka/internal/domain"
	"stoka/internal/domain/ledger"
	"stoka/internal/domain/stock"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memOrderRepo struct {
	docs  map[id.ID]*Order
	lines map[id.ID][]OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		docs:  make(map[id.ID]*Order),
		lines: make(map[id.ID][]OrderItem),
	}
}

func (r *memOrderRepo) store(doc *Order) {
	cp := *doc
	cp.Lines = nil
	r.docs[doc.ID] = &cp
}

func (r *memOrderRepo) Create(ctx context.Context, doc *Order) error {
	r.store(doc)
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("order", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memOrderRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Order, error) {
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (r *memOrderRepo) Update(ctx context.Context, doc *Order) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("order", doc.ID.String())
	}
	r.store(doc)
	return nil
}

func (r *memOrderRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]OrderItem, error) {
	out := make([]OrderItem, len(r.lines[docID]))
	copy(out, r.lines[docID])
	return out, nil
}

func (r *memOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []OrderItem) error {
	cp := make([]OrderItem, len(lines))
	copy(cp, lines)
	r.lines[docID] = cp
	return nil
}

func (r *memOrderRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	var result domain.ListResult[*Order]
	for _, doc := range r.docs {
		cp := *doc
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *memOrderRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Order, error) {
	return r.GetByID(ctx, docID)
}

func stubKey(tenantID id.ID, t stock.Target) string {
	variant := ""
	if t.VariantID != nil {
		variant = t.VariantID.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s", tenantID, t.WarehouseID, t.ProductID, variant)
}

type stubStockRepo struct {
	levels map[string]*entity.StockLevel
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{levels: make(map[string]*entity.StockLevel)}
}

func (r *stubStockRepo) Get(ctx context.Context, tenantID id.ID, t stock.Target) (*entity.StockLevel, error) {
	level, ok := r.levels[stubKey(tenantID, t)]
	if !ok {
		return nil, apperror.NewNotFound("stock level", t.ProductID.String())
	}
	cp := *level
	return &cp, nil
}

func (r *stubStockRepo) GetForUpdate(ctx context.Context, tenantID id.ID, t stock.Target) (*entity.StockLevel, error) {
	key := stubKey(tenantID, t)
	if level, ok := r.levels[key]; ok {
		cp := *level
		return &cp, nil
	}
	level := &entity.StockLevel{
		TenantID:    tenantID,
		WarehouseID: t.WarehouseID,
		ProductID:   t.ProductID,
		VariantID:   t.VariantID,
	}
	r.levels[key] = level
	cp := *level
	return &cp, nil
}

func (r *stubStockRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	t := stock.Target{WarehouseID: level.WarehouseID, ProductID: level.ProductID, VariantID: level.VariantID}
	cp := *level
	r.levels[stubKey(level.TenantID, t)] = &cp
	return nil
}

func (r *stubStockRepo) ListByWarehouse(ctx context.Context, tenantID, warehouseID id.ID) ([]entity.StockLevel, error) {
	return nil, nil
}

func (r *stubStockRepo) ListByProduct(ctx context.Context, tenantID, productID id.ID) ([]entity.StockLevel, error) {
	return nil, nil
}

func (r *stubStockRepo) TotalOnHand(ctx context.Context, tenantID, productID id.ID) (types.Quantity, error) {
	var total types.Quantity
	for _, level := range r.levels {
		if level.TenantID == tenantID && level.ProductID == productID {
			total += level.Quantity
		}
	}
	return total, nil
}

type stubLedgerRepo struct {
	movements []entity.Movement
}

func (r *stubLedgerRepo) Insert(ctx context.Context, m *entity.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubLedgerRepo) InsertBatch(ctx context.Context, ms []entity.Movement) error {
	r.movements = append(r.movements, ms...)
	return nil
}

func (r *stubLedgerRepo) GetByID(ctx context.Context, tenantID, movementID id.ID) (*entity.Movement, error) {
	return nil, apperror.NewNotFound("movement", movementID.String())
}

func (r *stubLedgerRepo) HasReversal(ctx context.Context, tenantID, movementID id.ID) (bool, error) {
	return false, nil
}

func (r *stubLedgerRepo) List(ctx context.Context, f ledger.HistoryFilter) ([]entity.Movement, error) {
	return nil, nil
}

func (r *stubLedgerRepo) SumChange(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, until time.Time) (types.Quantity, error) {
	return 0, nil
}

type fixture struct {
	svc      *Service
	stockSvc *stock.Service
	ledger   *stubLedgerRepo

	tenantID    id.ID
	warehouseID id.ID
	productID   id.ID
	actorID     id.ID
}

func newFixture() *fixture {
	ledgerRepo := &stubLedgerRepo{}
	stockSvc := stock.NewService(newStubStockRepo(), ledgerRepo, nopTx{})

	return &fixture{
		svc:         NewService(newMemOrderRepo(), stockSvc, nil, nopTx{}),
		stockSvc:    stockSvc,
		ledger:      ledgerRepo,
		tenantID:    id.New(),
		warehouseID: id.New(),
		productID:   id.New(),
		actorID:     id.New(),
	}
}

func (f *fixture) target() stock.Target {
	return stock.Target{WarehouseID: f.warehouseID, ProductID: f.productID}
}

// createOrder seeds the warehouse and creates a pending order for the
// given quantity.
func (f *fixture) createOrder(t *testing.T, onHand, ordered types.Quantity) *Order {
	t.Helper()
	ctx := context.Background()

	if onHand.IsPositive() {
		if _, err := f.stockSvc.AddStock(ctx, f.tenantID, f.target(), onHand, "opening stock", f.actorID); err != nil {
			t.Fatalf("AddStock failed: %v", err)
		}
	}

	doc := NewOrder(f.tenantID, f.warehouseID, "Alice Carter")
	doc.Number = "ORD-000001"
	doc.AddLine(f.productID, nil, ordered, types.MustMoney("24.99"))
	if err := f.svc.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return doc
}

func (f *fixture) onHand(t *testing.T) types.Quantity {
	t.Helper()
	q, err := f.stockSvc.OnHand(context.Background(), f.tenantID, f.target())
	if err != nil {
		t.Fatalf("OnHand failed: %v", err)
	}
	return q
}

func TestShip_ConsumesStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(10), qty(4))

	if err := f.svc.Ship(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}

	if got := f.onHand(t); got != qty(6) {
		t.Errorf("on hand = %s, want 6.0000", got)
	}

	loaded, err := f.svc.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Status != StatusShipped || loaded.ShippedAt == nil {
		t.Errorf("order = %s/%v, want shipped with a timestamp", loaded.Status, loaded.ShippedAt)
	}

	var sales int
	for i := range f.ledger.movements {
		m := &f.ledger.movements[i]
		if m.Type != entity.MovementTypeSale {
			continue
		}
		sales++
		if m.QuantityChange != qty(-4) {
			t.Errorf("sale change = %s, want -4.0000", m.QuantityChange)
		}
		if m.ReferenceKind != entity.ReferenceOrder || m.ReferenceID == nil || *m.ReferenceID != doc.ID {
			t.Error("sale movement must reference the order")
		}
	}
	if sales != 1 {
		t.Errorf("sale movements = %d, want 1", sales)
	}
}

func TestShip_InsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(2), qty(4))

	err := f.svc.Ship(ctx, doc.ID, f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInsufficientStock {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInsufficientStock)
	}

	if got := f.onHand(t); got != qty(2) {
		t.Errorf("on hand = %s, must be untouched", got)
	}

	loaded, _ := f.svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusPending {
		t.Errorf("status = %s, must stay pending", loaded.Status)
	}
}

func TestCancel_AfterShipRestocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(10), qty(4))

	if err := f.svc.Ship(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if err := f.svc.Cancel(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if got := f.onHand(t); got != qty(10) {
		t.Errorf("on hand = %s, want 10.0000 after restock", got)
	}

	loaded, _ := f.svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", loaded.Status)
	}

	var returns int
	for i := range f.ledger.movements {
		if f.ledger.movements[i].Type == entity.MovementTypeReturn {
			returns++
		}
	}
	if returns != 1 {
		t.Errorf("return movements = %d, want 1", returns)
	}
}

func TestCancel_BeforeShipTouchesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(10), qty(4))
	rowsBefore := len(f.ledger.movements)

	if err := f.svc.Cancel(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if got := f.onHand(t); got != qty(10) {
		t.Errorf("on hand = %s, want 10.0000", got)
	}
	if len(f.ledger.movements) != rowsBefore {
		t.Error("cancelling an unshipped order must not move stock")
	}
}

func TestRefund_RestocksDeliveredOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(10), qty(3))

	if err := f.svc.Ship(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}
	if err := f.svc.Deliver(ctx, doc.ID); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if err := f.svc.Refund(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Refund failed: %v", err)
	}

	if got := f.onHand(t); got != qty(10) {
		t.Errorf("on hand = %s, want 10.0000 after refund", got)
	}

	loaded, _ := f.svc.GetByID(ctx, doc.ID)
	if loaded.Status != StatusRefunded || loaded.PaymentStatus != PaymentRefunded {
		t.Errorf("order = %s/%s, want refunded/refunded", loaded.Status, loaded.PaymentStatus)
	}
}

func TestRefund_RequiresDelivery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.createOrder(t, qty(10), qty(3))

	err := f.svc.Refund(ctx, doc.ID, f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
	}
}

type trailEntry struct {
	tenantID id.ID
	entityID id.ID
	action   string
	changes  map[string]any
}

type memTrail struct {
	entries []trailEntry
}

func (a *memTrail) RecordChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action string, changes map[string]any) error {
	a.entries = append(a.entries, trailEntry{tenantID, entityID, action, changes})
	return nil
}

func TestShip_RecordsAuditTrail(t *testing.T) {
	f := newFixture()
	trail := &memTrail{}
	f.svc.WithAudit(trail)
	ctx := context.Background()

	doc := f.createOrder(t, qty(10), qty(4))

	if err := f.svc.Ship(ctx, doc.ID, f.actorID); err != nil {
		t.Fatalf("Ship failed: %v", err)
	}

	if len(trail.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(trail.entries))
	}
	entry := trail.entries[0]
	if entry.action != "status_change" || entry.entityID != doc.ID || entry.tenantID != f.tenantID {
		t.Errorf("entry = %+v, want a status_change record for the order", entry)
	}
	if entry.changes["status"] != string(StatusShipped) {
		t.Errorf("status = %v, want shipped", entry.changes["status"])
	}
}
