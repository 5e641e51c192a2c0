package purchase

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

type memPurchaseRepo struct {
	docs  map[id.ID]*Purchase
	lines map[id.ID][]PurchaseItem
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		docs:  make(map[id.ID]*Purchase),
		lines: make(map[id.ID][]PurchaseItem),
	}
}

func (r *memPurchaseRepo) store(doc *Purchase) {
	cp := *doc
	cp.Lines = nil
	r.docs[doc.ID] = &cp
}

func (r *memPurchaseRepo) Create(ctx context.Context, doc *Purchase) error {
	r.store(doc)
	return nil
}

func (r *memPurchaseRepo) GetByID(ctx context.Context, docID id.ID) (*Purchase, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memPurchaseRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Purchase, error) {
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("purchase", number)
}

func (r *memPurchaseRepo) Update(ctx context.Context, doc *Purchase) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("purchase", doc.ID.String())
	}
	r.store(doc)
	return nil
}

func (r *memPurchaseRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memPurchaseRepo) GetLines(ctx context.Context, docID id.ID) ([]PurchaseItem, error) {
	out := make([]PurchaseItem, len(r.lines[docID]))
	copy(out, r.lines[docID])
	return out, nil
}

func (r *memPurchaseRepo) SaveLines(ctx context.Context, docID id.ID, lines []PurchaseItem) error {
	cp := make([]PurchaseItem, len(lines))
	copy(cp, lines)
	r.lines[docID] = cp
	return nil
}

func (r *memPurchaseRepo) UpdateLine(ctx context.Context, docID id.ID, line *PurchaseItem) error {
	stored := r.lines[docID]
	for i := range stored {
		if stored[i].ID == line.ID {
			stored[i] = *line
			return nil
		}
	}
	return apperror.NewNotFound("purchase item", line.ID.String())
}

func (r *memPurchaseRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	var result domain.ListResult[*Purchase]
	for _, doc := range r.docs {
		cp := *doc
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *memPurchaseRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Purchase, error) {
	return r.GetByID(ctx, docID)
}

// In-memory stock backing for the real stock service.

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
	repo     *memPurchaseRepo
	ledger   *stubLedgerRepo

	tenantID    id.ID
	supplierID  id.ID
	warehouseID id.ID
	actorID     id.ID
}

func newFixture() *fixture {
	repo := newMemPurchaseRepo()
	stockRepo := newStubStockRepo()
	ledgerRepo := &stubLedgerRepo{}
	stockSvc := stock.NewService(stockRepo, ledgerRepo, nopTx{})

	return &fixture{
		svc:         NewService(repo, stockSvc, nil, nopTx{}),
		stockSvc:    stockSvc,
		repo:        repo,
		ledger:      ledgerRepo,
		tenantID:    id.New(),
		supplierID:  id.New(),
		warehouseID: id.New(),
		actorID:     id.New(),
	}
}

// confirmedPurchase creates a confirmed one-line purchase and returns it
// with lines loaded.
func (f *fixture) confirmedPurchase(t *testing.T, ordered types.Quantity) *Purchase {
	t.Helper()
	ctx := context.Background()

	doc := NewPurchase(f.tenantID, f.supplierID, f.warehouseID)
	doc.Number = "PO-000001"
	doc.AddLine(id.New(), nil, ordered, types.MustMoney("2.50"))

	if err := f.svc.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.svc.Confirm(ctx, doc.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	loaded, err := f.svc.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return loaded
}

func TestReceiveItem_PartialThenClampCompletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.confirmedPurchase(t, qty(10))
	line := doc.Lines[0]

	receipt, err := f.svc.ReceiveItem(ctx, doc.ID, line.ID, qty(4), f.actorID)
	if err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}
	if receipt.Received != qty(4) || receipt.Status != StatusPartiallyReceived {
		t.Errorf("receipt = %s/%s, want 4.0000/partially_received", receipt.Received, receipt.Status)
	}

	target := stock.Target{WarehouseID: doc.WarehouseID, ProductID: line.ProductID}
	onHand, _ := f.stockSvc.OnHand(ctx, f.tenantID, target)
	if onHand != qty(4) {
		t.Errorf("on hand = %s, want 4.0000", onHand)
	}

	// Over-request clamps to the remainder.
	receipt, err = f.svc.ReceiveItem(ctx, doc.ID, line.ID, qty(100), f.actorID)
	if err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}
	if receipt.Requested != qty(100) || receipt.Received != qty(6) {
		t.Errorf("receipt = %s/%s, want requested 100.0000 received 6.0000", receipt.Requested, receipt.Received)
	}
	if receipt.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", receipt.Status)
	}

	onHand, _ = f.stockSvc.OnHand(ctx, f.tenantID, target)
	if onHand != qty(10) {
		t.Errorf("on hand = %s, received must never exceed ordered", onHand)
	}

	loaded, err := f.svc.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if loaded.Lines[0].QuantityReceived != qty(10) {
		t.Errorf("line received = %s, want 10.0000", loaded.Lines[0].QuantityReceived)
	}
	if loaded.ActualDeliveryDate == nil {
		t.Error("delivery date must be stamped on completion")
	}

	// Completed purchases stop receiving.
	_, err = f.svc.ReceiveItem(ctx, doc.ID, line.ID, qty(1), f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodePurchaseNotReceivable {
		t.Fatalf("err = %v, want %s", err, apperror.CodePurchaseNotReceivable)
	}
}

func TestReceiveItem_FullyReceivedLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := NewPurchase(f.tenantID, f.supplierID, f.warehouseID)
	doc.Number = "PO-000002"
	doc.AddLine(id.New(), nil, qty(5), types.MustMoney("1.00"))
	doc.AddLine(id.New(), nil, qty(8), types.MustMoney("1.00"))
	if err := f.svc.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.svc.Confirm(ctx, doc.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	receipt, err := f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(5), f.actorID)
	if err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}
	if receipt.Status != StatusPartiallyReceived {
		t.Errorf("status = %s, want partially_received with one open line", receipt.Status)
	}

	// The document is only partially received, but this line is done.
	_, err = f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(1), f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeLineFullyReceived {
		t.Fatalf("err = %v, want %s", err, apperror.CodeLineFullyReceived)
	}
}

func TestReceiveItem_RequiresReceivableStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := NewPurchase(f.tenantID, f.supplierID, f.warehouseID)
	doc.Number = "PO-000003"
	doc.AddLine(id.New(), nil, qty(10), types.MustMoney("1.00"))
	if err := f.svc.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(1), f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodePurchaseNotReceivable {
		t.Fatalf("err = %v, want %s", err, apperror.CodePurchaseNotReceivable)
	}

	if _, err := f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(0), f.actorID); err == nil {
		t.Error("zero requested quantity must fail")
	}
}

func TestReceiveAllItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	productA, productB := id.New(), id.New()
	doc := NewPurchase(f.tenantID, f.supplierID, f.warehouseID)
	doc.Number = "PO-000004"
	doc.AddLine(productA, nil, qty(10), types.MustMoney("1.00"))
	doc.AddLine(productB, nil, qty(5), types.MustMoney("1.00"))
	if err := f.svc.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.svc.Confirm(ctx, doc.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	// Pre-existing stock just adds up.
	targetA := stock.Target{WarehouseID: f.warehouseID, ProductID: productA}
	if _, err := f.stockSvc.AddStock(ctx, f.tenantID, targetA, qty(100), "opening stock", f.actorID); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}

	// First line already fully received; only the second has a remainder.
	if _, err := f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(10), f.actorID); err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}

	result, err := f.svc.ReceiveAllItems(ctx, doc.ID, f.actorID)
	if err != nil {
		t.Fatalf("ReceiveAllItems failed: %v", err)
	}
	if len(result.Receipts) != 1 || len(result.Failures) != 0 {
		t.Fatalf("receipts/failures = %d/%d, want 1/0", len(result.Receipts), len(result.Failures))
	}
	if result.Receipts[0].Received != qty(5) {
		t.Errorf("received = %s, want 5.0000", result.Receipts[0].Received)
	}
	if result.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}

	onHand, _ := f.stockSvc.OnHand(ctx, f.tenantID, targetA)
	if onHand != qty(110) {
		t.Errorf("on hand = %s, want 110.0000", onHand)
	}

	// The completed document stops receiving; nothing moves twice.
	_, err = f.svc.ReceiveAllItems(ctx, doc.ID, f.actorID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodePurchaseNotReceivable {
		t.Fatalf("err = %v, want %s", err, apperror.CodePurchaseNotReceivable)
	}
	onHand, _ = f.stockSvc.OnHand(ctx, f.tenantID, targetA)
	if onHand != qty(110) {
		t.Errorf("on hand = %s after repeat call, want 110.0000", onHand)
	}

	// Every receipt landed in the ledger as a purchase movement.
	var purchaseRows int
	for i := range f.ledger.movements {
		m := &f.ledger.movements[i]
		if m.Type != entity.MovementTypePurchase {
			continue
		}
		purchaseRows++
		if m.ReferenceKind != entity.ReferencePurchase || m.ReferenceID == nil || *m.ReferenceID != doc.ID {
			t.Error("purchase movement must reference the document")
		}
		if !m.IsConsistent() {
			t.Error("purchase movement snapshot inconsistent")
		}
	}
	if purchaseRows != 2 {
		t.Errorf("purchase movements = %d, want 2", purchaseRows)
	}
}

func TestCancel_ViaServiceAfterReceipts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.confirmedPurchase(t, qty(10))

	if _, err := f.svc.ReceiveItem(ctx, doc.ID, doc.Lines[0].ID, qty(2), f.actorID); err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}

	err := f.svc.Cancel(ctx, doc.ID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "PURCHASE_HAS_RECEIPTS" {
		t.Fatalf("err = %v, want PURCHASE_HAS_RECEIPTS", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := NewPurchase(f.tenantID, f.supplierID, f.warehouseID)
	doc.Number = "PO-000005"
	if err := f.svc.Create(ctx, doc); err == nil {
		t.Error("Create without lines must fail")
	}

	doc = NewPurchase(f.tenantID, id.Nil(), f.warehouseID)
	doc.Number = "PO-000006"
	doc.AddLine(id.New(), nil, qty(1), types.MustMoney("1.00"))
	if err := f.svc.Create(ctx, doc); err == nil {
		t.Error("Create without supplier must fail")
	}
}

func TestUpdate_LockedAfterReceipts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.confirmedPurchase(t, qty(10))

	err := f.svc.Update(ctx, doc)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "PURCHASE_LOCKED" {
		t.Fatalf("err = %v, want PURCHASE_LOCKED", err)
	}
}

type trailEntry struct {
	tenantID   id.ID
	entityType string
	entityID   id.ID
	action     string
	changes    map[string]any
}

type memTrail struct {
	entries []trailEntry
}

func (a *memTrail) RecordChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action string, changes map[string]any) error {
	a.entries = append(a.entries, trailEntry{tenantID, entityType, entityID, action, changes})
	return nil
}

func TestAuditTrail_TransitionsAndReceipts(t *testing.T) {
	f := newFixture()
	trail := &memTrail{}
	f.svc.WithAudit(trail)
	ctx := context.Background()

	doc := f.confirmedPurchase(t, qty(10))
	line := doc.Lines[0]

	if _, err := f.svc.ReceiveItem(ctx, doc.ID, line.ID, qty(10), f.actorID); err != nil {
		t.Fatalf("ReceiveItem failed: %v", err)
	}

	if len(trail.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2 (confirm + receive)", len(trail.entries))
	}

	confirm := trail.entries[0]
	if confirm.action != "status_change" || confirm.changes["status"] != string(StatusConfirmed) {
		t.Errorf("first entry = %s %v, want status_change to confirmed", confirm.action, confirm.changes)
	}

	receive := trail.entries[1]
	if receive.action != "receive" || receive.entityID != doc.ID || receive.tenantID != f.tenantID {
		t.Errorf("second entry = %+v, want a receive record for the purchase", receive)
	}
	if receive.entityType != "purchase" {
		t.Errorf("entity type = %q, want purchase", receive.entityType)
	}
	if receive.changes["status"] != string(StatusCompleted) {
		t.Errorf("receive status = %v, want completed", receive.changes["status"])
	}
}
