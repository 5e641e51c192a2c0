package domain

import (
	"context"
	"testing"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memCatalogRepo struct {
	items map[id.ID]*entity.Catalog
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{items: make(map[id.ID]*entity.Catalog)}
}

func (r *memCatalogRepo) Create(ctx context.Context, c *entity.Catalog) error {
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *memCatalogRepo) GetByID(ctx context.Context, catalogID id.ID) (*entity.Catalog, error) {
	c, ok := r.items[catalogID]
	if !ok {
		return nil, apperror.NewNotFound("catalog", catalogID.String())
	}
	cp := *c
	return &cp, nil
}

func (r *memCatalogRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*entity.Catalog, error) {
	for _, c := range r.items {
		if c.TenantID == tenantID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("catalog", code)
}

func (r *memCatalogRepo) Update(ctx context.Context, c *entity.Catalog) error {
	if _, ok := r.items[c.ID]; !ok {
		return apperror.NewNotFound("catalog", c.ID.String())
	}
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *memCatalogRepo) Delete(ctx context.Context, catalogID id.ID) error {
	return r.SetDeletionMark(ctx, catalogID, true)
}

func (r *memCatalogRepo) SetDeletionMark(ctx context.Context, catalogID id.ID, marked bool) error {
	c, ok := r.items[catalogID]
	if !ok {
		return apperror.NewNotFound("catalog", catalogID.String())
	}
	c.DeletionMark = marked
	return nil
}

func (r *memCatalogRepo) List(ctx context.Context, f ListFilter) (ListResult[*entity.Catalog], error) {
	var result ListResult[*entity.Catalog]
	for _, c := range r.items {
		if c.TenantID != f.TenantID {
			continue
		}
		cp := *c
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *memCatalogRepo) Exists(ctx context.Context, catalogID id.ID) (bool, error) {
	_, ok := r.items[catalogID]
	return ok, nil
}

func (r *memCatalogRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	_, err := r.GetByCode(ctx, tenantID, code)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *memCatalogRepo) GetTree(ctx context.Context, tenantID id.ID, rootID *id.ID) ([]*entity.Catalog, error) {
	return nil, nil
}

func (r *memCatalogRepo) GetPath(ctx context.Context, catalogID id.ID) ([]*entity.Catalog, error) {
	return nil, nil
}

type auditEntry struct {
	tenantID   id.ID
	entityType string
	entityID   id.ID
	action     string
}

type memRecorder struct {
	entries []auditEntry
}

func (r *memRecorder) RecordChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action string, changes map[string]any) error {
	r.entries = append(r.entries, auditEntry{tenantID, entityType, entityID, action})
	return nil
}

func TestRegisterAuditHooks_RecordsMutations(t *testing.T) {
	repo := newMemCatalogRepo()
	rec := &memRecorder{}
	svc := NewCatalogService(CatalogServiceConfig[*entity.Catalog]{
		Repo:       repo,
		TxManager:  nopTx{},
		EntityName: "category",
	})
	RegisterAuditHooks(svc, rec)

	ctx := context.Background()
	tenantID := id.New()

	c := entity.NewCatalog(tenantID, "CAT-001", "Apparel")
	if err := svc.Create(ctx, &c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c.Name = "Apparel & Footwear"
	if err := svc.Update(ctx, &c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	want := []string{"create", "update", "delete"}
	if len(rec.entries) != len(want) {
		t.Fatalf("audit entries = %d, want %d", len(rec.entries), len(want))
	}
	for i, e := range rec.entries {
		if e.action != want[i] {
			t.Errorf("entry %d action = %q, want %q", i, e.action, want[i])
		}
		if e.tenantID != tenantID || e.entityID != c.ID || e.entityType != "category" {
			t.Errorf("entry %d = %+v, wrong tenant, id or type", i, e)
		}
	}
}

func TestCatalogService_CreateRejectsInvalid(t *testing.T) {
	repo := newMemCatalogRepo()
	rec := &memRecorder{}
	svc := NewCatalogService(CatalogServiceConfig[*entity.Catalog]{
		Repo:       repo,
		TxManager:  nopTx{},
		EntityName: "category",
	})
	RegisterAuditHooks(svc, rec)

	c := entity.NewCatalog(id.New(), "CAT-002", "")
	if err := svc.Create(context.Background(), &c); err == nil {
		t.Fatal("Create must reject an entity without a name")
	}
	if len(rec.entries) != 0 {
		t.Errorf("audit entries = %d, want 0 for a rejected create", len(rec.entries))
	}
}
