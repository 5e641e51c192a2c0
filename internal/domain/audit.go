package domain

import (
	"context"

	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// ChangeRecorder persists one audit trail record for a mutated entity.
// The postgres audit service implements it; services treat a nil recorder
// as auditing disabled.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Auditable is the entity surface the audit hooks need.
type Auditable interface {
	GetID() id.ID
	GetTenantID() id.ID
}

// RegisterAuditHooks subscribes after-mutation hooks that write an audit
// record for every create, update and delete of a catalog entity. Hooks
// run after the transaction commits, so a failed record is logged by the
// catalog service rather than undoing the change.
func RegisterAuditHooks[T interface {
	entity.Validatable
	Auditable
}](svc *CatalogService[T], rec ChangeRecorder) {
	hook := func(action string) Hook[T] {
		return func(ctx context.Context, e T) error {
			return rec.RecordChange(ctx, e.GetTenantID(), svc.entityName, e.GetID(), action,
				map[string]any{"state": e})
		}
	}

	svc.Hooks().On(AfterCreate, hook("create"))
	svc.Hooks().On(AfterUpdate, hook("update"))
	svc.Hooks().On(AfterDelete, hook("delete"))
}
