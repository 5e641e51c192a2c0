package entity

import (
	"context"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// TenantScoped is a trait for entities owned by a tenant.
// Every business entity in the shared database carries the owning
// tenant as a foreign key; queries must always filter on it.
type TenantScoped struct {
	TenantID id.ID `db:"tenant_id" json:"tenantId"`
}

// ValidateTenant ensures the owning tenant is set.
func (t *TenantScoped) ValidateTenant(ctx context.Context) error {
	if id.IsNil(t.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	return nil
}

// GetTenantID returns the owning tenant ID (useful for interfaces).
func (t *TenantScoped) GetTenantID() id.ID {
	return t.TenantID
}

// ITenantScoped is an interface for any entity owned by a tenant.
type ITenantScoped interface {
	GetTenantID() id.ID
	ValidateTenant(ctx context.Context) error
}
