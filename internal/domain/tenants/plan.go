package tenants

import (
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// SubscriptionPlan is a platform-wide plan definition. Plans are not
// tenant-scoped; every tenant references one by code.
type SubscriptionPlan struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the stable plan identifier (starter, business, ...)
	Code string `db:"code" json:"code"`

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`

	MonthlyPrice types.Money `db:"monthly_price" json:"monthlyPrice"`
	YearlyPrice  types.Money `db:"yearly_price" json:"yearlyPrice"`

	// Limits; zero means unlimited
	MaxUsers      int `db:"max_users" json:"maxUsers"`
	MaxWarehouses int `db:"max_warehouses" json:"maxWarehouses"`
	MaxProducts   int `db:"max_products" json:"maxProducts"`

	// FeatureCodes lists the features the plan includes
	FeatureCodes []string `db:"feature_codes" json:"featureCodes"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSubscriptionPlan creates a plan definition.
func NewSubscriptionPlan(code, name string, monthly, yearly types.Money) *SubscriptionPlan {
	now := time.Now().UTC()
	return &SubscriptionPlan{
		ID:           id.New(),
		Code:         code,
		Name:         name,
		MonthlyPrice: monthly,
		YearlyPrice:  yearly,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks plan invariants.
func (p *SubscriptionPlan) Validate() error {
	if p.Code == "" {
		return apperror.NewValidation("plan code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("plan name is required").WithDetail("field", "name")
	}
	if p.MonthlyPrice.IsNegative() || p.YearlyPrice.IsNegative() {
		return apperror.NewValidation("plan price cannot be negative")
	}
	if p.MaxUsers < 0 || p.MaxWarehouses < 0 || p.MaxProducts < 0 {
		return apperror.NewValidation("plan limits cannot be negative")
	}
	return nil
}

// Includes reports whether the plan carries the given feature code.
func (p *SubscriptionPlan) Includes(featureCode string) bool {
	for _, code := range p.FeatureCodes {
		if code == featureCode {
			return true
		}
	}
	return false
}
