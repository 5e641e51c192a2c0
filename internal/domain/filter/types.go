// Package filter provides declarative query scopes compiled to SQL by the
// repositories. Callers describe conditions as data; no SQL leaks into the
// domain layer.
package filter

// ComparisonType enumerates supported comparison operators.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	Greater        ComparisonType = "gt"
	LessOrEqual    ComparisonType = "lte"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%

	// Hierarchical operators (group or any subgroup)
	InHierarchy    ComparisonType = "in_hierarchy"
	NotInHierarchy ComparisonType = "nin_hierarchy"

	IsNull    ComparisonType = "null"
	IsNotNull ComparisonType = "not_null"
)

// Item is a single filter condition.
type Item struct {
	Field    string         `json:"field"`    // column name (snake_case)
	Operator ComparisonType `json:"operator"` // comparison kind
	Value    any            `json:"value"`    // scalar or list, depending on operator
}
