package category

import (
	"stoka/internal/domain"
)

// Repository defines the interface for Category persistence.
type Repository interface {
	domain.CatalogRepository[*Category]
}
