package brand

import (
	"stoka/internal/domain"
)

// Repository defines the interface for Brand persistence.
type Repository interface {
	domain.CatalogRepository[*Brand]
}
