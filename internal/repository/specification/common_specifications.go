package specification

import "gorm.io/gorm"

// Specification is one composable piece of a query
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
