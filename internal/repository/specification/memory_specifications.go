package specification

import "gorm.io/gorm"

type BySession struct {
	Session string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session = ?", s.Session)
}

type ByTextHashes struct {
	Hashes []string
}

func (s ByTextHashes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("text_hash IN ?", s.Hashes)
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// InsertionOrder sorts oldest first with a stable tiebreak
type InsertionOrder struct{}

func (s InsertionOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
