package specification

import "gorm.io/gorm"

// ByScopeKey filters chat messages by their session scope
// (tenant_id:user_email:session_id).
type ByScopeKey struct {
	ScopeKey string
}

func (s ByScopeKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope_key = ?", s.ScopeKey)
}
