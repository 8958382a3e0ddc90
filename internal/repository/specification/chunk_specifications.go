package specification

import "gorm.io/gorm"

// ByTenantID filters rows by tenant.
type ByTenantID struct {
	TenantID string
}

func (s ByTenantID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}
