package models

import "time"

// OperationalSetting is a mutable key/value row for pricing and other
// portal-wide knobs. Missing rows are recovered through hardcoded
// fallbacks, never treated as errors.
type OperationalSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
