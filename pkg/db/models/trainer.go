package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trainer is the staff roster entry whose monthly rate prices the
// personal trainer addon.
type Trainer struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string          `gorm:"column:name;not null"`
	Specialization *string         `gorm:"column:specialization"`
	MonthlyRate    decimal.Decimal `gorm:"column:monthly_rate;type:numeric(12,2);not null"`
	Active         bool            `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
