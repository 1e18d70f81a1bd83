package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Payment is an append-only record of a manually submitted payment.
// Purpose is set once at creation and never mutated; status moves only
// through the admin verification workflow.
type Payment struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	MembershipID int64  `gorm:"column:membership_id;not null;index"`
	TransactionID string `gorm:"column:transaction_id;not null"`

	PaymentDate    time.Time            `gorm:"column:payment_date;not null"`
	Amount         decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	ScreenshotPath string               `gorm:"column:screenshot_path;not null"`
	Status         enums.PaymentStatus  `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Purpose        enums.PaymentPurpose `gorm:"column:payment_purpose;type:payment_purpose;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
