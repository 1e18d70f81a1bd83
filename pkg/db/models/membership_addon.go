package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// MembershipAddon is one purchased addon cycle. Renewals insert new rows
// rather than updating old ones, so the table doubles as addon history.
// PaymentID ties the addon to the submission that created it; that link,
// not creation-time proximity, is what read paths use.
type MembershipAddon struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement"`
	MembershipID int64             `gorm:"column:membership_id;not null;index"`
	PaymentID    *int64            `gorm:"column:payment_id;index"`
	Type         enums.AddonType   `gorm:"column:type;type:addon_type;not null"`
	Price        decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Status       enums.AddonStatus `gorm:"column:status;type:addon_status;not null;default:'pending'"`
	TrainerID    *int64            `gorm:"column:trainer_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
