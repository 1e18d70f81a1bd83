package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Membership is the authoritative record of a user's plan purchase and
// its validity window. The legacy start_date/end_date columns are kept
// in sync with membership_start_date/membership_end_date for older
// consumers.
type Membership struct {
	ID     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	PlanName       string                 `gorm:"column:plan_name;not null"`
	PlanType       enums.PlanType         `gorm:"column:plan_type;type:plan_type;not null"`
	DurationMonths int                    `gorm:"column:duration_months;not null"`
	BasePrice      decimal.Decimal        `gorm:"column:base_price;type:numeric(12,2);not null"`
	Status         enums.MembershipStatus `gorm:"column:status;type:membership_status;not null;default:'awaiting_payment'"`

	MembershipStartDate *time.Time `gorm:"column:membership_start_date"`
	MembershipEndDate   *time.Time `gorm:"column:membership_end_date"`
	StartDate           *time.Time `gorm:"column:start_date"`
	EndDate             *time.Time `gorm:"column:end_date"`

	TrainerAssigned  bool       `gorm:"column:trainer_assigned;not null;default:false"`
	TrainerID        *int64     `gorm:"column:trainer_id"`
	TrainerPeriodEnd *time.Time `gorm:"column:trainer_period_end"`
	TrainerAddon     bool       `gorm:"column:trainer_addon;not null;default:false"`

	RejectionReason *string `gorm:"column:rejection_reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
