package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// TrainerAssignment is the active trainer relationship for a membership
// cycle. PeriodEnd is always stored capped at the membership's own end
// date. PeriodStart is a placeholder at submission time and is finalized
// on approval.
type TrainerAssignment struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MembershipID int64     `gorm:"column:membership_id;not null;index"`
	TrainerID    int64     `gorm:"column:trainer_id;not null;index"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null"`

	AssignmentType enums.AssignmentType   `gorm:"column:assignment_type;type:assignment_type;not null"`
	Status         enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'pending'"`
	DurationMonths int                    `gorm:"column:duration_months;not null;default:1"`
	PeriodStart    time.Time              `gorm:"column:period_start;not null"`
	PeriodEnd      time.Time              `gorm:"column:period_end;not null"`

	PaymentID *int64 `gorm:"column:payment_id"`
	AddonID   *int64 `gorm:"column:addon_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
