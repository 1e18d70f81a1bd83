package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Notification stores the structured intents the lifecycle engine emits.
// Delivery (bell polling, realtime push) is a consumer concern.
type Notification struct {
	ID     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Type         enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	MembershipID *int64                 `gorm:"column:membership_id"`
	PaymentID    *int64                 `gorm:"column:payment_id"`
	AddonID      *int64                 `gorm:"column:addon_id"`
	AssignmentID *int64                 `gorm:"column:assignment_id"`

	Title   string `gorm:"column:title;type:text;not null"`
	Message string `gorm:"column:message;type:text;not null"`

	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
