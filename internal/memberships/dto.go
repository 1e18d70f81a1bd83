package memberships

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// MembershipDTO is the read shape handed to API callers. The trainer
// period end it carries is the effective value, with the legacy
// regular-monthly correction already applied.
type MembershipDTO struct {
	ID             int64                  `json:"id"`
	UserID         uuid.UUID              `json:"user_id"`
	PlanName       string                 `json:"plan_name"`
	PlanType       enums.PlanType         `json:"plan_type"`
	DurationMonths int                    `json:"duration_months"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	Status         enums.MembershipStatus `json:"status"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	TrainerAssigned  bool       `json:"trainer_assigned"`
	TrainerID        *int64     `json:"trainer_id,omitempty"`
	TrainerPeriodEnd *time.Time `json:"trainer_period_end,omitempty"`
	TrainerAddon     bool       `json:"trainer_addon"`

	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReviewItemDTO is one admin review queue entry: the membership plus the
// pending payment and addon ids the approval workflow acts on.
type ReviewItemDTO struct {
	Membership        MembershipDTO `json:"membership"`
	PendingPaymentIDs []int64       `json:"pending_payment_ids"`
	PendingAddonIDs   []int64       `json:"pending_addon_ids"`
}

// ToDTO converts a stored membership into its API shape.
func ToDTO(m *models.Membership) MembershipDTO {
	return MembershipDTO{
		ID:               m.ID,
		UserID:           m.UserID,
		PlanName:         m.PlanName,
		PlanType:         m.PlanType,
		DurationMonths:   m.DurationMonths,
		BasePrice:        m.BasePrice,
		Status:           m.Status,
		StartDate:        m.MembershipStartDate,
		EndDate:          m.MembershipEndDate,
		TrainerAssigned:  m.TrainerAssigned,
		TrainerID:        m.TrainerID,
		TrainerPeriodEnd: trainers.EffectivePeriodEnd(m),
		TrainerAddon:     m.TrainerAddon,
		RejectionReason:  m.RejectionReason,
		CreatedAt:        m.CreatedAt,
	}
}
