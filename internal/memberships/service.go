package memberships

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/internal/addons"
	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/config"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	"github.com/fitdesk/gymportal-backend/pkg/pagination"
)

type paymentStore interface {
	FindMostRecentPending(ctx context.Context, membershipID int64) (*models.Payment, error)
	ListPending(ctx context.Context, membershipID int64) ([]models.Payment, error)
	SetStatus(ctx context.Context, paymentID int64, status enums.PaymentStatus) error
}

type addonStore interface {
	ListPendingByPayment(ctx context.Context, paymentID int64) ([]models.MembershipAddon, error)
	SetStatusByPayment(ctx context.Context, paymentID int64, status enums.AddonStatus) (int64, error)
}

type assignmentStore interface {
	FindPendingAssignmentByPayment(ctx context.Context, paymentID int64) (*models.TrainerAssignment, error)
	UpdateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error
	DeactivateAssignments(ctx context.Context, membershipID int64) (int64, error)
	ListStaleActiveAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.TrainerAssignment, error)
}

type notifier interface {
	Notify(ctx context.Context, intent notifications.Intent) error
}

// ServiceParams groups dependencies for the membership lifecycle
// service.
type ServiceParams struct {
	Repo        Repository
	Payments    paymentStore
	Addons      addonStore
	Assignments assignmentStore
	Notifier    notifier
	Lifecycle   config.LifecycleConfig
	Logger      *logger.Logger
	Now         func() time.Time
}

// Service owns the membership status state machine. Every transition
// goes through the conditional status write; callers that lose the race
// get CodeConcurrentModification, never a silent overwrite.
type Service struct {
	repo        Repository
	payments    paymentStore
	addons      addonStore
	assignments assignmentStore
	notifier    notifier
	lifecycle   config.LifecycleConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the lifecycle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Payments == nil {
		return nil, errors.New("payments store is required")
	}
	if params.Addons == nil {
		return nil, errors.New("addons store is required")
	}
	if params.Assignments == nil {
		return nil, errors.New("assignments store is required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:        params.Repo,
		payments:    params.Payments,
		addons:      params.Addons,
		assignments: params.Assignments,
		notifier:    params.Notifier,
		lifecycle:   params.Lifecycle,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// PurchaseInput is the member-facing purchase request.
type PurchaseInput struct {
	PlanName       string
	PlanType       enums.PlanType
	DurationMonths int
	BasePrice      decimal.Decimal
}

// RequestPurchase creates a membership in awaiting_payment with no
// validity window. Dates only appear at approval.
func (s *Service) RequestPurchase(ctx context.Context, userID uuid.UUID, input PurchaseInput) (*MembershipDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if input.PlanName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}
	if !input.PlanType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan type must be online or in_gym")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}

	months := input.DurationMonths
	if addons.IsRegularMonthly(input.PlanName) {
		// the rolling plan always runs one month at a time
		months = 1
	}
	if months < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be at least one month")
	}

	membership := models.Membership{
		UserID:         userID,
		PlanName:       input.PlanName,
		PlanType:       input.PlanType,
		DurationMonths: months,
		BasePrice:      input.BasePrice,
		Status:         enums.MembershipStatusAwaitingPayment,
	}
	if err := s.repo.Create(ctx, &membership); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}

	dto := ToDTO(&membership)
	return &dto, nil
}

// ListForUser returns the caller's memberships, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]MembershipDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	dtos := make([]MembershipDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, ToDTO(&rows[i]))
	}
	return dtos, nil
}

// GetOwned loads a membership and confirms the caller owns it. A
// membership owned by someone else is reported as not found, not as
// forbidden, so ids cannot be probed.
func (s *Service) GetOwned(ctx context.Context, userID uuid.UUID, membershipID int64) (*models.Membership, error) {
	membership, err := s.findByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("membership %d not found", membershipID))
	}
	return membership, nil
}

// ReviewQueueParams configures the admin review listing.
type ReviewQueueParams struct {
	Status enums.MembershipStatus
	Limit  int
	Cursor string
}

// ReviewQueueResult wraps one admin queue page.
type ReviewQueueResult struct {
	Items  []ReviewItemDTO `json:"items"`
	Cursor string          `json:"cursor"`
}

// ReviewQueue lists memberships by status for the approval workflow,
// exposing the pending payment and addon ids each decision acts on.
func (s *Service) ReviewQueue(ctx context.Context, params ReviewQueueParams) (*ReviewQueueResult, error) {
	status := params.Status
	if status == "" {
		status = enums.MembershipStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", params.Status))
	}

	query := ListQuery{Status: &status, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}

	items := make([]ReviewItemDTO, 0, len(rows))
	for i := range rows {
		item := ReviewItemDTO{Membership: ToDTO(&rows[i])}

		pendingPayments, err := s.payments.ListPending(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
		}
		for _, p := range pendingPayments {
			item.PendingPaymentIDs = append(item.PendingPaymentIDs, p.ID)
			pendingAddons, err := s.addons.ListPendingByPayment(ctx, p.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending addons")
			}
			for _, a := range pendingAddons {
				item.PendingAddonIDs = append(item.PendingAddonIDs, a.ID)
			}
		}
		items = append(items, item)
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ReviewQueueResult{Items: items, Cursor: cursor}, nil
}

// Approve verifies the most recent pending payment and activates the
// membership. Validity dates depend on the payment's purpose: a new
// purchase starts now, a renewal extends the remaining balance, and the
// regular monthly family always resets to exactly one month from the
// approval instant. Trainer renewals leave membership dates untouched.
func (s *Service) Approve(ctx context.Context, membershipID int64) (*MembershipDTO, error) {
	membership, err := s.findByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.Status != enums.MembershipStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d is %s, only pending memberships can be approved", membershipID, membership.Status))
	}

	payment, err := s.payments.FindMostRecentPending(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState,
				fmt.Sprintf("membership %d has no pending payment to verify", membershipID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}

	now := s.now()

	swapped, err := s.repo.CompareAndSwapStatus(ctx, membershipID, enums.MembershipStatusPending, enums.MembershipStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate membership")
	}
	if !swapped {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification,
			fmt.Sprintf("membership %d was modified concurrently", membershipID))
	}
	membership.Status = enums.MembershipStatusActive

	switch payment.Purpose {
	case enums.PaymentPurposeInitialPurchase:
		start := now
		end := now.AddDate(0, membership.DurationMonths, 0)
		membership.MembershipStartDate = &start
		membership.MembershipEndDate = &end
	case enums.PaymentPurposeMembershipRenewal:
		end := s.renewalEndDate(membership, now)
		membership.MembershipEndDate = &end
		if membership.MembershipStartDate == nil {
			start := now
			membership.MembershipStartDate = &start
		}
	case enums.PaymentPurposeTrainerRenewal:
		// membership window untouched
	}
	membership.RejectionReason = nil

	if err := s.payments.SetStatus(ctx, payment.ID, enums.PaymentStatusVerified); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify payment")
	}

	if _, err := s.addons.SetStatusByPayment(ctx, payment.ID, enums.AddonStatusActive); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate addons")
	}

	assignment, err := s.assignments.FindPendingAssignmentByPayment(ctx, payment.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainer assignment")
	}
	if assignment != nil {
		if err := s.finalizeAssignment(ctx, membership, assignment, now); err != nil {
			return nil, err
		}
	}

	syncLegacyDates(membership)
	if err := s.repo.Update(ctx, membership); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist membership")
	}

	s.emit(ctx, notifications.Intent{
		Type:         enums.NotificationTypeMembershipApproved,
		UserID:       membership.UserID,
		MembershipID: &membership.ID,
		PaymentID:    &payment.ID,
		Title:        "Membership approved",
		Message:      fmt.Sprintf("Your %s membership payment was verified.", membership.PlanName),
	})
	if assignment != nil {
		s.emit(ctx, notifications.Intent{
			Type:         enums.NotificationTypeTrainerAssigned,
			UserID:       membership.UserID,
			MembershipID: &membership.ID,
			AssignmentID: &assignment.ID,
			Title:        "Trainer confirmed",
			Message:      fmt.Sprintf("Your trainer is confirmed until %s.", assignment.PeriodEnd.Format("2 Jan 2006")),
		})
	}

	dto := ToDTO(membership)
	return &dto, nil
}

// finalizeAssignment turns the placeholder window written at submission
// into the real one, measured from the approval instant and capped at
// the membership's (possibly just extended) end date.
func (s *Service) finalizeAssignment(ctx context.Context, membership *models.Membership, assignment *models.TrainerAssignment, now time.Time) error {
	if membership.MembershipEndDate == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d has no end date to cap the trainer period", membership.ID))
	}

	period := trainers.CalculateRenewalEndDate(trainers.EffectivePeriodEnd(membership), now, assignment.DurationMonths, *membership.MembershipEndDate)

	assignment.Status = enums.AssignmentStatusActive
	assignment.PeriodStart = period.Start
	assignment.PeriodEnd = period.CappedEnd
	if err := s.assignments.UpdateAssignment(ctx, assignment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize trainer assignment")
	}

	membership.TrainerAssigned = true
	membership.TrainerID = &assignment.TrainerID
	membership.TrainerPeriodEnd = &assignment.PeriodEnd
	membership.TrainerAddon = assignment.AssignmentType == enums.AssignmentTypeAddon
	return nil
}

// Reject refuses the pending membership with a required human-readable
// reason. Dates stay untouched; the pending payment and its dependent
// rows are marked rejected so the member can resubmit.
func (s *Service) Reject(ctx context.Context, membershipID int64, reason string) (*MembershipDTO, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	membership, err := s.findByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership.Status != enums.MembershipStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d is %s, only pending memberships can be rejected", membershipID, membership.Status))
	}

	swapped, err := s.repo.CompareAndSwapStatus(ctx, membershipID, enums.MembershipStatusPending, enums.MembershipStatusRejected)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject membership")
	}
	if !swapped {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification,
			fmt.Sprintf("membership %d was modified concurrently", membershipID))
	}
	membership.Status = enums.MembershipStatusRejected
	membership.RejectionReason = &reason

	payment, err := s.payments.FindMostRecentPending(ctx, membershipID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	if payment != nil {
		if err := s.payments.SetStatus(ctx, payment.ID, enums.PaymentStatusRejected); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject payment")
		}
		if _, err := s.addons.SetStatusByPayment(ctx, payment.ID, enums.AddonStatusRejected); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject addons")
		}
		assignment, err := s.assignments.FindPendingAssignmentByPayment(ctx, payment.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainer assignment")
		}
		if assignment != nil {
			assignment.Status = enums.AssignmentStatusInactive
			if err := s.assignments.UpdateAssignment(ctx, assignment); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate trainer assignment")
			}
		}
	}

	if err := s.repo.Update(ctx, membership); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist membership")
	}

	s.emit(ctx, notifications.Intent{
		Type:         enums.NotificationTypeMembershipRejected,
		UserID:       membership.UserID,
		MembershipID: &membership.ID,
		Title:        "Membership rejected",
		Message:      fmt.Sprintf("Your %s membership payment was rejected: %s", membership.PlanName, reason),
	})

	dto := ToDTO(membership)
	return &dto, nil
}

// renewalEndDate applies the renewal extension rule. Remaining validity
// is never lost: the extension stacks on the previous end date when it
// is still in the future. A renewal approved inside the grace window
// also extends from the old end date, keeping billing periods
// contiguous instead of granting the days spent in grace for free. The
// regular monthly family is the explicit exception and always resets to
// exactly one month from the approval instant.
func (s *Service) renewalEndDate(m *models.Membership, now time.Time) time.Time {
	if addons.IsRegularMonthly(m.PlanName) {
		return now.AddDate(0, 1, 0)
	}
	base := now
	if m.MembershipEndDate != nil {
		end := *m.MembershipEndDate
		// A future end date trivially satisfies this too, so one check
		// covers both the still-active and in-grace cases.
		if end.AddDate(0, 0, s.lifecycle.GraceDays).After(now) {
			base = end
		}
	}
	return base.AddDate(0, m.DurationMonths, 0)
}

func (s *Service) findByID(ctx context.Context, membershipID int64) (*models.Membership, error) {
	membership, err := s.repo.FindByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("membership %d not found", membershipID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	return membership, nil
}

func (s *Service) emit(ctx context.Context, intent notifications.Intent) {
	if err := s.notifier.Notify(ctx, intent); err != nil {
		s.logg.Error(ctx, "emit notification intent", err)
	}
}

// syncLegacyDates mirrors the authoritative window into the legacy
// columns older consumers still read.
func syncLegacyDates(m *models.Membership) {
	m.StartDate = m.MembershipStartDate
	m.EndDate = m.MembershipEndDate
}
