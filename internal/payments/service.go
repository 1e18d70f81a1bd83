package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/internal/addons"
	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/db"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	"github.com/fitdesk/gymportal-backend/pkg/pagination"
)

// amountTolerance absorbs one unit of rounding between the quoted
// trainer price and what the member typed in.
var amountTolerance = decimal.NewFromInt(1)

type membershipStore interface {
	GetOwned(ctx context.Context, userID uuid.UUID, membershipID int64) (*models.Membership, error)
}

type membershipGuard interface {
	CompareAndSwapStatus(ctx context.Context, id int64, expected, next enums.MembershipStatus) (bool, error)
}

type addonStore interface {
	Create(ctx context.Context, addon *models.MembershipAddon) error
	Delete(ctx context.Context, id int64) error
}

type assignmentStore interface {
	CreateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error
	DeleteAssignment(ctx context.Context, id int64) error
}

type feeProvider interface {
	AdmissionFee(ctx context.Context) decimal.Decimal
	MonthlyFee(ctx context.Context) decimal.Decimal
	TrainerRate(ctx context.Context, trainerID int64) (decimal.Decimal, error)
}

type notifier interface {
	Notify(ctx context.Context, intent notifications.Intent) error
}

// ServiceParams groups dependencies for the payment submission service.
type ServiceParams struct {
	Repo        Repository
	Memberships membershipStore
	Guard       membershipGuard
	Addons      addonStore
	Assignments assignmentStore
	Fees        feeProvider
	Locker      SubmissionLocker
	Notifier    notifier
	Logger      *logger.Logger
	Now         func() time.Time
}

// Service records manually submitted payments. A submission either
// fully commits (payment plus addon and assignment rows) or leaves no
// partial state behind: failures detected after the payment row exists
// trigger a compensating delete before the error is returned.
type Service struct {
	repo        Repository
	memberships membershipStore
	guard       membershipGuard
	addons      addonStore
	assignments assignmentStore
	fees        feeProvider
	locker      SubmissionLocker
	notifier    notifier
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the payment submission service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Memberships == nil {
		return nil, errors.New("memberships store is required")
	}
	if params.Guard == nil {
		return nil, errors.New("membership guard is required")
	}
	if params.Addons == nil {
		return nil, errors.New("addons store is required")
	}
	if params.Assignments == nil {
		return nil, errors.New("assignments store is required")
	}
	if params.Fees == nil {
		return nil, errors.New("fee provider is required")
	}
	if params.Locker == nil {
		return nil, errors.New("submission locker is required")
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
		memberships: params.Memberships,
		guard:       params.Guard,
		addons:      params.Addons,
		assignments: params.Assignments,
		fees:        params.Fees,
		locker:      params.Locker,
		notifier:    params.Notifier,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// TrainerSelection is the trainer the member wants, and for how long.
type TrainerSelection struct {
	TrainerID      int64
	DurationMonths int
}

// SubmitInput is one manual payment submission.
type SubmitInput struct {
	MembershipID   int64
	TransactionID  string
	PaymentDate    time.Time
	Amount         decimal.Decimal
	ScreenshotPath string
	InGymAddon     bool
	Trainer        *TrainerSelection
}

// SubmitResult reports what the submission created.
type SubmitResult struct {
	PaymentID    int64                `json:"payment_id"`
	Purpose      enums.PaymentPurpose `json:"purpose"`
	AddonIDs     []int64              `json:"addon_ids,omitempty"`
	AssignmentID *int64               `json:"assignment_id,omitempty"`
}

// Submit validates and records a payment against the caller's
// membership. Validation failures happen before any write; once the
// payment row exists, a conditional-write failure or a dependent-row
// failure deletes it again so no orphaned pending payment is ever
// visible.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if err := validateSubmitInput(input); err != nil {
		return nil, err
	}

	membership, err := s.memberships.GetOwned(ctx, userID, input.MembershipID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	purpose, err := derivePurpose(membership, now, input)
	if err != nil {
		return nil, err
	}

	release, ok, err := s.locker.Acquire(ctx, membership.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submission lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("another submission for membership %d is in progress", membership.ID))
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logg.Error(ctx, "release submission lock", err)
		}
	}()

	hasPending, err := s.repo.HasPending(ctx, membership.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payment")
	}
	if hasPending {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicatePending,
			fmt.Sprintf("membership %d already has a payment awaiting verification", membership.ID))
	}

	plan, err := s.validateSelection(ctx, membership, purpose, input, now)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		MembershipID:   membership.ID,
		TransactionID:  input.TransactionID,
		PaymentDate:    input.PaymentDate,
		Amount:         input.Amount,
		ScreenshotPath: input.ScreenshotPath,
		Status:         enums.PaymentStatusPending,
		Purpose:        purpose,
	}
	if err := s.repo.Create(ctx, &payment); err != nil {
		// The pending check above races with concurrent submitters; the
		// partial unique index is the backstop.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicatePending,
				fmt.Sprintf("membership %d already has a payment awaiting verification", membership.ID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	swapped, err := s.guard.CompareAndSwapStatus(ctx, membership.ID, membership.Status, enums.MembershipStatusPending)
	if err != nil || !swapped {
		s.compensate(ctx, payment.ID, nil, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership status")
		}
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification,
			fmt.Sprintf("membership %d changed while the submission was in flight", membership.ID))
	}

	result := &SubmitResult{PaymentID: payment.ID, Purpose: purpose}
	if err := s.createDependentRows(ctx, membership, &payment, plan, input, now, result); err != nil {
		// best effort: put the status back the way we observed it
		if _, revertErr := s.guard.CompareAndSwapStatus(ctx, membership.ID, enums.MembershipStatusPending, membership.Status); revertErr != nil {
			s.logg.Error(ctx, "revert membership status", revertErr)
		}
		return nil, err
	}

	s.emit(ctx, notifications.Intent{
		Type:         enums.NotificationTypePaymentSubmitted,
		UserID:       membership.UserID,
		MembershipID: &membership.ID,
		PaymentID:    &payment.ID,
		Title:        "Payment received",
		Message:      fmt.Sprintf("Your %s payment of %s is awaiting verification.", membership.PlanName, input.Amount),
	})

	return result, nil
}

// plannedTrainer carries the validated trainer selection through to row
// creation so nothing is recomputed after the payment insert.
type plannedTrainer struct {
	trainerID      int64
	durationMonths int
	assignmentType enums.AssignmentType
	price          decimal.Decimal
	periodStart    time.Time
	periodEnd      time.Time
}

type plannedRows struct {
	inGymPrice *decimal.Decimal
	trainer    *plannedTrainer
}

// validateSelection performs every selection check before any write:
// addon eligibility, renewal eligibility, cap overflow, and the trainer
// amount match.
func (s *Service) validateSelection(ctx context.Context, membership *models.Membership, purpose enums.PaymentPurpose, input SubmitInput, now time.Time) (*plannedRows, error) {
	plan := &plannedRows{}
	eligibility := addons.ResolveEligibility(membership.PlanName, membership.PlanType, membership.DurationMonths)

	if input.InGymAddon {
		if !eligibility.InGymAddon {
			return nil, pkgerrors.New(pkgerrors.CodeEligibilityDenied,
				fmt.Sprintf("the %s plan already includes gym access; the in-gym addon is only available on online plans", membership.PlanName))
		}
		price := s.fees.MonthlyFee(ctx).Mul(decimal.NewFromInt(int64(membership.DurationMonths)))
		if purpose == enums.PaymentPurposeInitialPurchase {
			price = price.Add(s.fees.AdmissionFee(ctx))
		}
		plan.inGymPrice = &price
	}

	if input.Trainer == nil {
		return plan, nil
	}

	sel := *input.Trainer
	if sel.DurationMonths < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trainer duration must be at least one month")
	}
	if !eligibility.TrainerAddon {
		return nil, pkgerrors.New(pkgerrors.CodeEligibilityDenied,
			fmt.Sprintf("the %s plan does not offer a trainer addon", membership.PlanName))
	}
	if sel.DurationMonths > eligibility.TrainerMaxMonths {
		return nil, pkgerrors.New(pkgerrors.CodeEligibilityDenied,
			fmt.Sprintf("the %s plan allows at most %d trainer month(s) per cycle", membership.PlanName, eligibility.TrainerMaxMonths)).
			WithDetails(map[string]any{"max_months": eligibility.TrainerMaxMonths, "requested_months": sel.DurationMonths})
	}

	planned := &plannedTrainer{
		trainerID:      sel.TrainerID,
		durationMonths: sel.DurationMonths,
		assignmentType: enums.AssignmentTypeAddon,
	}
	if addons.PlanIncludesTrainer(membership.PlanName) {
		planned.assignmentType = enums.AssignmentTypePlanIncluded
	}

	// the cap used at submission: the real end date when one exists,
	// otherwise what approval would grant today
	capEnd := now.AddDate(0, membership.DurationMonths, 0)
	if membership.MembershipEndDate != nil && membership.MembershipEndDate.After(now) {
		capEnd = *membership.MembershipEndDate
	}

	if purpose == enums.PaymentPurposeTrainerRenewal && membership.TrainerAssigned {
		check := trainers.CheckRenewalEligibility(membership, now)
		if !check.Eligible {
			return nil, pkgerrors.New(pkgerrors.CodeEligibilityDenied, check.Reason).
				WithDetails(map[string]any{"max_renewal_days": check.MaxRenewalDays})
		}
		period := trainers.CalculateRenewalEndDate(trainers.EffectivePeriodEnd(membership), now, sel.DurationMonths, capEnd)
		if period.ExceedsCap {
			return nil, pkgerrors.New(pkgerrors.CodeEligibilityDenied,
				fmt.Sprintf("a %d-month renewal would run past the membership end on %s; at most %d day(s) are available",
					sel.DurationMonths, capEnd.Format("2 Jan 2006"), check.MaxRenewalDays)).
				WithDetails(map[string]any{"max_renewal_days": check.MaxRenewalDays, "membership_end_date": capEnd})
		}
		planned.periodStart = period.Start
		planned.periodEnd = period.CappedEnd
	} else {
		// first attach: always eligible while the membership cycle is
		// in play, the window simply clamps to the cap
		period := trainers.CalculateRenewalEndDate(nil, now, sel.DurationMonths, capEnd)
		planned.periodStart = period.Start
		planned.periodEnd = period.CappedEnd
	}

	if planned.assignmentType == enums.AssignmentTypeAddon {
		rate, err := s.fees.TrainerRate(ctx, sel.TrainerID)
		if err != nil {
			return nil, err
		}
		planned.price = rate.Mul(decimal.NewFromInt(int64(sel.DurationMonths)))

		if purpose == enums.PaymentPurposeTrainerRenewal {
			diff := input.Amount.Sub(planned.price).Abs()
			if diff.GreaterThan(amountTolerance) {
				return nil, pkgerrors.New(pkgerrors.CodeAmountMismatch,
					fmt.Sprintf("expected %s for %d month(s) with this trainer, received %s",
						planned.price, sel.DurationMonths, input.Amount)).
					WithDetails(map[string]any{"expected": planned.price, "received": input.Amount})
			}
		}
	}

	plan.trainer = planned
	return plan, nil
}

// createDependentRows inserts addon and assignment rows for the
// committed payment. Any failure deletes everything created so far,
// payment included, and surfaces CodeAddonCreationFailed.
func (s *Service) createDependentRows(ctx context.Context, membership *models.Membership, payment *models.Payment, plan *plannedRows, input SubmitInput, now time.Time, result *SubmitResult) error {
	var createdAddons []int64

	if plan.inGymPrice != nil {
		addon := models.MembershipAddon{
			MembershipID: membership.ID,
			PaymentID:    &payment.ID,
			Type:         enums.AddonTypeInGym,
			Price:        *plan.inGymPrice,
			Status:       enums.AddonStatusPending,
		}
		if err := s.addons.Create(ctx, &addon); err != nil {
			s.compensate(ctx, payment.ID, createdAddons, nil)
			return pkgerrors.Wrap(pkgerrors.CodeAddonCreationFailed, err, "create in-gym addon")
		}
		createdAddons = append(createdAddons, addon.ID)
		result.AddonIDs = append(result.AddonIDs, addon.ID)
	}

	if plan.trainer != nil {
		var addonID *int64
		if plan.trainer.assignmentType == enums.AssignmentTypeAddon {
			addon := models.MembershipAddon{
				MembershipID: membership.ID,
				PaymentID:    &payment.ID,
				Type:         enums.AddonTypePersonalTrainer,
				Price:        plan.trainer.price,
				Status:       enums.AddonStatusPending,
				TrainerID:    &plan.trainer.trainerID,
			}
			if err := s.addons.Create(ctx, &addon); err != nil {
				s.compensate(ctx, payment.ID, createdAddons, nil)
				return pkgerrors.Wrap(pkgerrors.CodeAddonCreationFailed, err, "create trainer addon")
			}
			createdAddons = append(createdAddons, addon.ID)
			result.AddonIDs = append(result.AddonIDs, addon.ID)
			addonID = &addon.ID
		}

		assignment := models.TrainerAssignment{
			MembershipID:   membership.ID,
			TrainerID:      plan.trainer.trainerID,
			UserID:         membership.UserID,
			AssignmentType: plan.trainer.assignmentType,
			Status:         enums.AssignmentStatusPending,
			DurationMonths: plan.trainer.durationMonths,
			PeriodStart:    plan.trainer.periodStart,
			PeriodEnd:      plan.trainer.periodEnd,
			PaymentID:      &payment.ID,
			AddonID:        addonID,
		}
		if err := s.assignments.CreateAssignment(ctx, &assignment); err != nil {
			s.compensate(ctx, payment.ID, createdAddons, nil)
			return pkgerrors.Wrap(pkgerrors.CodeAddonCreationFailed, err, "create trainer assignment")
		}
		result.AssignmentID = &assignment.ID
	}

	return nil
}

// compensate removes the rows an aborted submission created, dependents
// first, so no reader ever sees an orphaned pending payment.
func (s *Service) compensate(ctx context.Context, paymentID int64, addonIDs []int64, assignmentID *int64) {
	if assignmentID != nil {
		if err := s.assignments.DeleteAssignment(ctx, *assignmentID); err != nil {
			s.logg.Error(ctx, "compensating assignment delete", err)
		}
	}
	for _, id := range addonIDs {
		if err := s.addons.Delete(ctx, id); err != nil {
			s.logg.Error(ctx, "compensating addon delete", err)
		}
	}
	if err := s.repo.Delete(ctx, paymentID); err != nil {
		s.logg.Error(ctx, "compensating payment delete", err)
	}
}

// derivePurpose fixes the payment's purpose from the transition being
// requested, before anything is written. It is never inferred after the
// fact.
func derivePurpose(m *models.Membership, now time.Time, input SubmitInput) (enums.PaymentPurpose, error) {
	switch m.Status {
	case enums.MembershipStatusAwaitingPayment:
		return enums.PaymentPurposeInitialPurchase, nil
	case enums.MembershipStatusGracePeriod:
		return enums.PaymentPurposeMembershipRenewal, nil
	case enums.MembershipStatusActive:
		if m.MembershipEndDate != nil && !m.MembershipEndDate.After(now) {
			// the sweep has not caught this row yet; treat the payment
			// as an implicit renewal
			return enums.PaymentPurposeMembershipRenewal, nil
		}
		if input.Trainer != nil && !input.InGymAddon {
			return enums.PaymentPurposeTrainerRenewal, nil
		}
		return "", pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d is active until %s; only trainer payments are accepted right now",
				m.ID, endDateLabel(m)))
	case enums.MembershipStatusPending:
		return "", pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d already has a submission awaiting verification", m.ID))
	case enums.MembershipStatusExpired:
		return "", pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d has expired past its grace period; purchase a new membership", m.ID))
	case enums.MembershipStatusRejected:
		return "", pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d was rejected; purchase a new membership", m.ID))
	default:
		return "", pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("membership %d is in state %s and cannot accept payments", m.ID, m.Status))
	}
}

func endDateLabel(m *models.Membership) string {
	if m.MembershipEndDate == nil {
		return "an unset end date"
	}
	return m.MembershipEndDate.Format("2 Jan 2006")
}

func validateSubmitInput(input SubmitInput) error {
	if input.MembershipID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "membership id is required")
	}
	if input.TransactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if input.ScreenshotPath == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment screenshot is required")
	}
	if input.PaymentDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment date is required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// ListParams configures the member payment history listing.
type ListParams struct {
	MembershipID int64
	Limit        int
	Cursor       string
}

// ListResult wraps one payment history page.
type ListResult struct {
	Items  []models.Payment `json:"items"`
	Cursor string           `json:"cursor"`
}

// ListForMembership returns the caller's payment history for one
// membership, newest first.
func (s *Service) ListForMembership(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	membership, err := s.memberships.GetOwned(ctx, userID, params.MembershipID)
	if err != nil {
		return nil, err
	}

	query := ListPaymentsQuery{MembershipID: membership.ID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByMembership(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *Service) emit(ctx context.Context, intent notifications.Intent) {
	if err := s.notifier.Notify(ctx, intent); err != nil {
		s.logg.Error(ctx, "emit notification intent", err)
	}
}
