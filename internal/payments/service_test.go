package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	"github.com/fitdesk/gymportal-backend/pkg/pagination"
)

type stubPaymentRepo struct {
	nextID   int64
	payments map[int64]*models.Payment

	createErr error
	deleted   []int64
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: map[int64]*models.Payment{}}
}

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	payment.ID = s.nextID
	clone := *payment
	s.payments[payment.ID] = &clone
	return nil
}

func (s *stubPaymentRepo) Delete(ctx context.Context, id int64) error {
	delete(s.payments, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubPaymentRepo) HasPending(ctx context.Context, membershipID int64) (bool, error) {
	for _, p := range s.payments {
		if p.MembershipID == membershipID && p.Status == enums.PaymentStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubPaymentRepo) FindMostRecentPending(ctx context.Context, membershipID int64) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range s.payments {
		if p.MembershipID != membershipID || p.Status != enums.PaymentStatusPending {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (s *stubPaymentRepo) ListPending(ctx context.Context, membershipID int64) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if p.MembershipID == membershipID && p.Status == enums.PaymentStatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPaymentRepo) SetStatus(ctx context.Context, paymentID int64, status enums.PaymentStatus) error {
	p, ok := s.payments[paymentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (s *stubPaymentRepo) ListByMembership(ctx context.Context, query ListPaymentsQuery) ([]models.Payment, *pagination.Cursor, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if p.MembershipID == query.MembershipID {
			out = append(out, *p)
		}
	}
	return out, nil, nil
}

type stubMemberships struct {
	memberships map[int64]*models.Membership
}

func (s *stubMemberships) GetOwned(ctx context.Context, userID uuid.UUID, membershipID int64) (*models.Membership, error) {
	m, ok := s.memberships[membershipID]
	if !ok || m.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	clone := *m
	return &clone, nil
}

type stubGuard struct {
	memberships map[int64]*models.Membership
	failFirst   bool
	swaps       [][2]enums.MembershipStatus
}

func (s *stubGuard) CompareAndSwapStatus(ctx context.Context, id int64, expected, next enums.MembershipStatus) (bool, error) {
	s.swaps = append(s.swaps, [2]enums.MembershipStatus{expected, next})
	if s.failFirst {
		s.failFirst = false
		return false, nil
	}
	m, ok := s.memberships[id]
	if !ok || m.Status != expected {
		return false, nil
	}
	m.Status = next
	return true, nil
}

type stubAddonStore struct {
	nextID    int64
	addons    map[int64]*models.MembershipAddon
	createErr error
	failAfter int
	created   int
	deleted   []int64
}

func newStubAddonStore() *stubAddonStore {
	return &stubAddonStore{addons: map[int64]*models.MembershipAddon{}, failAfter: -1}
}

func (s *stubAddonStore) Create(ctx context.Context, addon *models.MembershipAddon) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.failAfter >= 0 && s.created >= s.failAfter {
		return errors.New("addon insert failed")
	}
	s.created++
	s.nextID++
	addon.ID = s.nextID
	clone := *addon
	s.addons[addon.ID] = &clone
	return nil
}

func (s *stubAddonStore) Delete(ctx context.Context, id int64) error {
	delete(s.addons, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubAssignmentStore struct {
	nextID      int64
	assignments map[int64]*models.TrainerAssignment
	createErr   error
	deleted     []int64
}

func newStubAssignmentStore() *stubAssignmentStore {
	return &stubAssignmentStore{assignments: map[int64]*models.TrainerAssignment{}}
}

func (s *stubAssignmentStore) CreateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	assignment.ID = s.nextID
	clone := *assignment
	s.assignments[assignment.ID] = &clone
	return nil
}

func (s *stubAssignmentStore) DeleteAssignment(ctx context.Context, id int64) error {
	delete(s.assignments, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubFees struct {
	admission decimal.Decimal
	monthly   decimal.Decimal
	rates     map[int64]decimal.Decimal
}

func (s *stubFees) AdmissionFee(ctx context.Context) decimal.Decimal { return s.admission }
func (s *stubFees) MonthlyFee(ctx context.Context) decimal.Decimal   { return s.monthly }

func (s *stubFees) TrainerRate(ctx context.Context, trainerID int64) (decimal.Decimal, error) {
	rate, ok := s.rates[trainerID]
	if !ok {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeNotFound, "trainer not found")
	}
	return rate, nil
}

type stubLocker struct {
	held     bool
	acquired int
	released int
}

func (s *stubLocker) Acquire(ctx context.Context, membershipID int64) (func(context.Context) error, bool, error) {
	if s.held {
		return nil, false, nil
	}
	s.acquired++
	return func(context.Context) error {
		s.released++
		return nil
	}, true, nil
}

type stubIntentSink struct {
	intents []notifications.Intent
}

func (s *stubIntentSink) Notify(ctx context.Context, intent notifications.Intent) error {
	s.intents = append(s.intents, intent)
	return nil
}

type fixture struct {
	service     *Service
	repo        *stubPaymentRepo
	memberships *stubMemberships
	guard       *stubGuard
	addons      *stubAddonStore
	assignments *stubAssignmentStore
	fees        *stubFees
	locker      *stubLocker
	notifier    *stubIntentSink
	now         time.Time
	userID      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := map[int64]*models.Membership{}
	f := &fixture{
		repo:        newStubPaymentRepo(),
		memberships: &stubMemberships{memberships: store},
		guard:       &stubGuard{memberships: store},
		addons:      newStubAddonStore(),
		assignments: newStubAssignmentStore(),
		fees: &stubFees{
			admission: decimal.NewFromInt(1200),
			monthly:   decimal.NewFromInt(650),
			rates:     map[int64]decimal.Decimal{7: decimal.NewFromInt(3000)},
		},
		locker:   &stubLocker{},
		notifier: &stubIntentSink{},
		now:      now,
		userID:   uuid.New(),
	}
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	service, err := NewService(ServiceParams{
		Repo:        f.repo,
		Memberships: f.memberships,
		Guard:       f.guard,
		Addons:      f.addons,
		Assignments: f.assignments,
		Fees:        f.fees,
		Locker:      f.locker,
		Notifier:    f.notifier,
		Logger:      logg,
		Now:         func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) seedMembership(m models.Membership) *models.Membership {
	if m.ID == 0 {
		m.ID = int64(len(f.memberships.memberships)) + 1
	}
	if m.UserID == uuid.Nil {
		m.UserID = f.userID
	}
	f.memberships.memberships[m.ID] = &m
	return f.memberships.memberships[m.ID]
}

func validInput(membershipID int64, amount int64) SubmitInput {
	return SubmitInput{
		MembershipID:   membershipID,
		TransactionID:  "TXN-001",
		PaymentDate:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Amount:         decimal.NewFromInt(amount),
		ScreenshotPath: "uploads/txn-001.png",
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestSubmitInitialPurchase(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	result, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Purpose != enums.PaymentPurposeInitialPurchase {
		t.Fatalf("purpose = %s, want initial_purchase", result.Purpose)
	}
	stored := f.repo.payments[result.PaymentID]
	if stored == nil || stored.Status != enums.PaymentStatusPending {
		t.Fatalf("stored payment = %+v, want pending", stored)
	}
	if m.Status != enums.MembershipStatusPending {
		t.Fatalf("membership status = %s, want pending", m.Status)
	}
	if len(f.notifier.intents) != 1 || f.notifier.intents[0].Type != enums.NotificationTypePaymentSubmitted {
		t.Fatalf("intents = %+v, want one payment_submitted", f.notifier.intents)
	}
	if f.locker.released != 1 {
		t.Fatalf("lock released %d times, want 1", f.locker.released)
	}
}

func TestSubmitRenewalFromGracePeriod(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Standard",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    3,
		Status:            enums.MembershipStatusGracePeriod,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 0, -10)),
	})

	result, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 1950))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Purpose != enums.PaymentPurposeMembershipRenewal {
		t.Fatalf("purpose = %s, want membership_renewal", result.Purpose)
	}
}

func TestSubmitActivePastEndIsRenewal(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Standard",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    3,
		Status:            enums.MembershipStatusActive,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 0, -1)),
	})

	result, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 1950))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Purpose != enums.PaymentPurposeMembershipRenewal {
		t.Fatalf("purpose = %s, want membership_renewal", result.Purpose)
	}
}

func TestSubmitActiveWithFutureEndRejectsNonTrainerPayment(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Standard",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    6,
		Status:            enums.MembershipStatusActive,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 2, 0)),
	})

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 3900))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeInvalidState {
		t.Fatalf("code = %s, want invalid_state", code)
	}
	if len(f.repo.payments) != 0 {
		t.Fatalf("payments created = %d, want 0", len(f.repo.payments))
	}
}

func TestSubmitTrainerRenewalAmountMatches(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:            "Premium",
		PlanType:            enums.PlanTypeInGym,
		DurationMonths:      6,
		Status:              enums.MembershipStatusActive,
		MembershipStartDate: ptrTime(f.now.AddDate(0, -1, 0)),
		MembershipEndDate:   ptrTime(f.now.AddDate(0, 5, 0)),
		TrainerAssigned:     true,
		TrainerID:           func() *int64 { id := int64(7); return &id }(),
		TrainerPeriodEnd:    ptrTime(f.now.AddDate(0, 0, 10)),
		TrainerAddon:        true,
	})

	input := validInput(m.ID, 6000)
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 2}

	result, err := f.service.Submit(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Purpose != enums.PaymentPurposeTrainerRenewal {
		t.Fatalf("purpose = %s, want trainer_renewal", result.Purpose)
	}
	if result.AssignmentID == nil {
		t.Fatal("expected a pending assignment")
	}
	assignment := f.assignments.assignments[*result.AssignmentID]
	if assignment.Status != enums.AssignmentStatusPending {
		t.Fatalf("assignment status = %s, want pending", assignment.Status)
	}
	if assignment.DurationMonths != 2 {
		t.Fatalf("assignment duration = %d, want 2", assignment.DurationMonths)
	}
	// renewal stacks on the current trainer period, not on today
	wantStart := f.now.AddDate(0, 0, 10)
	if !assignment.PeriodStart.Equal(wantStart) {
		t.Fatalf("period start = %s, want %s", assignment.PeriodStart, wantStart)
	}
}

func TestSubmitTrainerRenewalAmountMismatch(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Premium",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    6,
		Status:            enums.MembershipStatusActive,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 5, 0)),
		TrainerAssigned:   true,
		TrainerPeriodEnd:  ptrTime(f.now.AddDate(0, 0, 10)),
		TrainerAddon:      true,
	})

	input := validInput(m.ID, 4000) // 2 months at 3000 is 6000
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 2}

	_, err := f.service.Submit(context.Background(), f.userID, input)
	kinded := pkgerrors.As(err)
	if kinded.Code() != pkgerrors.CodeAmountMismatch {
		t.Fatalf("code = %s, want amount_mismatch", kinded.Code())
	}
	details, ok := kinded.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", kinded.Details())
	}
	expected, ok := details["expected"].(decimal.Decimal)
	if !ok || !expected.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("expected detail = %v, want 6000", details["expected"])
	}
	if len(f.repo.payments) != 0 {
		t.Fatal("no payment row should exist after a rejected amount")
	}
}

func TestSubmitTrainerRenewalExceedingCapDenied(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Premium",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    6,
		Status:            enums.MembershipStatusActive,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 1, 0)),
		TrainerAssigned:   true,
		TrainerPeriodEnd:  ptrTime(f.now.AddDate(0, 0, 20)),
		TrainerAddon:      true,
	})

	input := validInput(m.ID, 9000)
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 3}

	_, err := f.service.Submit(context.Background(), f.userID, input)
	kinded := pkgerrors.As(err)
	if kinded.Code() != pkgerrors.CodeEligibilityDenied {
		t.Fatalf("code = %s, want eligibility_denied", kinded.Code())
	}
	details, ok := kinded.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", kinded.Details())
	}
	if _, ok := details["max_renewal_days"]; !ok {
		t.Fatalf("details = %v, want max_renewal_days", details)
	}
}

func TestSubmitFirstTrainerAttachClampsToMembershipEnd(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:          "Premium",
		PlanType:          enums.PlanTypeInGym,
		DurationMonths:    6,
		Status:            enums.MembershipStatusGracePeriod,
		MembershipEndDate: ptrTime(f.now.AddDate(0, 0, -5)),
	})

	// renewal payment bundling a full-duration trainer ask; the window
	// must still land inside the cycle approval would grant
	input := validInput(m.ID, 3900)
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 6}

	result, err := f.service.Submit(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.AssignmentID == nil {
		t.Fatal("expected a pending assignment")
	}
	assignment := f.assignments.assignments[*result.AssignmentID]
	capEnd := f.now.AddDate(0, m.DurationMonths, 0)
	if assignment.PeriodEnd.After(capEnd) {
		t.Fatalf("period end %s runs past cap %s", assignment.PeriodEnd, capEnd)
	}
}

func TestSubmitInGymAddonOnlineOnly(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 3,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	input := validInput(m.ID, 3150)
	input.InGymAddon = true

	_, err := f.service.Submit(context.Background(), f.userID, input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeEligibilityDenied {
		t.Fatalf("code = %s, want eligibility_denied", code)
	}
}

func TestSubmitInGymAddonPricedForInitialPurchase(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Online Plus",
		PlanType:       enums.PlanTypeOnline,
		DurationMonths: 3,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	input := validInput(m.ID, 5000)
	input.InGymAddon = true

	result, err := f.service.Submit(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.AddonIDs) != 1 {
		t.Fatalf("addon ids = %v, want one", result.AddonIDs)
	}
	addon := f.addons.addons[result.AddonIDs[0]]
	// admission 1200 + 3 months at 650
	want := decimal.NewFromInt(1200 + 3*650)
	if !addon.Price.Equal(want) {
		t.Fatalf("addon price = %s, want %s", addon.Price, want)
	}
	if addon.PaymentID == nil || *addon.PaymentID != result.PaymentID {
		t.Fatalf("addon payment link = %v, want %d", addon.PaymentID, result.PaymentID)
	}
}

func TestSubmitRegularMonthlyTrainerCappedAtOneMonth(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Regular Monthly",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 1,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	input := validInput(m.ID, 6000)
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 2}

	_, err := f.service.Submit(context.Background(), f.userID, input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeEligibilityDenied {
		t.Fatalf("code = %s, want eligibility_denied", code)
	}
}

func TestSubmitPlanIncludedTrainerSkipsAddonAndAmountCheck(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Elite",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 12,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	input := validInput(m.ID, 15000)
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 12}

	result, err := f.service.Submit(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.AddonIDs) != 0 {
		t.Fatalf("addon ids = %v, want none for a plan-included trainer", result.AddonIDs)
	}
	if result.AssignmentID == nil {
		t.Fatal("expected a pending assignment")
	}
	assignment := f.assignments.assignments[*result.AssignmentID]
	if assignment.AssignmentType != enums.AssignmentTypePlanIncluded {
		t.Fatalf("assignment type = %s, want plan_included", assignment.AssignmentType)
	}
	if assignment.AddonID != nil {
		t.Fatal("plan-included assignment should not link an addon")
	}
}

func TestSubmitDuplicatePending(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})
	f.repo.payments[99] = &models.Payment{
		ID:           99,
		MembershipID: m.ID,
		Status:       enums.PaymentStatusPending,
	}

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeDuplicatePending {
		t.Fatalf("code = %s, want duplicate_pending", code)
	}
}

func TestSubmitUniqueIndexRaceMapsToDuplicatePending(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})
	f.repo.createErr = errors.New(`duplicate key value violates unique constraint "one_pending_payment_per_membership" (SQLSTATE 23505)`)

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeDuplicatePending {
		t.Fatalf("code = %s, want duplicate_pending", code)
	}
	if f.locker.released != 1 {
		t.Fatalf("lock released %d times, want 1", f.locker.released)
	}
}

func TestSubmitLockHeldReturnsConflict(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})
	f.locker.held = true

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("code = %s, want conflict", code)
	}
}

func TestSubmitStatusRaceDeletesPayment(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})
	f.guard.failFirst = true

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConcurrentModification {
		t.Fatalf("code = %s, want concurrent_modification", code)
	}
	if len(f.repo.payments) != 0 {
		t.Fatalf("payments left behind = %d, want 0", len(f.repo.payments))
	}
	if len(f.repo.deleted) != 1 {
		t.Fatalf("compensating deletes = %d, want 1", len(f.repo.deleted))
	}
}

func TestSubmitAddonFailureRollsEverythingBack(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Online Plus",
		PlanType:       enums.PlanTypeOnline,
		DurationMonths: 3,
		Status:         enums.MembershipStatusAwaitingPayment,
	})
	f.addons.failAfter = 1 // in-gym addon lands, trainer addon fails

	input := validInput(m.ID, 12000)
	input.InGymAddon = true
	input.Trainer = &TrainerSelection{TrainerID: 7, DurationMonths: 3}

	_, err := f.service.Submit(context.Background(), f.userID, input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeAddonCreationFailed {
		t.Fatalf("code = %s, want addon_creation_failed", code)
	}
	if len(f.repo.payments) != 0 {
		t.Fatal("payment should have been deleted")
	}
	if len(f.addons.addons) != 0 {
		t.Fatalf("addons left behind = %d, want 0", len(f.addons.addons))
	}
	if m.Status != enums.MembershipStatusAwaitingPayment {
		t.Fatalf("membership status = %s, want reverted to awaiting_payment", m.Status)
	}
}

func TestSubmitRejectsExpiredMembership(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusExpired,
	})

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeInvalidState {
		t.Fatalf("code = %s, want invalid_state", code)
	}
}

func TestSubmitForeignMembershipHidden(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		UserID:         uuid.New(),
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusAwaitingPayment,
	})

	_, err := f.service.Submit(context.Background(), f.userID, validInput(m.ID, 5100))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want not_found", code)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing transaction id", func(in *SubmitInput) { in.TransactionID = "" }},
		{"missing screenshot", func(in *SubmitInput) { in.ScreenshotPath = "" }},
		{"zero payment date", func(in *SubmitInput) { in.PaymentDate = time.Time{} }},
		{"non-positive amount", func(in *SubmitInput) { in.Amount = decimal.Zero }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(1, 5100)
			tc.mutate(&input)
			_, err := f.service.Submit(context.Background(), f.userID, input)
			if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want validation", code)
			}
		})
	}
}

func TestListForMembershipChecksOwnership(t *testing.T) {
	f := newFixture(t)
	m := f.seedMembership(models.Membership{
		UserID:         uuid.New(),
		PlanName:       "Standard",
		PlanType:       enums.PlanTypeInGym,
		DurationMonths: 6,
		Status:         enums.MembershipStatusActive,
	})

	_, err := f.service.ListForMembership(context.Background(), f.userID, ListParams{MembershipID: m.ID})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want not_found", code)
	}
}
