package memberships

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/fitdesk/gymportal-backend/internal/addons"
	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
)

const sweepBatchSize = 200

// SweepResult counts what one expiry pass changed.
type SweepResult struct {
	EnteredGrace int
	Expired      int
}

// SweepExpiry moves lapsed active memberships into grace_period and
// grace memberships past the grace window into expired. Each row moves
// through the conditional status write, so a sweep racing a renewal
// submission or an admin action simply skips the row. Running the sweep
// twice over the same rows is a no-op. A failure on one row does not
// stop the pass; per-row errors are combined and returned at the end.
func (s *Service) SweepExpiry(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{}
	var errs []error

	due, err := s.repo.ListExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lapsed memberships")
	}
	for i := range due {
		moved, err := s.enterGrace(ctx, &due[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if moved {
			result.EnteredGrace++
		}
	}

	cutoff := now.AddDate(0, 0, -s.lifecycle.GraceDays)
	lapsed, err := s.repo.ListGraceLapsed(ctx, cutoff, sweepBatchSize)
	if err != nil {
		errs = append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list grace memberships"))
		return result, multierr.Combine(errs...)
	}
	for i := range lapsed {
		moved, err := s.expire(ctx, &lapsed[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if moved {
			result.Expired++
		}
	}

	return result, multierr.Combine(errs...)
}

// SweepTrainerExpiry deactivates trainer assignments whose period ended
// more than the trainer grace window ago. The stored period end can
// understate the real window, so each candidate is re-checked against
// the membership before anything is written; rows that still have
// access are skipped and picked up again on a later pass.
func (s *Service) SweepTrainerExpiry(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -s.lifecycle.TrainerGraceDays)
	stale, err := s.assignments.ListStaleActiveAssignments(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale assignments")
	}

	revoked := 0
	var errs []error
	for i := range stale {
		assignment := &stale[i]
		membership, err := s.findByID(ctx, assignment.MembershipID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !trainers.AccessRevoked(membership, now, s.lifecycle.TrainerGraceDays) {
			continue
		}

		assignment.Status = enums.AssignmentStatusInactive
		if err := s.assignments.UpdateAssignment(ctx, assignment); err != nil {
			errs = append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate assignment"))
			continue
		}
		if membership.TrainerAssigned {
			membership.TrainerAssigned = false
			membership.TrainerPeriodEnd = nil
			if err := s.repo.Update(ctx, membership); err != nil {
				errs = append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear trainer state"))
				continue
			}
		}
		s.emit(ctx, notifications.Intent{
			Type:         enums.NotificationTypeTrainerExpired,
			UserID:       membership.UserID,
			MembershipID: &membership.ID,
			AssignmentID: &assignment.ID,
			Title:        "Trainer access ended",
			Message:      "Your personal trainer period has ended.",
		})
		revoked++
	}
	return revoked, multierr.Combine(errs...)
}

// TransitionExpired advances a single membership through the expiry
// machine from whatever stage it is in. Calling it on an already
// expired membership is a no-op, not an error; the scheduler may
// revisit rows freely.
func (s *Service) TransitionExpired(ctx context.Context, membershipID int64, now time.Time) error {
	membership, err := s.findByID(ctx, membershipID)
	if err != nil {
		return err
	}

	switch membership.Status {
	case enums.MembershipStatusActive:
		if membership.MembershipEndDate == nil || membership.MembershipEndDate.After(now) {
			return nil
		}
		_, err := s.enterGrace(ctx, membership)
		return err
	case enums.MembershipStatusGracePeriod:
		if membership.MembershipEndDate == nil {
			return nil
		}
		if now.Before(membership.MembershipEndDate.AddDate(0, 0, s.lifecycle.GraceDays)) {
			return nil
		}
		_, err := s.expire(ctx, membership)
		return err
	case enums.MembershipStatusExpired:
		return nil
	default:
		return nil
	}
}

func (s *Service) enterGrace(ctx context.Context, m *models.Membership) (bool, error) {
	swapped, err := s.repo.CompareAndSwapStatus(ctx, m.ID, enums.MembershipStatusActive, enums.MembershipStatusGracePeriod)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enter grace period")
	}
	if !swapped {
		return false, nil
	}

	s.emit(ctx, notifications.Intent{
		Type:         enums.NotificationTypeMembershipExpiring,
		UserID:       m.UserID,
		MembershipID: &m.ID,
		Title:        "Membership expiring",
		Message: fmt.Sprintf("Your %s membership has ended. Renew within %d days to keep it.",
			m.PlanName, s.lifecycle.GraceDays),
	})
	return true, nil
}

func (s *Service) expire(ctx context.Context, m *models.Membership) (bool, error) {
	swapped, err := s.repo.CompareAndSwapStatus(ctx, m.ID, enums.MembershipStatusGracePeriod, enums.MembershipStatusExpired)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire membership")
	}
	if !swapped {
		return false, nil
	}
	m.Status = enums.MembershipStatusExpired

	// regular monthly loses trainer access the moment the membership
	// lapses, with no trainer grace
	if addons.IsRegularMonthly(m.PlanName) && m.TrainerAssigned {
		if _, err := s.assignments.DeactivateAssignments(ctx, m.ID); err != nil {
			return true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke trainer access")
		}
		m.TrainerAssigned = false
		m.TrainerPeriodEnd = nil
		if err := s.repo.Update(ctx, m); err != nil {
			return true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trainer revocation")
		}
		s.emit(ctx, notifications.Intent{
			Type:         enums.NotificationTypeTrainerExpired,
			UserID:       m.UserID,
			MembershipID: &m.ID,
			Title:        "Trainer access ended",
			Message:      "Your trainer access ended with your membership.",
		})
	}

	s.emit(ctx, notifications.Intent{
		Type:         enums.NotificationTypeMembershipExpired,
		UserID:       m.UserID,
		MembershipID: &m.ID,
		Title:        "Membership expired",
		Message:      fmt.Sprintf("Your %s membership has expired.", m.PlanName),
	})
	return true, nil
}
