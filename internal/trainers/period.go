package trainers

import (
	"time"

	"github.com/fitdesk/gymportal-backend/internal/addons"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// RenewalPeriod is the outcome of the renewal date calculation. Callers
// must treat ExceedsCap as a rejection: the submission is refused
// outright rather than silently truncated to CappedEnd.
type RenewalPeriod struct {
	Start        time.Time
	CandidateEnd time.Time
	CappedEnd    time.Time
	ExceedsCap   bool
}

// CalculateRenewalEndDate computes the window a trainer renewal would
// occupy. The start is the current period end when it is still in the
// future (back-to-back renewals stack, they do not overlap), otherwise
// now. Months are calendar months, not fixed-day blocks. The result is
// always capped at the membership's own end date.
func CalculateRenewalEndDate(currentPeriodEnd *time.Time, now time.Time, durationMonths int, capEnd time.Time) RenewalPeriod {
	start := now
	if currentPeriodEnd != nil && currentPeriodEnd.After(now) {
		start = *currentPeriodEnd
	}

	if durationMonths < 1 {
		durationMonths = 1
	}
	candidate := start.AddDate(0, durationMonths, 0)

	period := RenewalPeriod{
		Start:        start,
		CandidateEnd: candidate,
		CappedEnd:    candidate,
	}
	if candidate.After(capEnd) {
		period.CappedEnd = capEnd
		period.ExceedsCap = true
	}
	return period
}

// EffectivePeriodEnd returns the trainer period end to use for display
// and expiry decisions.
//
// Historical regular-monthly records with a purchased trainer addon may
// carry a period end equal to the membership start date; an earlier
// version derived the end from the wrong base. Those rows are corrected
// on read only: when the stored window is a day or less, the
// membership's own end date (or start plus plan duration when no end
// exists) is substituted. Stored values are never rewritten, and new
// writes always go through CalculateRenewalEndDate.
func EffectivePeriodEnd(m *models.Membership) *time.Time {
	if m == nil || !m.TrainerAssigned || m.TrainerPeriodEnd == nil {
		return nil
	}

	if !addons.IsRegularMonthly(m.PlanName) || !m.TrainerAddon {
		return m.TrainerPeriodEnd
	}

	start := m.MembershipStartDate
	if start == nil {
		start = m.StartDate
	}
	if start == nil {
		return m.TrainerPeriodEnd
	}

	if m.TrainerPeriodEnd.Sub(*start) > 24*time.Hour {
		return m.TrainerPeriodEnd
	}

	if m.MembershipEndDate != nil {
		end := *m.MembershipEndDate
		return &end
	}
	end := start.AddDate(0, m.DurationMonths, 0)
	return &end
}

// AccessRevoked reports whether trainer access should be treated as
// revoked at the given instant. A 5-day (configurable) grace window
// applies after the effective period end, except for regular-monthly
// memberships that have lapsed into expired, whose trainer access is
// revoked immediately and unconditionally.
func AccessRevoked(m *models.Membership, now time.Time, graceDays int) bool {
	if m == nil || !m.TrainerAssigned {
		return true
	}

	if addons.IsRegularMonthly(m.PlanName) && m.Status == enums.MembershipStatusExpired {
		return true
	}

	end := EffectivePeriodEnd(m)
	if end == nil {
		return true
	}
	return now.After(end.AddDate(0, 0, graceDays))
}
