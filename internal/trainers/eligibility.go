package trainers

import (
	"time"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Ineligibility reasons surfaced to the caller. Each ineligible
// membership status maps to its own reason so the user knows the exact
// next action.
const (
	ReasonApprovalPending = "membership approval is still pending; renew the trainer after the membership is approved"
	ReasonAwaitingPayment = "membership has not been activated yet; complete the membership payment first"
	ReasonGracePeriod     = "membership is in its grace period; renew the membership before renewing the trainer"
	ReasonExpired         = "membership has expired; a trainer cannot be renewed on an expired membership"
	ReasonRejected        = "membership was rejected; a trainer cannot be renewed on a rejected membership"
	ReasonEnded           = "membership validity has ended; renew the membership before renewing the trainer"
	ReasonNoValidity      = "membership has no validity window yet"
)

// RenewalEligibility is the quote returned to a member asking whether
// (and for how long) their trainer addon can be renewed.
type RenewalEligibility struct {
	Eligible       bool
	Reason         string
	MaxRenewalDays int
}

// CheckRenewalEligibility decides whether a trainer renewal may be
// submitted. Only an active membership with a future end date
// qualifies. MaxRenewalDays is the room left between the current
// trainer period end (or now, when none is active) and the
// membership's own boundary; a renewal can never reach past it.
func CheckRenewalEligibility(m *models.Membership, now time.Time) RenewalEligibility {
	if m == nil {
		return RenewalEligibility{Reason: ReasonNoValidity}
	}

	switch m.Status {
	case enums.MembershipStatusPending:
		return RenewalEligibility{Reason: ReasonApprovalPending}
	case enums.MembershipStatusAwaitingPayment:
		return RenewalEligibility{Reason: ReasonAwaitingPayment}
	case enums.MembershipStatusGracePeriod:
		return RenewalEligibility{Reason: ReasonGracePeriod}
	case enums.MembershipStatusExpired:
		return RenewalEligibility{Reason: ReasonExpired}
	case enums.MembershipStatusRejected:
		return RenewalEligibility{Reason: ReasonRejected}
	}

	if m.MembershipEndDate == nil {
		return RenewalEligibility{Reason: ReasonNoValidity}
	}
	if !m.MembershipEndDate.After(now) {
		return RenewalEligibility{Reason: ReasonEnded}
	}

	from := now
	if end := EffectivePeriodEnd(m); end != nil && end.After(now) {
		from = *end
	}
	days := int(m.MembershipEndDate.Sub(from).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return RenewalEligibility{Eligible: true, MaxRenewalDays: days}
}
