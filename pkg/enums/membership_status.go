package enums

import "fmt"

// MembershipStatus tracks a membership through purchase, verification,
// activity, grace and expiry.
type MembershipStatus string

const (
	MembershipStatusAwaitingPayment MembershipStatus = "awaiting_payment"
	MembershipStatusPending         MembershipStatus = "pending"
	MembershipStatusActive          MembershipStatus = "active"
	MembershipStatusGracePeriod     MembershipStatus = "grace_period"
	MembershipStatusExpired         MembershipStatus = "expired"
	MembershipStatusRejected        MembershipStatus = "rejected"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusAwaitingPayment,
	MembershipStatusPending,
	MembershipStatusActive,
	MembershipStatusGracePeriod,
	MembershipStatusExpired,
	MembershipStatusRejected,
}

// String implements fmt.Stringer.
func (s MembershipStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further payment-driven transitions apply.
func (s MembershipStatus) IsTerminal() bool {
	return s == MembershipStatusExpired || s == MembershipStatusRejected
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
