package enums

import "fmt"

// AddonStatus follows the owning payment: pending until verified,
// rejected alongside a rejected payment.
type AddonStatus string

const (
	AddonStatusPending  AddonStatus = "pending"
	AddonStatusActive   AddonStatus = "active"
	AddonStatusRejected AddonStatus = "rejected"
)

var validAddonStatuses = []AddonStatus{
	AddonStatusPending,
	AddonStatusActive,
	AddonStatusRejected,
}

// String implements fmt.Stringer.
func (a AddonStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AddonStatus) IsValid() bool {
	for _, candidate := range validAddonStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddonStatus converts raw input into an AddonStatus.
func ParseAddonStatus(value string) (AddonStatus, error) {
	for _, candidate := range validAddonStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon status %q", value)
}
