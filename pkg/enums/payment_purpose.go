package enums

import "fmt"

// PaymentPurpose is fixed once at payment creation and is the
// authoritative record of what a payment was for. Read paths must never
// infer intent from timestamps.
type PaymentPurpose string

const (
	PaymentPurposeInitialPurchase   PaymentPurpose = "initial_purchase"
	PaymentPurposeMembershipRenewal PaymentPurpose = "membership_renewal"
	PaymentPurposeTrainerRenewal    PaymentPurpose = "trainer_renewal"
)

var validPaymentPurposes = []PaymentPurpose{
	PaymentPurposeInitialPurchase,
	PaymentPurposeMembershipRenewal,
	PaymentPurposeTrainerRenewal,
}

// String implements fmt.Stringer.
func (p PaymentPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentPurpose) IsValid() bool {
	for _, candidate := range validPaymentPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPurpose converts raw input into a PaymentPurpose.
func ParsePaymentPurpose(value string) (PaymentPurpose, error) {
	for _, candidate := range validPaymentPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment purpose %q", value)
}
