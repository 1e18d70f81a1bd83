package enums

import "fmt"

// PlanType distinguishes online-only plans from plans that already
// include gym floor access.
type PlanType string

const (
	PlanTypeOnline PlanType = "online"
	PlanTypeInGym  PlanType = "in_gym"
)

var validPlanTypes = []PlanType{
	PlanTypeOnline,
	PlanTypeInGym,
}

// String implements fmt.Stringer.
func (p PlanType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PlanType) IsValid() bool {
	for _, candidate := range validPlanTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanType converts raw input into a PlanType.
func ParsePlanType(value string) (PlanType, error) {
	for _, candidate := range validPlanTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan type %q", value)
}
