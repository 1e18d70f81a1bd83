package enums

import "fmt"

// AssignmentType records whether trainer access came bundled with the
// plan or was purchased as an add-on.
type AssignmentType string

const (
	AssignmentTypePlanIncluded AssignmentType = "plan_included"
	AssignmentTypeAddon        AssignmentType = "addon"
)

var validAssignmentTypes = []AssignmentType{
	AssignmentTypePlanIncluded,
	AssignmentTypeAddon,
}

// String implements fmt.Stringer.
func (a AssignmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AssignmentType) IsValid() bool {
	for _, candidate := range validAssignmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentType converts raw input into an AssignmentType.
func ParseAssignmentType(value string) (AssignmentType, error) {
	for _, candidate := range validAssignmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment type %q", value)
}
