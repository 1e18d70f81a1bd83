package enums

import "fmt"

// AddonType identifies the optional paid capabilities a membership can
// carry.
type AddonType string

const (
	AddonTypeInGym           AddonType = "in_gym"
	AddonTypePersonalTrainer AddonType = "personal_trainer"
)

var validAddonTypes = []AddonType{
	AddonTypeInGym,
	AddonTypePersonalTrainer,
}

// String implements fmt.Stringer.
func (a AddonType) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AddonType) IsValid() bool {
	for _, candidate := range validAddonTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddonType converts raw input into an AddonType.
func ParseAddonType(value string) (AddonType, error) {
	for _, candidate := range validAddonTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon type %q", value)
}
