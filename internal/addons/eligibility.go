package addons

import (
	"strings"

	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// PlanFamilyRegularMonthly is the rolling one-month plan. It carries
// special rules throughout the lifecycle: its validity always resets to
// one month on approval and its trainer addon is capped to a single
// cycle.
const PlanFamilyRegularMonthly = "regular monthly"

// IsRegularMonthly reports whether the plan name belongs to the regular
// monthly family.
func IsRegularMonthly(planName string) bool {
	return strings.EqualFold(strings.TrimSpace(planName), PlanFamilyRegularMonthly)
}

// PlanIncludesTrainer reports whether the plan ships with a personal
// trainer at no extra charge. Selecting a trainer on such a plan
// creates a plan_included assignment and no addon row.
func PlanIncludesTrainer(planName string) bool {
	return strings.EqualFold(strings.TrimSpace(planName), "elite")
}

// Eligibility is what a plan's static configuration permits. It is a
// function of the plan descriptor only, never of the membership's
// current state, so the same answer is produced on purchase and on
// every renewal regardless of what was selected before.
type Eligibility struct {
	InGymAddon       bool
	TrainerAddon     bool
	TrainerMaxMonths int
}

// ResolveEligibility computes addon availability for a plan.
//
// The in-gym addon only makes sense for online plans; an inherently
// in-gym plan already includes gym access. The trainer addon is offered
// on every plan, with the regular monthly family capped to one cycle.
func ResolveEligibility(planName string, planType enums.PlanType, durationMonths int) Eligibility {
	e := Eligibility{
		InGymAddon:   planType == enums.PlanTypeOnline,
		TrainerAddon: true,
	}
	if IsRegularMonthly(planName) {
		e.TrainerMaxMonths = 1
		return e
	}
	if durationMonths < 1 {
		durationMonths = 1
	}
	e.TrainerMaxMonths = durationMonths
	return e
}
