package listing

import "fmt"

// Step identifies one page of the listing wizard. Steps are ordered and the
// set is fixed for the lifetime of the package.
type Step int

const (
	StepBasics Step = iota
	StepInfo
	StepMedia
	StepVariants
	StepInventory
	StepPricing
	StepShipping
	StepTags
	StepPublish
)

// StepCount is the number of wizard steps.
const StepCount = int(StepPublish) + 1

// LastStep is the terminal confirmation step.
const LastStep = StepPublish

var stepNames = [StepCount]string{
	"basics",
	"info",
	"media",
	"variants",
	"inventory",
	"pricing",
	"shipping",
	"tags",
	"publish",
}

// stepRoots maps each data-entry step to the top-level draft field it owns.
var stepRoots = [StepCount]string{
	"basics",
	"info",
	"media",
	"variants",
	"inventories",
	"pricing",
	"shipping",
	"tags",
	"",
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s indexes the fixed step list.
func (s Step) Valid() bool {
	return s >= 0 && int(s) < StepCount
}

// Root returns the draft field path owned by s, or "" for the terminal step.
func (s Step) Root() string {
	if !s.Valid() {
		return ""
	}
	return stepRoots[s]
}

// Steps returns the ordered step list.
func Steps() []Step {
	out := make([]Step, StepCount)
	for i := range out {
		out[i] = Step(i)
	}
	return out
}

// ParseStep resolves a step by name.
func ParseStep(name string) (Step, bool) {
	for i, candidate := range stepNames {
		if candidate == name {
			return Step(i), true
		}
	}
	return 0, false
}
