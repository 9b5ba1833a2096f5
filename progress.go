package listing

import "sort"

// WizardProgress tracks the active step and the steps whose contract has
// passed at least once.
type WizardProgress struct {
	ActiveStep Step
	completed  map[Step]struct{}
}

func newProgress() WizardProgress {
	return WizardProgress{ActiveStep: StepBasics, completed: map[Step]struct{}{}}
}

// IsCompleted reports whether step has passed its contract on Advance.
func (p WizardProgress) IsCompleted(step Step) bool {
	_, ok := p.completed[step]
	return ok
}

// CompletedSteps returns completed steps in wizard order.
func (p WizardProgress) CompletedSteps() []Step {
	steps := make([]Step, 0, len(p.completed))
	for step := range p.completed {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps
}

// IsLast reports whether the active step is the terminal step.
func (p WizardProgress) IsLast() bool {
	return p.ActiveStep == LastStep
}

func (p *WizardProgress) markCompleted(step Step) {
	if p.completed == nil {
		p.completed = map[Step]struct{}{}
	}
	p.completed[step] = struct{}{}
}

func (p WizardProgress) clone() WizardProgress {
	out := WizardProgress{ActiveStep: p.ActiveStep, completed: make(map[Step]struct{}, len(p.completed))}
	for step := range p.completed {
		out.completed[step] = struct{}{}
	}
	return out
}
