package listing

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps each data-entry step to its contract. The terminal step never
// has one.
type Registry struct {
	contracts [StepCount]*Contract
}

// NewRegistry returns a registry holding contracts. Later contracts for the
// same step replace earlier ones.
func NewRegistry(contracts ...*Contract) (*Registry, error) {
	r := &Registry{}
	for _, contract := range contracts {
		if err := r.Register(contract); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns the built-in contracts for every data-entry step.
func DefaultRegistry() *Registry {
	r := &Registry{}
	r.contracts[StepBasics] = &Contract{Step: StepBasics, Checks: []Check{checkBasics}}
	r.contracts[StepInfo] = &Contract{Step: StepInfo}
	r.contracts[StepMedia] = &Contract{Step: StepMedia}
	r.contracts[StepVariants] = &Contract{Step: StepVariants, Checks: []Check{checkVariants}}
	r.contracts[StepInventory] = &Contract{Step: StepInventory}
	r.contracts[StepPricing] = &Contract{Step: StepPricing, Rules: DefaultPricingRules()}
	r.contracts[StepShipping] = &Contract{Step: StepShipping}
	r.contracts[StepTags] = &Contract{Step: StepTags, Checks: []Check{checkTags}}
	return r
}

// DefaultPricingRules are the expression rules every pricing row must pass.
func DefaultPricingRules() []Rule {
	return []Rule{
		{
			Name:    "required_if",
			Path:    "tax",
			Scope:   RuleScopeRows,
			When:    "includeTax",
			Assert:  "tax > 0.0",
			Message: "is required when tax is included",
		},
		{
			Name:    "lte_regular",
			Path:    "salePrice",
			Scope:   RuleScopeRows,
			Assert:  "salePrice == 0.0 || salePrice <= regularPrice",
			Message: "must not exceed the regular price",
		},
	}
}

// SchemaFor returns the contract for step, or nil for the terminal step and
// out-of-range indices.
func (r *Registry) SchemaFor(step Step) *Contract {
	if r == nil || !step.Valid() {
		return nil
	}
	return r.contracts[step]
}

// Register stores contract under contract.Step, replacing any previous one.
func (r *Registry) Register(contract *Contract) error {
	if contract == nil {
		return fmt.Errorf("listing: contract is nil")
	}
	if !contract.Step.Valid() {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, int(contract.Step))
	}
	if contract.Step == LastStep {
		return fmt.Errorf("listing: step %s does not accept a contract", contract.Step)
	}
	for _, rule := range contract.Rules {
		if err := rule.validate(); err != nil {
			return err
		}
	}
	r.contracts[contract.Step] = contract
	return nil
}

// AddRules appends expression rules to step's contract, creating the
// contract if the step has none.
func (r *Registry) AddRules(step Step, rules ...Rule) error {
	if !step.Valid() || step == LastStep {
		return fmt.Errorf("%w: %s", ErrStepOutOfRange, step)
	}
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return err
		}
	}
	contract := r.contracts[step].clone()
	if contract == nil {
		contract = &Contract{Step: step}
	}
	contract.Rules = append(contract.Rules, rules...)
	r.contracts[step] = contract
	return nil
}

// Clone returns a registry that can be extended without affecting r.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	out := &Registry{}
	for i, contract := range r.contracts {
		out.contracts[i] = contract.clone()
	}
	return out
}

// Validate runs the contract for step against draft. Steps without a contract
// always pass.
func (r *Registry) Validate(step Step, draft *ProductDraft, evaluator Evaluator, logger EvaluatorLogger) (FieldErrors, error) {
	return r.SchemaFor(step).Validate(draft, evaluator, logger)
}

func checkBasics(draft *ProductDraft) FieldErrors {
	fields := FieldErrors{}
	name := draft.Basics.Name
	if name != "" && strings.TrimSpace(name) == "" {
		fields.Add(FieldError{Path: "basics.name", Rule: "required", Message: "is required"})
	}
	return fields
}

// checkVariants enforces the tree shape tags cannot express: every option has
// a usable name and at least one value, names and value texts are unique and
// no value text contains CombinationDelimiter.
func checkVariants(draft *ProductDraft) FieldErrors {
	fields := FieldErrors{}
	names := make(map[string]int, len(draft.Variants))
	for i, option := range draft.Variants {
		base := fmt.Sprintf("variants[%d]", i)
		name := strings.TrimSpace(option.Name)
		if option.Name != "" && name == "" {
			fields.Add(FieldError{Path: base + ".name", Rule: "required", Message: "is required"})
		}
		if name != "" {
			folded := strings.ToLower(name)
			if _, dup := names[folded]; dup {
				fields.Add(FieldError{Path: base + ".name", Rule: "unique", Message: "duplicates another option"})
			}
			names[folded] = i
		}

		if len(option.participatingTexts()) == 0 {
			fields.Add(FieldError{Path: base + ".values", Rule: "min", Message: "must contain at least one value"})
		}
		texts := make(map[string]struct{}, len(option.Values))
		for j, value := range option.Values {
			text := strings.TrimSpace(value.Text)
			if text == "" {
				continue
			}
			if strings.Contains(text, CombinationDelimiter) {
				fields.Add(FieldError{
					Path:    fmt.Sprintf("%s.values[%d].text", base, j),
					Rule:    "delimiter",
					Message: "must not contain " + CombinationDelimiter,
				})
			}
			if _, dup := texts[text]; dup {
				fields.Add(FieldError{
					Path:    fmt.Sprintf("%s.values[%d].text", base, j),
					Rule:    "unique",
					Message: "duplicates another value",
				})
			}
			texts[text] = struct{}{}
		}
	}
	return fields
}

func checkTags(draft *ProductDraft) FieldErrors {
	fields := FieldErrors{}
	for i, tag := range draft.Tags {
		if strings.TrimSpace(tag) == "" {
			fields.Add(FieldError{Path: fmt.Sprintf("tags[%d]", i), Rule: "required", Message: "is required"})
		}
	}
	return fields
}

// FieldDescriptor describes a draft path and the JSON type stored there.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// DescribeStep lists the leaf fields of step's sub-state in draft, sorted by
// path. Collections are described element by element.
func DescribeStep(draft ProductDraft, step Step) ([]FieldDescriptor, error) {
	state := draft.stepState(step)
	if state == nil {
		return []FieldDescriptor{}, nil
	}
	generic, err := toGeneric(state)
	if err != nil {
		return nil, fmt.Errorf("listing: describe %s: %w", step, err)
	}
	descriptors := deriveFieldDescriptors(generic, step.Root())
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Path < descriptors[j].Path
	})
	return descriptors, nil
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{Path: prefix, Type: "object"}}
		}
		var fields []FieldDescriptor
		for key, child := range typed {
			fields = append(fields, deriveFieldDescriptors(child, joinFieldPath(prefix, key))...)
		}
		return fields
	case []any:
		if len(typed) == 0 {
			return []FieldDescriptor{{Path: prefix, Type: "array"}}
		}
		var fields []FieldDescriptor
		for i, child := range typed {
			fields = append(fields, deriveFieldDescriptors(child, fmt.Sprintf("%s[%d]", prefix, i))...)
		}
		return fields
	default:
		return []FieldDescriptor{{Path: prefix, Type: jsonTypeName(typed)}}
	}
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}
