package listing

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultRegistryOnEmptyDraft(t *testing.T) {
	draft := NewDraft()
	registry := DefaultRegistry()

	want := map[Step][]string{
		StepBasics:    {"basics.name"},
		StepInfo:      {"info.category"},
		StepMedia:     {"media.imageIds"},
		StepVariants:  {},
		StepInventory: {"inventories[0].sku"},
		StepPricing:   {"pricing[0].quantity", "pricing[0].regularPrice"},
		StepShipping:  {"shipping.dimensionUnit", "shipping.weight", "shipping.weightUnit"},
		StepTags:      {},
		StepPublish:   {},
	}
	for _, step := range Steps() {
		fields, err := registry.Validate(step, &draft, nil, nil)
		if err != nil {
			t.Fatalf("validate %s: %v", step, err)
		}
		if diff := cmp.Diff(want[step], fields.Paths()); diff != "" {
			t.Fatalf("step %s paths mismatch (-want +got):\n%s", step, diff)
		}
	}
}

func TestDefaultRegistryPassesCompleteDraft(t *testing.T) {
	draft := loadDraftFixture(t, "draft_complete.json")
	draft.Sync()
	registry := DefaultRegistry()
	for _, step := range Steps() {
		fields, err := registry.Validate(step, &draft, nil, nil)
		if err != nil {
			t.Fatalf("validate %s: %v", step, err)
		}
		if !fields.Empty() {
			t.Fatalf("expected %s to pass, got %v", step, fields.Err(step))
		}
	}
}

func TestTagMessages(t *testing.T) {
	draft := NewDraft()
	fields, err := DefaultRegistry().Validate(StepMedia, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	got := fields["media.imageIds"]
	want := []FieldError{{Path: "media.imageIds", Rule: "min", Message: "must contain at least 1 item(s)"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("media errors mismatch (-want +got):\n%s", diff)
	}

	fields, _ = DefaultRegistry().Validate(StepShipping, &draft, nil, nil)
	if msg := fields["shipping.weight"][0].Message; msg != "must be greater than 0" {
		t.Fatalf("unexpected weight message %q", msg)
	}
}

func TestBasicsRejectsWhitespaceName(t *testing.T) {
	draft := NewDraft()
	draft.Basics.Name = "   "
	fields, err := DefaultRegistry().Validate(StepBasics, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !fields.Has("basics.name", "required") {
		t.Fatalf("expected whitespace name to be required, got %v", fields)
	}
}

func TestVariantChecks(t *testing.T) {
	color := testOption("Color", 0, "Red", "Red", "")
	color.Values[0].ColorHex = "red"
	draft := ProductDraft{
		Variants: []VariantOption{
			color,
			testOption("color", 1, "Blue"),
			testOption("Size", 2),
		},
	}

	fields, err := DefaultRegistry().Validate(StepVariants, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	checks := []struct{ path, rule string }{
		{"variants[0].values[0].colorHex", "hexcolor"},
		{"variants[0].values[1].text", "unique"},
		{"variants[0].values[2].text", "required"},
		{"variants[1].name", "unique"},
		{"variants[2].values", "min"},
	}
	for _, check := range checks {
		if !fields.Has(check.path, check.rule) {
			t.Fatalf("expected %s on %s, got %v", check.rule, check.path, fields.Paths())
		}
	}
	if fields.Has("variants[0].values", "min") {
		t.Fatalf("option with participating values must not fail min")
	}
}

func TestVariantTextsWithDelimiterFailGate(t *testing.T) {
	draft := ProductDraft{
		Variants: []VariantOption{
			testOption("Size", 0, "x/y", "x"),
			testOption("Fit", 1, "z", "y/z"),
		},
	}

	fields, err := DefaultRegistry().Validate(StepVariants, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []string{"variants[0].values[0].text", "variants[1].values[1].text"}
	if diff := cmp.Diff(want, fields.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	for _, path := range want {
		if !fields.Has(path, "delimiter") {
			t.Fatalf("expected delimiter rule on %s, got %v", path, fields[path])
		}
	}
}

func TestTagsRejectBlankEntries(t *testing.T) {
	draft := ProductDraft{Tags: []string{"summer", " ", "linen"}}
	fields, err := DefaultRegistry().Validate(StepTags, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"tags[1]"}, fields.Paths()); diff != "" {
		t.Fatalf("tags paths mismatch (-want +got):\n%s", diff)
	}
}

func pricingDraft(rows ...PricingRow) ProductDraft {
	return ProductDraft{Pricing: rows}
}

func TestPricingRules(t *testing.T) {
	evaluators := map[string]Evaluator{
		"expr": NewExprEvaluator(ExprWithFunctionRegistry(DefaultFunctions())),
		"cel":  NewCELEvaluator(CELWithFunctionRegistry(DefaultFunctions())),
	}
	for name, evaluator := range evaluators {
		t.Run(name, func(t *testing.T) {
			draft := pricingDraft(
				PricingRow{Variant: "Red", Quantity: 1, RegularPrice: 10, IncludeTax: true},
				PricingRow{Variant: "Blue", Quantity: 1, RegularPrice: 10, SalePrice: 12},
				PricingRow{Variant: "Green", Quantity: 1, RegularPrice: 10, SalePrice: 8, IncludeTax: true, Tax: 2},
			)
			var events []EvaluatorLogEvent
			logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
				events = append(events, event)
			})

			fields, err := DefaultRegistry().Validate(StepPricing, &draft, evaluator, logger)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if diff := cmp.Diff([]string{"pricing[0].tax", "pricing[1].salePrice"}, fields.Paths()); diff != "" {
				t.Fatalf("pricing paths mismatch (-want +got):\n%s", diff)
			}
			if !fields.Has("pricing[0].tax", "required_if") || !fields.Has("pricing[1].salePrice", "lte_regular") {
				t.Fatalf("unexpected rules: %v", fields)
			}
			if fields["pricing[0].tax"][0].Message != "is required when tax is included" {
				t.Fatalf("unexpected message %q", fields["pricing[0].tax"][0].Message)
			}

			// required_if: three gates, two asserts. lte_regular: three asserts.
			if len(events) != 8 {
				t.Fatalf("expected 8 evaluations logged, got %d", len(events))
			}
			for _, event := range events {
				if event.Engine != name || event.Err != nil {
					t.Fatalf("unexpected log event %+v", event)
				}
			}
		})
	}
}

func TestStepScopeRuleOnCollection(t *testing.T) {
	registry := DefaultRegistry()
	err := registry.AddRules(StepTags, Rule{
		Name:    "max_tags",
		Scope:   RuleScopeStep,
		Assert:  "count <= 2",
		Message: "at most two tags",
	})
	if err != nil {
		t.Fatalf("AddRules: %v", err)
	}

	draft := ProductDraft{Tags: []string{"a", "b", "c"}}
	fields, err := registry.Validate(StepTags, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !fields.Has("tags", "max_tags") {
		t.Fatalf("expected max_tags on tags, got %v", fields)
	}

	draft.Tags = draft.Tags[:2]
	fields, _ = registry.Validate(StepTags, &draft, nil, nil)
	if !fields.Empty() {
		t.Fatalf("expected two tags to pass, got %v", fields)
	}
}

func TestRowScopeRuleOnScalarRows(t *testing.T) {
	registry := DefaultRegistry()
	err := registry.AddRules(StepTags, Rule{
		Name:   "lowercase",
		Scope:  RuleScopeRows,
		Assert: `regex(value, "^[a-z]+$")`,
	})
	if err != nil {
		t.Fatalf("AddRules: %v", err)
	}
	draft := ProductDraft{Tags: []string{"summer", "Linen"}}
	evaluator := NewExprEvaluator(ExprWithFunctionRegistry(DefaultFunctions()))
	fields, err := registry.Validate(StepTags, &draft, evaluator, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"tags[1]"}, fields.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if fields["tags[1]"][0].Message != "is invalid" {
		t.Fatalf("expected default message, got %q", fields["tags[1]"][0].Message)
	}
}

func TestRuleMustReturnBool(t *testing.T) {
	registry := DefaultRegistry()
	if err := registry.AddRules(StepBasics, Rule{Name: "not_bool", Path: "name", Assert: "name"}); err != nil {
		t.Fatalf("AddRules: %v", err)
	}
	draft := ProductDraft{Basics: Basics{Name: "Shirt"}}
	_, err := registry.Validate(StepBasics, &draft, nil, nil)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "bool") {
		t.Fatalf("expected bool in error, got %v", err)
	}
}

func TestRowScopeOnStructStepFails(t *testing.T) {
	registry := DefaultRegistry()
	if err := registry.AddRules(StepShipping, Rule{Scope: RuleScopeRows, Assert: "true"}); err != nil {
		t.Fatalf("AddRules: %v", err)
	}
	draft := NewDraft()
	if _, err := registry.Validate(StepShipping, &draft, nil, nil); err == nil {
		t.Fatalf("expected error for row rule on shipping")
	}
}

func TestRegistryRejectsInvalidContracts(t *testing.T) {
	registry := DefaultRegistry()
	if err := registry.Register(&Contract{Step: StepPublish}); err == nil {
		t.Fatalf("expected publish contract to be rejected")
	}
	if err := registry.Register(&Contract{Step: Step(42)}); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil contract to be rejected")
	}
	if err := registry.AddRules(StepBasics, Rule{Name: "empty"}); err == nil {
		t.Fatalf("expected empty assert to be rejected")
	}
	if err := registry.AddRules(StepBasics, Rule{Assert: "true", Scope: "page"}); err == nil {
		t.Fatalf("expected unknown scope to be rejected")
	}
	if registry.SchemaFor(StepPublish) != nil {
		t.Fatalf("publish must not have a contract")
	}
}

func TestRegistryCloneIsolation(t *testing.T) {
	base := DefaultRegistry()
	clone := base.Clone()
	if err := clone.AddRules(StepPricing, Rule{Name: "extra", Assert: "true"}); err != nil {
		t.Fatalf("AddRules: %v", err)
	}
	if got := len(base.SchemaFor(StepPricing).Rules); got != len(DefaultPricingRules()) {
		t.Fatalf("clone leaked rules into base: %d", got)
	}
	if got := len(clone.SchemaFor(StepPricing).Rules); got != len(DefaultPricingRules())+1 {
		t.Fatalf("expected clone to carry the extra rule, got %d", got)
	}
}

func TestNewRegistryWithCustomContract(t *testing.T) {
	registry, err := NewRegistry(&Contract{
		Step:     StepBasics,
		SkipTags: true,
		Rules: []Rule{{
			Name:    "short",
			Path:    "name",
			Assert:  "len(name) <= 5",
			Message: "is too long",
		}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	draft := ProductDraft{Basics: Basics{Name: "Extra long name"}}
	fields, err := registry.Validate(StepBasics, &draft, nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := FieldErrors{"basics.name": {{Path: "basics.name", Rule: "short", Message: "is too long"}}}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	draft.Basics.Name = ""
	fields, _ = registry.Validate(StepBasics, &draft, nil, nil)
	if !fields.Empty() {
		t.Fatalf("SkipTags must skip the required tag, got %v", fields)
	}
	fields, _ = registry.Validate(StepInfo, &draft, nil, nil)
	if !fields.Empty() {
		t.Fatalf("steps without contracts pass, got %v", fields)
	}
}

func TestDescribeStep(t *testing.T) {
	draft := NewDraft()
	draft.Basics.Name = "Shirt"
	fields, err := DescribeStep(draft, StepBasics)
	if err != nil {
		t.Fatalf("DescribeStep: %v", err)
	}
	want := []FieldDescriptor{
		{Path: "basics.description", Type: "string"},
		{Path: "basics.name", Type: "string"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}

	fields, err = DescribeStep(draft, StepTags)
	if err != nil {
		t.Fatalf("DescribeStep: %v", err)
	}
	if diff := cmp.Diff([]FieldDescriptor{{Path: "tags", Type: "array"}}, fields); diff != "" {
		t.Fatalf("empty tags mismatch (-want +got):\n%s", diff)
	}

	fields, _ = DescribeStep(draft, StepPublish)
	if len(fields) != 0 {
		t.Fatalf("publish owns no fields, got %v", fields)
	}
}
