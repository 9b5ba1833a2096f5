package listing

import (
	"context"
	"strings"
)

// SubmissionPayload is the body handed to the backend on submit.
type SubmissionPayload struct {
	Name           string              `json:"name" validate:"required"`
	Description    string              `json:"description"`
	Category       string              `json:"category" validate:"required"`
	Subcategory    string              `json:"subcategory"`
	Brand          string              `json:"brand"`
	Vendor         string              `json:"vendor"`
	Collection     string              `json:"collection"`
	Condition      string              `json:"condition"`
	Images         []string            `json:"images" validate:"required"`
	Variants       []SubmissionVariant `json:"variants" validate:"required"`
	Inventories    []InventoryRow      `json:"inventories" validate:"required"`
	VariantPricing []PricingRow        `json:"variantPricing" validate:"required"`
	Shipping       Shipping            `json:"shipping" validate:"required"`
	Tags           []string            `json:"tags" validate:"required"`
}

// SubmissionVariant is one option with its participating values.
type SubmissionVariant struct {
	Name  string                  `json:"name" validate:"required"`
	Items []SubmissionVariantItem `json:"items" validate:"required"`
}

// SubmissionVariantItem is one value. Color is set only on the color option.
type SubmissionVariantItem struct {
	Value  string   `json:"value" validate:"required"`
	Color  string   `json:"color,omitempty"`
	Images []string `json:"images" validate:"required"`
}

// Submitter delivers an assembled payload.
type Submitter interface {
	Submit(ctx context.Context, payload SubmissionPayload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, payload SubmissionPayload) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, payload SubmissionPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// Assemble flattens draft into a payload. Options and values follow
// OrderIndex, blank values and options without values are omitted, and every
// slice is non-nil so it encodes as [] rather than null. Inventory and
// pricing rows are emitted in the draft's combination order.
func Assemble(draft ProductDraft) SubmissionPayload {
	payload := SubmissionPayload{
		Name:           strings.TrimSpace(draft.Basics.Name),
		Description:    draft.Basics.Description,
		Category:       draft.Info.Category,
		Subcategory:    draft.Info.Subcategory,
		Brand:          draft.Info.Brand,
		Vendor:         draft.Info.Vendor,
		Collection:     draft.Info.Collection,
		Condition:      draft.Info.Condition,
		Images:         nonNilStrings(draft.Media.ImageIDs),
		Variants:       []SubmissionVariant{},
		Inventories:    append([]InventoryRow{}, draft.Inventories...),
		VariantPricing: append([]PricingRow{}, draft.Pricing...),
		Shipping:       draft.Shipping,
		Tags:           nonNilStrings(draft.Tags),
	}

	for _, option := range orderedOptions(draft.Variants) {
		color := option.IsColor()
		items := []SubmissionVariantItem{}
		for _, value := range option.OrderedValues() {
			text := strings.TrimSpace(value.Text)
			if text == "" {
				continue
			}
			item := SubmissionVariantItem{Value: text, Images: nonNilStrings(value.LinkedImageIDs)}
			if color {
				item.Color = value.ColorHex
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			continue
		}
		payload.Variants = append(payload.Variants, SubmissionVariant{
			Name:  strings.TrimSpace(option.Name),
			Items: items,
		})
	}
	return payload
}

func nonNilStrings(values []string) []string {
	return append([]string{}, values...)
}
