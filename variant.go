package listing

import (
	"sort"
	"strings"
)

// CombinationDelimiter joins value texts inside a CombinationKey.
const CombinationDelimiter = "/"

// NoVariantsKey is the single combination produced when no option
// contributes values.
const NoVariantsKey CombinationKey = "N/A"

// CombinationKey identifies one Cartesian combination of variant values,
// e.g. "Red/M".
type CombinationKey string

func (k CombinationKey) String() string {
	return string(k)
}

// VariantOption is a named axis of variation such as Color or Size.
type VariantOption struct {
	ID         string         `json:"id"`
	Name       string         `json:"name" validate:"required"`
	OrderIndex int            `json:"orderIndex"`
	Values     []VariantValue `json:"values" validate:"dive"`
}

// VariantValue is one concrete value on an option's axis.
type VariantValue struct {
	ID             string   `json:"id"`
	Text           string   `json:"text" validate:"required"`
	ColorHex       string   `json:"colorHex,omitempty" validate:"omitempty,hexcolor"`
	LinkedImageIDs []string `json:"linkedImageIds"`
	OrderIndex     int      `json:"orderIndex"`
}

// IsColor reports whether the option is the reserved color kind. Only values
// of color options carry a ColorHex.
func (o VariantOption) IsColor() bool {
	return isColorName(o.Name)
}

func isColorName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "color", "colour":
		return true
	default:
		return false
	}
}

// OrderedValues returns the option's values sorted by OrderIndex. Ties keep
// slice order.
func (o VariantOption) OrderedValues() []VariantValue {
	out := append([]VariantValue(nil), o.Values...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// participatingTexts returns trimmed, non-empty value texts in order.
func (o VariantOption) participatingTexts() []string {
	values := o.OrderedValues()
	texts := make([]string, 0, len(values))
	for _, value := range values {
		text := strings.TrimSpace(value.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// orderedOptions returns a copy of options sorted by OrderIndex.
func orderedOptions(options []VariantOption) []VariantOption {
	out := append([]VariantOption(nil), options...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// normalizeOrder sorts options and their values by OrderIndex and rewrites
// the indices so siblings form a contiguous 0..n-1 sequence.
func normalizeOrder(options []VariantOption) []VariantOption {
	if options == nil {
		return nil
	}
	out := orderedOptions(options)
	for i := range out {
		out[i].OrderIndex = i
		values := out[i].OrderedValues()
		for j := range values {
			values[j].OrderIndex = j
		}
		out[i].Values = values
	}
	return out
}

// renumber rewrites OrderIndex from slice position without sorting. Used
// after a positional move.
func renumberOptions(options []VariantOption) {
	for i := range options {
		options[i].OrderIndex = i
	}
}

func renumberValues(values []VariantValue) {
	for i := range values {
		values[i].OrderIndex = i
	}
}

func findOption(options []VariantOption, id string) int {
	for i := range options {
		if options[i].ID == id {
			return i
		}
	}
	return -1
}

func findValue(values []VariantValue, id string) int {
	for i := range values {
		if values[i].ID == id {
			return i
		}
	}
	return -1
}
