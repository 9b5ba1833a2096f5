package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AddVariantOption appends an option named name and resyncs dependent rows.
func (w *Wizard) AddVariantOption(ctx context.Context, name string) (VariantOption, error) {
	if w.closed {
		return VariantOption{}, ErrWizardClosed
	}
	option := VariantOption{
		ID:         uuid.NewString(),
		Name:       name,
		OrderIndex: len(w.draft.Variants),
		Values:     []VariantValue{},
	}
	w.draft.Variants = append(w.draft.Variants, option)
	w.resync(ctx)
	return option, nil
}

// RenameVariantOption renames an option. Values lose their ColorHex when the
// option stops being the color kind.
func (w *Wizard) RenameVariantOption(ctx context.Context, optionID, name string) error {
	i, err := w.option(optionID)
	if err != nil {
		return err
	}
	option := &w.draft.Variants[i]
	option.Name = name
	if !option.IsColor() {
		for j := range option.Values {
			option.Values[j].ColorHex = ""
		}
	}
	w.resync(ctx)
	return nil
}

// RemoveVariantOption deletes an option with its values.
func (w *Wizard) RemoveVariantOption(ctx context.Context, optionID string) error {
	i, err := w.option(optionID)
	if err != nil {
		return err
	}
	w.draft.Variants = append(w.draft.Variants[:i], w.draft.Variants[i+1:]...)
	renumberOptions(w.draft.Variants)
	w.resync(ctx)
	return nil
}

// AddVariantValue appends a value to an option. colorHex is kept only on the
// color option. Non-empty texts must be unique within the option and must not
// contain CombinationDelimiter.
func (w *Wizard) AddVariantValue(ctx context.Context, optionID, text, colorHex string) (VariantValue, error) {
	i, err := w.option(optionID)
	if err != nil {
		return VariantValue{}, err
	}
	option := &w.draft.Variants[i]
	if err := checkValueText(*option, "", text); err != nil {
		return VariantValue{}, err
	}
	value := VariantValue{
		ID:             uuid.NewString(),
		Text:           text,
		LinkedImageIDs: []string{},
		OrderIndex:     len(option.Values),
	}
	if option.IsColor() {
		value.ColorHex = strings.TrimSpace(colorHex)
	}
	option.Values = append(option.Values, value)
	w.resync(ctx)
	return value, nil
}

// RenameVariantValue changes a value's text. The combination keys built from
// the old text disappear with their rows; rows for the new keys start empty.
func (w *Wizard) RenameVariantValue(ctx context.Context, optionID, valueID, text string) error {
	i, j, err := w.value(optionID, valueID)
	if err != nil {
		return err
	}
	option := &w.draft.Variants[i]
	if err := checkValueText(*option, valueID, text); err != nil {
		return err
	}
	option.Values[j].Text = text
	w.resync(ctx)
	return nil
}

// SetValueColor sets the ColorHex of a value on the color option.
func (w *Wizard) SetValueColor(optionID, valueID, colorHex string) error {
	i, j, err := w.value(optionID, valueID)
	if err != nil {
		return err
	}
	option := &w.draft.Variants[i]
	if !option.IsColor() {
		return fmt.Errorf("%w: option %q is not a color option", ErrReadOnlyField, option.Name)
	}
	option.Values[j].ColorHex = strings.TrimSpace(colorHex)
	return nil
}

// RemoveVariantValue deletes a value from an option.
func (w *Wizard) RemoveVariantValue(ctx context.Context, optionID, valueID string) error {
	i, j, err := w.value(optionID, valueID)
	if err != nil {
		return err
	}
	option := &w.draft.Variants[i]
	option.Values = append(option.Values[:j], option.Values[j+1:]...)
	renumberValues(option.Values)
	w.resync(ctx)
	return nil
}

// LinkValueImages replaces the images linked to a value. Blank and repeated
// IDs are dropped.
func (w *Wizard) LinkValueImages(optionID, valueID string, imageIDs []string) error {
	i, j, err := w.value(optionID, valueID)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(imageIDs))
	linked := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		linked = append(linked, id)
	}
	w.draft.Variants[i].Values[j].LinkedImageIDs = linked
	return nil
}

// MoveVariantOption relocates an option and resyncs, since option order
// shapes the combination keys.
func (w *Wizard) MoveVariantOption(ctx context.Context, from, to int) error {
	if w.closed {
		return ErrWizardClosed
	}
	moved, err := Move(w.draft.Variants, from, to)
	if err != nil {
		return err
	}
	renumberOptions(moved)
	w.draft.Variants = moved
	w.resync(ctx)
	return nil
}

// MoveVariantValue relocates a value within its option and resyncs.
func (w *Wizard) MoveVariantValue(ctx context.Context, optionID string, from, to int) error {
	i, err := w.option(optionID)
	if err != nil {
		return err
	}
	moved, err := Move(w.draft.Variants[i].Values, from, to)
	if err != nil {
		return err
	}
	renumberValues(moved)
	w.draft.Variants[i].Values = moved
	w.resync(ctx)
	return nil
}

// UpdateInventory edits the inventory row for key. The row's Variant is
// restored after fn returns.
func (w *Wizard) UpdateInventory(key CombinationKey, fn func(*InventoryRow)) error {
	if w.closed {
		return ErrWizardClosed
	}
	i := w.draft.inventoryIndex(key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCombination, key)
	}
	if fn != nil {
		fn(&w.draft.Inventories[i])
		w.draft.Inventories[i].Variant = key
	}
	return nil
}

// UpdatePricing edits the pricing row for key. The row's Variant is restored
// after fn returns.
func (w *Wizard) UpdatePricing(key CombinationKey, fn func(*PricingRow)) error {
	if w.closed {
		return ErrWizardClosed
	}
	i := w.draft.pricingIndex(key)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCombination, key)
	}
	if fn != nil {
		fn(&w.draft.Pricing[i])
		w.draft.Pricing[i].Variant = key
	}
	return nil
}

func (w *Wizard) option(optionID string) (int, error) {
	if w.closed {
		return -1, ErrWizardClosed
	}
	i := findOption(w.draft.Variants, optionID)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownOption, optionID)
	}
	return i, nil
}

func (w *Wizard) value(optionID, valueID string) (int, int, error) {
	i, err := w.option(optionID)
	if err != nil {
		return -1, -1, err
	}
	j := findValue(w.draft.Variants[i].Values, valueID)
	if j < 0 {
		return -1, -1, fmt.Errorf("%w: %q", ErrUnknownValue, valueID)
	}
	return i, j, nil
}

// checkValueText rejects texts that would make combination keys ambiguous:
// a text repeated within the option, or one containing CombinationDelimiter.
func checkValueText(option VariantOption, exceptID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.Contains(text, CombinationDelimiter) {
		return fmt.Errorf("%w: %q in option %q", ErrInvalidValueText, text, option.Name)
	}
	for _, value := range option.Values {
		if value.ID != exceptID && strings.TrimSpace(value.Text) == text {
			return fmt.Errorf("%w: %q in option %q", ErrDuplicateValue, text, option.Name)
		}
	}
	return nil
}
