package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-listing/internal/hydrate"
)

// FieldChange sets the value at Path, a JSON path into the draft such as
// "basics.name" or "pricing[2].tax". Path must belong to Step.
type FieldChange struct {
	Step  Step
	Path  string
	Value any
}

// ReorderEvent moves an element of Collection from index From to index To.
// Collection is one of "variants", "variants.<optionID>.values",
// "media.imageIds" or "tags".
type ReorderEvent struct {
	Collection string
	From       int
	To         int
}

var draftDecoder = hydrate.NewDecoder[ProductDraft](
	hydrate.WithDisallowUnknownFields[ProductDraft](),
)

// ApplyFieldChange writes change into the draft. The draft is rendered to
// JSON, the path is set and the result is decoded back, so unknown fields and
// type mismatches are rejected. Only the sub-state of change.Step is taken
// from the decoded draft. Identifiers and row keys are read-only; variant
// changes resync dependent rows.
func (w *Wizard) ApplyFieldChange(ctx context.Context, change FieldChange) error {
	if w.closed {
		return ErrWizardClosed
	}
	if !change.Step.Valid() || change.Step == LastStep {
		return fmt.Errorf("%w: %s has no fields", ErrStepOutOfRange, change.Step)
	}
	segments, err := hydrate.ParsePath(change.Path)
	if err != nil {
		return err
	}
	if segments[0].IsIndex || segments[0].Key != change.Step.Root() {
		return fmt.Errorf("%w: %q is not in step %s", ErrFieldOutsideStep, change.Path, change.Step)
	}
	if readOnlyPath(segments) {
		return fmt.Errorf("%w: %q", ErrReadOnlyField, change.Path)
	}

	start := time.Now()
	payload, err := hydrate.ToPayload(w.draft)
	if err != nil {
		return err
	}
	if err := hydrate.SetPath(payload, change.Path, change.Value); err != nil {
		return err
	}
	decoded, err := draftDecoder.Decode(hydrate.Context{
		DraftID: w.id,
		Step:    change.Step.String(),
		Path:    change.Path,
	}, payload)
	if err != nil {
		return err
	}

	w.draft.replaceStep(change.Step, &decoded)
	if change.Step == StepVariants {
		w.draft.clearForeignColors()
		w.resync(ctx)
	}
	w.logger.LogWizard(WizardLogEvent{
		DraftID:  w.id,
		Action:   "field",
		From:     w.progress.ActiveStep,
		To:       w.progress.ActiveStep,
		Keys:     len(w.keys),
		Duration: time.Since(start),
	})
	return nil
}

// ApplyReorder dispatches a reorder event to the matching collection.
func (w *Wizard) ApplyReorder(ctx context.Context, event ReorderEvent) error {
	if w.closed {
		return ErrWizardClosed
	}
	switch collection := strings.TrimSpace(event.Collection); {
	case collection == "variants":
		return w.MoveVariantOption(ctx, event.From, event.To)
	case collection == "media.imageIds":
		moved, err := Move(w.draft.Media.ImageIDs, event.From, event.To)
		if err != nil {
			return err
		}
		w.draft.Media.ImageIDs = moved
		return nil
	case collection == "tags":
		moved, err := Move(w.draft.Tags, event.From, event.To)
		if err != nil {
			return err
		}
		w.draft.Tags = moved
		return nil
	case strings.HasPrefix(collection, "variants.") && strings.HasSuffix(collection, ".values"):
		optionID := strings.TrimSuffix(strings.TrimPrefix(collection, "variants."), ".values")
		if optionID == "" {
			break
		}
		return w.MoveVariantValue(ctx, optionID, event.From, event.To)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, event.Collection)
}

// readOnlyPath rejects writes to identifiers, row keys and the derived row
// collections as a whole.
func readOnlyPath(segments []hydrate.Segment) bool {
	root := segments[0].Key
	last := segments[len(segments)-1]
	switch root {
	case "variants":
		if len(segments) <= 2 {
			return true
		}
		if last.IsIndex {
			return segments[len(segments)-2].Key == "values"
		}
		return last.Key == "id" || last.Key == "values"
	case "inventories", "pricing":
		if len(segments) <= 2 {
			return true
		}
		return !last.IsIndex && last.Key == "variant"
	}
	return false
}

func (d *ProductDraft) replaceStep(step Step, from *ProductDraft) {
	switch step {
	case StepBasics:
		d.Basics = from.Basics
	case StepInfo:
		d.Info = from.Info
	case StepMedia:
		d.Media = from.Media
	case StepVariants:
		d.Variants = from.Variants
	case StepInventory:
		d.Inventories = from.Inventories
	case StepPricing:
		d.Pricing = from.Pricing
	case StepShipping:
		d.Shipping = from.Shipping
	case StepTags:
		d.Tags = from.Tags
	}
}

func (d *ProductDraft) clearForeignColors() {
	for i := range d.Variants {
		if d.Variants[i].IsColor() {
			continue
		}
		for j := range d.Variants[i].Values {
			d.Variants[i].Values[j].ColorHex = ""
		}
	}
}
