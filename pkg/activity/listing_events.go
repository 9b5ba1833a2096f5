package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the listing wizard.
const (
	VerbStepAdvanced     = "listing.step.advanced"
	VerbStepBlocked      = "listing.step.blocked"
	VerbStepJumped       = "listing.step.jumped"
	VerbVariantsResynced = "listing.variants.resynced"
	VerbSubmitted        = "listing.submitted"
	VerbAbandoned        = "listing.abandoned"
)

// ObjectTypeDraft is the object type of every listing event.
const ObjectTypeDraft = "listing.draft"

// DraftContext identifies the draft and the actor behind an event.
type DraftContext struct {
	DraftID        string
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// StepTransition describes a navigation attempt.
type StepTransition struct {
	From      string
	FromIndex int
	To        string
	ToIndex   int
	// Paths lists failing field paths for blocked transitions.
	Paths []string
}

// ResyncSummary describes a variant resync.
type ResyncSummary struct {
	Keys    int
	Kept    int
	Added   int
	Dropped int
}

// SubmissionSummary describes an accepted submission.
type SubmissionSummary struct {
	Name         string
	Variants     int
	Combinations int
}

// BuildStepAdvancedEvent reports a step that passed its contract.
func BuildStepAdvancedEvent(draft DraftContext, transition StepTransition) Event {
	return buildDraftEvent(VerbStepAdvanced, draft, transitionMetadata(transition))
}

// BuildStepBlockedEvent reports a step whose contract failed.
func BuildStepBlockedEvent(draft DraftContext, transition StepTransition) Event {
	meta := transitionMetadata(transition)
	if len(transition.Paths) > 0 {
		meta["failed_paths"] = append([]string{}, transition.Paths...)
		meta["error_count"] = len(transition.Paths)
	}
	return buildDraftEvent(VerbStepBlocked, draft, meta)
}

// BuildStepJumpedEvent reports an unvalidated jump.
func BuildStepJumpedEvent(draft DraftContext, transition StepTransition) Event {
	return buildDraftEvent(VerbStepJumped, draft, transitionMetadata(transition))
}

// BuildVariantsResyncedEvent reports dependent rows reconciled to a new
// combination set.
func BuildVariantsResyncedEvent(draft DraftContext, summary ResyncSummary) Event {
	return buildDraftEvent(VerbVariantsResynced, draft, map[string]any{
		"combinations": summary.Keys,
		"kept":         summary.Kept,
		"added":        summary.Added,
		"dropped":      summary.Dropped,
	})
}

// BuildSubmittedEvent reports a payload accepted by the submitter.
func BuildSubmittedEvent(draft DraftContext, summary SubmissionSummary) Event {
	meta := map[string]any{
		"variants":     summary.Variants,
		"combinations": summary.Combinations,
	}
	if name := strings.TrimSpace(summary.Name); name != "" {
		meta["name"] = name
	}
	return buildDraftEvent(VerbSubmitted, draft, meta)
}

// BuildAbandonedEvent reports a wizard closed without submitting.
func BuildAbandonedEvent(draft DraftContext, step string) Event {
	meta := map[string]any{}
	if step != "" {
		meta["step"] = step
	}
	return buildDraftEvent(VerbAbandoned, draft, meta)
}

func transitionMetadata(transition StepTransition) map[string]any {
	return map[string]any{
		"from":       transition.From,
		"from_index": transition.FromIndex,
		"to":         transition.To,
		"to_index":   transition.ToIndex,
	}
}

func buildDraftEvent(verb string, draft DraftContext, extra map[string]any) Event {
	metadata := cloneMap(draft.Metadata)
	for key, value := range extra {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	var recipients []string
	if len(draft.Recipients) > 0 {
		recipients = append([]string{}, draft.Recipients...)
	}

	objectID := strings.TrimSpace(draft.DraftID)
	if objectID == "" {
		objectID = ObjectTypeDraft
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(draft.ActorID),
		UserID:         strings.TrimSpace(draft.UserID),
		TenantID:       strings.TrimSpace(draft.TenantID),
		ObjectType:     ObjectTypeDraft,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(draft.Channel),
		DefinitionCode: strings.TrimSpace(draft.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     draft.OccurredAt,
	}
}
