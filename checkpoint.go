package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-listing/pkg/state"
)

var (
	ErrNoCheckpointStore = errors.New("listing: checkpoint store not configured")
	ErrNoSnapshot        = errors.New("listing: no stored snapshot")
)

// Snapshot is the persisted form of a wizard.
type Snapshot struct {
	DraftID    string       `json:"draftId"`
	Draft      ProductDraft `json:"draft"`
	ActiveStep Step         `json:"activeStep"`
	Completed  []Step       `json:"completed"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	s.Draft = s.Draft.Clone()
	s.Completed = append([]Step(nil), s.Completed...)
	return s
}

// Snapshot captures the draft and navigation state.
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		DraftID:    w.id,
		Draft:      w.draft.Clone(),
		ActiveStep: w.progress.ActiveStep,
		Completed:  w.progress.CompletedSteps(),
	}
}

// Checkpoint saves the wizard to the configured store. Concurrent writers
// of the same draft fail with state.ErrETagMismatch.
func (w *Wizard) Checkpoint(ctx context.Context) (state.Meta, error) {
	if w.closed {
		return state.Meta{}, ErrWizardClosed
	}
	if w.cfg.store == nil {
		return state.Meta{}, ErrNoCheckpointStore
	}
	resolver := state.Resolver[Snapshot]{Store: w.cfg.store, Now: w.cfg.now}
	meta, err := resolver.Checkpoint(ctx, w.checkpointRef(), w.Snapshot(), state.Meta{ETag: w.etag})
	if err != nil {
		return meta, fmt.Errorf("listing: checkpoint %s: %w", w.id, err)
	}
	w.etag = meta.ETag
	return meta, nil
}

// ResumeWizard rebuilds a wizard from the snapshot stored under ref. opts are
// applied after the stored state, so registry, evaluator and logging options
// work as with NewWizard.
func ResumeWizard(ctx context.Context, store state.Store[Snapshot], ref state.Ref, opts ...Option) (*Wizard, error) {
	resolver := state.Resolver[Snapshot]{Store: store}
	snapshot, meta, ok, err := resolver.Resume(ctx, ref, Snapshot{})
	if err != nil {
		return nil, fmt.Errorf("listing: resume %s: %w", ref.DraftID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, ref.DraftID)
	}

	progress := newProgress()
	progress.ActiveStep = snapshot.ActiveStep
	for _, step := range snapshot.Completed {
		if step.Valid() {
			progress.markCompleted(step)
		}
	}
	id := snapshot.DraftID
	if id == "" {
		id = ref.DraftID
	}

	base := []Option{
		WithDraftID(id),
		WithDraft(snapshot.Draft),
		withProgress(progress),
		WithCheckpointStore(store, ref),
		withETag(meta.ETag),
	}
	return NewWizard(append(base, opts...)...)
}

func (w *Wizard) checkpointRef() state.Ref {
	ref := w.cfg.ref
	if ref.DraftID == "" {
		ref.DraftID = w.id
	}
	return ref
}
