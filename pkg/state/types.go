package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-listing/layering"
	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// DefaultDomain namespaces draft snapshots when Ref.Domain is empty.
const DefaultDomain = "listing"

// Ref identifies one persisted draft snapshot.
type Ref struct {
	Domain  string
	OwnerID string
	DraftID string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single draft reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Resolver layers stored snapshots over defaults and guards writes with
// ETags.
type Resolver[T any] struct {
	Store Store[T]
	// Now stamps Meta.UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

type Mutator[T any] func(*T) error

// Identifier returns the canonical storage key "<domain>/<owner>/<draft>".
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		domain = DefaultDomain
	}
	owner := strings.TrimSpace(r.OwnerID)
	if owner == "" {
		return "", fmt.Errorf("state: owner id is required")
	}
	draft := strings.TrimSpace(r.DraftID)
	if draft == "" {
		return "", fmt.Errorf("state: draft id is required")
	}
	if strings.Contains(owner, "/") || strings.Contains(draft, "/") {
		return "", fmt.Errorf("state: ids must not contain '/'")
	}
	return fmt.Sprintf("%s/%s/%s", domain, owner, draft), nil
}

// Resume loads the snapshot for ref layered over defaults. Zero fields in
// the stored snapshot fall back to defaults. ok is false when nothing was
// stored, in which case defaults are returned as-is.
func (r Resolver[T]) Resume(ctx context.Context, ref Ref, defaults T) (T, Meta, bool, error) {
	if r.Store == nil {
		return defaults, Meta{}, false, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return defaults, Meta{}, false, err
	}
	snapshot, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return defaults, Meta{}, false, fmt.Errorf("state: load %q: %w", ref.DraftID, err)
	}
	if !ok {
		return defaults, Meta{}, false, nil
	}
	return layering.MergeLayers(snapshot, defaults), meta, true, nil
}

// Checkpoint saves snapshot for ref. When expected.ETag is set it must match
// the stored ETag. Every save gets a fresh SnapshotID and ETag.
func (r Resolver[T]) Checkpoint(ctx context.Context, ref Ref, snapshot T, expected Meta) (Meta, error) {
	return r.Mutate(ctx, ref, expected, func(current *T) error {
		*current = snapshot
		return nil
	})
}

// Mutate loads one snapshot, applies fn, validates it when T implements
// Validate() error, then saves.
func (r Resolver[T]) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator[T]) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}
	if fn == nil {
		return Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", ref.DraftID, err)
	}
	if !ok {
		var zero T
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return loadedMeta, err
	}
	if v, ok := any(snapshot).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return loadedMeta, err
		}
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = uuid.NewString()
	saveMeta.UpdatedAt = r.now()
	savedMeta, err := r.Store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return loadedMeta, fmt.Errorf("state: save %q: %w", ref.DraftID, err)
	}
	return savedMeta, nil
}

func (r Resolver[T]) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
