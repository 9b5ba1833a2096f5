package activity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Event is one wizard lifecycle record: a step transition, a variant resync,
// a submission or an abandonment. ObjectID is the draft ID. IDs are plain
// strings so hooks decide how to parse them.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Complete reports whether the event names a verb and a draft.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered fan-out list.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event once and hands the same copy to every hook.
// Incomplete events are dropped. Every hook runs; failures are joined and
// tagged with the verb and hook position.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var failures []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			failures = append(failures, fmt.Errorf("activity: %s hook %d: %w", event.Verb, i, err))
		}
	}
	return errors.Join(failures...)
}

// NormalizeEvent trims identifiers and recipients, drops blank or repeated
// recipients, detaches metadata from the caller and stamps OccurredAt when
// missing.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel, &event.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	var recipients []string
	for _, r := range event.Recipients {
		if r = strings.TrimSpace(r); r != "" && !slices.Contains(recipients, r) {
			recipients = append(recipients, r)
		}
	}
	event.Recipients = recipients
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
