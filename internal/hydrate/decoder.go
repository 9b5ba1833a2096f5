// Package hydrate turns generic JSON-shaped draft payloads back into typed
// drafts. Field edits arrive as a path and a value; the draft is rendered to
// a payload, the value is set at the path and the payload is decoded again.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the draft field a payload change came from.
type Context struct {
	DraftID string
	Step    string
	Path    string
}

func (c Context) label() string {
	if c.Path == "" {
		return c.DraftID
	}
	return c.DraftID + ":" + c.Path
}

// PreHook may rewrite the payload before decoding. Returning nil keeps the
// payload it was given.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or rejects the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces JSON decoding.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

type DecoderOption[T any] func(*Decoder[T])

// Decoder is safe for concurrent use once built.
type Decoder[T any] struct {
	pre    []PreHook
	post   []PostHook[T]
	strict bool
	custom CustomDecoder[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithDisallowUnknownFields rejects payload keys that have no matching field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre-hooks, decodes and runs the post-hooks. The caller's
// payload is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %q", ctx.label())
	}
	working, err := roundTrip(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: copy payload for %q: %w", ctx.label(), err)
	}
	for _, hook := range d.pre {
		next, err := hook(ctx, working)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.label(), err)
		}
		if next != nil {
			working = next
		}
	}

	result, err := d.decode(ctx, working)
	if err != nil {
		return zero, err
	}
	for _, hook := range d.post {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.label(), err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	var result T
	if d.custom != nil {
		result, err := d.custom(ctx, payload)
		if err != nil {
			return result, fmt.Errorf("hydrate: custom decoder for %q failed: %w", ctx.label(), err)
		}
		return result, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("hydrate: marshal payload for %q: %w", ctx.label(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&result); err != nil {
		return result, fmt.Errorf("hydrate: decode %q: %w", ctx.label(), err)
	}
	return result, nil
}

// ToPayload renders value as a generic JSON object.
func ToPayload(value any) (map[string]any, error) {
	out, err := roundTrip(value)
	if err != nil {
		return nil, fmt.Errorf("hydrate: payload is not an object: %w", err)
	}
	return out, nil
}

// roundTrip deep-copies value through JSON into a fresh object.
func roundTrip(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
