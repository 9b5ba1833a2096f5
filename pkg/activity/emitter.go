package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "listing"

// Config controls an Emitter.
type Config struct {
	Enabled bool
	Channel string
	// Verbs limits emission to the listed verbs. Empty emits every verb.
	Verbs []string
}

// Emitter stamps the wizard's channel on events and forwards the ones its
// verb filter admits.
type Emitter struct {
	hooks   Hooks
	channel string
	verbs   map[string]struct{}
}

// NewEmitter returns nil when cfg is disabled or no usable hook remains; a
// nil *Emitter is valid and emits nothing.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	hooks = CloneHooks(hooks)
	if !cfg.Enabled || len(hooks) == 0 {
		return nil
	}
	e := &Emitter{hooks: hooks, channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			if e.verbs == nil {
				e.verbs = map[string]struct{}{}
			}
			e.verbs[verb] = struct{}{}
		}
	}
	return e
}

func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Admits reports whether events with verb reach the hooks.
func (e *Emitter) Admits(verb string) bool {
	if !e.Enabled() {
		return false
	}
	if e.verbs == nil {
		return true
	}
	_, ok := e.verbs[verb]
	return ok
}

func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Admits(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

// CloneHooks copies hooks without nil entries, or returns nil if none remain.
func CloneHooks(hooks Hooks) Hooks {
	var out Hooks
	for _, hook := range hooks {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}
