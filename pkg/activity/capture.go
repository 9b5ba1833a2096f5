package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives, normalized. Err, when set, is
// returned from each Notify after the event is kept.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	event = NormalizeEvent(event)
	h.mu.Lock()
	h.Events = append(h.Events, event)
	err := h.Err
	h.mu.Unlock()
	return err
}

// Verbs lists the captured verbs in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Events))
	for _, event := range h.Events {
		out = append(out, event.Verb)
	}
	return out
}

// Last returns the newest event with verb, or false if none arrived.
func (h *CaptureHook) Last(verb string) (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.Events) - 1; i >= 0; i-- {
		if h.Events[i].Verb == verb {
			return h.Events[i], true
		}
	}
	return Event{}, false
}
