package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-listing/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards wizard activity to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel overrides the record channel when the event has none.
	Channel string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	channel := normalized.Channel
	if channel == "" {
		channel = strings.TrimSpace(h.Channel)
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    channel,
		Data:       recordData(normalized),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	return h.Sink.Log(ctx, record)
}

func recordData(event activity.Event) map[string]any {
	var data map[string]any
	set := func(key string, value any) {
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	for key, value := range event.Metadata {
		set(key, value)
	}
	if event.DefinitionCode != "" {
		set("definition_code", event.DefinitionCode)
	}
	if len(event.Recipients) > 0 {
		set("recipients", append([]string{}, event.Recipients...))
	}
	return data
}

// parseUUID returns uuid.Nil for identifiers that are not UUIDs.
func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
