package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/annel0/interactions/internal/interaction"
)

// PublishOutcome сериализует исход рецепта и публикует его как interaction.applied
func PublishOutcome(ctx context.Context, bus EventBus, source string, out interaction.Outcome) (*Envelope, error) {
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome %s: %w", out.RecipeID, err)
	}
	ev := NewEnvelope(TypeInteractionApplied, source, payload)
	ev.Metadata = map[string]string{"recipe": out.RecipeID}
	if err := bus.Publish(ctx, ev); err != nil {
		return nil, fmt.Errorf("publish outcome %s: %w", out.RecipeID, err)
	}
	return ev, nil
}

// DecodeOutcome извлекает исход из конверта interaction.applied
func DecodeOutcome(ev *Envelope) (interaction.Outcome, error) {
	var out interaction.Outcome
	if ev.EventType != TypeInteractionApplied {
		return out, fmt.Errorf("eventbus: unexpected event type %q", ev.EventType)
	}
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("decode outcome %s: %w", ev.ID, err)
	}
	return out, nil
}
