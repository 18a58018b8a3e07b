package rabbitmq

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/suPer8Hu/chainbot/internal/events"
)

type EventEnvelope struct {
	EventID     string          `json:"event_id"`
	Kind        events.Kind     `json:"kind"`
	Message     *events.Message `json:"message,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
}

func decodeEnvelope(body []byte) (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return EventEnvelope{}, err
	}
	if env.Kind == "" {
		return EventEnvelope{}, errors.New("rabbitmq: envelope without kind")
	}
	if env.Kind == events.KindMessageCreate && env.Message == nil {
		return EventEnvelope{}, errors.New("rabbitmq: message event without message")
	}
	return env, nil
}
