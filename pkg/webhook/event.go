package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is the parsed inbound gateway notification. Data keeps the
// provider-shaped payload raw so each handler decodes only the fields it
// needs, tolerating unknown shapes from other event families.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Object unmarshals the event's `data.object` payload into v.
func (e Event) Object(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: event has no data", ErrMalformedPayload)
	}
	var wrapper struct {
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(e.Data, &wrapper); err != nil {
		return errors.Join(ErrMalformedPayload, err)
	}
	if len(wrapper.Object) == 0 {
		return fmt.Errorf("%w: event data has no object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(wrapper.Object, v); err != nil {
		return errors.Join(ErrMalformedPayload, err)
	}
	return nil
}

// parseEvent decodes and minimally validates a raw webhook body. A missing
// type makes the event undispatchable, so it is rejected here rather than
// in every handler.
func parseEvent(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, errors.Join(ErrMalformedPayload, err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	return e, nil
}
