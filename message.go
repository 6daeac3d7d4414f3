package realtime

import "encoding/json"

// Message is the envelope exchanged over the WebSocket: a topic, a tagged
// payload, and an optional correlation ref. On the wire the payload's
// discriminator and content sit alongside topic and ref as flat top-level
// fields ("topic", "event", "payload", "ref").
type Message struct {
	Topic   string
	Payload Payload
	Ref     string // "" means the wire ref was absent or null.
}

type wireMessage struct {
	Topic   string          `json:"topic"`
	Event   PayloadKind     `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

// MarshalJSON encodes the message in the flat wire form described above.
func (m Message) MarshalJSON() ([]byte, error) {
	payloadBytes, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, err
	}

	var ref *string
	if m.Ref != "" {
		ref = &m.Ref
	}

	return json.Marshal(wireMessage{
		Topic:   m.Topic,
		Event:   m.Payload.Kind(),
		Payload: payloadBytes,
		Ref:     ref,
	})
}

// UnmarshalJSON decodes a flat wire-form message, dispatching on the
// "event" discriminator to the concrete Payload type.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	payload, err := decodePayload(w.Event, w.Payload)
	if err != nil {
		return err
	}

	m.Topic = w.Topic
	m.Payload = payload
	if w.Ref != nil {
		m.Ref = *w.Ref
	} else {
		m.Ref = ""
	}
	return nil
}

// heartbeatMessage is the fixed keepalive frame sent on the reserved
// "phoenix" topic every heartbeat interval.
func heartbeatMessage() Message {
	return Message{Topic: "phoenix", Payload: Heartbeat{}}
}
