package realtime

import "encoding/json"

// Broadcast is the payload of a broadcast message: an application-defined
// event name plus an arbitrary JSON payload.
type Broadcast struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (Broadcast) Kind() PayloadKind { return KindBroadcast }
