package realtime

import (
	"encoding/json"
	"fmt"
)

// PayloadKind discriminates the twelve wire-protocol payload variants. The
// binding table in Channel is keyed on PayloadKind, not on the raw wire
// string, so dispatch is a single map lookup.
type PayloadKind string

const (
	KindPhxJoin         PayloadKind = "phx_join"
	KindPhxLeave        PayloadKind = "phx_leave"
	KindPhxReply        PayloadKind = "phx_reply"
	KindPhxClose        PayloadKind = "phx_close"
	KindPhxError        PayloadKind = "phx_error"
	KindHeartbeat       PayloadKind = "heartbeat"
	KindAccessToken     PayloadKind = "access_token"
	KindBroadcast       PayloadKind = "broadcast"
	KindPresenceState   PayloadKind = "presence_state"
	KindPresenceDiff    PayloadKind = "presence_diff"
	KindSystem          PayloadKind = "system"
	KindPostgresChanges PayloadKind = "postgres_changes"
)

// Payload is the tagged-union content of a Message. Every wire-protocol
// variant implements it; Kind reports the "event" discriminator used both
// on the wire and as the binding-table key.
type Payload interface {
	Kind() PayloadKind
}

// decodePayload unmarshals raw JSON content into the concrete Payload type
// named by kind. Unknown fields inside nested structures are tolerated by
// design (additive evolution); an unrecognized top-level kind is an error.
func decodePayload(kind PayloadKind, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch kind {
	case KindPhxJoin:
		var p PhxJoin
		return p, json.Unmarshal(raw, &p)
	case KindPhxLeave:
		return PhxLeave{}, nil
	case KindPhxReply:
		var p PhxReply
		return p, json.Unmarshal(raw, &p)
	case KindPhxClose:
		return PhxClose{}, nil
	case KindPhxError:
		return PhxError{}, nil
	case KindHeartbeat:
		return Heartbeat{}, nil
	case KindAccessToken:
		var p AccessToken
		return p, json.Unmarshal(raw, &p)
	case KindBroadcast:
		var p Broadcast
		return p, json.Unmarshal(raw, &p)
	case KindPresenceState:
		var p PresenceState
		return p, json.Unmarshal(raw, &p)
	case KindPresenceDiff:
		var p PresenceDiff
		return p, json.Unmarshal(raw, &p)
	case KindSystem:
		var p System
		return p, json.Unmarshal(raw, &p)
	case KindPostgresChanges:
		var p PostgresChangesPayload
		return p, json.Unmarshal(raw, &p)
	default:
		return nil, fmt.Errorf("realtime: unrecognized payload kind %q", kind)
	}
}
