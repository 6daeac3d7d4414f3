package realtime

import "encoding/json"

// PresenceState is the full presence table for a channel, keyed by
// presence key.
type PresenceState struct {
	Entries map[string]Presence `json:"-"`
}

func (PresenceState) Kind() PayloadKind { return KindPresenceState }

// UnmarshalJSON decodes a presence_state payload, whose wire form is a
// bare JSON object keyed by presence key rather than a wrapper field.
func (p *PresenceState) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.Entries)
}

// MarshalJSON encodes a presence_state payload as a bare JSON object.
func (p PresenceState) MarshalJSON() ([]byte, error) {
	if p.Entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Entries)
}

// Presence is one tracked client's metadata list under a presence key.
type Presence struct {
	Metas []PresenceMeta `json:"metas"`
}

// PresenceMeta is one connection's metadata within a Presence entry.
type PresenceMeta struct {
	PhxRef string `json:"phx_ref"`
	Name   string `json:"name,omitempty"`
}

// PresenceDiff is the payload of a presence_diff message: presence keys
// that joined and left since the last diff.
type PresenceDiff struct {
	Joins  map[string]Presence `json:"joins"`
	Leaves map[string]Presence `json:"leaves"`
}

func (PresenceDiff) Kind() PayloadKind { return KindPresenceDiff }
