package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestMessageRoundTrip(t *testing.T) {
	cases := []Message{
		{Topic: "realtime:t", Payload: PhxJoin{Config: JoinConfig{Private: true}, AccessToken: "key"}, Ref: "1"},
		{Topic: "realtime:t", Payload: PhxLeave{}, Ref: "2"},
		{Topic: "realtime:t", Payload: PhxReply{Status: "ok", Response: json.RawMessage(`{"postgres_changes":[]}`)}, Ref: "1"},
		{Topic: "realtime:t", Payload: PhxClose{}},
		{Topic: "realtime:t", Payload: PhxError{}},
		{Topic: "phoenix", Payload: Heartbeat{}},
		{Topic: "realtime:t", Payload: AccessToken{AccessToken: "new-token"}},
		{Topic: "realtime:t", Payload: Broadcast{Event: "evt", Payload: json.RawMessage(`{"m":"hi"}`)}, Ref: "3"},
		{Topic: "realtime:t", Payload: PresenceState{Entries: map[string]Presence{
			"user-1": {Metas: []PresenceMeta{{PhxRef: "abc", Name: "Ada"}}},
		}}},
		{Topic: "realtime:t", Payload: PresenceDiff{
			Joins:  map[string]Presence{"user-1": {Metas: []PresenceMeta{{PhxRef: "abc"}}}},
			Leaves: map[string]Presence{},
		}},
		{Topic: "realtime:t", Payload: System{Channel: "t", Extension: "postgres_changes", Message: "ok", Status: "ok"}},
		{Topic: "realtime:t", Payload: PostgresChangesPayload{
			Data: PostgresChangesData{
				Columns:         []Column{{Name: "id", Type: "int8"}},
				CommitTimestamp: "2024-01-01T00:00:00Z",
				Record:          json.RawMessage(`{"id":1}`),
				Schema:          "public",
				Table:           "todos",
				Type:            PostgresDataChangeInsert,
			},
			IDs: []int64{1},
		}},
	}

	for _, m := range cases {
		decoded := roundTrip(t, m)
		assert.Equal(t, m.Topic, decoded.Topic)
		assert.Equal(t, m.Ref, decoded.Ref)
		assert.Equal(t, m.Payload, decoded.Payload)
	}
}

func TestMessageNullRefIsEmptyString(t *testing.T) {
	decoded := roundTrip(t, Message{Topic: "phoenix", Payload: Heartbeat{}})
	assert.Equal(t, "", decoded.Ref)
}

func TestMessageUnrecognizedEventIsAnError(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"topic":"t","event":"not_a_real_event","payload":{},"ref":null}`), &m)
	require.Error(t, err)
}

func TestHeartbeatMessageShape(t *testing.T) {
	m := heartbeatMessage()
	assert.Equal(t, "phoenix", m.Topic)
	assert.Equal(t, Heartbeat{}, m.Payload)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"phoenix","event":"heartbeat","payload":{},"ref":null}`, string(data))
}
