package realtime

// PhxJoin is the payload of a phx_join push: the channel's join
// configuration plus the access token presented at join time.
type PhxJoin struct {
	Config      JoinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

func (PhxJoin) Kind() PayloadKind { return KindPhxJoin }

// JoinConfig is transmitted as the content of a phx_join payload.
type JoinConfig struct {
	Broadcast       *BroadcastConfig    `json:"broadcast,omitempty"`
	Presence        *PresenceConfig     `json:"presence,omitempty"`
	PostgresChanges []JoinPostgresChange `json:"postgres_changes,omitempty"`
	Private         bool                `json:"private"`
}

// BroadcastConfig controls whether the sender receives its own broadcasts
// and whether the server acknowledges each one.
type BroadcastConfig struct {
	Self bool `json:"self"`
	Ack  bool `json:"ack"`
}

// PresenceConfig names the key presence state is tracked under. An empty
// Key is filled in by Client.CreateChannel with a fresh UUID so every
// anonymous tracker still gets a stable per-process identity.
type PresenceConfig struct {
	Key string `json:"key"`
}

// PostgresChangeEvent is the change-type filter for a postgres_changes
// subscription: "*", "INSERT", "UPDATE", or "DELETE".
type PostgresChangeEvent string

const (
	PostgresChangeAll    PostgresChangeEvent = "*"
	PostgresChangeInsert PostgresChangeEvent = "INSERT"
	PostgresChangeUpdate PostgresChangeEvent = "UPDATE"
	PostgresChangeDelete PostgresChangeEvent = "DELETE"
)

// JoinPostgresChange is one entry of JoinConfig.PostgresChanges: the
// database change subscription requested at join time.
type JoinPostgresChange struct {
	Event  PostgresChangeEvent `json:"event"`
	Schema string              `json:"schema"`
	Table  string              `json:"table"`
	Filter string              `json:"filter,omitempty"`
}
