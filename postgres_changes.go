package realtime

import "encoding/json"

// PostgresDataChangeEvent is the change type carried on an individual
// postgres_changes notification ("INSERT", "UPDATE", "DELETE").
type PostgresDataChangeEvent string

const (
	PostgresDataChangeInsert PostgresDataChangeEvent = "INSERT"
	PostgresDataChangeUpdate PostgresDataChangeEvent = "UPDATE"
	PostgresDataChangeDelete PostgresDataChangeEvent = "DELETE"
)

// Column describes one column referenced by a database change event.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PostgresChangesData is the decoded body of a database change
// notification.
type PostgresChangesData struct {
	Columns         []Column                 `json:"columns"`
	CommitTimestamp string                   `json:"commit_timestamp"`
	Errors          string                   `json:"errors,omitempty"`
	OldRecord       json.RawMessage          `json:"old_record,omitempty"`
	Record          json.RawMessage          `json:"record,omitempty"`
	Schema          string                   `json:"schema"`
	Table           string                   `json:"table"`
	Type            PostgresDataChangeEvent  `json:"type"`
}

// PostgresChangesPayload is the payload of a postgres_changes message.
type PostgresChangesPayload struct {
	Data PostgresChangesData `json:"data"`
	IDs  []int64              `json:"ids"`
}

func (PostgresChangesPayload) Kind() PayloadKind { return KindPostgresChanges }
