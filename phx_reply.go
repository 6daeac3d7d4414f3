package realtime

import (
	"encoding/json"
	"fmt"
)

// PhxReply is the payload of a phx_reply message: either an "ok" response
// carrying the server's answer, or an "error" response carrying a reason.
type PhxReply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
}

func (PhxReply) Kind() PayloadKind { return KindPhxReply }

// IsOK reports whether the reply's status is "ok".
func (r PhxReply) IsOK() bool { return r.Status == "ok" }

// OKResponse decodes an "ok" reply's response as a PhxResponse. It returns
// an error if the reply's status is not "ok".
func (r PhxReply) OKResponse() (PhxResponse, error) {
	if !r.IsOK() {
		return PhxResponse{}, fmt.Errorf("realtime: reply status is %q, not ok", r.Status)
	}
	var resp PhxResponse
	if len(r.Response) == 0 {
		return resp, nil
	}
	return resp, json.Unmarshal(r.Response, &resp)
}

// ErrorResponse decodes an "error" reply's response as an ErrorReply. It
// returns an error if the reply's status is not "error".
func (r PhxReply) ErrorResponse() (ErrorReply, error) {
	if r.Status != "error" {
		return ErrorReply{}, fmt.Errorf("realtime: reply status is %q, not error", r.Status)
	}
	var resp ErrorReply
	if len(r.Response) == 0 {
		return resp, nil
	}
	return resp, json.Unmarshal(r.Response, &resp)
}

// ErrorReply is the response payload of an "error" PhxReply.
type ErrorReply struct {
	Reason string `json:"reason"`
}

// PhxResponse is the response payload of an "ok" PhxReply. Additional
// fields the server may add to response are tolerated (additive
// evolution): only postgres_changes is currently parsed.
type PhxResponse struct {
	PostgresChanges []ReplyPostgresChange `json:"postgres_changes,omitempty"`
}

// ReplyPostgresChange is one postgres-change subscription record
// acknowledged by the server in a join reply.
type ReplyPostgresChange struct {
	Event  PostgresChangeEvent `json:"event"`
	Schema string              `json:"schema"`
	Table  string              `json:"table"`
	Filter string              `json:"filter,omitempty"`
	ID     int                 `json:"id"`
}
