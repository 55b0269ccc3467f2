package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventTokenValidated  EventType = "token_validated"
	EventTokenRejected   EventType = "token_rejected"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventRefreshRejected EventType = "refresh_rejected"
)

// Event is an audit record of one auth operation. It never carries secrets or tokens.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
