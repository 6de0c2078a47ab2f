package domain

import "time"

// Invocation statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Invocation records one call of a custom action by the agent platform.
type Invocation struct {
	ID        string
	Action    string
	Name      string
	Status    string
	Error     string
	CreatedAt time.Time
}
