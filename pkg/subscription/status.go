package subscription

import "github.com/dmitrymomot/cashier/pkg/gateway"

// Status is the persisted subscription status. It mirrors what the gateway
// last reported; the richer lifecycle states (grace period, ended) are
// derived from it together with the trial and end timestamps.
type Status string

const (
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusTrialing          Status = "trialing"
	StatusActive            Status = "active"
	StatusPastDue           Status = "past_due"
	StatusCancelled         Status = "cancelled"
	StatusUnpaid            Status = "unpaid"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusIncomplete, StatusIncompleteExpired, StatusTrialing,
		StatusActive, StatusPastDue, StatusCancelled, StatusUnpaid:
		return true
	}
	return false
}

// billableActive statuses count as active without help from trial or grace
// timestamps. Past-due is included: the gateway is still retrying payment
// and service continues until it gives up.
func (s Status) billableActive() bool {
	return s == StatusActive || s == StatusTrialing || s == StatusPastDue
}

// terminalFailure statuses override trial and grace timestamps entirely.
func (s Status) terminalFailure() bool {
	return s == StatusIncompleteExpired || s == StatusUnpaid
}

// StatusFromGateway converts a normalized gateway status. Unknown values
// pass through so a newer gateway vocabulary degrades to inactive rather
// than breaking parsing.
func StatusFromGateway(s gateway.Status) Status {
	return Status(s)
}
