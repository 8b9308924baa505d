// Package domain holds the order lifecycle state machine.
package domain

import (
	"sort"
	"strings"
)

// Order statuses. An order starts pending; the retailer moves it along.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusFulfilled = "fulfilled"
	StatusCancelled = "cancelled"
)

// allowedTransitions is the explicit transition table. Rejected,
// fulfilled and cancelled are terminal.
var allowedTransitions = map[string][]string{
	StatusPending:   {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusFulfilled, StatusCancelled},
	StatusRejected:  {},
	StatusFulfilled: {},
	StatusCancelled: {},
}

// actionStatusMap maps a retailer action to its target status.
var actionStatusMap = map[string]string{
	"accept":  StatusAccepted,
	"reject":  StatusRejected,
	"fulfill": StatusFulfilled,
	"cancel":  StatusCancelled,
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// StatusForAction resolves a retailer action (case-insensitive) to its
// target status.
func StatusForAction(action string) (string, bool) {
	status, ok := actionStatusMap[strings.ToLower(strings.TrimSpace(action))]
	return status, ok
}

// ValidActionList returns the accepted actions, comma separated.
func ValidActionList() string {
	actions := make([]string, 0, len(actionStatusMap))
	for a := range actionStatusMap {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return strings.Join(actions, ", ")
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status permits no further actions.
func IsTerminal(s string) bool {
	allowed, ok := allowedTransitions[s]
	return ok && len(allowed) == 0
}

// AllowedList returns the statuses reachable from the given one,
// comma separated.
func AllowedList(from string) string {
	return strings.Join(allowedTransitions[from], ", ")
}
