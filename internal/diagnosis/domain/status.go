// Package domain provides core business rules for the diagnosis bounded context.
package domain

import "strings"

// Case lifecycle statuses, in order of progress.
const (
	StatusCreated             = "created"
	StatusAnalysisInProgress  = "analysis_in_progress"
	StatusAnalyzed            = "analyzed"
	StatusRecommendationShown = "recommendation_shown"
	StatusOrderPlaced         = "order_placed"
	StatusFollowupPending     = "followup_pending"
	StatusClosed              = "closed"
)

// statusRank orders the lifecycle; a case only moves forward through it.
var statusRank = map[string]int{
	StatusCreated:             0,
	StatusAnalysisInProgress:  1,
	StatusAnalyzed:            2,
	StatusRecommendationShown: 3,
	StatusOrderPlaced:         4,
	StatusFollowupPending:     5,
	StatusClosed:              6,
}

// IsValidStatus reports whether the status belongs to the case lifecycle.
func IsValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok
}

// ValidStatuses returns the lifecycle statuses in order, for error messages.
func ValidStatuses() []string {
	return []string{
		StatusCreated,
		StatusAnalysisInProgress,
		StatusAnalyzed,
		StatusRecommendationShown,
		StatusOrderPlaced,
		StatusFollowupPending,
		StatusClosed,
	}
}

// ValidStatusList renders the lifecycle as a comma-separated string.
func ValidStatusList() string {
	return strings.Join(ValidStatuses(), ", ")
}

// CanTransition reports whether a case may move from one status to another.
// Re-setting the current status is allowed so repeated task completions and
// result fetches stay idempotent; moving backwards is not.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}
