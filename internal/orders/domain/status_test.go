package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusFulfilled, false},
		{StatusAccepted, StatusFulfilled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusAccepted, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{"unknown", StatusAccepted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusForAction(t *testing.T) {
	tests := []struct {
		action string
		status string
		ok     bool
	}{
		{"accept", StatusAccepted, true},
		{"REJECT", StatusRejected, true},
		{" Fulfill ", StatusFulfilled, true},
		{"cancel", StatusCancelled, true},
		{"approve", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		status, ok := StatusForAction(tt.action)
		if status != tt.status || ok != tt.ok {
			t.Errorf("StatusForAction(%q) = (%q, %v), want (%q, %v)",
				tt.action, status, ok, tt.status, tt.ok)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{StatusRejected, StatusFulfilled, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []string{StatusPending, StatusAccepted, "unknown"} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}
