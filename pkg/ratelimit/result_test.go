package ratelimit

import (
	"strings"
	"testing"
	"time"
)

func TestResult_AllowedHelpers(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	result := newAllowedResult("u:1", "api", 1, 5, time.Minute, resetAt, time.UTC)

	if !result.IsAllowed() || result.IsDenied() {
		t.Error("allowed result reported as denied")
	}
	if !result.HasRemaining() {
		t.Error("allowed result with remaining quota reported none")
	}
	if result.RemainingCount != 4 {
		t.Errorf("RemainingCount = %d, want 4", result.RemainingCount)
	}
	if result.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for allowed", result.RetryAfter)
	}
	if result.ResetAtUnix() != resetAt.Unix() {
		t.Errorf("ResetAtUnix() = %d, want %d", result.ResetAtUnix(), resetAt.Unix())
	}
	if !strings.Contains(result.String(), "Allowed: true") {
		t.Errorf("String() = %q, want allowed form", result.String())
	}
}

func TestResult_DeniedHelpers(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	result := newDeniedResult("u:1", "api", 5, 5, time.Minute, resetAt, 42*time.Second, time.UTC)

	if result.IsAllowed() || !result.IsDenied() {
		t.Error("denied result reported as allowed")
	}
	if result.HasRemaining() {
		t.Error("denied result reported remaining quota")
	}
	if result.RetryAfterSeconds() != 42 {
		t.Errorf("RetryAfterSeconds() = %d, want 42", result.RetryAfterSeconds())
	}
	if !strings.Contains(result.String(), "Allowed: false") {
		t.Errorf("String() = %q, want denied form", result.String())
	}
}

func TestResult_CountCapping(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)

	tests := []struct {
		name          string
		count         int64
		limit         int64
		wantCurrent   int64
		wantRemaining int64
	}{
		{name: "under limit", count: 2, limit: 5, wantCurrent: 2, wantRemaining: 3},
		{name: "at limit", count: 5, limit: 5, wantCurrent: 5, wantRemaining: 0},
		{name: "over limit capped", count: 9, limit: 5, wantCurrent: 5, wantRemaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newDeniedResult("u:1", "api", tt.count, tt.limit, time.Minute, resetAt, 0, time.UTC)
			if result.CurrentCount != tt.wantCurrent {
				t.Errorf("CurrentCount = %d, want %d", result.CurrentCount, tt.wantCurrent)
			}
			if result.RemainingCount != tt.wantRemaining {
				t.Errorf("RemainingCount = %d, want %d", result.RemainingCount, tt.wantRemaining)
			}
		})
	}
}

func TestResult_RetryAfterNeverNegative(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	result := newDeniedResult("u:1", "api", 5, 5, time.Minute, resetAt, -10*time.Second, time.UTC)
	if result.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want floored to 0", result.RetryAfter)
	}
	if result.RetryAfterSeconds() != 0 {
		t.Errorf("RetryAfterSeconds() = %d, want 0", result.RetryAfterSeconds())
	}
}

func TestExceededError_Message(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	err := &ExceededError{
		Result: newDeniedResult("u:1", "api", 5, 5, time.Minute, resetAt, 30*time.Second, time.UTC),
	}
	message := err.Error()
	for _, fragment := range []string{"u:1", "api", "30s"} {
		if !strings.Contains(message, fragment) {
			t.Errorf("Error() = %q, missing %q", message, fragment)
		}
	}
}
