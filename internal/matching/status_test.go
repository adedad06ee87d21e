package matching

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusLiked, true},
		{StatusPending, StatusPassed, true},
		{StatusPending, StatusSuperLiked, true},
		{StatusLiked, StatusSuperLiked, true},
		{StatusLiked, StatusLiked, true},
		{StatusPassed, StatusPassed, true},
		{StatusLiked, StatusPassed, false},
		{StatusPassed, StatusLiked, false},
		{StatusSuperLiked, StatusLiked, false},
		{StatusPassed, StatusPending, false},
		{StatusLiked, StatusPending, false},
	}

	for _, tt := range tests {
		if got := IsTransitionAllowed(tt.from, tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestParseDecision(t *testing.T) {
	for _, raw := range []string{"liked", "PASSED", " super_liked "} {
		if _, err := ParseDecision(raw); err != nil {
			t.Errorf("%q: unexpected error %v", raw, err)
		}
	}
	for _, raw := range []string{"pending", "maybe", ""} {
		if _, err := ParseDecision(raw); err == nil {
			t.Errorf("%q: expected error", raw)
		}
	}
}
