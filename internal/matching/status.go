package matching

import (
	"fmt"
	"strings"
)

// Status of a candidate match as seen by the recruiter.
//
//	pending ──► liked ──► super_liked
//	   │
//	   ├──► passed
//	   └──► super_liked
type Status string

const (
	StatusPending    Status = "pending"
	StatusLiked      Status = "liked"
	StatusPassed     Status = "passed"
	StatusSuperLiked Status = "super_liked"
)

var validTransitions = map[Status][]Status{
	StatusPending: {StatusLiked, StatusPassed, StatusSuperLiked},
	StatusLiked:   {StatusSuperLiked},
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusLiked, StatusPassed, StatusSuperLiked:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// ParseDecision accepts only the statuses a recruiter can set.
func ParseDecision(s string) (Status, error) {
	st, err := ParseStatus(s)
	if err != nil {
		return "", err
	}
	if st == StatusPending {
		return "", fmt.Errorf("status %q cannot be set by a recruiter", s)
	}
	return st, nil
}

// IsTransitionAllowed reports whether a match may move from -> to. Applying
// the current status again is allowed and changes nothing.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsDecision reports whether s counts as a recruiter decision.
func IsDecision(s Status) bool { return s != StatusPending && s != "" }
