package redis

import (
	"fmt"
	"time"
)

const (
	PortfolioCacheTTL = 7 * 24 * time.Hour
	ActivityLimit     = 100

	ChannelStatusChanged = "match.status_changed"
)

func PortfolioCacheKey(userID string) string {
	return fmt.Sprintf("cached_portfolio:%s", userID)
}

func MatchKey(matchID string) string {
	return fmt.Sprintf("match:%s", matchID)
}

// JobMatchesKey is a sorted set of match ids scored by match score.
func JobMatchesKey(jobID string) string {
	return fmt.Sprintf("job:%s:matches", jobID)
}

func JobStatusKey(jobID, status string) string {
	return fmt.Sprintf("job:%s:status:%s", jobID, status)
}

func ActivityKey(recruiterID string) string {
	return fmt.Sprintf("recruiter:%s:activity", recruiterID)
}
