package filtering

import (
	"github.com/zigzig/talent-matcher/internal/portfolio"
)

const (
	CandidateIDField     = "ID"
	CandidateUserIDField = "UserID"
)

// Candidates is the working list of portfolio records a filter run operates on.
type Candidates struct {
	Items []*portfolio.Record
}

func NewCandidates(records []*portfolio.Record) *Candidates {
	items := make([]*portfolio.Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			items = append(items, r)
		}
	}
	return &Candidates{Items: items}
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Exclude removes every record whose field equals one of targets and returns
// the removed portfolio IDs. Order of the remaining items is preserved.
func (c *Candidates) Exclude(field string, targets []string) []string {
	if c == nil || len(targets) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		drop[t] = struct{}{}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, r := range c.Items {
		if _, ok := drop[fieldValue(r, field)]; ok {
			excluded = append(excluded, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	c.Items = kept

	return excluded
}

func fieldValue(r *portfolio.Record, field string) string {
	switch field {
	case CandidateIDField:
		return r.ID
	case CandidateUserIDField:
		return r.UserID
	default:
		return ""
	}
}
