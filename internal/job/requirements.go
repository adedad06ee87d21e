// Package job holds job postings and the LLM-backed extraction of structured
// requirements from free-text descriptions.
package job

import (
	"strings"
	"time"
)

type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

// ParseLevel falls back to mid for anything it does not recognise.
func ParseLevel(s string) ExperienceLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "junior", "intern", "entry-level", "entry level":
		return LevelEntry
	case "senior", "sr":
		return LevelSenior
	case "lead", "staff", "principal":
		return LevelLead
	case "executive", "director", "vp", "c-level":
		return LevelExecutive
	default:
		return LevelMid
	}
}

// Rank orders levels from entry (1) to executive (5).
func (l ExperienceLevel) Rank() int {
	switch l {
	case LevelEntry:
		return 1
	case LevelMid:
		return 2
	case LevelSenior:
		return 3
	case LevelLead:
		return 4
	case LevelExecutive:
		return 5
	default:
		return 0
	}
}

type Requirements struct {
	Title               string          `json:"title"`
	Company             string          `json:"company"`
	RequiredSkills      []string        `json:"required_skills"`
	NiceToHaveSkills    []string        `json:"nice_to_have_skills"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
	MinExperienceYears  float64         `json:"min_experience_years"`
	Industries          []string        `json:"industries"`
	Location            string          `json:"location"`
	RemoteOK            bool            `json:"remote_ok"`
	CompanySize         string          `json:"company_size"`
	SalaryRange         *SalaryRange    `json:"salary_range,omitempty"`
	KeyResponsibilities []string        `json:"key_responsibilities"`
	CultureKeywords     []string        `json:"culture_keywords"`
}

type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// normalize drops a range with no positive bound and orders the bounds.
func (s *SalaryRange) normalize() *SalaryRange {
	if s == nil {
		return nil
	}
	lo, hi := max(s.Min, 0), max(s.Max, 0)
	if lo == 0 && hi == 0 {
		return nil
	}
	if hi != 0 && lo > hi {
		lo, hi = hi, lo
	}
	return &SalaryRange{Min: lo, Max: hi}
}

// Normalize fills defaults: empty lists instead of nil, mid level, no negative
// years, and the caller's title/company when the model left them out. A salary
// range without a positive bound is dropped.
func (r *Requirements) Normalize(title, company string) {
	r.Title = firstNonEmpty(r.Title, title)
	r.Company = firstNonEmpty(r.Company, company)
	r.Location = strings.TrimSpace(r.Location)
	r.CompanySize = strings.TrimSpace(r.CompanySize)

	r.RequiredSkills = cleanList(r.RequiredSkills)
	r.NiceToHaveSkills = cleanList(r.NiceToHaveSkills)
	r.Industries = cleanList(r.Industries)
	r.KeyResponsibilities = cleanList(r.KeyResponsibilities)
	r.CultureKeywords = cleanList(r.CultureKeywords)

	r.ExperienceLevel = ParseLevel(string(r.ExperienceLevel))

	if r.MinExperienceYears < 0 {
		r.MinExperienceYears = 0
	}
	r.SalaryRange = r.SalaryRange.normalize()
}

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Posting is a job_postings row.
type Posting struct {
	ID           string        `json:"id"`
	RecruiterID  string        `json:"recruiter_id"`
	Title        string        `json:"title"`
	Company      string        `json:"company"`
	Description  string        `json:"description"`
	Requirements *Requirements `json:"extracted_requirements"`
	Status       Status        `json:"status"`
	TotalMatches int           `json:"total_matches"`
	LikedCount   int           `json:"liked_count"`
	PassedCount  int           `json:"passed_count"`
	CreatedAt    time.Time     `json:"created_at"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func cleanList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
