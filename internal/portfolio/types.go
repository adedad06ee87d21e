// Package portfolio turns free-form portfolio documents into the normalized
// candidate profile used for matching.
package portfolio

import "time"

type Level string

const (
	LevelEntry  Level = "entry"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
	LevelLead   Level = "lead"
)

// Rank orders levels from entry (1) to lead (4); unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelEntry:
		return 1
	case LevelMid:
		return 2
	case LevelSenior:
		return 3
	case LevelLead:
		return 4
	default:
		return 0
	}
}

type RemotePreference string

const (
	RemoteOnly     RemotePreference = "remote"
	RemoteHybrid   RemotePreference = "hybrid"
	RemoteOnsite   RemotePreference = "onsite"
	RemoteFlexible RemotePreference = "flexible"
)

type CompetitiveLevel string

const (
	CompetitiveLow    CompetitiveLevel = "low"
	CompetitiveMedium CompetitiveLevel = "medium"
	CompetitiveHigh   CompetitiveLevel = "high"
)

type ParsedPortfolioData struct {
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	Location      string        `json:"location"`
	AvatarURL     string        `json:"avatarUrl,omitempty"`
	Skills        Skills        `json:"skills"`
	Experience    Experience    `json:"experience"`
	Education     Education     `json:"education"`
	Preferences   Preferences   `json:"preferences"`
	MarketProfile MarketProfile `json:"marketProfile"`
	Contact       Contact       `json:"contact"`
}

// Skills.All is the deduplicated union; the category lists are subsets of it.
type Skills struct {
	All        []string `json:"all"`
	Technical  []string `json:"technical"`
	Frameworks []string `json:"frameworks"`
	Languages  []string `json:"languages"`
}

type Experience struct {
	TotalYears float64  `json:"totalYears"`
	Level      Level    `json:"level"`
	Industries []string `json:"industries"`
	Roles      []Role   `json:"roles"`
}

type Role struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

type Education struct {
	Degrees []Degree `json:"degrees"`
}

type Degree struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

type Preferences struct {
	PreferredRoles       []string         `json:"preferredRoles"`
	PreferredIndustries  []string         `json:"preferredIndustries"`
	RemotePreference     RemotePreference `json:"remotePreference"`
	PreferredCompanySize []string         `json:"preferredCompanySize"`
	SalaryRange          *SalaryRange     `json:"salaryRange,omitempty"`
}

type SalaryRange struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

type MarketProfile struct {
	CompetitiveLevel  CompetitiveLevel `json:"competitiveLevel"`
	RarityScore       float64          `json:"rarityScore"`
	MarketDemandScore float64          `json:"marketDemandScore"`
}

type Contact struct {
	GitHub   string `json:"github,omitempty" mapstructure:"github"`
	LinkedIn string `json:"linkedin,omitempty" mapstructure:"linkedin"`
	Email    string `json:"email,omitempty" mapstructure:"email"`
	Website  string `json:"website,omitempty" mapstructure:"website"`
}

// Record is a stored portfolio row.
type Record struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Slug        string         `json:"slug"`
	Content     map[string]any `json:"content"`
	IsPublished bool           `json:"is_published"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CacheEntry is the cached parse result for a user's active portfolio.
type CacheEntry struct {
	UserID      string              `json:"user_id"`
	PortfolioID string              `json:"portfolio_id"`
	Data        ParsedPortfolioData `json:"parsed_data"`
	IsActive    bool                `json:"is_active"`
	LastUpdated time.Time           `json:"last_updated"`
}

// FreshFor reports whether the entry can stand in for parsing r again.
func (e *CacheEntry) FreshFor(r *Record) bool {
	if e == nil || r == nil || !e.IsActive {
		return false
	}
	if e.PortfolioID != "" && e.PortfolioID != r.ID {
		return false
	}
	return !r.UpdatedAt.After(e.LastUpdated)
}
