package portfolio

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	remoteSignal = regexp.MustCompile(`(?i)\b(fully remote|remote)\b`)
	hybridSignal = regexp.MustCompile(`(?i)\bhybrid\b`)
	onsiteSignal = regexp.MustCompile(`(?i)\b(on-?site|on site|in[- ]office|office-based)\b`)
)

// Parser is safe for concurrent use.
type Parser struct {
	// Now resolves open-ended ranges such as "2021 - Present".
	Now func() time.Time
}

func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Parse is NewParser().Parse.
func Parse(c Content) ParsedPortfolioData {
	return NewParser().Parse(c)
}

// ParseRecord decodes and parses a stored portfolio.
func (p *Parser) ParseRecord(r *Record) ParsedPortfolioData {
	if r == nil {
		return p.Parse(Content{})
	}
	return p.Parse(Decode(r.Content))
}

// Parse never fails: missing or unreadable sections produce empty values.
func (p *Parser) Parse(c Content) ParsedPortfolioData {
	now := time.Now()
	if p != nil && p.Now != nil {
		now = p.Now()
	}

	skills := buildSkills(c)
	experience := buildExperience(c, now)

	return ParsedPortfolioData{
		Name:          c.Name,
		Title:         c.Title,
		Location:      c.Location,
		AvatarURL:     c.AvatarURL,
		Skills:        skills,
		Experience:    experience,
		Education:     buildEducation(c.Education),
		Preferences:   buildPreferences(c),
		MarketProfile: buildMarketProfile(skills, experience.Level, c.Experience),
		Contact:       c.Contact,
	}
}

func buildSkills(c Content) Skills {
	source := append([]string{}, c.Skills...)
	for _, e := range c.Experience {
		source = append(source, e.Technologies...)
	}

	s := Skills{
		All:        dedupe(source),
		Technical:  []string{},
		Frameworks: []string{},
		Languages:  []string{},
	}

	for _, skill := range s.All {
		switch {
		case inSet(languageKeywords, skill):
			s.Languages = append(s.Languages, skill)
		case inSet(frameworkKeywords, skill):
			s.Frameworks = append(s.Frameworks, skill)
		case inSet(technicalKeywords, skill):
			s.Technical = append(s.Technical, skill)
		}
	}

	return s
}

func buildExperience(c Content, now time.Time) Experience {
	months := 0
	roles := make([]Role, 0, len(c.Experience))
	industries := make([]string, 0)

	for _, e := range c.Experience {
		months += roleMonths(e, now)

		if e.Industry != "" {
			industries = append(industries, e.Industry)
		}

		if e.Title == "" && e.Company == "" {
			continue
		}
		roles = append(roles, Role{Company: e.Company, Title: e.Title, Duration: roleDuration(e)})
	}

	for _, e := range c.Experience {
		text := e.Company + " " + e.Description
		for _, rule := range industryRules {
			if rule.pattern.MatchString(text) {
				industries = append(industries, rule.name)
			}
		}
	}

	years := math.Round(float64(months)/12*10) / 10

	titles := []string{c.Title}
	for _, e := range c.Experience {
		titles = append(titles, e.Title)
	}

	return Experience{
		TotalYears: years,
		Level:      raiseByTitles(LevelForYears(years), titles),
		Industries: dedupe(industries),
		Roles:      roles,
	}
}

// LevelForYears maps total experience onto a level: under 2 entry, under 5
// mid, under 8 senior, otherwise lead.
func LevelForYears(years float64) Level {
	switch {
	case years < 2:
		return LevelEntry
	case years < 5:
		return LevelMid
	case years < 8:
		return LevelSenior
	default:
		return LevelLead
	}
}

// raiseByTitles lifts the level when a title carries a seniority marker. It
// never lowers it.
func raiseByTitles(level Level, titles []string) Level {
	for _, title := range titles {
		switch {
		case leadMarkers.MatchString(title):
			if level.Rank() < LevelLead.Rank() {
				level = LevelLead
			}
		case seniorMarkers.MatchString(title):
			if level.Rank() < LevelSenior.Rank() {
				level = LevelSenior
			}
		}
	}
	return level
}

func roleDuration(e ExperienceEntry) string {
	if e.Duration != "" {
		return e.Duration
	}
	if e.StartDate == "" {
		return ""
	}

	end := e.EndDate
	if e.Current || end == "" {
		end = "Present"
	}
	return e.StartDate + " - " + end
}

func buildEducation(entries []EducationEntry) Education {
	degrees := make([]Degree, 0, len(entries))
	allDated := true

	for _, e := range entries {
		if e.Degree == "" && e.School == "" {
			continue
		}
		if _, ok := degreeYear(e.Year); !ok {
			allDated = false
		}
		degrees = append(degrees, Degree{Degree: e.Degree, School: e.School, Year: e.Year})
	}

	if allDated && len(degrees) > 1 {
		sort.SliceStable(degrees, func(i, j int) bool {
			yi, _ := degreeYear(degrees[i].Year)
			yj, _ := degreeYear(degrees[j].Year)
			if yi != yj {
				return yi > yj
			}
			return degreeRank(degrees[i].Degree) > degreeRank(degrees[j].Degree)
		})
	}

	return Education{Degrees: degrees}
}

func degreeRank(degree string) int {
	d := " " + strings.ToLower(degree) + " "
	switch {
	case strings.Contains(d, "phd") || strings.Contains(d, "ph.d") || strings.Contains(d, "doctor"):
		return 4
	case strings.Contains(d, "master") || strings.Contains(d, "mba") || strings.Contains(d, " msc") || strings.Contains(d, " ms ") || strings.Contains(d, " ma "):
		return 3
	case strings.Contains(d, "bachelor") || strings.Contains(d, " bsc") || strings.Contains(d, " bs ") || strings.Contains(d, " ba ") || strings.Contains(d, "b.s"):
		return 2
	case strings.Contains(d, "associate"):
		return 1
	default:
		return 0
	}
}

func buildPreferences(c Content) Preferences {
	remote := ParseRemotePreference(c.Preferences.Remote)
	if remote == "" {
		remote = remoteFromText(c.Bio + "\n" + c.Title + "\n" + c.Location)
	}

	return Preferences{
		PreferredRoles:       dedupe(c.Preferences.Roles),
		PreferredIndustries:  dedupe(c.Preferences.Industries),
		RemotePreference:     remote,
		PreferredCompanySize: dedupe(c.Preferences.CompanySize),
		SalaryRange:          c.Preferences.Salary,
	}
}

// ParseRemotePreference normalizes an explicit preference value. Unknown
// values return "".
func ParseRemotePreference(s string) RemotePreference {
	switch normalizeKey(strings.NewReplacer("_", " ", "-", " ").Replace(s)) {
	case "remote", "remote only", "fully remote", "true", "yes":
		return RemoteOnly
	case "hybrid":
		return RemoteHybrid
	case "onsite", "on site", "office", "in office", "false", "no":
		return RemoteOnsite
	case "flexible", "any", "open", "either", "no preference":
		return RemoteFlexible
	default:
		return ""
	}
}

// remoteFromText settles on a preference only when exactly one kind of signal
// appears in the text.
func remoteFromText(text string) RemotePreference {
	var found []RemotePreference
	if hybridSignal.MatchString(text) {
		found = append(found, RemoteHybrid)
	}
	if onsiteSignal.MatchString(text) {
		found = append(found, RemoteOnsite)
	}
	if remoteSignal.MatchString(text) {
		found = append(found, RemoteOnly)
	}

	if len(found) == 1 {
		return found[0]
	}
	return RemoteFlexible
}

// dedupe drops blanks and case-insensitive duplicates, keeping the first
// spelling seen. The result is never nil.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := normalizeKey(item)
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
