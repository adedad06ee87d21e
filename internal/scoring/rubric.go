package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/portfolio"
)

var skillAliases = map[string]string{
	"golang":                "go",
	"js":                    "javascript",
	"ts":                    "typescript",
	"k8s":                   "kubernetes",
	"postgres":              "postgresql",
	"psql":                  "postgresql",
	"reactjs":               "react",
	"react.js":              "react",
	"nodejs":                "node.js",
	"node":                  "node.js",
	"nextjs":                "next.js",
	"vuejs":                 "vue",
	"vue.js":                "vue",
	"amazon web services":   "aws",
	"google cloud":          "gcp",
	"google cloud platform": "gcp",
	"mongo":                 "mongodb",
	"ml":                    "machine learning",
}

// Heuristic scores with the rubric directly, without a model.
type Heuristic struct{}

func (Heuristic) ScoreCandidate(_ context.Context, req job.Requirements, candidate portfolio.ParsedPortfolioData) (*MatchDetails, error) {
	details := Rubric(req, candidate)
	return &details, nil
}

// Rubric applies the scoring weights literally: skills 40, experience 30,
// industry 15, location 10, plus up to 5 bonus points.
func Rubric(req job.Requirements, candidate portfolio.ParsedPortfolioData) MatchDetails {
	d := MatchDetails{
		SkillsMatch:     scoreSkills(req, candidate),
		ExperienceMatch: scoreExperience(req, candidate),
		IndustryMatch:   scoreIndustry(req, candidate),
		LocationMatch:   scoreLocation(req, candidate),
	}

	bonus := 0.0
	if candidate.MarketProfile.RarityScore >= 0.6 {
		bonus += 2
	}
	if candidate.MarketProfile.MarketDemandScore >= 0.6 {
		bonus += 2
	}
	if len(d.SkillsMatch.MatchedNiceToHave) > 0 {
		bonus++
	}
	d.BonusAdjustment = bonus

	d.Normalize(math.NaN())
	d.MatchReasons = rubricReasons(req, candidate, d)
	d.Summary = fmt.Sprintf("%s scores %.0f/100 for %s.", displayName(candidate), d.OverallScore, displayTitle(req))
	d.Normalize(d.OverallScore)

	return d
}

func scoreSkills(req job.Requirements, candidate portfolio.ParsedPortfolioData) SkillsMatch {
	have := make(map[string]struct{}, len(candidate.Skills.All))
	for _, s := range candidate.Skills.All {
		have[canonicalSkill(s)] = struct{}{}
	}

	m := SkillsMatch{MatchedRequired: []string{}, MissingRequired: []string{}, MatchedNiceToHave: []string{}}
	for _, s := range req.RequiredSkills {
		if _, ok := have[canonicalSkill(s)]; ok {
			m.MatchedRequired = append(m.MatchedRequired, s)
		} else {
			m.MissingRequired = append(m.MissingRequired, s)
		}
	}
	for _, s := range req.NiceToHaveSkills {
		if _, ok := have[canonicalSkill(s)]; ok {
			m.MatchedNiceToHave = append(m.MatchedNiceToHave, s)
		}
	}

	required := ratio(len(m.MatchedRequired), len(req.RequiredSkills))
	nice := ratio(len(m.MatchedNiceToHave), len(req.NiceToHaveSkills))

	switch {
	case len(req.RequiredSkills) > 0 && len(req.NiceToHaveSkills) > 0:
		m.Score = 85*required + 15*nice
	case len(req.RequiredSkills) > 0:
		m.Score = 100 * required
	case len(req.NiceToHaveSkills) > 0:
		m.Score = 50 + 50*nice
	default:
		m.Score = 50
	}
	return m
}

func scoreExperience(req job.Requirements, candidate portfolio.ParsedPortfolioData) ExperienceMatch {
	years := candidate.Experience.TotalYears
	m := ExperienceMatch{CandidateYears: years, RequiredYears: req.MinExperienceYears}

	yearsScore := 100.0
	if req.MinExperienceYears > 0 {
		yearsScore = 100 * math.Min(1, years/req.MinExperienceYears)
	}

	// Candidate levels stop at lead, so lead satisfies executive roles.
	wanted := min(job.ParseLevel(string(req.ExperienceLevel)).Rank(), portfolio.LevelLead.Rank())
	has := candidate.Experience.Level.Rank()
	gap := wanted - has

	levelScore := 100.0
	switch {
	case gap > 0:
		levelScore = math.Max(0, 100-35*float64(gap))
	case gap <= -2:
		levelScore = 90
	}

	m.LevelMatch = gap <= 0
	m.IsMatch = m.LevelMatch && years >= req.MinExperienceYears
	m.Score = 0.6*yearsScore + 0.4*levelScore
	return m
}

func scoreIndustry(req job.Requirements, candidate portfolio.ParsedPortfolioData) IndustryMatch {
	m := IndustryMatch{MatchedIndustries: []string{}}
	if len(req.Industries) == 0 {
		m.IsMatch = true
		m.Score = 70
		return m
	}

	known := append(append([]string{}, candidate.Experience.Industries...), candidate.Preferences.PreferredIndustries...)
	for _, wanted := range req.Industries {
		w := strings.ToLower(strings.TrimSpace(wanted))
		for _, k := range known {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" && w != "" && (strings.Contains(k, w) || strings.Contains(w, k)) {
				m.MatchedIndustries = append(m.MatchedIndustries, wanted)
				break
			}
		}
	}

	m.IsMatch = len(m.MatchedIndustries) > 0
	if m.IsMatch {
		m.Score = 100 * ratio(len(m.MatchedIndustries), len(req.Industries))
	} else {
		m.Score = 20
	}
	return m
}

func scoreLocation(req job.Requirements, candidate portfolio.ParsedPortfolioData) LocationMatch {
	pref := candidate.Preferences.RemotePreference
	m := LocationMatch{SameLocation: sameLocation(req.Location, candidate.Location)}

	if req.RemoteOK {
		m.RemoteCompatible = pref != portfolio.RemoteOnsite || m.SameLocation
		switch {
		case pref != portfolio.RemoteOnsite:
			m.Score = 100
		case m.SameLocation:
			m.Score = 100
		default:
			m.Score = 60
		}
		return m
	}

	m.RemoteCompatible = pref != portfolio.RemoteOnly
	switch {
	case m.SameLocation && pref == portfolio.RemoteOnly:
		m.Score = 60
	case m.SameLocation:
		m.Score = 100
	case strings.TrimSpace(req.Location) == "" && pref == portfolio.RemoteOnly:
		m.Score = 50
	case strings.TrimSpace(req.Location) == "":
		m.Score = 70
	case pref == portfolio.RemoteOnly:
		m.Score = 20
	default:
		m.Score = 40
	}
	return m
}

func rubricReasons(req job.Requirements, candidate portfolio.ParsedPortfolioData, d MatchDetails) []string {
	var reasons []string

	if n := len(d.SkillsMatch.MatchedRequired); n > 0 {
		reasons = append(reasons, fmt.Sprintf("Has %d of %d required skills: %s", n, len(req.RequiredSkills), strings.Join(d.SkillsMatch.MatchedRequired, ", ")))
	}
	if len(d.SkillsMatch.MatchedNiceToHave) > 0 {
		reasons = append(reasons, "Brings nice-to-have skills: "+strings.Join(d.SkillsMatch.MatchedNiceToHave, ", "))
	}
	if d.ExperienceMatch.IsMatch {
		reasons = append(reasons, fmt.Sprintf("%.1f years of experience at %s level", candidate.Experience.TotalYears, candidate.Experience.Level))
	}
	if len(d.IndustryMatch.MatchedIndustries) > 0 {
		reasons = append(reasons, "Industry background in "+strings.Join(d.IndustryMatch.MatchedIndustries, ", "))
	}
	if req.RemoteOK && d.LocationMatch.RemoteCompatible {
		reasons = append(reasons, "Open to remote work")
	} else if d.LocationMatch.SameLocation {
		reasons = append(reasons, "Based in "+candidate.Location)
	}
	if len(d.SkillsMatch.MissingRequired) > 0 {
		reasons = append(reasons, "Missing: "+strings.Join(d.SkillsMatch.MissingRequired, ", "))
	}

	return reasons
}

func canonicalSkill(s string) string {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if alias, ok := skillAliases[key]; ok {
		return alias
	}
	return key
}

func sameLocation(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return strings.TrimSpace(strings.Split(a, ",")[0]) == strings.TrimSpace(strings.Split(b, ",")[0])
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func displayName(c portfolio.ParsedPortfolioData) string {
	if c.Name != "" {
		return c.Name
	}
	return "Candidate"
}

func displayTitle(req job.Requirements) string {
	if req.Title != "" {
		return req.Title
	}
	return "this role"
}
