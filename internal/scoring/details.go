// Package scoring rates how well a candidate fits a job.
package scoring

import (
	"math"
	"strings"
)

const (
	WeightSkills     = 0.40
	WeightExperience = 0.30
	WeightIndustry   = 0.15
	WeightLocation   = 0.10

	MaxBonus = 5.0
	// MaxJudgment bounds how far a model's overall score may stray from the
	// weighted components.
	MaxJudgment = 10.0
	MaxReasons  = 5
)

type SkillsMatch struct {
	MatchedRequired   []string `json:"matched_required"`
	MissingRequired   []string `json:"missing_required"`
	MatchedNiceToHave []string `json:"matched_nice_to_have"`
	Score             float64  `json:"score"`
}

type ExperienceMatch struct {
	CandidateYears float64 `json:"candidate_years"`
	RequiredYears  float64 `json:"required_years"`
	LevelMatch     bool    `json:"level_match"`
	IsMatch        bool    `json:"is_match"`
	Score          float64 `json:"score"`
}

type IndustryMatch struct {
	MatchedIndustries []string `json:"matched_industries"`
	IsMatch           bool     `json:"is_match"`
	Score             float64  `json:"score"`
}

type LocationMatch struct {
	RemoteCompatible bool    `json:"remote_compatible"`
	SameLocation     bool    `json:"same_location"`
	Score            float64 `json:"score"`
}

type MatchDetails struct {
	SkillsMatch     SkillsMatch     `json:"skills_match"`
	ExperienceMatch ExperienceMatch `json:"experience_match"`
	IndustryMatch   IndustryMatch   `json:"industry_match"`
	LocationMatch   LocationMatch   `json:"location_match"`
	BonusAdjustment float64         `json:"bonus_adjustment"`
	OverallScore    float64         `json:"overall_score"`
	MatchReasons    []string        `json:"match_reasons"`
	Summary         string          `json:"summary"`
}

// Weighted is the rubric total without bonus.
func (d *MatchDetails) Weighted() float64 {
	return WeightSkills*d.SkillsMatch.Score +
		WeightExperience*d.ExperienceMatch.Score +
		WeightIndustry*d.IndustryMatch.Score +
		WeightLocation*d.LocationMatch.Score
}

// Normalize clamps every score into [0,100] and the bonus into [0,MaxBonus].
// overall is the score proposed by a model; NaN means none was given and the
// weighted total plus bonus is used.
func (d *MatchDetails) Normalize(overall float64) {
	d.SkillsMatch.Score = clampScore(d.SkillsMatch.Score)
	d.ExperienceMatch.Score = clampScore(d.ExperienceMatch.Score)
	d.IndustryMatch.Score = clampScore(d.IndustryMatch.Score)
	d.LocationMatch.Score = clampScore(d.LocationMatch.Score)

	d.BonusAdjustment = clamp(d.BonusAdjustment, 0, MaxBonus)
	if d.ExperienceMatch.CandidateYears < 0 || math.IsNaN(d.ExperienceMatch.CandidateYears) {
		d.ExperienceMatch.CandidateYears = 0
	}
	if d.ExperienceMatch.RequiredYears < 0 || math.IsNaN(d.ExperienceMatch.RequiredYears) {
		d.ExperienceMatch.RequiredYears = 0
	}

	base := d.Weighted() + d.BonusAdjustment
	if math.IsNaN(overall) || math.IsInf(overall, 0) {
		overall = base
	}
	overall = clamp(overall, base-MaxJudgment, base+MaxJudgment)
	d.OverallScore = math.Round(clampScore(overall)*10) / 10

	d.SkillsMatch.MatchedRequired = cleanList(d.SkillsMatch.MatchedRequired)
	d.SkillsMatch.MissingRequired = cleanList(d.SkillsMatch.MissingRequired)
	d.SkillsMatch.MatchedNiceToHave = cleanList(d.SkillsMatch.MatchedNiceToHave)
	d.IndustryMatch.MatchedIndustries = cleanList(d.IndustryMatch.MatchedIndustries)

	reasons := cleanList(d.MatchReasons)
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	d.MatchReasons = reasons
	d.Summary = strings.TrimSpace(d.Summary)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
