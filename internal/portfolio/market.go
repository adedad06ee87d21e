package portfolio

import (
	"math"
	"strings"
)

var wordSeparators = strings.NewReplacer(",", " ", ";", " ", "(", " ", ")", " ", "/", " ", ":", " ", "\n", " ", "\t", " ")

var levelDemand = map[Level]float64{
	LevelEntry:  0.25,
	LevelMid:    0.5,
	LevelSenior: 0.8,
	LevelLead:   1,
}

// buildMarketProfile scores how rare and how sought-after a profile is.
// Rarity grows with category coverage and with skills outside the common set.
// Demand grows with in-demand skills, weighted up when the latest role uses
// them, and with level. Both stay in [0,1].
func buildMarketProfile(skills Skills, level Level, roles []ExperienceEntry) MarketProfile {
	categories := 0
	for _, list := range [][]string{skills.Technical, skills.Frameworks, skills.Languages} {
		if len(list) > 0 {
			categories++
		}
	}

	uncommon := 0
	for _, s := range skills.All {
		if !inSet(commonSkills, s) {
			uncommon++
		}
	}

	rarity := 0.0
	if len(skills.All) > 0 {
		rarity = 0.4*float64(categories)/3 + 0.6*(1-math.Exp(-float64(uncommon)/6))
	}

	recent := ""
	if len(roles) > 0 {
		r := roles[0]
		recent = " " + wordSeparators.Replace(strings.ToLower(r.Title+" "+r.Description+" "+strings.Join(r.Technologies, " "))) + " "
	}

	weighted := 0.0
	for _, s := range skills.All {
		if !inSet(inDemandSkills, s) {
			continue
		}
		weighted++
		if recent != "" && strings.Contains(recent, " "+normalizeKey(s)+" ") {
			weighted += 0.5
		}
	}

	demand := 0.0
	if len(skills.All) > 0 {
		demand = 0.7*(1-math.Exp(-weighted/4)) + 0.3*levelDemand[level]
	}

	rarity = round2(clamp01(rarity))
	demand = round2(clamp01(demand))

	return MarketProfile{
		CompetitiveLevel:  competitiveLevel((rarity + demand) / 2),
		RarityScore:       rarity,
		MarketDemandScore: demand,
	}
}

func competitiveLevel(composite float64) CompetitiveLevel {
	switch {
	case composite < 0.35:
		return CompetitiveLow
	case composite < 0.65:
		return CompetitiveMedium
	default:
		return CompetitiveHigh
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
