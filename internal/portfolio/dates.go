package portfolio

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxRoleMonths = 50 * 12

var (
	dateToken = regexp.MustCompile(`(?i)\b(?:(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})|(\d{4})[-/.](\d{1,2})|(\d{1,2})[-/.](\d{4})|(\d{4})|(present|current|now|today|ongoing))\b`)

	yearsPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:years?|yrs?|y)\b`)
	monthsPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:months?|mos?|mths?|m)\b`)
	openEnded     = regexp.MustCompile(`(?i)\b(since|from)\b`)
	yearDigits    = regexp.MustCompile(`\d{4}`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

type yearMonth struct {
	year  int
	month int
}

func (ym yearMonth) months() int { return ym.year*12 + ym.month - 1 }

// roleMonths estimates how long a role lasted. Anything it cannot read counts
// as zero.
func roleMonths(e ExperienceEntry, now time.Time) int {
	if e.StartDate != "" {
		start, ok := parseDate(e.StartDate, now)
		if ok {
			end := yearMonth{year: now.Year(), month: int(now.Month())}
			if !e.Current && e.EndDate != "" {
				if parsed, ok := parseDate(e.EndDate, now); ok {
					end = parsed
				}
			}
			return clampMonths(end.months() - start.months())
		}
	}

	if e.Duration != "" {
		return clampMonths(durationMonths(e.Duration, now))
	}
	return 0
}

// durationMonths reads ranges ("2019 - 2023", "Jan 2020 - Present") and
// spans ("2 yrs 3 mos", "18 months").
func durationMonths(s string, now time.Time) int {
	tokens := dateToken.FindAllStringSubmatch(s, -1)

	switch {
	case len(tokens) >= 2:
		start, okStart := tokenDate(tokens[0], now)
		end, okEnd := tokenDate(tokens[1], now)
		if okStart && okEnd {
			return end.months() - start.months()
		}
	case len(tokens) == 1 && openEnded.MatchString(s):
		if start, ok := tokenDate(tokens[0], now); ok {
			return yearMonth{year: now.Year(), month: int(now.Month())}.months() - start.months()
		}
	}

	total := 0.0
	if m := yearsPattern.FindStringSubmatch(s); m != nil {
		years, _ := strconv.ParseFloat(m[1], 64)
		total += years * 12
	}
	if m := monthsPattern.FindStringSubmatch(s); m != nil {
		months, _ := strconv.ParseFloat(m[1], 64)
		total += months
	}
	return int(total + 0.5)
}

func parseDate(s string, now time.Time) (yearMonth, bool) {
	m := dateToken.FindStringSubmatch(s)
	if m == nil {
		return yearMonth{}, false
	}
	return tokenDate(m, now)
}

func tokenDate(m []string, now time.Time) (yearMonth, bool) {
	switch {
	case m[1] != "":
		return yearMonth{year: atoi(m[2]), month: monthIndex[strings.ToLower(m[1])]}, true
	case m[3] != "":
		return validMonth(atoi(m[3]), atoi(m[4]))
	case m[5] != "":
		return validMonth(atoi(m[6]), atoi(m[5]))
	case m[7] != "":
		return yearMonth{year: atoi(m[7]), month: 1}, true
	case m[8] != "":
		return yearMonth{year: now.Year(), month: int(now.Month())}, true
	}
	return yearMonth{}, false
}

func validMonth(year, month int) (yearMonth, bool) {
	if month < 1 || month > 12 {
		return yearMonth{}, false
	}
	return yearMonth{year: year, month: month}, true
}

func clampMonths(m int) int {
	if m < 0 {
		return 0
	}
	return min(m, maxRoleMonths)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// degreeYear returns the last four-digit year found in s.
func degreeYear(s string) (int, bool) {
	tokens := yearDigits.FindAllString(s, -1)
	if len(tokens) == 0 {
		return 0, false
	}
	return atoi(tokens[len(tokens)-1]), true
}
