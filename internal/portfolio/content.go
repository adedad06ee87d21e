package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Content is the explicit form of a portfolio document.
type Content struct {
	Name        string
	Title       string
	Location    string
	Bio         string
	AvatarURL   string
	Skills      []string
	Experience  []ExperienceEntry
	Education   []EducationEntry
	Preferences PreferencesEntry
	Contact     Contact
}

type ExperienceEntry struct {
	Title        string
	Company      string
	Duration     string
	StartDate    string
	EndDate      string
	Current      bool
	Industry     string
	Description  string
	Technologies []string
}

type EducationEntry struct {
	Degree string
	School string
	Year   string
}

type PreferencesEntry struct {
	Roles       []string
	Industries  []string
	Remote      string
	CompanySize []string
	Salary      *SalaryRange
}

type rawRole struct {
	Title        string
	Position     string
	Role         string
	Company      string
	Organization string
	Employer     string
	Duration     string
	Dates        string
	Period       string
	StartDate    string `mapstructure:"startDate"`
	EndDate      string `mapstructure:"endDate"`
	Current      bool
	Industry     string
	Description  string
	Technologies []string
	Skills       []string
}

type rawDegree struct {
	Degree         string
	Field          string
	School         string
	Institution    string
	University     string
	Year           string
	GraduationYear string `mapstructure:"graduationYear"`
	EndDate        string `mapstructure:"endDate"`
}

type rawPreferences struct {
	PreferredRoles       []string `mapstructure:"preferredRoles"`
	Roles                []string
	PreferredIndustries  []string `mapstructure:"preferredIndustries"`
	Industries           []string
	RemotePreference     string `mapstructure:"remotePreference"`
	WorkMode             string `mapstructure:"workMode"`
	Remote               any
	CompanySize          []string     `mapstructure:"companySize"`
	PreferredCompanySize []string     `mapstructure:"preferredCompanySize"`
	SalaryRange          *SalaryRange `mapstructure:"salaryRange"`
}

// DecodeJSON parses a raw portfolio document. Only a document that is not a
// JSON object is an error; anything inside it is decoded leniently.
func DecodeJSON(data []byte) (Content, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Content{}, fmt.Errorf("decode portfolio content: %w", err)
	}
	if raw == nil {
		return Content{}, errors.New("portfolio content must be a json object")
	}
	return Decode(raw), nil
}

// Decode converts loosely typed content. Each section decodes on its own and a
// malformed section falls back to whatever could be read from it.
func Decode(raw map[string]any) Content {
	var c Content
	if raw == nil {
		return c
	}

	c.Name = firstString(raw, "name", "fullName", "full_name")
	c.Title = firstString(raw, "title", "headline", "role")
	c.Location = firstString(raw, "location", "city")
	c.Bio = firstString(raw, "bio", "about", "summary")
	c.AvatarURL = firstString(raw, "avatar", "avatarUrl", "avatar_url", "photo")

	c.Skills = skillList(raw["skills"])
	for _, key := range []string{"techStack", "technologies", "tools"} {
		c.Skills = append(c.Skills, skillList(raw[key])...)
	}

	for _, item := range asList(raw["experience"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c.Experience = append(c.Experience, decodeRole(m))
	}

	for _, item := range asList(raw["education"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c.Education = append(c.Education, decodeDegree(m))
	}

	if m, ok := raw["preferences"].(map[string]any); ok {
		c.Preferences = decodePreferences(m)
	}

	c.Contact = decodeContact(raw)

	return c
}

func weakDecode(input any, out any) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return
	}
	// Partial results are kept; mapstructure keeps decoding after a bad field.
	_ = decoder.Decode(input)
}

func decodeRole(m map[string]any) ExperienceEntry {
	var r rawRole
	weakDecode(m, &r)

	technologies := append(append([]string{}, r.Technologies...), r.Skills...)
	if len(technologies) == 0 {
		technologies = append(skillList(m["technologies"]), skillList(m["skills"])...)
	}

	return ExperienceEntry{
		Title:        firstNonEmpty(r.Title, r.Position, r.Role),
		Company:      firstNonEmpty(r.Company, r.Organization, r.Employer),
		Duration:     firstNonEmpty(r.Duration, r.Dates, r.Period),
		StartDate:    strings.TrimSpace(r.StartDate),
		EndDate:      strings.TrimSpace(r.EndDate),
		Current:      r.Current,
		Industry:     strings.TrimSpace(r.Industry),
		Description:  strings.TrimSpace(r.Description),
		Technologies: splitSkills(technologies),
	}
}

func decodeDegree(m map[string]any) EducationEntry {
	var d rawDegree
	weakDecode(m, &d)

	degree := strings.TrimSpace(d.Degree)
	if field := strings.TrimSpace(d.Field); field != "" {
		if degree == "" {
			degree = field
		} else if !strings.Contains(strings.ToLower(degree), strings.ToLower(field)) {
			degree = degree + " in " + field
		}
	}

	return EducationEntry{
		Degree: degree,
		School: firstNonEmpty(d.School, d.Institution, d.University),
		Year:   firstNonEmpty(d.Year, d.GraduationYear, d.EndDate),
	}
}

func decodePreferences(m map[string]any) PreferencesEntry {
	var p rawPreferences
	weakDecode(m, &p)

	remote := firstNonEmpty(p.RemotePreference, p.WorkMode)
	if remote == "" {
		switch v := p.Remote.(type) {
		case bool:
			remote = string(RemoteOnsite)
			if v {
				remote = string(RemoteOnly)
			}
		case string:
			remote = v
		}
	}

	salary := p.SalaryRange
	if salary != nil && salary.Min == 0 && salary.Max == 0 {
		salary = nil
	}

	return PreferencesEntry{
		Roles:       cleanList(append(p.PreferredRoles, p.Roles...)),
		Industries:  cleanList(append(p.PreferredIndustries, p.Industries...)),
		Remote:      strings.TrimSpace(remote),
		CompanySize: cleanList(append(p.CompanySize, p.PreferredCompanySize...)),
		Salary:      salary,
	}
}

func decodeContact(raw map[string]any) Contact {
	var c Contact
	weakDecode(raw, &c)

	for _, key := range []string{"social", "links", "contact"} {
		m, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		var nested Contact
		weakDecode(m, &nested)
		c.GitHub = firstNonEmpty(nested.GitHub, c.GitHub)
		c.LinkedIn = firstNonEmpty(nested.LinkedIn, c.LinkedIn)
		c.Email = firstNonEmpty(nested.Email, c.Email)
		c.Website = firstNonEmpty(nested.Website, c.Website)
	}

	c.GitHub = strings.TrimSpace(c.GitHub)
	c.LinkedIn = strings.TrimSpace(c.LinkedIn)
	c.Email = strings.TrimSpace(c.Email)
	c.Website = strings.TrimSpace(c.Website)
	return c
}

// skillList accepts ["Go"], [{"name":"Go"}], {"languages":["Go"]} or "Go, SQL".
func skillList(v any) []string {
	switch val := v.(type) {
	case string:
		return splitSkills([]string{val})
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case map[string]any:
				if name := firstString(s, "name", "skill", "title", "label"); name != "" {
					out = append(out, name)
				}
			}
		}
		return splitSkills(out)
	case []string:
		return splitSkills(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []string
		for _, k := range keys {
			out = append(out, skillList(val[k])...)
		}
		return out
	default:
		return nil
	}
}

func splitSkills(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func asList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		return []any{val}
	default:
		return nil
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprint(v)
		}
	}
	return ""
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
	return dedupe(splitSkills(items))
}
