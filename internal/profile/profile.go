// -- internal/profile/profile.go --

// Package profile loads the candidate's structured facts and resume text.
// The profile is read-only after loading; the answer resolver treats it as
// its highest-authority automated source after the in-run cache.
package profile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Load reads the profile JSON from path and, when resumePath is set,
// attaches the plain-text resume as inference evidence. Derived fields
// (name split, link classification) are filled in before returning.
func Load(path, resumePath string) (*schemas.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p schemas.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	Derive(&p)

	if resumePath != "" {
		p.ResumePath = resumePath
	}
	if p.ResumePath != "" {
		if text, err := os.ReadFile(textSibling(p.ResumePath)); err == nil {
			p.ResumeText = string(text)
		}
	}
	return &p, nil
}

// textSibling returns the .txt companion of a resume document, or the
// path itself when it already is plain text.
func textSibling(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".txt") {
		return path
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + ".txt"
	}
	return path + ".txt"
}

// Derive fills computable fields left empty by the profile author: the
// first/last split from the full name, and link classification by URL
// substring.
func Derive(p *schemas.Profile) {
	if p.FullName != "" && (p.FirstName == "" || p.LastName == "") {
		parts := strings.Fields(p.FullName)
		if p.FirstName == "" && len(parts) > 0 {
			p.FirstName = parts[0]
		}
		if p.LastName == "" && len(parts) > 1 {
			p.LastName = parts[len(parts)-1]
		}
	}

	for _, link := range []string{p.Website, p.Portfolio} {
		lower := strings.ToLower(link)
		switch {
		case p.LinkedIn == "" && strings.Contains(lower, "linkedin."):
			p.LinkedIn = link
		case p.GitHub == "" && strings.Contains(lower, "github."):
			p.GitHub = link
		}
	}
}

// attributeSynonyms maps lowercase question vocabulary onto profile
// attributes. First hit in iteration order below wins, so more specific
// phrases come first.
type synonymRule struct {
	words  []string
	lookup func(p *schemas.Profile) string
}

var synonymRules = []synonymRule{
	{[]string{"first name", "given name", "firstname"}, func(p *schemas.Profile) string { return p.FirstName }},
	{[]string{"last name", "surname", "family name", "lastname"}, func(p *schemas.Profile) string { return p.LastName }},
	{[]string{"full name", "your name", "name of", "candidate name"}, func(p *schemas.Profile) string { return p.FullName }},
	{[]string{"email", "e-mail"}, func(p *schemas.Profile) string { return p.Email }},
	{[]string{"phone", "mobile", "contact number", "telephone"}, func(p *schemas.Profile) string { return p.Phone }},
	{[]string{"linkedin"}, func(p *schemas.Profile) string { return p.LinkedIn }},
	{[]string{"github", "git hub"}, func(p *schemas.Profile) string { return p.GitHub }},
	{[]string{"portfolio", "personal website", "website", "personal site"}, func(p *schemas.Profile) string {
		if p.Portfolio != "" {
			return p.Portfolio
		}
		return p.Website
	}},
	{[]string{"current location", "city", "location", "where are you based", "where do you live"}, func(p *schemas.Profile) string { return p.Location }},
	{[]string{"current title", "job title", "designation", "current role"}, func(p *schemas.Profile) string { return p.CurrentTitle }},
	{[]string{"current company", "current employer", "organisation", "organization"}, func(p *schemas.Profile) string { return p.CurrentCompany }},
	{[]string{"years of experience", "total experience", "experience in years", "work experience"}, func(p *schemas.Profile) string {
		if p.ExperienceYears <= 0 {
			return ""
		}
		return strconv.FormatFloat(p.ExperienceYears, 'f', -1, 64) + " years"
	}},
	{[]string{"skills", "technologies", "tech stack"}, func(p *schemas.Profile) string { return strings.Join(p.Skills, ", ") }},
}

// bareNameWords triggers the full-name rule only when nothing more
// specific matched; "name" alone appears inside too many other phrases
// ("company name", "file name") to rank it higher.
var bareNameWords = []string{"name"}

// Lookup resolves a question against the profile's attributes by
// vocabulary match, returning the value and whether anything matched.
func Lookup(p *schemas.Profile, question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" || p == nil {
		return "", false
	}

	for _, rule := range synonymRules {
		for _, w := range rule.words {
			if strings.Contains(q, w) {
				if v := strings.TrimSpace(rule.lookup(p)); v != "" {
					return v, true
				}
			}
		}
	}

	// Site-specific extras, matched on the attribute key.
	for key, value := range p.Extra {
		if key != "" && strings.Contains(q, strings.ToLower(key)) && strings.TrimSpace(value) != "" {
			return value, true
		}
	}

	for _, w := range bareNameWords {
		if strings.Contains(q, w) && strings.TrimSpace(p.FullName) != "" {
			return p.FullName, true
		}
	}
	return "", false
}
