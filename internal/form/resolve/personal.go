// -- internal/form/resolve/personal.go --
package resolve

import (
	"regexp"
	"strings"
)

// personalPatterns is the curated question set forced to a skip with
// reason personal_preference. The gate runs before profile or model
// lookup and cannot be overridden by a confident match; these questions
// require the candidate's own judgement (compensation, notice, work-mode
// preference, relocation, demographics, legal agreements, visa status).
var personalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bctc\b`),
	regexp.MustCompile(`(?i)\bsalary\b`),
	regexp.MustCompile(`(?i)\bcompensation\b`),
	regexp.MustCompile(`(?i)\bpackage\b`),
	regexp.MustCompile(`(?i)\bexpected\b`),
	regexp.MustCompile(`(?i)\bcurrent\s+(ctc|salary|pay|package|compensation)\b`),
	regexp.MustCompile(`(?i)\bnotice\s*period\b`),
	regexp.MustCompile(`(?i)\bnotice\b`),
	regexp.MustCompile(`(?i)\blwd\b`),
	regexp.MustCompile(`(?i)\blast\s+working\s+day\b`),
	regexp.MustCompile(`(?i)\bjoining\b`),
	regexp.MustCompile(`(?i)\bbuyout\b`),
	regexp.MustCompile(`(?i)\bbuy\s*-?\s*out\b`),
	regexp.MustCompile(`(?i)\bwfh\b`),
	regexp.MustCompile(`(?i)\bwfo\b`),
	regexp.MustCompile(`(?i)\bhybrid\b`),
	regexp.MustCompile(`(?i)\bremote\s+or\s+office\b`),
	regexp.MustCompile(`(?i)\bwork\s+from\s+(home|office)\b`),
	regexp.MustCompile(`(?i)\bshifts?\b`),
	regexp.MustCompile(`(?i)\bpreferred\s+location\b`),
	regexp.MustCompile(`(?i)\brelocat\w*\b`),
	regexp.MustCompile(`(?i)\bwilling\s+to\s+travel\b`),
	regexp.MustCompile(`(?i)\bgender\b`),
	regexp.MustCompile(`(?i)\bage\b`),
	regexp.MustCompile(`(?i)\bdate\s+of\s+birth\b`),
	regexp.MustCompile(`(?i)\bdob\b`),
	regexp.MustCompile(`(?i)\bmarital\b`),
	regexp.MustCompile(`(?i)\bbond\b`),
	regexp.MustCompile(`(?i)\bservice\s+agreement\b`),
	regexp.MustCompile(`(?i)\bnon\s*-?\s*compete\b`),
	regexp.MustCompile(`(?i)\bnda\b`),
	regexp.MustCompile(`(?i)\bvisa\b`),
	regexp.MustCompile(`(?i)\bimmigration\b`),
	regexp.MustCompile(`(?i)\bwork\s+authori[sz]ation\b`),
	regexp.MustCompile(`(?i)\bsponsorship\b`),
}

// IsPersonalPreference reports whether the question falls under the hard
// policy gate.
func IsPersonalPreference(question string) bool {
	question = strings.TrimSpace(question)
	if question == "" {
		return false
	}
	for _, pattern := range personalPatterns {
		if pattern.MatchString(question) {
			return true
		}
	}
	return false
}
