// -- internal/form/resolve/options.go --
package resolve

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// MatchResult classifies the outcome of mapping a raw value onto a
// field's closed option set.
type MatchResult int

const (
	MatchFound MatchResult = iota
	MatchNone
	MatchAmbiguous
)

// fuzzyCutoff is the minimum similarity for a fuzzy label match.
const fuzzyCutoff = 0.45

// rangeEpsilon nudges open range bounds so "over 1 year" excludes exactly
// 12 months and "less than 6 months" excludes exactly 6.
const rangeEpsilon = 0.001

// MatchOption maps a raw candidate value onto one canonical option of the
// field. Strategies are tried in fixed order: exact case-insensitive label
// or value match, numeric month-scale range bucketing, fuzzy label match,
// unique substring containment. More than one substring hit is ambiguous,
// never a guess.
func MatchOption(field *schemas.Field, raw string) (schemas.Option, MatchResult) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(field.Options) == 0 {
		return schemas.Option{}, MatchNone
	}

	if opt, ok := field.FindOption(raw); ok {
		return opt, MatchFound
	}

	if opt, ok := matchByRange(field.Options, raw); ok {
		return opt, MatchFound
	}

	if opt, ok := matchFuzzy(field.Options, raw); ok {
		return opt, MatchFound
	}

	return matchBySubstring(field.Options, raw)
}

// MatchOptions matches a list of raw tokens for a multi-valued field,
// unioning the results in first-seen order with duplicates removed. A
// token that fails to match is reported through the second return so the
// caller can decide whether a partial union is acceptable.
func MatchOptions(field *schemas.Field, raws []string) (matched []schemas.Option, unmatched []string) {
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		opt, result := MatchOption(field, raw)
		if result != MatchFound {
			unmatched = append(unmatched, raw)
			continue
		}
		if seen[opt.Label] {
			continue
		}
		seen[opt.Label] = true
		matched = append(matched, opt)
	}
	return matched, unmatched
}

// SplitMulti breaks a raw multi-value answer into tokens on commas and
// semicolons, trimming whitespace.
func SplitMulti(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// -- Numeric range bucketing --

var numberUnitRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(years?|yrs?|yr|months?|mos?|mo)?`)

var zeroExperienceRe = regexp.MustCompile(`(?i)\b(fresher|freshers|no\s+exp\w*|zero|none)\b`)

// parseMonths reads a free-text experience value onto a month scale.
// "fresher", "no experience" and "zero" are all zero months; a bare
// number is taken as months unless a year unit follows it.
func parseMonths(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if zeroExperienceRe.MatchString(text) {
		return 0, true
	}
	m := numberUnitRe.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "y") {
		n *= 12
	}
	return n, true
}

// monthRange is a half-open experience bucket on a month scale.
type monthRange struct {
	lo, hi float64
}

func (r monthRange) contains(v float64) bool {
	return v >= r.lo && v <= r.hi
}

// distance is the gap between v and the nearest bound, zero inside.
func (r monthRange) distance(v float64) float64 {
	if r.contains(v) {
		return 0
	}
	if v < r.lo {
		return r.lo - v
	}
	return v - r.hi
}

var lessThanRe = regexp.MustCompile(`(?i)\b(less\s+than|under|below|upto|up\s+to)\b`)
var overRe = regexp.MustCompile(`(?i)\b(over|more\s+than|above|greater\s+than)\b`)
var rangeSepRe = regexp.MustCompile(`(?i)\bto\b|[-–]`)

// monthsRangeFromLabel interprets an option label as an experience bucket.
// Recognized shapes: "fresher", "less than N months", "A to B years",
// "A-B years", "over N years". Numbers without their own unit inherit the
// label's unit, defaulting to months.
func monthsRangeFromLabel(label string) (monthRange, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return monthRange{}, false
	}
	lower := strings.ToLower(label)
	if zeroExperienceRe.MatchString(lower) {
		return monthRange{0, 0}, true
	}

	nums := labelNumbers(label)
	if len(nums) == 0 {
		return monthRange{}, false
	}

	switch {
	case lessThanRe.MatchString(lower):
		return monthRange{0, nums[0] - rangeEpsilon}, true
	case overRe.MatchString(lower):
		return monthRange{nums[0] + rangeEpsilon, math.Inf(1)}, true
	case len(nums) >= 2 && rangeSepRe.MatchString(lower):
		return monthRange{nums[0], nums[1]}, true
	default:
		return monthRange{nums[0], nums[0]}, true
	}
}

// labelNumbers extracts every number in the label converted to months.
// A number with an explicit year unit scales by 12; a unit-less number
// inherits the unit of the following number if any, otherwise the label's
// dominant unit.
func labelNumbers(label string) []float64 {
	matches := numberUnitRe.FindAllStringSubmatch(label, -1)
	if len(matches) == 0 {
		return nil
	}

	type numUnit struct {
		value float64
		unit  string // "y", "m" or ""
	}
	parsed := make([]numUnit, 0, len(matches))
	for _, m := range matches {
		if m[1] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := ""
		switch {
		case strings.HasPrefix(strings.ToLower(m[2]), "y"):
			unit = "y"
		case strings.HasPrefix(strings.ToLower(m[2]), "m"):
			unit = "m"
		}
		parsed = append(parsed, numUnit{n, unit})
	}

	// Unit-less numbers inherit from the right: "6 months to 1 year" keeps
	// 6 as months, while "0-1 years" reads 0 as years.
	defaultUnit := "m"
	if strings.Contains(strings.ToLower(label), "year") {
		defaultUnit = "y"
	}
	for i := len(parsed) - 1; i >= 0; i-- {
		if parsed[i].unit == "" {
			if i+1 < len(parsed) && parsed[i+1].unit != "" {
				parsed[i].unit = parsed[i+1].unit
			} else {
				parsed[i].unit = defaultUnit
			}
		}
	}

	months := make([]float64, 0, len(parsed))
	for _, p := range parsed {
		v := p.value
		if p.unit == "y" {
			v *= 12
		}
		months = append(months, v)
	}
	return months
}

// matchByRange buckets a numeric raw value into range-labeled options.
// A containing range wins; otherwise the option with minimum boundary
// distance is selected, ties broken by the earliest-appearing option.
func matchByRange(options []schemas.Option, raw string) (schemas.Option, bool) {
	value, ok := parseMonths(raw)
	if !ok {
		return schemas.Option{}, false
	}

	type candidate struct {
		opt schemas.Option
		rng monthRange
	}
	var candidates []candidate
	for _, opt := range options {
		rng, ok := monthsRangeFromLabel(opt.Label)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{opt, rng})
	}
	if len(candidates) == 0 {
		return schemas.Option{}, false
	}

	best := candidates[0]
	bestDist := best.rng.distance(value)
	for _, c := range candidates[1:] {
		d := c.rng.distance(value)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.opt, true
}

// -- Fuzzy matching --

// matchFuzzy selects the best-scoring option above the similarity cutoff.
// A tie for best is not a match; tied candidates fall through to the
// substring stage, which reports them as ambiguous rather than guessing.
func matchFuzzy(options []schemas.Option, raw string) (schemas.Option, bool) {
	var best schemas.Option
	bestScore, secondScore := 0.0, 0.0
	for _, opt := range options {
		score := similarity(raw, opt.Label)
		if score > bestScore {
			best, bestScore, secondScore = opt, score, bestScore
		} else if score > secondScore {
			secondScore = score
		}
	}
	if bestScore >= fuzzyCutoff && bestScore-secondScore > 0.0001 {
		return best, true
	}
	return schemas.Option{}, false
}

// similarity blends a character-edit ratio with token overlap, both on
// lowercased input, and returns the higher of the two.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	editRatio := 1.0 - float64(levenshtein(a, b))/float64(max(len(a), len(b)))
	tokenRatio := tokenOverlap(strings.Fields(a), strings.Fields(b))
	return math.Max(editRatio, tokenRatio)
}

// tokenOverlap is the Dice coefficient over word sets.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	common := 0
	for _, t := range b {
		if set[t] {
			common++
		}
	}
	return 2.0 * float64(common) / float64(len(a)+len(b))
}

// levenshtein is the classic two-row edit distance.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(min(curr[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// -- Substring containment --

// matchBySubstring accepts a match only when exactly one option contains
// the raw value (or vice versa); several hits are ambiguous.
func matchBySubstring(options []schemas.Option, raw string) (schemas.Option, MatchResult) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return schemas.Option{}, MatchNone
	}

	var hits []schemas.Option
	for _, opt := range options {
		label := strings.ToLower(opt.Label)
		if strings.Contains(label, needle) || strings.Contains(needle, label) {
			hits = append(hits, opt)
		}
	}
	switch len(hits) {
	case 0:
		return schemas.Option{}, MatchNone
	case 1:
		return hits[0], MatchFound
	default:
		return schemas.Option{}, MatchAmbiguous
	}
}

// -- Yes/No canonicalization --

var yesWords = map[string]bool{"yes": true, "y": true, "true": true, "yep": true, "sure": true, "ok": true}
var noWords = map[string]bool{"no": true, "n": true, "false": true, "nope": true}

// CanonicalYesNo maps boolean-ish free text onto the display values
// yes/no widgets carry. The second return reports whether a mapping
// applied.
func CanonicalYesNo(raw string) (string, bool) {
	switch lower := strings.ToLower(strings.TrimSpace(raw)); {
	case yesWords[lower]:
		return "Yes", true
	case noWords[lower]:
		return "No", true
	default:
		return raw, false
	}
}
