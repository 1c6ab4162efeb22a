// -- internal/form/resolve/options_test.go --
package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

func optionField(labels ...string) *schemas.Field {
	f := &schemas.Field{ID: "f", Kind: schemas.KindSelect}
	for _, l := range labels {
		f.Options = append(f.Options, schemas.Option{Label: l, Value: l})
	}
	return f
}

func TestMatchOptionExact(t *testing.T) {
	field := optionField("0-1 years", "1-3 years", "3-5 years")

	t.Run("case insensitive, canonical label returned", func(t *testing.T) {
		opt, result := MatchOption(field, "  1-3 YEARS ")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "1-3 years", opt.Label)
	})

	t.Run("value match", func(t *testing.T) {
		f := &schemas.Field{ID: "f", Kind: schemas.KindSelect, Options: []schemas.Option{
			{Label: "Bengaluru", Value: "blr"},
		}}
		opt, result := MatchOption(f, "BLR")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "Bengaluru", opt.Label)
	})
}

func TestMatchOptionNumericRanges(t *testing.T) {
	field := optionField("Less than 6 months", "6 months to 1 year", "Over 1 year")

	cases := []struct {
		input string
		want  string
	}{
		{"8 months", "6 months to 1 year"},
		{"fresher", "Less than 6 months"},
		{"3 years", "Over 1 year"},
		{"6 months", "6 months to 1 year"},
		{"1 year", "6 months to 1 year"},
		{"13 months", "Over 1 year"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			opt, result := MatchOption(field, tc.input)
			require.Equal(t, MatchFound, result)
			assert.Equal(t, tc.want, opt.Label)
		})
	}

	t.Run("year-ranged select", func(t *testing.T) {
		f := optionField("0-1 years", "1-3 years", "3-5 years")
		opt, result := MatchOption(f, "2 years")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "1-3 years", opt.Label)
	})

	t.Run("nearest boundary when nothing contains, earliest wins ties", func(t *testing.T) {
		f := optionField("1-2 years", "4-5 years")
		opt, result := MatchOption(f, "3 years")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "1-2 years", opt.Label)
	})
}

func TestMatchOptionFuzzy(t *testing.T) {
	t.Run("single character difference", func(t *testing.T) {
		field := optionField("Bangalore", "Hyderabad", "Chennai")
		opt, result := MatchOption(field, "Bangalor")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "Bangalore", opt.Label)
	})

	t.Run("word overlap", func(t *testing.T) {
		field := optionField("Bachelor of Engineering", "Master of Science")
		opt, result := MatchOption(field, "bachelor engineering")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "Bachelor of Engineering", opt.Label)
	})
}

func TestMatchOptionSubstring(t *testing.T) {
	t.Run("unique containment", func(t *testing.T) {
		field := optionField("Immediate joiner (0-15 days)", "Serving notice period")
		opt, result := MatchOption(field, "immediate")
		require.Equal(t, MatchFound, result)
		assert.Equal(t, "Immediate joiner (0-15 days)", opt.Label)
	})

	t.Run("two hits is ambiguous, never a guess", func(t *testing.T) {
		field := optionField("Urban office complex", "Suburban office park", "Remote work")
		_, result := MatchOption(field, "office")
		assert.Equal(t, MatchAmbiguous, result)
	})

	t.Run("no hit", func(t *testing.T) {
		field := optionField("Red", "Green")
		_, result := MatchOption(field, "ultraviolet")
		assert.Equal(t, MatchNone, result)
	})
}

func TestMatchOptions(t *testing.T) {
	field := optionField("Go", "Python", "Rust")
	field.Kind = schemas.KindMultiSelect
	field.AllowsMultiple = true

	matched, unmatched := MatchOptions(field, []string{"go", "COBOL", "python", "go"})
	require.Len(t, matched, 2)
	assert.Equal(t, "Go", matched[0].Label)
	assert.Equal(t, "Python", matched[1].Label)
	assert.Equal(t, []string{"COBOL"}, unmatched)
}

func TestSplitMulti(t *testing.T) {
	assert.Equal(t, []string{"Go", "Python", "Rust"}, SplitMulti(" Go, Python;Rust ,"))
	assert.Empty(t, SplitMulti("  "))
}

func TestParseMonths(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"8 months", 8, true},
		{"2 years", 24, true},
		{"1.5 yrs", 18, true},
		{"fresher", 0, true},
		{"no experience", 0, true},
		{"7", 7, true},
		{"a while", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := parseMonths(tc.input)
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.InDelta(t, tc.want, got, 0.001)
			}
		})
	}
}

func TestMonthsRangeFromLabel(t *testing.T) {
	t.Run("less than", func(t *testing.T) {
		r, ok := monthsRangeFromLabel("Less than 6 months")
		require.True(t, ok)
		assert.InDelta(t, 0, r.lo, 0.0001)
		assert.Less(t, r.hi, 6.0)
		assert.False(t, r.contains(6))
	})

	t.Run("mixed units", func(t *testing.T) {
		r, ok := monthsRangeFromLabel("6 months to 1 year")
		require.True(t, ok)
		assert.InDelta(t, 6, r.lo, 0.0001)
		assert.InDelta(t, 12, r.hi, 0.0001)
	})

	t.Run("over excludes the bound", func(t *testing.T) {
		r, ok := monthsRangeFromLabel("Over 1 year")
		require.True(t, ok)
		assert.False(t, r.contains(12))
		assert.True(t, r.contains(12.5))
	})

	t.Run("fresher is the zero bucket", func(t *testing.T) {
		r, ok := monthsRangeFromLabel("Fresher")
		require.True(t, ok)
		assert.True(t, r.contains(0))
		assert.False(t, r.contains(1))
	})

	t.Run("unitless range inherits label unit", func(t *testing.T) {
		r, ok := monthsRangeFromLabel("0-1 years")
		require.True(t, ok)
		assert.InDelta(t, 0, r.lo, 0.0001)
		assert.InDelta(t, 12, r.hi, 0.0001)
	})

	t.Run("plain text has no range", func(t *testing.T) {
		_, ok := monthsRangeFromLabel("Bangalore")
		assert.False(t, ok)
	})
}

func TestCanonicalYesNo(t *testing.T) {
	for input, want := range map[string]string{
		"yes": "Yes", "Y": "Yes", "TRUE": "Yes",
		"no": "No", "n": "No", "false": "No",
	} {
		got, ok := CanonicalYesNo(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}

	_, ok := CanonicalYesNo("maybe")
	assert.False(t, ok)
}
