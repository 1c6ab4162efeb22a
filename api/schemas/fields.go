package schemas

import (
	"fmt"
	"strings"
)

// -- Field Schemas --

// FieldKind classifies the widget backing a discovered form field.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextarea    FieldKind = "textarea"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindRadio       FieldKind = "radio"
	KindCheckbox    FieldKind = "checkbox"
	KindCombobox    FieldKind = "combobox"
	KindFile        FieldKind = "file"
	KindUnknown     FieldKind = "unknown"
)

// IsOptioned reports whether a field of this kind carries a closed option set.
func (k FieldKind) IsOptioned() bool {
	switch k {
	case KindSelect, KindMultiSelect, KindRadio, KindCheckbox, KindCombobox:
		return true
	}
	return false
}

// IsFreeText reports whether the field accepts arbitrary typed input.
func (k FieldKind) IsFreeText() bool {
	return k == KindText || k == KindTextarea
}

// Option is one selectable choice of an optioned field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field is one logical question on a page. A radio or checkbox group is a
// single Field; its peers are reachable through GroupName.
type Field struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Kind           FieldKind `json:"kind"`
	Options        []Option  `json:"options,omitempty"`
	Required       bool      `json:"required"`
	AllowsMultiple bool      `json:"allows_multiple"`

	// Locator metadata used by the fill executor. Not part of the logical
	// question identity and omitted from artifacts when empty.
	Locator   string `json:"locator,omitempty"`
	FrameID   string `json:"frame_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}

// DisplayLabel returns the question text, falling back to the field id when
// no labeling heuristic matched.
func (f *Field) DisplayLabel() string {
	if strings.TrimSpace(f.Question) != "" {
		return f.Question
	}
	return f.ID
}

// OptionLabels returns the ordered labels of the field's options.
func (f *Field) OptionLabels() []string {
	labels := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		labels = append(labels, o.Label)
	}
	return labels
}

// FindOption locates an option whose label or value matches s
// case-insensitively, returning the canonical option.
func (f *Field) FindOption(s string) (Option, bool) {
	needle := strings.TrimSpace(strings.ToLower(s))
	for _, o := range f.Options {
		if strings.ToLower(strings.TrimSpace(o.Label)) == needle ||
			strings.ToLower(strings.TrimSpace(o.Value)) == needle {
			return o, true
		}
	}
	return Option{}, false
}

// -- Answer Schemas --

// AnswerSource records which ranked source produced an answer.
type AnswerSource string

const (
	SourceCached   AnswerSource = "cached"
	SourceProfile  AnswerSource = "profile"
	SourceInferred AnswerSource = "inferred"
	SourceUser     AnswerSource = "user"
	SourceFallback AnswerSource = "fallback"
)

// Answer is a resolved value for a Field. Value holds a string, []string,
// bool or float64 depending on the field kind; use the typed accessors.
type Answer struct {
	Value  any          `json:"value"`
	Source AnswerSource `json:"source"`
}

// AsString renders the answer as a single string. Multi values are joined
// with ", " in their stored order.
func (a Answer) AsString() string {
	switch v := a.Value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// AsList renders the answer as a list of values. Single values become a
// one-element list; nil becomes an empty list.
func (a Answer) AsList() []string {
	switch v := a.Value.(type) {
	case []string:
		return v
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{a.AsString()}
	}
}

// -- Skip Schemas --

// SkipReason explains why a field could not be resolved.
type SkipReason string

const (
	ReasonPersonalPreference SkipReason = "personal_preference"
	ReasonNotFound           SkipReason = "not_found_in_sources"
	ReasonAmbiguous          SkipReason = "ambiguous"
	ReasonNoValidOption      SkipReason = "no_valid_option"
	ReasonMetadataMissing    SkipReason = "metadata_missing"
	ReasonUserSkipped        SkipReason = "user_skipped"
)

// SkipRecord marks a field left unresolved, with the stage that failed.
type SkipRecord struct {
	ID       string     `json:"id"`
	Question string     `json:"question"`
	Reason   SkipReason `json:"reason"`
}

// ReviewedAnswer pairs the question text with its answer in the wrapped
// artifact produced by an interactive completion pass.
type ReviewedAnswer struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
}
