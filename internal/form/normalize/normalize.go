// -- internal/form/normalize/normalize.go --

// Package normalize coerces heterogeneous upstream field descriptions into
// the canonical Field model. Every producer of field lists, whether live
// discovery or a previously serialized form description, funnels through
// this one contract.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// ErrNoFields is returned when parsing succeeded but not a single usable
// field survived coercion. Callers depend on the distinction between "form
// had no fields" (empty input list) and "parsing broke" (this error).
var ErrNoFields = errors.New("no usable fields found in input")

// containerKeys are the conventional names under which producers nest
// their field list. When several are present the longest list wins.
var containerKeys = []string{"fields", "questions", "items", "schema", "formFields", "form"}

// idKeys are tried in order to resolve a raw record's identity.
var idKeys = []string{"question_id", "id", "field_id", "name", "key", "slug", "uid"}

// questionKeys are tried in order to resolve the human-readable question.
var questionKeys = []string{"question", "label", "prompt", "text", "title"}

// kindTable maps raw type strings to canonical kinds.
var kindTable = map[string]schemas.FieldKind{
	"select":        schemas.KindSelect,
	"dropdown":      schemas.KindSelect,
	"combo":         schemas.KindSelect,
	"combobox":      schemas.KindSelect,
	"checkbox":      schemas.KindMultiSelect,
	"checkboxes":    schemas.KindMultiSelect,
	"radio":         schemas.KindRadio,
	"radiogroup":    schemas.KindRadio,
	"choice":        schemas.KindRadio,
	"input":         schemas.KindText,
	"shorttext":     schemas.KindText,
	"textinput":     schemas.KindText,
	"text":          schemas.KindText,
	"textarea":      schemas.KindTextarea,
	"longtext":      schemas.KindTextarea,
	"file":          schemas.KindFile,
	"upload":        schemas.KindFile,
	"resume_upload": schemas.KindFile,
	"multiselect":   schemas.KindMultiSelect,
}

// multiKinds are raw type strings that imply multiplicity on their own.
var multiKinds = map[string]bool{
	"checkbox":    true,
	"checkboxes":  true,
	"multiselect": true,
}

// Normalize parses a JSON document holding either a list of field-like
// objects or a container object nesting such a list, and coerces it into
// canonical Field records.
func Normalize(raw []byte) ([]schemas.Field, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse field document: %w", err)
	}
	return NormalizeValue(doc)
}

// NormalizeValue coerces an already-decoded JSON-like value. See Normalize.
func NormalizeValue(doc any) ([]schemas.Field, error) {
	list, err := extractList(doc)
	if err != nil {
		return nil, err
	}

	fields := make([]schemas.Field, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field, ok := coerceRecord(record)
		if !ok || seen[field.ID] {
			continue
		}
		seen[field.ID] = true
		fields = append(fields, field)
	}

	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	return fields, nil
}

// extractList locates the actual field list inside the document.
func extractList(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		var best []any
		for _, key := range containerKeys {
			nested, ok := v[key].([]any)
			if ok && len(nested) > len(best) {
				best = nested
			}
		}
		if best != nil {
			return best, nil
		}
		// A bare single record is accepted as a one-element list.
		for _, key := range idKeys {
			if _, ok := v[key]; ok {
				return []any{doc}, nil
			}
		}
		return nil, fmt.Errorf("%w: no field list under any known container key", ErrNoFields)
	default:
		return nil, fmt.Errorf("%w: unsupported document shape %T", ErrNoFields, doc)
	}
}

// coerceRecord maps one raw record onto the canonical Field model. Records
// lacking both an id and question text are dropped.
func coerceRecord(record map[string]any) (schemas.Field, bool) {
	id := firstString(record, idKeys)
	question := firstString(record, questionKeys)
	if id == "" && question == "" {
		return schemas.Field{}, false
	}
	if id == "" {
		id = slugify(question)
	}

	rawKind := strings.ToLower(strings.TrimSpace(asString(pick(record, "kind", "type", "field_type", "input_type"))))
	kind, ok := kindTable[rawKind]
	if !ok {
		kind = schemas.KindUnknown
	}

	multiple := truthy(pick(record, "allows_multiple", "allow_multiple", "multiple", "multi", "is_multi")) ||
		multiKinds[rawKind]
	if multiple && kind == schemas.KindSelect {
		kind = schemas.KindMultiSelect
	}
	if kind == schemas.KindMultiSelect {
		multiple = true
	}

	field := schemas.Field{
		ID:             id,
		Question:       question,
		Kind:           kind,
		Options:        coerceOptions(pick(record, "options", "choices", "values")),
		Required:       truthy(pick(record, "required", "is_required", "mandatory")),
		AllowsMultiple: multiple,
		Locator:        asString(pick(record, "locator", "selector")),
		FrameID:        asString(pick(record, "frame_id", "frame")),
		GroupName:      asString(pick(record, "group_name", "group")),
	}
	return field, true
}

// coerceOptions accepts lists of plain strings or {label,value} objects.
func coerceOptions(raw any) []schemas.Option {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	options := make([]schemas.Option, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			s := strings.TrimSpace(v)
			if s != "" {
				options = append(options, schemas.Option{Label: s, Value: s})
			}
		case map[string]any:
			label := strings.TrimSpace(firstString(v, []string{"label", "text", "name", "title"}))
			value := strings.TrimSpace(asString(pick(v, "value", "id")))
			if label == "" {
				label = value
			}
			if value == "" {
				value = label
			}
			if label != "" {
				options = append(options, schemas.Option{Label: label, Value: value})
			}
		case float64, bool:
			options = append(options, schemas.Option{Label: asString(v), Value: asString(v)})
		}
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

// -- Coercion Helpers --

func pick(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(record map[string]any, keys []string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(asString(record[key])); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "required":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// slugify derives a stable id from question text when no explicit id
// exists.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '/':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	if len(slug) > 64 {
		slug = slug[:64]
	}
	return slug
}
