// -- internal/form/discover/discover.go --

// Package discover extracts a form schema from a live page. Each frame
// is snapshotted and parsed in-process; inference over the markup is
// pure so it can be tested against HTML strings, while option probing
// for custom dropdown widgets goes back through the live session.
package discover

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// Discoverer walks every frame of the session's current page and
// assembles the field list.
type Discoverer struct {
	session schemas.PageSession
	cfg     config.DiscoveryConfig
	logger  *zap.Logger
}

func New(session schemas.PageSession, cfg config.DiscoveryConfig, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{session: session, cfg: cfg, logger: logger}
}

// DiscoverAll snapshots each frame, parses it for controls, and probes
// custom dropdowns for their option lists. A frame that fails to
// snapshot or parse is logged and skipped; the remaining frames still
// contribute their fields.
func (d *Discoverer) DiscoverAll(ctx context.Context) ([]schemas.Field, error) {
	frames, err := d.session.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate frames: %w", err)
	}

	var fields []schemas.Field
	seen := make(map[string]bool)
	for _, frame := range frames {
		raw, err := d.session.FrameHTML(ctx, frame.ID)
		if err != nil {
			d.logger.Warn("Frame snapshot failed, skipping.",
				zap.String("frame_id", frame.ID), zap.String("url", frame.URL), zap.Error(err))
			continue
		}
		doc, err := htmlquery.Parse(strings.NewReader(raw))
		if err != nil {
			d.logger.Warn("Frame parse failed, skipping.",
				zap.String("frame_id", frame.ID), zap.Error(err))
			continue
		}

		frameFields := FieldsFromDocument(doc, frame.ID)
		d.logger.Debug("Frame scanned.",
			zap.String("frame_id", frame.ID), zap.Int("fields", len(frameFields)))

		for _, f := range frameFields {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			fields = append(fields, f)
		}
	}

	for i := range fields {
		f := &fields[i]
		if f.Kind == schemas.KindCombobox && len(f.Options) == 0 {
			if err := d.probeComboOptions(ctx, f); err != nil {
				d.logger.Debug("Combobox probe yielded nothing.",
					zap.String("field_id", f.ID), zap.Error(err))
			}
		}
	}
	return fields, nil
}

// FieldsFromDocument extracts every fillable control from one parsed
// frame document. Controls that cannot be classified or labelled
// safely are dropped rather than guessed at.
func FieldsFromDocument(doc *html.Node, frameID string) []schemas.Field {
	var ordered []*schemas.Field
	groups := make(map[string]*schemas.Field)
	usedIDs := make(map[string]int)

	controls := htmlquery.Find(doc,
		`//input | //textarea | //select | //*[@role='combobox' and not(self::input)]`)
	for _, node := range controls {
		field, ok := classify(doc, node, frameID)
		if !ok {
			continue
		}

		// Radios and checkbox groups fold into one logical field keyed
		// by the control's name attribute.
		if field.GroupName != "" {
			key := string(field.Kind) + ":" + field.GroupName
			if existing, found := groups[key]; found {
				existing.Options = append(existing.Options, field.Options...)
				existing.Required = existing.Required || field.Required
				continue
			}
			groups[key] = &field
			ordered = append(ordered, &field)
			continue
		}

		ordered = append(ordered, &field)
	}

	// Lone checkboxes are yes/no questions, not one-option groups.
	for _, f := range ordered {
		if f.Kind != schemas.KindCheckbox {
			continue
		}
		if len(f.Options) == 1 {
			if f.Question == "" {
				f.Question = f.Options[0].Label
			}
			f.Options = []schemas.Option{
				{Label: "Yes", Value: f.Options[0].Value},
				{Label: "No", Value: ""},
			}
			f.AllowsMultiple = false
		} else {
			f.AllowsMultiple = true
		}
	}

	var out []schemas.Field
	for _, f := range ordered {
		// A field missing both identity and label is unaddressable.
		// With only the label gone it stays; DisplayLabel falls back
		// to the id.
		if f.ID == "" && f.Question == "" {
			continue
		}
		if f.ID == "" {
			f.ID = slug(f.Question)
		}
		if n := usedIDs[f.ID]; n > 0 {
			f.ID = fmt.Sprintf("%s_%d", f.ID, n+1)
		}
		usedIDs[f.ID]++
		out = append(out, *f)
	}
	return out
}

// classify turns one DOM control into a field, or reports ok=false for
// controls the pipeline does not fill.
func classify(doc, node *html.Node, frameID string) (schemas.Field, bool) {
	if htmlquery.ExistsAttr(node, "disabled") || htmlquery.ExistsAttr(node, "readonly") {
		return schemas.Field{}, false
	}
	if hiddenByAncestry(node) {
		return schemas.Field{}, false
	}

	tag := strings.ToLower(node.Data)
	name := htmlquery.SelectAttr(node, "name")

	field := schemas.Field{
		FrameID: frameID,
		Locator: UniqueXPath(node),
	}

	switch tag {
	case "textarea":
		field.Kind = schemas.KindTextarea
	case "select":
		if htmlquery.ExistsAttr(node, "multiple") {
			field.Kind = schemas.KindMultiSelect
			field.AllowsMultiple = true
		} else {
			field.Kind = schemas.KindSelect
		}
		field.Options = selectOptions(node)
	case "input":
		inputType := strings.ToLower(htmlquery.SelectAttr(node, "type"))
		switch inputType {
		case "hidden", "submit", "button", "reset", "image":
			return schemas.Field{}, false
		case "file":
			field.Kind = schemas.KindFile
		case "radio":
			field.Kind = schemas.KindRadio
			field.GroupName = name
			field.Question = groupLabel(doc, node)
			field.Options = []schemas.Option{optionForControl(doc, node)}
			field.Required = isRequired(node, field.Question)
			field.Question = trimAsterisk(field.Question)
			field.ID = slug(firstNonEmpty(name, field.Question))
			return field, field.GroupName != ""
		case "checkbox":
			field.Kind = schemas.KindCheckbox
			field.GroupName = firstNonEmpty(name, htmlquery.SelectAttr(node, "id"))
			field.Question = groupLabel(doc, node)
			field.Options = []schemas.Option{optionForControl(doc, node)}
			field.Required = isRequired(node, field.Question)
			field.Question = trimAsterisk(field.Question)
			field.ID = slug(firstNonEmpty(name, field.Question, field.Options[0].Label))
			return field, field.GroupName != ""
		default:
			if isComboboxWidget(node) {
				field.Kind = schemas.KindCombobox
				if listID := htmlquery.SelectAttr(node, "list"); listID != "" {
					field.Options = datalistOptions(doc, listID)
				}
			} else {
				field.Kind = schemas.KindText
			}
		}
	default:
		// Non-input combobox widget, e.g. a div with role=combobox.
		if isComboboxWidget(node) {
			field.Kind = schemas.KindCombobox
		} else {
			return schemas.Field{}, false
		}
	}

	field.Question = InferLabel(doc, node)
	field.Required = isRequired(node, field.Question)
	field.Question = trimAsterisk(field.Question)
	field.ID = slug(firstNonEmpty(name, htmlquery.SelectAttr(node, "id"), field.Question))
	return field, true
}

func trimAsterisk(question string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(question), "*"))
}

// isComboboxWidget recognizes inputs that drive a custom option list
// instead of accepting free text.
func isComboboxWidget(node *html.Node) bool {
	if htmlquery.SelectAttr(node, "role") == "combobox" {
		return true
	}
	if htmlquery.SelectAttr(node, "aria-haspopup") == "listbox" {
		return true
	}
	if ac := htmlquery.SelectAttr(node, "aria-autocomplete"); ac == "list" || ac == "both" {
		return true
	}
	return htmlquery.SelectAttr(node, "list") != ""
}

func selectOptions(sel *html.Node) []schemas.Option {
	var opts []schemas.Option
	for _, o := range htmlquery.Find(sel, ".//option") {
		if htmlquery.ExistsAttr(o, "disabled") {
			continue
		}
		label := visibleText(o)
		value := htmlquery.SelectAttr(o, "value")
		if value == "" {
			value = label
		}
		if label == "" && value == "" {
			continue
		}
		if label == "" {
			label = value
		}
		opts = append(opts, schemas.Option{Label: label, Value: value})
	}
	return opts
}

func datalistOptions(doc *html.Node, listID string) []schemas.Option {
	dl := htmlquery.FindOne(doc, `//datalist[@id=`+xpathLiteral(listID)+`]`)
	if dl == nil {
		return nil
	}
	var opts []schemas.Option
	for _, o := range htmlquery.Find(dl, ".//option") {
		value := htmlquery.SelectAttr(o, "value")
		label := firstNonEmpty(visibleText(o), value)
		if label == "" {
			continue
		}
		if value == "" {
			value = label
		}
		opts = append(opts, schemas.Option{Label: label, Value: value})
	}
	return opts
}

func optionForControl(doc, node *html.Node) schemas.Option {
	label := controlLabel(doc, node)
	value := htmlquery.SelectAttr(node, "value")
	if value == "" {
		value = label
	}
	if label == "" {
		label = value
	}
	return schemas.Option{Label: label, Value: value}
}

// isRequired accepts both the markup signals and the visual asterisk
// convention.
func isRequired(node *html.Node, question string) bool {
	if htmlquery.ExistsAttr(node, "required") {
		return true
	}
	if htmlquery.SelectAttr(node, "aria-required") == "true" {
		return true
	}
	return strings.HasSuffix(strings.TrimSpace(question), "*")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// slug derives a stable field id from a name or question.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}
