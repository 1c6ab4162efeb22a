// -- internal/form/fill/executor.go --

// Package fill writes resolved answers into the live page. Every write
// goes through the field's locator; a field that cannot be located or
// written is reported per-field so one stubborn widget never aborts
// the rest of the form.
package fill

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// placeholderPrefixes mark select options that prompt rather than
// answer, e.g. "Select...", "Choose an option", "Please select".
var placeholderPrefixes = []string{"select", "choose", "please", "--", "pick"}

// Executor writes answers field by field.
type Executor struct {
	session schemas.PageSession
	cfg     config.FillConfig
	logger  *zap.Logger
}

func New(session schemas.PageSession, cfg config.FillConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{session: session, cfg: cfg, logger: logger}
}

// Result reports which fields were written and which failed.
type Result struct {
	Filled []string
	Failed map[string]error
}

// FillAll writes every field that has an answer. Only context
// cancellation aborts the pass; individual failures are collected.
func (e *Executor) FillAll(ctx context.Context, fields []schemas.Field, answers map[string]any) (Result, error) {
	result := Result{Failed: make(map[string]error)}
	for i := range fields {
		field := &fields[i]
		value, ok := answers[field.ID]
		if !ok {
			continue
		}
		if err := e.FillField(ctx, field, value); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			e.logger.Warn("Field write failed.",
				zap.String("field_id", field.ID), zap.String("kind", string(field.Kind)), zap.Error(err))
			result.Failed[field.ID] = err
			continue
		}
		e.logger.Info("Field written.",
			zap.String("field_id", field.ID), zap.String("kind", string(field.Kind)))
		result.Filled = append(result.Filled, field.ID)
	}
	return result, nil
}

// FillField dispatches on the field kind.
func (e *Executor) FillField(ctx context.Context, field *schemas.Field, value any) error {
	switch field.Kind {
	case schemas.KindText, schemas.KindTextarea:
		return e.fillText(ctx, field, asText(value))
	case schemas.KindSelect:
		return e.fillSelect(ctx, field, asText(value))
	case schemas.KindMultiSelect:
		return e.fillMultiSelect(ctx, field, asList(value))
	case schemas.KindRadio:
		return e.fillRadio(ctx, field, asText(value))
	case schemas.KindCheckbox:
		return e.fillCheckbox(ctx, field, value)
	case schemas.KindCombobox:
		return e.fillCombobox(ctx, field, asText(value))
	case schemas.KindFile:
		return e.Upload(ctx, field, asList(value))
	default:
		return fmt.Errorf("unsupported field kind %q", field.Kind)
	}
}

func (e *Executor) fillText(ctx context.Context, field *schemas.Field, text string) error {
	locator, err := e.locate(ctx, field)
	if err != nil {
		return err
	}
	if err := e.session.ClearInput(ctx, field.FrameID, locator); err != nil {
		return fmt.Errorf("failed to clear input: %w", err)
	}
	if err := e.session.TypeText(ctx, field.FrameID, locator, text); err != nil {
		return fmt.Errorf("failed to type value: %w", err)
	}
	return nil
}

// fillSelect tries the label, then the raw value, then falls back to
// the first real option so a required control is never left on its
// placeholder.
func (e *Executor) fillSelect(ctx context.Context, field *schemas.Field, label string) error {
	locator, err := e.locate(ctx, field)
	if err != nil {
		return err
	}

	matched, err := e.session.SelectByLabel(ctx, field.FrameID, locator, label)
	if err != nil {
		return fmt.Errorf("failed to select by label: %w", err)
	}
	if matched {
		return nil
	}
	// Value candidates: the canonical value when the answer maps onto a
	// recorded option, and the raw string itself, which covers live
	// option lists that drifted from the discovered snapshot.
	values := []string{label}
	if opt, ok := field.FindOption(label); ok {
		values = append([]string{opt.Value}, values...)
	}
	for _, value := range values {
		matched, err = e.session.SelectByValue(ctx, field.FrameID, locator, value)
		if err != nil {
			return fmt.Errorf("failed to select by value: %w", err)
		}
		if matched {
			return nil
		}
	}

	fallback, ok := firstRealOption(field.Options)
	if !ok {
		return fmt.Errorf("no option matched %q and no usable fallback", label)
	}
	e.logger.Warn("Answer did not match any option, using first real option.",
		zap.String("field_id", field.ID), zap.String("wanted", label), zap.String("fallback", fallback.Label))
	matched, err = e.session.SelectByLabel(ctx, field.FrameID, locator, fallback.Label)
	if err != nil || !matched {
		return fmt.Errorf("fallback option %q could not be selected", fallback.Label)
	}
	return nil
}

// fillMultiSelect toggles the chosen options of a native multi-select
// in one script so a single change event covers the whole update.
func (e *Executor) fillMultiSelect(ctx context.Context, field *schemas.Field, labels []string) error {
	locator, err := e.locate(ctx, field)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(labels))
	for _, l := range labels {
		wanted[strings.ToLower(strings.TrimSpace(l))] = true
	}
	var selected int
	if err := e.session.EvalJSON(ctx, field.FrameID, multiSelectScript(locator, wanted), &selected); err != nil {
		return fmt.Errorf("failed to update multi-select: %w", err)
	}
	if selected == 0 {
		return fmt.Errorf("none of %v matched an option", labels)
	}
	return nil
}

func (e *Executor) fillRadio(ctx context.Context, field *schemas.Field, label string) error {
	locator, err := e.locateGroupOption(ctx, field, "radio", label)
	if err != nil {
		return err
	}
	if err := e.session.SetChecked(ctx, field.FrameID, locator, true); err != nil {
		return fmt.Errorf("failed to check radio: %w", err)
	}
	return nil
}

// fillCheckbox handles both shapes: a lone checkbox answered yes/no,
// and a checkbox group answered with one or more option labels.
func (e *Executor) fillCheckbox(ctx context.Context, field *schemas.Field, value any) error {
	if !field.AllowsMultiple {
		on := isAffirmative(value)
		locator, err := e.locate(ctx, field)
		if err != nil {
			return err
		}
		if err := e.session.SetChecked(ctx, field.FrameID, locator, on); err != nil {
			return fmt.Errorf("failed to set checkbox: %w", err)
		}
		return nil
	}

	labels := asList(value)
	var checked int
	for _, label := range labels {
		locator, err := e.locateGroupOption(ctx, field, "checkbox", label)
		if err != nil {
			e.logger.Warn("Checkbox option not found.",
				zap.String("field_id", field.ID), zap.String("label", label), zap.Error(err))
			continue
		}
		if err := e.session.SetChecked(ctx, field.FrameID, locator, true); err != nil {
			return fmt.Errorf("failed to check option %q: %w", label, err)
		}
		checked++
	}
	if checked == 0 {
		return fmt.Errorf("none of %v matched a checkbox", labels)
	}
	return nil
}

// fillCombobox drives a custom dropdown the way a user would: open it,
// type the answer so the widget filters, then commit the first option
// it still shows. Widgets that render no clickable options get a
// trailing Enter, which most of them treat as "accept the highlighted
// entry".
func (e *Executor) fillCombobox(ctx context.Context, field *schemas.Field, text string) error {
	locator, err := e.locate(ctx, field)
	if err != nil {
		return err
	}

	if err := e.session.Click(ctx, field.FrameID, locator); err != nil {
		return fmt.Errorf("failed to open widget: %w", err)
	}
	if err := sleepCtx(ctx, e.cfg.ComboOpenPause); err != nil {
		return err
	}
	// div[role=combobox] hosts have no value property to clear; typing
	// still reaches whatever inner input holds focus after the click.
	if err := e.session.ClearInput(ctx, field.FrameID, locator); err != nil {
		e.logger.Debug("Widget clear failed, typing anyway.",
			zap.String("field_id", field.ID), zap.Error(err))
	}
	if err := e.session.TypeSlow(ctx, field.FrameID, locator, text, e.cfg.ComboKeyDelay); err != nil {
		return fmt.Errorf("failed to type into widget: %w", err)
	}
	if err := sleepCtx(ctx, e.cfg.ComboSettleWait); err != nil {
		return err
	}

	var clicked string
	if err := e.session.EvalJSON(ctx, field.FrameID, clickFirstOptionScript(), &clicked); err != nil {
		return fmt.Errorf("failed to commit widget option: %w", err)
	}
	if clicked != "" {
		e.logger.Debug("Widget option committed.",
			zap.String("field_id", field.ID), zap.String("option", clicked))
		return nil
	}
	if err := e.session.PressKey(ctx, "Enter"); err != nil {
		return fmt.Errorf("failed to commit widget entry: %w", err)
	}
	return nil
}

// firstRealOption skips placeholder entries.
func firstRealOption(options []schemas.Option) (schemas.Option, bool) {
	for _, opt := range options {
		if opt.Value == "" {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(opt.Label))
		placeholder := false
		for _, prefix := range placeholderPrefixes {
			if strings.HasPrefix(lower, prefix) {
				placeholder = true
				break
			}
		}
		if !placeholder {
			return opt, true
		}
	}
	return schemas.Option{}, false
}

func isAffirmative(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true", "1", "checked", "on":
			return true
		}
	}
	return false
}

func asText(value any) string {
	switch v := value.(type) {
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

func asList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, asText(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case nil:
		return nil
	default:
		return []string{asText(value)}
	}
}
