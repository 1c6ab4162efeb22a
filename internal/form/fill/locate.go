// -- internal/form/fill/locate.go --
package fill

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// locate resolves a field to a usable locator. The discovery-time
// XPath is tried first; pages that re-render between discovery and
// fill fall back to attribute-based lookups derived from the field.
// The first candidate that addresses a visible element wins.
func (e *Executor) locate(ctx context.Context, field *schemas.Field) (string, error) {
	candidates := locatorCandidates(field)
	var lastErr error
	for _, locator := range candidates {
		visible, err := e.session.IsVisible(ctx, field.FrameID, locator)
		if err != nil {
			lastErr = err
			continue
		}
		if visible {
			return locator, nil
		}
		lastErr = fmt.Errorf("element for %q is not visible", locator)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no locator candidates")
	}
	return "", fmt.Errorf("failed to locate field %s: %w", field.ID, lastErr)
}

func locatorCandidates(field *schemas.Field) []string {
	var candidates []string
	if field.Locator != "" {
		candidates = append(candidates, field.Locator)
	}
	if field.GroupName != "" {
		candidates = append(candidates, fmt.Sprintf(`//*[@name=%s]`, xpathString(field.GroupName)))
	}
	if field.ID != "" {
		candidates = append(candidates,
			fmt.Sprintf(`//*[@name=%s]`, xpathString(field.ID)),
			fmt.Sprintf(`//*[@id=%s]`, xpathString(field.ID)))
	}
	return candidates
}

// locateGroupOption finds the one control of a radio or checkbox group
// that corresponds to an option label. The value attribute is the
// strongest signal; the wrapping-label text is the fallback for
// markup that carries no per-option values.
func (e *Executor) locateGroupOption(ctx context.Context, field *schemas.Field, inputType, label string) (string, error) {
	var values []string
	if opt, ok := field.FindOption(label); ok {
		if opt.Value != "" {
			values = append(values, opt.Value)
		}
		label = opt.Label
	}

	var candidates []string
	for _, v := range values {
		candidates = append(candidates, fmt.Sprintf(
			`//input[@type=%s][@name=%s][@value=%s]`,
			xpathString(inputType), xpathString(field.GroupName), xpathString(v)))
	}
	candidates = append(candidates, fmt.Sprintf(
		`//label[contains(normalize-space(.), %s)]//input[@type=%s][@name=%s]`,
		xpathString(label), xpathString(inputType), xpathString(field.GroupName)))
	candidates = append(candidates, fmt.Sprintf(
		`//input[@type=%s][@name=%s][@id=//label[contains(normalize-space(.), %s)]/@for]`,
		xpathString(inputType), xpathString(field.GroupName), xpathString(label)))

	var lastErr error
	for _, locator := range candidates {
		visible, err := e.session.IsVisible(ctx, field.FrameID, locator)
		if err != nil {
			lastErr = err
			continue
		}
		if visible {
			return locator, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no control matched option %q", label)
	}
	return "", fmt.Errorf("failed to locate %s option in group %s: %w", inputType, field.GroupName, lastErr)
}

// xpathString quotes a value for an XPath literal.
func xpathString(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}

// jsString quotes a value for embedding in generated JavaScript.
func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
