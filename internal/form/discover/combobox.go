// -- internal/form/discover/combobox.go --
package discover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// probeComboOptions opens a custom dropdown widget, reads whatever
// option list it renders, and closes it again. The harvested labels
// let the resolver treat the widget like a closed select; widgets
// that only render options after typing simply stay option-less.
func (d *Discoverer) probeComboOptions(ctx context.Context, field *schemas.Field) error {
	if err := d.session.Click(ctx, field.FrameID, field.Locator); err != nil {
		return fmt.Errorf("failed to open widget: %w", err)
	}
	if err := sleepCtx(ctx, d.cfg.ComboProbeWait); err != nil {
		return err
	}

	opts, err := d.visibleOptions(ctx, field.FrameID)

	// Close the widget regardless of the scan outcome so the page is
	// back in its resting state for the next probe.
	if escErr := d.session.PressKey(ctx, "Escape"); escErr != nil {
		d.logger.Debug("Failed to dismiss widget.",
			zap.String("field_id", field.ID), zap.Error(escErr))
	}
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return fmt.Errorf("widget rendered no options")
	}

	field.Options = opts
	return nil
}

// visibleOptions re-snapshots the frame and collects the texts of the
// currently rendered role=option nodes.
func (d *Discoverer) visibleOptions(ctx context.Context, frameID string) ([]schemas.Option, error) {
	raw, err := d.session.FrameHTML(ctx, frameID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot frame: %w", err)
	}
	doc, err := htmlquery.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse frame: %w", err)
	}

	var opts []schemas.Option
	seen := make(map[string]bool)
	for _, node := range htmlquery.Find(doc, `//*[@role='option']`) {
		if hiddenByAncestry(node) {
			continue
		}
		label := visibleText(node)
		if label == "" || seen[strings.ToLower(label)] {
			continue
		}
		seen[strings.ToLower(label)] = true

		value := htmlquery.SelectAttr(node, "data-value")
		if value == "" {
			value = label
		}
		opts = append(opts, schemas.Option{Label: label, Value: value})
		if d.cfg.MaxComboOptions > 0 && len(opts) >= d.cfg.MaxComboOptions {
			break
		}
	}
	return opts, nil
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
