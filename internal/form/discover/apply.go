// -- internal/form/discover/apply.go --
package discover

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

// applyTexts are the button captions that gate a job form behind a
// click. Matching is on the button's whole visible text so "Applied"
// and "Application status" do not trigger.
var applyTexts = []string{
	"apply", "apply now", "easy apply", "quick apply",
	"apply for this job", "i'm interested", "im interested", "start application",
}

// ClickApply clicks through the page's apply gate, if any, before
// field discovery. Some boards stack gates (a card click, then an
// "Apply now" panel), so the scan repeats until no apply control is
// left or the click budget runs out. Returns the number of clicks
// performed.
func (d *Discoverer) ClickApply(ctx context.Context) (int, error) {
	clicks := 0
	clicked := make(map[string]bool)
	for clicks < d.cfg.MaxApplyClicks {
		frameID, locator, caption, found, err := d.findApplyControl(ctx)
		if err != nil {
			return clicks, err
		}
		if !found {
			return clicks, nil
		}
		// The same control resurfacing means the click had no effect;
		// stop instead of hammering it.
		if clicked[frameID+"|"+locator] {
			return clicks, nil
		}
		clicked[frameID+"|"+locator] = true

		d.logger.Info("Clicking apply control.",
			zap.String("caption", caption), zap.String("frame_id", frameID))
		if err := d.session.Click(ctx, frameID, locator); err != nil {
			d.logger.Warn("Apply click failed, continuing to discovery.", zap.Error(err))
			return clicks, nil
		}
		clicks++
		if err := sleepCtx(ctx, d.cfg.ComboProbeWait*4); err != nil {
			return clicks, err
		}
	}
	return clicks, nil
}

func (d *Discoverer) findApplyControl(ctx context.Context) (frameID, locator, caption string, found bool, err error) {
	frames, err := d.session.Frames(ctx)
	if err != nil {
		return "", "", "", false, err
	}
	for _, frame := range frames {
		raw, err := d.session.FrameHTML(ctx, frame.ID)
		if err != nil {
			continue
		}
		doc, err := htmlquery.Parse(strings.NewReader(raw))
		if err != nil {
			continue
		}
		for _, node := range htmlquery.Find(doc, `//button | //a | //*[@role='button']`) {
			if hiddenByAncestry(node) {
				continue
			}
			text := visibleText(node)
			if isApplyCaption(text) {
				return frame.ID, UniqueXPath(node), text, true, nil
			}
		}
	}
	return "", "", "", false, nil
}

func isApplyCaption(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, want := range applyTexts {
		if text == want {
			return true
		}
	}
	return false
}
