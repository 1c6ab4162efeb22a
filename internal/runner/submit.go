// -- internal/runner/submit.go --
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/internal/form/discover"
)

var submitTexts = []string{
	"submit", "submit application", "send application", "send", "finish", "complete application",
}

// submit finds the form's submit control and clicks it after an
// explicit confirmation. Submission is the one irreversible step of a
// run, so it never happens silently.
func (r *Runner) submit(ctx context.Context) error {
	frameID, locator, caption, found, err := r.findSubmitControl(ctx)
	if err != nil {
		return err
	}
	if !found {
		r.logger.Warn("No submit control found; leaving the form unsubmitted.")
		return nil
	}

	if r.prompter != nil {
		ok, err := r.prompter.Confirm(ctx, fmt.Sprintf("Submit the application via %q?", caption))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			r.logger.Info("Submission declined; leaving the form filled but unsubmitted.")
			return nil
		}
	}

	if err := r.session.Click(ctx, frameID, locator); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}
	r.logger.Info("Application submitted.", zap.String("caption", caption))
	return nil
}

func (r *Runner) findSubmitControl(ctx context.Context) (frameID, locator, caption string, found bool, err error) {
	frames, err := r.session.Frames(ctx)
	if err != nil {
		return "", "", "", false, fmt.Errorf("failed to enumerate frames: %w", err)
	}
	for _, frame := range frames {
		raw, err := r.session.FrameHTML(ctx, frame.ID)
		if err != nil {
			continue
		}
		doc, err := htmlquery.Parse(strings.NewReader(raw))
		if err != nil {
			continue
		}

		// An explicit submit button wins over caption matching.
		if node := htmlquery.FindOne(doc,
			`//button[@type='submit'] | //input[@type='submit']`); node != nil {
			text := strings.TrimSpace(htmlquery.InnerText(node))
			if text == "" {
				text = htmlquery.SelectAttr(node, "value")
			}
			return frame.ID, discover.UniqueXPath(node), text, true, nil
		}

		for _, node := range htmlquery.Find(doc, `//button | //*[@role='button']`) {
			text := strings.TrimSpace(htmlquery.InnerText(node))
			if isSubmitCaption(text) {
				return frame.ID, discover.UniqueXPath(node), text, true, nil
			}
		}
	}
	return "", "", "", false, nil
}

func isSubmitCaption(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, want := range submitTexts {
		if text == want {
			return true
		}
	}
	return false
}
