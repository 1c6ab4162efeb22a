// -- internal/form/fill/upload.go --
package fill

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/form/discover"
)

// uploadHints mark clickable controls that open a file chooser when
// the real input is hidden behind a styled widget.
var uploadHints = []string{"upload", "browse", "attach", "resume", "cv"}

// Upload attaches files to a file field, escalating through three
// strategies: write the input directly, write any file input on the
// page, then intercept the chooser an upload widget opens.
func (e *Executor) Upload(ctx context.Context, field *schemas.Field, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no file paths to upload")
	}

	// File inputs are routinely hidden behind styled widgets, so the
	// direct write skips the visibility gate.
	if field.Locator != "" {
		if err := e.session.SetFiles(ctx, field.FrameID, field.Locator, paths); err == nil {
			return nil
		} else {
			e.logger.Debug("Direct file write failed, trying page-wide inputs.",
				zap.String("field_id", field.ID), zap.Error(err))
		}
	}

	if err := e.uploadToAnyInput(ctx, paths); err == nil {
		return nil
	} else {
		e.logger.Debug("No writable file input found, trying chooser interception.", zap.Error(err))
	}

	return e.uploadViaChooser(ctx, field, paths)
}

func (e *Executor) uploadToAnyInput(ctx context.Context, paths []string) error {
	frames, err := e.session.Frames(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate frames: %w", err)
	}

	var lastErr error
	for _, frame := range frames {
		locator := `//input[@type='file']`
		if err := e.session.SetFiles(ctx, frame.ID, locator, paths); err != nil {
			lastErr = err
			continue
		}
		e.logger.Info("File written to page-wide input.", zap.String("frame_id", frame.ID))
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no frames to scan")
	}
	return fmt.Errorf("no file input accepted the upload: %w", lastErr)
}

// uploadViaChooser arms chooser interception, then clicks the most
// upload-looking control near the field so the page opens its chooser.
func (e *Executor) uploadViaChooser(ctx context.Context, field *schemas.Field, paths []string) error {
	if err := e.session.InterceptFileChooser(ctx, paths); err != nil {
		return fmt.Errorf("failed to arm file chooser: %w", err)
	}

	frameID, locator, err := e.findUploadControl(ctx, field)
	if err != nil {
		return err
	}
	if err := e.session.Click(ctx, frameID, locator); err != nil {
		return fmt.Errorf("failed to click upload control: %w", err)
	}
	return sleepCtx(ctx, e.cfg.UploadSettleWait)
}

func (e *Executor) findUploadControl(ctx context.Context, field *schemas.Field) (string, string, error) {
	frames, err := e.session.Frames(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to enumerate frames: %w", err)
	}

	// Prefer the frame the field was discovered in.
	ordered := frames[:0:0]
	for _, f := range frames {
		if f.ID == field.FrameID {
			ordered = append([]schemas.FrameInfo{f}, ordered...)
		} else {
			ordered = append(ordered, f)
		}
	}

	for _, frame := range ordered {
		raw, err := e.session.FrameHTML(ctx, frame.ID)
		if err != nil {
			continue
		}
		doc, err := htmlquery.Parse(strings.NewReader(raw))
		if err != nil {
			continue
		}
		for _, node := range htmlquery.Find(doc, `//button | //a | //label | //*[@role='button']`) {
			text := strings.ToLower(htmlquery.InnerText(node))
			for _, hint := range uploadHints {
				if strings.Contains(text, hint) && len(text) < 120 {
					return frame.ID, discover.UniqueXPath(node), nil
				}
			}
		}
	}
	return "", "", fmt.Errorf("no upload control found for field %s", field.ID)
}
