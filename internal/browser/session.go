// -- internal/browser/session.go --
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

const (
	isolatedWorldName = "formpilot_probe"
	closeTimeout      = 10 * time.Second
	chooserTimeout    = 10 * time.Second
)

var _ schemas.PageSession = (*Session)(nil)

// Session is one isolated browser tab. Frame-scoped JavaScript runs in
// per-frame isolated worlds so page scripts never see the probes.
type Session struct {
	id      string
	cfg     sessionTiming
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	onClose func()

	mu     sync.Mutex
	worlds map[string]cdpruntime.ExecutionContextID

	chooserMu        sync.Mutex
	chooserPaths     []string
	chooserInstalled bool

	closeOnce sync.Once
	closeErr  error
}

// sessionTiming is the slice of BrowserConfig the session needs.
type sessionTiming struct {
	NavigationTimeout time.Duration
	PostLoadWait      time.Duration
	OperationTimeout  time.Duration
}

func newSession(allocCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	sessionCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		id: id,
		cfg: sessionTiming{
			NavigationTimeout: cfg.NavigationTimeout,
			PostLoadWait:      cfg.PostLoadWait,
			OperationTimeout:  cfg.OperationTimeout,
		},
		logger: logger.With(zap.String("session_id", id[:8])),
		ctx:    sessionCtx,
		cancel: cancel,
		worlds: make(map[string]cdpruntime.ExecutionContextID),
	}

	// Materialize the tab so later operations have a live target.
	if err := chromedp.Run(sessionCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// run executes chromedp actions on the session target under the
// caller's cancellation plus the per-operation timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	err := s.run(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.PostLoadWait),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	// Execution contexts do not survive navigation.
	s.mu.Lock()
	s.worlds = make(map[string]cdpruntime.ExecutionContextID)
	s.mu.Unlock()
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.cfg.OperationTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (s *Session) Frames(ctx context.Context) ([]schemas.FrameInfo, error) {
	var frames []schemas.FrameInfo
	err := s.run(ctx, s.cfg.OperationTimeout, chromedp.ActionFunc(func(c context.Context) error {
		tree, err := page.GetFrameTree().Do(c)
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		var walk func(t *page.FrameTree, main bool)
		walk = func(t *page.FrameTree, main bool) {
			if t == nil || t.Frame == nil {
				return
			}
			id := string(t.Frame.ID)
			if !seen[id] {
				seen[id] = true
				frames = append(frames, schemas.FrameInfo{ID: id, URL: t.Frame.URL, Main: main})
			}
			for _, child := range t.ChildFrames {
				walk(child, false)
			}
		}
		walk(tree, true)
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate frames: %w", err)
	}
	return frames, nil
}

func (s *Session) FrameHTML(ctx context.Context, frameID string) (string, error) {
	var raw string
	expr := `document.documentElement ? document.documentElement.outerHTML : ""`
	if err := s.EvalJSON(ctx, frameID, expr, &raw); err != nil {
		return "", err
	}
	return raw, nil
}

// EvalJSON evaluates expr in the frame's isolated world and unmarshals
// the JSON result into out.
func (s *Session) EvalJSON(ctx context.Context, frameID, expr string, out any) error {
	obj, err := s.evalInFrame(ctx, frameID, expr, true)
	if err != nil {
		return err
	}
	if out == nil || obj == nil || obj.Value == nil {
		return nil
	}
	if err := json.Unmarshal(obj.Value, out); err != nil {
		return fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return nil
}

// evalInFrame runs expr in the frame's isolated world. A stale world
// (invalidated by an in-frame navigation) is recreated once.
func (s *Session) evalInFrame(ctx context.Context, frameID, expr string, byValue bool) (*cdpruntime.RemoteObject, error) {
	obj, err := s.evalInWorld(ctx, frameID, expr, byValue, false)
	if err != nil && isStaleContext(err) {
		obj, err = s.evalInWorld(ctx, frameID, expr, byValue, true)
	}
	return obj, err
}

func (s *Session) evalInWorld(ctx context.Context, frameID, expr string, byValue, refresh bool) (*cdpruntime.RemoteObject, error) {
	var obj *cdpruntime.RemoteObject
	err := s.run(ctx, s.cfg.OperationTimeout, chromedp.ActionFunc(func(c context.Context) error {
		world, err := s.frameWorld(c, frameID, refresh)
		if err != nil {
			return err
		}
		res, exc, err := cdpruntime.Evaluate(expr).
			WithContextID(world).
			WithReturnByValue(byValue).
			WithAwaitPromise(true).
			Do(c)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("page script error: %s", exceptionText(exc))
		}
		obj = res
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("evaluation in frame %s failed: %w", frameID, err)
	}
	return obj, nil
}

func (s *Session) frameWorld(c context.Context, frameID string, refresh bool) (cdpruntime.ExecutionContextID, error) {
	s.mu.Lock()
	if !refresh {
		if world, ok := s.worlds[frameID]; ok {
			s.mu.Unlock()
			return world, nil
		}
	}
	s.mu.Unlock()

	world, err := page.CreateIsolatedWorld(cdp.FrameID(frameID)).
		WithWorldName(isolatedWorldName).
		Do(c)
	if err != nil {
		return 0, fmt.Errorf("failed to create isolated world for frame %s: %w", frameID, err)
	}

	s.mu.Lock()
	s.worlds[frameID] = world
	s.mu.Unlock()
	return world, nil
}

func isStaleContext(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Cannot find context") ||
		strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "Inspected target navigated")
}

func exceptionText(exc *cdpruntime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}

// nodeScript wraps a statement list so it runs with `node` bound to
// the element the XPath locator addresses. A locator matching nothing
// raises, which surfaces as an error to the caller.
func nodeScript(locator, body string) string {
	return fmt.Sprintf(`(() => {
	const node = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!node) { throw new Error("no element matches locator"); }
	%s
})()`, jsString(locator), body)
}

func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (s *Session) Click(ctx context.Context, frameID, locator string) error {
	body := `node.scrollIntoView({block: "center", inline: "center"});
	node.click();
	return true;`
	return s.EvalJSON(ctx, frameID, nodeScript(locator, body), nil)
}

func (s *Session) Focus(ctx context.Context, frameID, locator string) error {
	body := `node.scrollIntoView({block: "center", inline: "center"});
	node.focus();
	return true;`
	return s.EvalJSON(ctx, frameID, nodeScript(locator, body), nil)
}

// ClearInput empties a text control through the native value setter so
// framework-bound inputs observe the change.
func (s *Session) ClearInput(ctx context.Context, frameID, locator string) error {
	body := `const proto = node.tagName === "TEXTAREA"
		? window.HTMLTextAreaElement.prototype
		: window.HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, "value");
	if (desc && desc.set) { desc.set.call(node, ""); } else { node.value = ""; }
	node.dispatchEvent(new Event("input", {bubbles: true}));
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return true;`
	return s.EvalJSON(ctx, frameID, nodeScript(locator, body), nil)
}

// TypeText focuses the element and dispatches real key events, which
// reach the element regardless of which frame holds it.
func (s *Session) TypeText(ctx context.Context, frameID, locator, text string) error {
	if err := s.Focus(ctx, frameID, locator); err != nil {
		return err
	}
	if err := s.run(ctx, s.cfg.OperationTimeout, chromedp.KeyEvent(text)); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

// TypeSlow types rune by rune with a pause between keystrokes, for
// widgets that filter an option list as the user types.
func (s *Session) TypeSlow(ctx context.Context, frameID, locator, text string, perKey time.Duration) error {
	if err := s.Focus(ctx, frameID, locator); err != nil {
		return err
	}
	for _, r := range text {
		if err := s.run(ctx, s.cfg.OperationTimeout, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("failed to type text: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(perKey):
		}
	}
	return nil
}

var keySequences = map[string]string{
	"Enter":     kb.Enter,
	"Escape":    kb.Escape,
	"Tab":       kb.Tab,
	"Backspace": kb.Backspace,
	"ArrowDown": kb.ArrowDown,
	"ArrowUp":   kb.ArrowUp,
}

// PressKey dispatches a named key to whatever element holds focus.
func (s *Session) PressKey(ctx context.Context, key string) error {
	seq, ok := keySequences[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := s.run(ctx, s.cfg.OperationTimeout, chromedp.KeyEvent(seq)); err != nil {
		return fmt.Errorf("failed to press %s: %w", key, err)
	}
	return nil
}

func (s *Session) SelectByLabel(ctx context.Context, frameID, locator, label string) (bool, error) {
	body := fmt.Sprintf(`const want = %s;
	const opts = Array.from(node.options || []);
	const match = opts.find(o =>
		o.label.trim().toLowerCase() === want || o.text.trim().toLowerCase() === want);
	if (!match) { return false; }
	node.value = match.value;
	node.dispatchEvent(new Event("input", {bubbles: true}));
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return true;`, jsString(strings.ToLower(strings.TrimSpace(label))))

	var matched bool
	if err := s.EvalJSON(ctx, frameID, nodeScript(locator, body), &matched); err != nil {
		return false, err
	}
	return matched, nil
}

func (s *Session) SelectByValue(ctx context.Context, frameID, locator, value string) (bool, error) {
	body := fmt.Sprintf(`const want = %s;
	const opts = Array.from(node.options || []);
	const match = opts.find(o => o.value.trim().toLowerCase() === want);
	if (!match) { return false; }
	node.value = match.value;
	node.dispatchEvent(new Event("input", {bubbles: true}));
	node.dispatchEvent(new Event("change", {bubbles: true}));
	return true;`, jsString(strings.ToLower(strings.TrimSpace(value))))

	var matched bool
	if err := s.EvalJSON(ctx, frameID, nodeScript(locator, body), &matched); err != nil {
		return false, err
	}
	return matched, nil
}

// SetChecked clicks the control when its state differs from the
// target, so change handlers fire the same way they would for a user.
func (s *Session) SetChecked(ctx context.Context, frameID, locator string, checked bool) error {
	body := fmt.Sprintf(`if (Boolean(node.checked) !== %t) {
		node.scrollIntoView({block: "center", inline: "center"});
		node.click();
	}
	return true;`, checked)
	return s.EvalJSON(ctx, frameID, nodeScript(locator, body), nil)
}

// SetFiles assigns local paths to a file input. The element reference
// travels as a remote object so the DOM agent can address the node
// directly.
func (s *Session) SetFiles(ctx context.Context, frameID, locator string, paths []string) error {
	obj, err := s.evalInFrame(ctx, frameID, nodeScript(locator, "return node;"), false)
	if err != nil {
		return err
	}
	if obj == nil || obj.ObjectID == "" {
		return fmt.Errorf("locator did not yield an element reference")
	}

	err = s.run(ctx, s.cfg.OperationTimeout, chromedp.ActionFunc(func(c context.Context) error {
		node, err := dom.RequestNode(obj.ObjectID).Do(c)
		if err != nil {
			return fmt.Errorf("failed to resolve element node: %w", err)
		}
		return dom.SetFileInputFiles(paths).WithNodeID(node).Do(c)
	}))
	if err != nil {
		return fmt.Errorf("failed to set files: %w", err)
	}
	return nil
}

func (s *Session) IsVisible(ctx context.Context, frameID, locator string) (bool, error) {
	body := `const style = window.getComputedStyle(node);
	if (style.display === "none" || style.visibility === "hidden" || style.opacity === "0") {
		return false;
	}
	const rect = node.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;`

	var visible bool
	if err := s.EvalJSON(ctx, frameID, nodeScript(locator, body), &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.OperationTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// InterceptFileChooser arms a session-long listener that satisfies any
// native file chooser the page opens with the given paths. Calling it
// again only swaps the paths.
func (s *Session) InterceptFileChooser(ctx context.Context, paths []string) error {
	s.chooserMu.Lock()
	s.chooserPaths = append([]string(nil), paths...)
	installed := s.chooserInstalled
	s.chooserInstalled = true
	s.chooserMu.Unlock()

	if installed {
		return nil
	}

	chromedp.ListenTarget(s.ctx, func(ev any) {
		opened, ok := ev.(*page.EventFileChooserOpened)
		if !ok {
			return
		}
		s.chooserMu.Lock()
		supply := append([]string(nil), s.chooserPaths...)
		s.chooserMu.Unlock()

		go func() {
			c, cancel := context.WithTimeout(s.ctx, chooserTimeout)
			defer cancel()
			err := chromedp.Run(c, chromedp.ActionFunc(func(cc context.Context) error {
				return dom.SetFileInputFiles(supply).
					WithBackendNodeID(opened.BackendNodeID).
					Do(cc)
			}))
			if err != nil {
				s.logger.Warn("Failed to satisfy file chooser.", zap.Error(err))
			} else {
				s.logger.Info("File chooser satisfied.", zap.Strings("paths", supply))
			}
		}()
	})

	err := s.run(ctx, s.cfg.OperationTimeout, chromedp.ActionFunc(func(c context.Context) error {
		return page.SetInterceptFileChooserDialog(true).Do(c)
	}))
	if err != nil {
		return fmt.Errorf("failed to enable file chooser interception: %w", err)
	}
	return nil
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.cancel()
		select {
		case <-s.ctx.Done():
			s.logger.Debug("Browser session closed.")
		case <-time.After(closeTimeout):
			s.logger.Warn("Timeout waiting for browser session to close.")
			s.closeErr = fmt.Errorf("session close timed out")
		case <-ctx.Done():
			s.closeErr = ctx.Err()
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
