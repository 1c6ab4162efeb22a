package schemas

import (
	"context"
	"time"
)

// FrameInfo identifies one frame of a loaded page. The main document is
// always first in a Frames listing.
type FrameInfo struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Main bool   `json:"main"`
}

// PageSession is the browser capability the pipeline is written against.
// Locators are XPath expressions scoped to the given frame. Implementations
// must treat a locator that matches nothing as an error, not a no-op, so
// callers can distinguish "not found" from "written".
type PageSession interface {
	// Navigate loads the URL and waits for the page to stabilize.
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)

	// Frames returns the main frame plus every distinct child frame,
	// de-duplicated by frame id. Frames that cannot be inspected are
	// excluded rather than reported as errors.
	Frames(ctx context.Context) ([]FrameInfo, error)
	// FrameHTML returns the serialized live document of the frame.
	FrameHTML(ctx context.Context, frameID string) (string, error)

	// EvalJSON evaluates a JavaScript expression in the frame and
	// unmarshals its JSON result into out. A nil out discards the result.
	EvalJSON(ctx context.Context, frameID, expr string, out any) error

	Click(ctx context.Context, frameID, locator string) error
	Focus(ctx context.Context, frameID, locator string) error
	ClearInput(ctx context.Context, frameID, locator string) error
	TypeText(ctx context.Context, frameID, locator, text string) error
	// TypeSlow types rune-by-rune with a fixed inter-keystroke delay,
	// for widgets that filter their option list as the user types.
	TypeSlow(ctx context.Context, frameID, locator, text string, perKey time.Duration) error
	// PressKey dispatches a key (e.g. "Enter", "Escape") to the element
	// currently holding focus.
	PressKey(ctx context.Context, key string) error

	// SelectByLabel and SelectByValue target a native <select>. They
	// report false without error when no option matched.
	SelectByLabel(ctx context.Context, frameID, locator, label string) (bool, error)
	SelectByValue(ctx context.Context, frameID, locator, value string) (bool, error)

	SetChecked(ctx context.Context, frameID, locator string, checked bool) error
	SetFiles(ctx context.Context, frameID, locator string, paths []string) error

	IsVisible(ctx context.Context, frameID, locator string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// InterceptFileChooser installs a session-long listener that
	// supplies paths to any native file chooser the page opens.
	InterceptFileChooser(ctx context.Context, paths []string) error

	Close(ctx context.Context) error
}

// UnknownSentinel is the literal an inference collaborator must return
// when it cannot produce an answer. Anything malformed is treated the
// same way by callers.
const UnknownSentinel = "UNKNOWN"

// LLMClient is the language-model inference collaborator. Infer returns
// the literal answer value, or UnknownSentinel when the model has no
// grounded answer.
type LLMClient interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// Prompter is the interactive human collaborator consulted for fields no
// automated source resolved.
type Prompter interface {
	// AskField presents the question (and numbered options when present)
	// and returns the chosen value(s). ok is false when the user skipped.
	AskField(ctx context.Context, field *Field) (values []string, ok bool, err error)
	// Confirm asks a yes/no question, defaulting to no.
	Confirm(ctx context.Context, prompt string) (bool, error)
}
