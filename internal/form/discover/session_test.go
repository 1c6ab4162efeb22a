// -- internal/form/discover/session_test.go --
package discover

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// fakeSession serves canned frame snapshots and records interactions.
// Click handlers let a test swap the snapshot when a control is
// clicked, simulating widgets that render options on open.
type fakeSession struct {
	frames  []schemas.FrameInfo
	html    map[string]string
	onClick func(frameID, locator string)

	clicks []string
	keys   []string
}

func newFakeSession(mainHTML string) *fakeSession {
	return &fakeSession{
		frames: []schemas.FrameInfo{{ID: "main", URL: "https://jobs.example.com/apply", Main: true}},
		html:   map[string]string{"main": mainHTML},
	}
}

func (s *fakeSession) Navigate(context.Context, string) error          { return nil }
func (s *fakeSession) CurrentURL(context.Context) (string, error)      { return s.frames[0].URL, nil }
func (s *fakeSession) Frames(context.Context) ([]schemas.FrameInfo, error) {
	return s.frames, nil
}
func (s *fakeSession) FrameHTML(_ context.Context, frameID string) (string, error) {
	raw, ok := s.html[frameID]
	if !ok {
		return "", fmt.Errorf("no such frame %q", frameID)
	}
	return raw, nil
}
func (s *fakeSession) EvalJSON(context.Context, string, string, any) error { return nil }
func (s *fakeSession) Click(_ context.Context, frameID, locator string) error {
	s.clicks = append(s.clicks, frameID+"|"+locator)
	if s.onClick != nil {
		s.onClick(frameID, locator)
	}
	return nil
}
func (s *fakeSession) Focus(context.Context, string, string) error      { return nil }
func (s *fakeSession) ClearInput(context.Context, string, string) error { return nil }
func (s *fakeSession) TypeText(context.Context, string, string, string) error {
	return nil
}
func (s *fakeSession) TypeSlow(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (s *fakeSession) PressKey(_ context.Context, key string) error {
	s.keys = append(s.keys, key)
	return nil
}
func (s *fakeSession) SelectByLabel(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (s *fakeSession) SelectByValue(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (s *fakeSession) SetChecked(context.Context, string, string, bool) error { return nil }
func (s *fakeSession) SetFiles(context.Context, string, string, []string) error {
	return nil
}
func (s *fakeSession) IsVisible(context.Context, string, string) (bool, error) {
	return true, nil
}
func (s *fakeSession) Screenshot(context.Context) ([]byte, error)             { return nil, nil }
func (s *fakeSession) InterceptFileChooser(context.Context, []string) error   { return nil }
func (s *fakeSession) Close(context.Context) error                            { return nil }

var _ schemas.PageSession = (*fakeSession)(nil)

func testDiscoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		MaxApplyClicks:  3,
		ComboProbeWait:  time.Millisecond,
		MaxComboOptions: 50,
	}
}

func TestDiscoverAllProbesCombobox(t *testing.T) {
	closed := `
		<label for="city">Preferred city</label>
		<input id="city" name="city" role="combobox">`
	open := closed + `
		<ul role="listbox">
			<li role="option">Bangalore</li>
			<li role="option">Pune</li>
			<li role="option" aria-hidden="true">loading...</li>
		</ul>`

	session := newFakeSession(closed)
	session.onClick = func(string, string) { session.html["main"] = open }

	d := New(session, testDiscoveryConfig(), zap.NewNop())
	fields, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 1)

	f := fields[0]
	assert.Equal(t, schemas.KindCombobox, f.Kind)
	require.Len(t, f.Options, 2, "hidden entries are not options")
	assert.Equal(t, "Bangalore", f.Options[0].Label)
	assert.Equal(t, "Pune", f.Options[1].Label)
	assert.Equal(t, []string{"Escape"}, session.keys, "the widget is dismissed after probing")
}

func TestDiscoverAllMergesFrames(t *testing.T) {
	session := newFakeSession(`<label for="n">Name</label><input id="n" name="name">`)
	session.frames = append(session.frames, schemas.FrameInfo{ID: "child", URL: "https://forms.example.com/embed"})
	session.html["child"] = `<label for="e">Email</label><input id="e" name="email">`

	d := New(session, testDiscoveryConfig(), zap.NewNop())
	fields, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "main", fields[0].FrameID)
	assert.Equal(t, "child", fields[1].FrameID)
}

func TestDiscoverAllSkipsBrokenFrame(t *testing.T) {
	session := newFakeSession(`<label for="n">Name</label><input id="n" name="name">`)
	session.frames = append(session.frames, schemas.FrameInfo{ID: "gone", URL: "about:blank"})

	d := New(session, testDiscoveryConfig(), zap.NewNop())
	fields, err := d.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestClickApply(t *testing.T) {
	t.Run("clicks through a stacked gate", func(t *testing.T) {
		withGate := `<button>Apply now</button>`
		secondGate := `<div><a role="button" href="#">Start application</a></div>`
		form := `<label for="n">Name</label><input id="n" name="name">`

		session := newFakeSession(withGate)
		step := 0
		session.onClick = func(string, string) {
			step++
			if step == 1 {
				session.html["main"] = secondGate
			} else {
				session.html["main"] = form
			}
		}

		d := New(session, testDiscoveryConfig(), zap.NewNop())
		clicks, err := d.ClickApply(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, clicks)
	})

	t.Run("no gate means no clicks", func(t *testing.T) {
		session := newFakeSession(`<button>Submit application status</button><input name="q" aria-label="Q">`)
		d := New(session, testDiscoveryConfig(), zap.NewNop())
		clicks, err := d.ClickApply(context.Background())
		require.NoError(t, err)
		assert.Zero(t, clicks)
		assert.Empty(t, session.clicks)
	})

	t.Run("sticky gate stops at the budget", func(t *testing.T) {
		session := newFakeSession(`<button>Apply</button>`)
		d := New(session, testDiscoveryConfig(), zap.NewNop())
		clicks, err := d.ClickApply(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, clicks, "an ineffective click is not repeated")
	})
}
