// -- internal/runner/runner_test.go --
package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"github.com/xkilldash9x/formpilot-cli/internal/form/ledger"
	"github.com/xkilldash9x/formpilot-cli/internal/form/resolve"
)

const applicationForm = `
	<html><body>
	<h1>Backend Engineer</h1>
	<form>
		<label for="name">Full Name</label>
		<input id="name" name="full_name" type="text" required>

		<label for="email">Email Address</label>
		<input id="email" name="email" type="email" required>

		<label for="exp">Years of experience</label>
		<select id="exp" name="experience">
			<option value="">Select...</option>
			<option value="01">0-1 years</option>
			<option value="13">1-3 years</option>
		</select>

		<label for="ctc">Expected CTC</label>
		<input id="ctc" name="expected_ctc" type="text">
	</form>
	<button type="submit">Submit application</button>
	</body></html>`

type fakeSession struct {
	html    string
	typed   map[string]string
	selects map[string]string
	clicks  []string
	shots   int
}

func newFakeSession(html string) *fakeSession {
	return &fakeSession{html: html, typed: map[string]string{}, selects: map[string]string{}}
}

func (s *fakeSession) Navigate(context.Context, string) error     { return nil }
func (s *fakeSession) CurrentURL(context.Context) (string, error) { return "", nil }
func (s *fakeSession) Frames(context.Context) ([]schemas.FrameInfo, error) {
	return []schemas.FrameInfo{{ID: "main", Main: true}}, nil
}
func (s *fakeSession) FrameHTML(context.Context, string) (string, error) { return s.html, nil }
func (s *fakeSession) EvalJSON(context.Context, string, string, any) error {
	return nil
}
func (s *fakeSession) Click(_ context.Context, _, locator string) error {
	s.clicks = append(s.clicks, locator)
	return nil
}
func (s *fakeSession) Focus(context.Context, string, string) error      { return nil }
func (s *fakeSession) ClearInput(context.Context, string, string) error { return nil }
func (s *fakeSession) TypeText(_ context.Context, _, locator, text string) error {
	s.typed[locator] = text
	return nil
}
func (s *fakeSession) TypeSlow(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (s *fakeSession) PressKey(context.Context, string) error { return nil }
func (s *fakeSession) SelectByLabel(_ context.Context, _, locator, label string) (bool, error) {
	s.selects[locator] = label
	return true, nil
}
func (s *fakeSession) SelectByValue(context.Context, string, string, string) (bool, error) {
	return true, nil
}
func (s *fakeSession) SetChecked(context.Context, string, string, bool) error { return nil }
func (s *fakeSession) SetFiles(context.Context, string, string, []string) error {
	return nil
}
func (s *fakeSession) IsVisible(context.Context, string, string) (bool, error) { return true, nil }
func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	s.shots++
	return []byte("png"), nil
}
func (s *fakeSession) InterceptFileChooser(context.Context, []string) error { return nil }
func (s *fakeSession) Close(context.Context) error                         { return nil }

var _ schemas.PageSession = (*fakeSession)(nil)

type fakePrompter struct {
	answers map[string][]string
	confirm bool
	asked   []string
}

func (p *fakePrompter) AskField(_ context.Context, field *schemas.Field) ([]string, bool, error) {
	p.asked = append(p.asked, field.ID)
	values, ok := p.answers[field.ID]
	return values, ok, nil
}

func (p *fakePrompter) Confirm(context.Context, string) (bool, error) {
	return p.confirm, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Discovery.MaxApplyClicks = 2
	cfg.Discovery.ComboProbeWait = time.Millisecond
	cfg.Discovery.MaxComboOptions = 10
	cfg.Fill.ComboOpenPause = time.Millisecond
	cfg.Fill.ComboKeyDelay = time.Millisecond
	cfg.Fill.ComboSettleWait = time.Millisecond
	cfg.Fill.UploadSettleWait = time.Millisecond
	return cfg
}

func newTestRunner(t *testing.T, session schemas.PageSession, prompter schemas.Prompter) (*Runner, *ledger.Store) {
	t.Helper()
	store, err := ledger.NewStore(t.TempDir())
	require.NoError(t, err)

	profile := &schemas.Profile{
		FullName:        "Asha Rao",
		Email:           "asha@example.com",
		ExperienceYears: 2,
	}
	resolver := resolve.New(resolve.Sources{Profile: profile, Prompter: prompter}, zap.NewNop())

	r := New(Options{
		Config:   testConfig(),
		Logger:   zap.NewNop(),
		Session:  session,
		Store:    store,
		Resolver: resolver,
		Prompter: prompter,
		Profile:  profile,
	})
	return r, store
}

func TestFillPipeline(t *testing.T) {
	session := newFakeSession(applicationForm)
	prompter := &fakePrompter{}
	r, store := newTestRunner(t, session, prompter)

	require.NoError(t, r.Fill(context.Background(), "https://jobs.example.com/backend"))

	// Schema artifact.
	fields, err := store.ReadFields()
	require.NoError(t, err)
	require.Len(t, fields, 4)

	// Profile answers landed in the page.
	assert.Contains(t, session.typed, `//*[@id='name']`)
	assert.Equal(t, "Asha Rao", session.typed[`//*[@id='name']`])
	assert.Equal(t, "asha@example.com", session.typed[`//*[@id='email']`])
	assert.Equal(t, "1-3 years", session.selects[`//*[@id='exp']`],
		"numeric experience maps onto the option scale")

	// The compensation question is skipped, not asked and not typed.
	assert.NotContains(t, session.typed, `//*[@id='ctc']`)
	skipped, err := store.ReadSkipped()
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "expected_ctc", skipped[0].ID)
	assert.Equal(t, schemas.ReasonPersonalPreference, skipped[0].Reason)

	answers, err := store.ReadAnswers()
	require.NoError(t, err)
	assert.Len(t, answers, 3)

	// Submission is off by default; the page is filled, not sent.
	assert.Empty(t, session.clicks)
	assert.Equal(t, 2, session.shots, "before and after screenshots")
}

func TestFillSubmitNeedsConfirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		session := newFakeSession(applicationForm)
		prompter := &fakePrompter{confirm: false}
		r, _ := newTestRunner(t, session, prompter)
		r.cfg.Fill.SubmitEnabled = true

		require.NoError(t, r.Fill(context.Background(), "https://jobs.example.com/backend"))
		assert.Empty(t, session.clicks)
	})

	t.Run("confirmed", func(t *testing.T) {
		session := newFakeSession(applicationForm)
		prompter := &fakePrompter{confirm: true}
		r, _ := newTestRunner(t, session, prompter)
		r.cfg.Fill.SubmitEnabled = true

		require.NoError(t, r.Fill(context.Background(), "https://jobs.example.com/backend"))
		require.Len(t, session.clicks, 1)
	})
}

func TestAnswerUsesStoredSchema(t *testing.T) {
	prompter := &fakePrompter{}
	r, store := newTestRunner(t, newFakeSession(""), prompter)

	require.NoError(t, store.WriteFields([]schemas.Field{
		{ID: "email", Question: "Email", Kind: schemas.KindText},
		{ID: "notice", Question: "Notice period in days", Kind: schemas.KindText},
	}))

	require.NoError(t, r.Answer(context.Background()))

	answers, err := store.ReadAnswers()
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", answers["email"])

	skipped, err := store.ReadSkipped()
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "notice", skipped[0].ID)
}

func TestAnswerSeedsPriorAnswers(t *testing.T) {
	prompter := &fakePrompter{}
	r, store := newTestRunner(t, newFakeSession(""), prompter)

	require.NoError(t, store.WriteFields([]schemas.Field{
		{ID: "email", Question: "Email", Kind: schemas.KindText},
	}))
	require.NoError(t, store.WriteAnswers(map[string]any{"email": "prior@example.com"}))

	require.NoError(t, r.Answer(context.Background()))

	answers, err := store.ReadAnswers()
	require.NoError(t, err)
	assert.Equal(t, "prior@example.com", answers["email"],
		"a seeded answer is never overwritten")
}

func TestImportFields(t *testing.T) {
	r, store := newTestRunner(t, newFakeSession(""), &fakePrompter{})

	path := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"questions": [
			{"question_id": "q1", "label": "Email", "type": "input"},
			{"question_id": "q2", "label": "Preferred stack", "type": "checkboxes",
				"options": ["Go", "Rust"]}
		]
	}`), 0o644))

	fields, err := r.ImportFields(path)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, schemas.KindText, fields[0].Kind)
	assert.True(t, fields[1].AllowsMultiple)

	stored, err := store.ReadFields()
	require.NoError(t, err)
	assert.Equal(t, fields, stored)

	t.Run("unparseable input errors", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"questions": []}`), 0o644))
		_, err := r.ImportFields(bad)
		assert.Error(t, err)
	})
}

func TestComplete(t *testing.T) {
	prompter := &fakePrompter{answers: map[string][]string{
		"city": {"Bangalore"},
	}}
	r, store := newTestRunner(t, newFakeSession(""), prompter)

	require.NoError(t, store.WriteFields([]schemas.Field{
		{ID: "city", Question: "Preferred city", Kind: schemas.KindSelect,
			Options: []schemas.Option{{Label: "Bangalore", Value: "blr"}}},
		{ID: "email", Question: "Email", Kind: schemas.KindText},
	}))
	require.NoError(t, store.WriteAnswers(map[string]any{"email": "asha@example.com"}))
	require.NoError(t, store.WriteSkipped([]schemas.SkipRecord{
		{ID: "city", Question: "Preferred city", Reason: schemas.ReasonNotFound},
		{ID: "email", Question: "Email", Reason: schemas.ReasonNotFound},
		{ID: "why", Question: "Why us?", Reason: schemas.ReasonNotFound},
	}))

	require.NoError(t, r.Complete(context.Background()))

	assert.NotContains(t, prompter.asked, "email", "answered fields are never re-asked")
	assert.Contains(t, prompter.asked, "city")
	assert.Contains(t, prompter.asked, "why")

	completed, err := store.ReadCompleted()
	require.NoError(t, err)
	require.Contains(t, completed, "city")
	assert.Equal(t, "Bangalore", completed["city"].Answer)
	assert.NotContains(t, completed, "why", "an unanswered prompt records nothing")
}
