// -- internal/form/resolve/resolver_test.go --
package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/form/ledger"
)

// -- Fakes --

type fakeCache struct {
	answers map[string]string
	err     error
}

func (f *fakeCache) Get(_ context.Context, question string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	a, ok := f.answers[question]
	return a, ok, nil
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Infer(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakePrompter struct {
	values []string
	ok     bool
	asked  int
}

func (f *fakePrompter) AskField(_ context.Context, _ *schemas.Field) ([]string, bool, error) {
	f.asked++
	return f.values, f.ok, nil
}

func (f *fakePrompter) Confirm(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func newResolver(src Sources) *Resolver {
	return New(src, zap.NewNop())
}

// -- Tests --

func TestResolvePersonalPreferenceGate(t *testing.T) {
	// The gate must fire even when the profile holds a plausible answer,
	// and before any model call.
	p := &schemas.Profile{Extra: map[string]string{"expected ctc": "30 LPA"}}
	llm := &fakeLLM{response: "30 LPA"}
	r := newResolver(Sources{Profile: p, LLM: llm})

	field := &schemas.Field{ID: "ctc", Question: "What is your expected CTC?", Kind: schemas.KindText}
	_, skip := r.Resolve(context.Background(), field)

	require.NotNil(t, skip)
	assert.Equal(t, schemas.ReasonPersonalPreference, skip.Reason)
	assert.Empty(t, llm.prompts, "the gate runs before inference")
}

func TestResolveLedgerShortCircuits(t *testing.T) {
	l := ledger.New()
	l.RecordAnswer("email", schemas.Answer{Value: "a@x.com", Source: schemas.SourceUser})
	llm := &fakeLLM{response: "b@x.com"}
	r := newResolver(Sources{Ledger: l, LLM: llm})

	field := &schemas.Field{ID: "email", Question: "Email", Kind: schemas.KindText}
	answer, skip := r.Resolve(context.Background(), field)

	require.Nil(t, skip)
	assert.Equal(t, "a@x.com", answer.Value)
	assert.Equal(t, schemas.SourceCached, answer.Source)
	assert.Empty(t, llm.prompts)
}

func TestResolveCrossRunCache(t *testing.T) {
	cache := &fakeCache{answers: map[string]string{"Preferred editor": "Vim"}}
	r := newResolver(Sources{Cache: cache})

	field := &schemas.Field{ID: "editor", Question: "Preferred editor", Kind: schemas.KindText}
	answer, skip := r.Resolve(context.Background(), field)

	require.Nil(t, skip)
	assert.Equal(t, "Vim", answer.Value)
	assert.Equal(t, schemas.SourceCached, answer.Source)
}

func TestResolveProfileAttribute(t *testing.T) {
	p := &schemas.Profile{Email: "asha@example.com"}
	r := newResolver(Sources{Profile: p})

	field := &schemas.Field{ID: "email", Question: "Email Address", Kind: schemas.KindText}
	answer, skip := r.Resolve(context.Background(), field)

	require.Nil(t, skip)
	assert.Equal(t, "asha@example.com", answer.Value)
	assert.Equal(t, schemas.SourceProfile, answer.Source)
}

func TestResolveProfileValueMappedOntoOptions(t *testing.T) {
	p := &schemas.Profile{ExperienceYears: 2}
	r := newResolver(Sources{Profile: p})

	field := &schemas.Field{
		ID: "exp", Question: "Total experience in years", Kind: schemas.KindSelect,
		Options: []schemas.Option{
			{Label: "0-1 years", Value: "0-1 years"},
			{Label: "1-3 years", Value: "1-3 years"},
			{Label: "3-5 years", Value: "3-5 years"},
		},
	}
	answer, skip := r.Resolve(context.Background(), field)

	require.Nil(t, skip)
	assert.Equal(t, "1-3 years", answer.Value,
		"the stored answer is the canonical option label")
}

func TestResolveInference(t *testing.T) {
	t.Run("uses the literal value", func(t *testing.T) {
		llm := &fakeLLM{response: "Golang"}
		r := newResolver(Sources{LLM: llm})

		field := &schemas.Field{ID: "lang", Question: "Primary programming language", Kind: schemas.KindText}
		answer, skip := r.Resolve(context.Background(), field)

		require.Nil(t, skip)
		assert.Equal(t, "Golang", answer.Value)
		assert.Equal(t, schemas.SourceInferred, answer.Source)
	})

	t.Run("sentinel means not found", func(t *testing.T) {
		r := newResolver(Sources{LLM: &fakeLLM{response: "UNKNOWN"}})
		field := &schemas.Field{ID: "q", Question: "Favorite teammate", Kind: schemas.KindText}
		_, skip := r.Resolve(context.Background(), field)

		require.NotNil(t, skip)
		assert.Equal(t, schemas.ReasonNotFound, skip.Reason)
	})

	t.Run("chatty response is treated as no answer", func(t *testing.T) {
		r := newResolver(Sources{LLM: &fakeLLM{response: "The answer is:\nGolang"}})
		field := &schemas.Field{ID: "q", Question: "Primary language", Kind: schemas.KindText}
		_, skip := r.Resolve(context.Background(), field)
		require.NotNil(t, skip)
	})

	t.Run("optioned answer outside the option set", func(t *testing.T) {
		r := newResolver(Sources{LLM: &fakeLLM{response: "COBOL"}})
		field := &schemas.Field{
			ID: "lang", Question: "Primary language", Kind: schemas.KindSelect,
			Options: []schemas.Option{{Label: "Go", Value: "go"}, {Label: "Java", Value: "java"}},
		}
		_, skip := r.Resolve(context.Background(), field)

		require.NotNil(t, skip)
		assert.Equal(t, schemas.ReasonNoValidOption, skip.Reason)
	})

	t.Run("inference error degrades to skip", func(t *testing.T) {
		r := newResolver(Sources{LLM: &fakeLLM{err: errors.New("api down")}})
		field := &schemas.Field{ID: "q", Question: "Anything", Kind: schemas.KindText}
		_, skip := r.Resolve(context.Background(), field)

		require.NotNil(t, skip)
		assert.Equal(t, schemas.ReasonNotFound, skip.Reason)
	})
}

func TestResolveUserPrompt(t *testing.T) {
	field := func() *schemas.Field {
		return &schemas.Field{
			ID: "loc", Question: "Office location", Kind: schemas.KindSelect,
			Options: []schemas.Option{
				{Label: "Bangalore", Value: "Bangalore"},
				{Label: "Pune", Value: "Pune"},
			},
		}
	}

	t.Run("label answer", func(t *testing.T) {
		prompter := &fakePrompter{values: []string{"pune"}, ok: true}
		r := newResolver(Sources{Prompter: prompter})

		answer, skip := r.Resolve(context.Background(), field())
		require.Nil(t, skip)
		assert.Equal(t, "Pune", answer.Value)
		assert.Equal(t, schemas.SourceUser, answer.Source)
	})

	t.Run("empty input is a user skip", func(t *testing.T) {
		prompter := &fakePrompter{ok: false}
		r := newResolver(Sources{Prompter: prompter})

		_, skip := r.Resolve(context.Background(), field())
		require.NotNil(t, skip)
		assert.Equal(t, schemas.ReasonUserSkipped, skip.Reason)
	})

	t.Run("multiple answers for a single-valued field", func(t *testing.T) {
		prompter := &fakePrompter{values: []string{"Bangalore", "Pune"}, ok: true}
		r := newResolver(Sources{Prompter: prompter})

		_, skip := r.Resolve(context.Background(), field())
		require.NotNil(t, skip)
		assert.Equal(t, schemas.ReasonAmbiguous, skip.Reason)
	})

	t.Run("multi field unions matches", func(t *testing.T) {
		f := &schemas.Field{
			ID: "langs", Question: "Languages", Kind: schemas.KindMultiSelect, AllowsMultiple: true,
			Options: []schemas.Option{
				{Label: "Go", Value: "Go"}, {Label: "Python", Value: "Python"}, {Label: "Rust", Value: "Rust"},
			},
		}
		prompter := &fakePrompter{values: []string{"go", "rust"}, ok: true}
		r := newResolver(Sources{Prompter: prompter})

		answer, skip := r.Resolve(context.Background(), f)
		require.Nil(t, skip)
		assert.Equal(t, []string{"Go", "Rust"}, answer.Value)
	})
}

func TestResolveFileFieldUsesResume(t *testing.T) {
	p := &schemas.Profile{ResumePath: "/home/asha/resume.pdf"}
	r := newResolver(Sources{Profile: p})

	field := &schemas.Field{ID: "resume", Question: "Upload your resume", Kind: schemas.KindFile}
	answer, skip := r.Resolve(context.Background(), field)

	require.Nil(t, skip)
	assert.Equal(t, "/home/asha/resume.pdf", answer.Value)
}

func TestResolveMissingMetadata(t *testing.T) {
	r := newResolver(Sources{})
	field := &schemas.Field{Question: "Mystery", Kind: schemas.KindText}
	_, skip := r.Resolve(context.Background(), field)

	require.NotNil(t, skip)
	assert.Equal(t, schemas.ReasonMetadataMissing, skip.Reason)
}

func TestResolveAllSubsetInvariant(t *testing.T) {
	// Whatever the sources produce, resolved values for optioned fields
	// stay inside the closed option set.
	p := &schemas.Profile{ExperienceYears: 2, Email: "a@x.com", Location: "Bangalore"}
	llm := &fakeLLM{response: "Hyderabad"}
	r := newResolver(Sources{Profile: p, LLM: llm})

	fields := []schemas.Field{
		{ID: "email", Question: "Email", Kind: schemas.KindText},
		{ID: "exp", Question: "Years of experience", Kind: schemas.KindSelect,
			Options: []schemas.Option{
				{Label: "0-1 years", Value: "0-1 years"},
				{Label: "1-3 years", Value: "1-3 years"},
			}},
		{ID: "city", Question: "Preferred city", Kind: schemas.KindSelect,
			Options: []schemas.Option{
				{Label: "Bangalore", Value: "Bangalore"},
				{Label: "Hyderabad", Value: "Hyderabad"},
			}},
	}
	require.NoError(t, r.ResolveAll(context.Background(), fields))

	for _, f := range fields {
		if len(f.Options) == 0 {
			continue
		}
		answer, ok := r.Ledger().Answer(f.ID)
		if !ok {
			continue
		}
		_, found := f.FindOption(answer.Value.(string))
		assert.True(t, found, "answer %v for %s escaped the option set", answer.Value, f.ID)
	}
}

func TestResolveAllRecordsSkips(t *testing.T) {
	r := newResolver(Sources{})
	fields := []schemas.Field{
		{ID: "ctc", Question: "Expected CTC", Kind: schemas.KindText},
		{ID: "why", Question: "Why us?", Kind: schemas.KindTextarea},
	}
	require.NoError(t, r.ResolveAll(context.Background(), fields))

	skips := r.Ledger().Skips()
	require.Len(t, skips, 2)
	assert.Equal(t, schemas.ReasonPersonalPreference, skips[0].Reason)
	assert.Equal(t, schemas.ReasonNotFound, skips[1].Reason)
}
