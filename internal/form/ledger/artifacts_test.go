// -- internal/form/ledger/artifacts_test.go --
package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	fields := []schemas.Field{
		{ID: "email", Question: "Email", Kind: schemas.KindText, Required: true},
		{ID: "exp", Question: "Experience", Kind: schemas.KindSelect,
			Options: []schemas.Option{{Label: "0-1 years", Value: "0-1 years"}}},
	}
	require.NoError(t, store.WriteFields(fields))
	got, err := store.ReadFields()
	require.NoError(t, err)
	assert.Equal(t, fields, got)

	answers := map[string]any{"email": "a@x.com"}
	require.NoError(t, store.WriteAnswers(answers))
	gotAnswers, err := store.ReadAnswers()
	require.NoError(t, err)
	assert.Equal(t, answers, gotAnswers)

	skips := []schemas.SkipRecord{{ID: "ctc", Question: "Expected CTC", Reason: schemas.ReasonPersonalPreference}}
	require.NoError(t, store.WriteSkipped(skips))
	gotSkips, err := store.ReadSkipped()
	require.NoError(t, err)
	assert.Equal(t, skips, gotSkips)

	completed := map[string]schemas.ReviewedAnswer{
		"ctc": {Question: "Expected CTC", Answer: "12 LPA"},
	}
	require.NoError(t, store.WriteCompleted(completed))
	gotCompleted, err := store.ReadCompleted()
	require.NoError(t, err)
	assert.Equal(t, completed, gotCompleted)
}

func TestStoreMissingArtifacts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	answers, err := store.ReadAnswers()
	require.NoError(t, err)
	assert.Empty(t, answers)

	skips, err := store.ReadSkipped()
	require.NoError(t, err)
	assert.Nil(t, skips)

	_, err = store.ReadFields()
	require.Error(t, err, "fields artifact is mandatory input, missing is an error")
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "answers.db"))
	require.NoError(t, err)
	defer cache.Close()

	_, found, err := cache.Get(ctx, "Current Notice Period?")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Put(ctx, "Current Notice Period?", "30 days"))

	// Lookup normalizes punctuation and case.
	answer, found, err := cache.Get(ctx, "current notice period")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "30 days", answer)

	// Updates replace the old value.
	require.NoError(t, cache.Put(ctx, "Current Notice Period?", "60 days"))
	answer, found, err = cache.Get(ctx, "Current Notice Period?")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "60 days", answer)

	// Blank questions and answers are ignored.
	require.NoError(t, cache.Put(ctx, "  ", "x"))
	require.NoError(t, cache.Put(ctx, "Q", "  "))
	_, found, err = cache.Get(ctx, "Q")
	require.NoError(t, err)
	assert.False(t, found)
}
