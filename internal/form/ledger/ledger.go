// -- internal/form/ledger/ledger.go --

// Package ledger is the cross-pass store of resolved answers and skip
// records, keyed by field id. Within a run it guarantees that an answer,
// once resolved, is never discarded, and that a personal_preference skip
// is never downgraded to a weaker reason.
package ledger

import (
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Ledger accumulates the outcome of resolution passes. It is not safe for
// concurrent use; the pipeline processes one field at a time.
type Ledger struct {
	answers   map[string]schemas.Answer
	answerIDs []string

	skips   map[string]schemas.SkipRecord
	skipIDs []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		answers: make(map[string]schemas.Answer),
		skips:   make(map[string]schemas.SkipRecord),
	}
}

// RecordAnswer stores an answer for the field unless one already exists;
// earlier passes' confirmed answers are authoritative. A field with an
// answer can no longer be listed as skipped.
func (l *Ledger) RecordAnswer(id string, answer schemas.Answer) {
	if id == "" {
		return
	}
	if _, exists := l.answers[id]; exists {
		return
	}
	l.answers[id] = answer
	l.answerIDs = append(l.answerIDs, id)
	l.dropSkip(id)
}

// Answer returns the stored answer for a field id.
func (l *Ledger) Answer(id string) (schemas.Answer, bool) {
	a, ok := l.answers[id]
	return a, ok
}

// RecordSkip stores a skip record, de-duplicating by id. On collision
// personal_preference wins regardless of arrival order; otherwise the
// first-seen record is kept. A field that already has an answer is never
// recorded as skipped.
func (l *Ledger) RecordSkip(record schemas.SkipRecord) {
	if record.ID == "" {
		return
	}
	if _, answered := l.answers[record.ID]; answered {
		return
	}
	existing, ok := l.skips[record.ID]
	if !ok {
		l.skips[record.ID] = record
		l.skipIDs = append(l.skipIDs, record.ID)
		return
	}
	if existing.Reason != schemas.ReasonPersonalPreference &&
		record.Reason == schemas.ReasonPersonalPreference {
		l.skips[record.ID] = record
	}
}

func (l *Ledger) dropSkip(id string) {
	if _, ok := l.skips[id]; !ok {
		return
	}
	delete(l.skips, id)
	for i, sid := range l.skipIDs {
		if sid == id {
			l.skipIDs = append(l.skipIDs[:i], l.skipIDs[i+1:]...)
			break
		}
	}
}

// Answers returns the flat {id: value} answer map.
func (l *Ledger) Answers() map[string]any {
	out := make(map[string]any, len(l.answers))
	for id, a := range l.answers {
		out[id] = a.Value
	}
	return out
}

// Skips returns the skip records in first-seen order.
func (l *Ledger) Skips() []schemas.SkipRecord {
	out := make([]schemas.SkipRecord, 0, len(l.skipIDs))
	for _, id := range l.skipIDs {
		out = append(out, l.skips[id])
	}
	return out
}

// AnsweredIDs returns the ids with answers in first-seen order.
func (l *Ledger) AnsweredIDs() []string {
	out := make([]string, len(l.answerIDs))
	copy(out, l.answerIDs)
	return out
}

// Seed preloads answers from an earlier pass without overwriting any
// already present.
func (l *Ledger) Seed(prior map[string]any, source schemas.AnswerSource) {
	for id, value := range prior {
		l.RecordAnswer(id, schemas.Answer{Value: value, Source: source})
	}
}

// -- Pure merge operations --

// MergeAnswers unions two {id: value} maps. A key present in existing is
// never overwritten by next; the call is idempotent.
func MergeAnswers(existing, next map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(next))
	for id, v := range existing {
		out[id] = v
	}
	for id, v := range next {
		if _, ok := out[id]; !ok {
			out[id] = v
		}
	}
	return out
}

// DedupSkips collapses repeated skip records by id, preserving first-seen
// order. personal_preference beats any other reason on collision.
func DedupSkips(records []schemas.SkipRecord) []schemas.SkipRecord {
	index := make(map[string]int, len(records))
	out := make([]schemas.SkipRecord, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if i, ok := index[r.ID]; ok {
			if out[i].Reason != schemas.ReasonPersonalPreference &&
				r.Reason == schemas.ReasonPersonalPreference {
				out[i] = r
			}
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// UnwrapPrior flattens a wrapped {id: {question, answer}} structure, as
// produced by an interactive completion pass, into a {id: answer} lookup.
func UnwrapPrior(wrapped map[string]schemas.ReviewedAnswer) map[string]any {
	out := make(map[string]any, len(wrapped))
	for id, entry := range wrapped {
		if id == "" || entry.Answer == nil {
			continue
		}
		out[id] = entry.Answer
	}
	return out
}
