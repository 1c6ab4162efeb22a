// -- internal/runner/complete.go --
package runner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Complete walks the skip ledger of a previous run and asks the
// operator for each unresolved field, writing the reviewed answers to
// the completed artifact. Fields that already hold an answer, whether
// from the run itself or an earlier review, are never asked again.
func (r *Runner) Complete(ctx context.Context) error {
	skips, err := r.store.ReadSkipped()
	if err != nil {
		return err
	}
	if len(skips) == 0 {
		r.logger.Info("Nothing to review; no skipped fields on record.")
		return nil
	}

	answered, err := r.store.ReadAnswers()
	if err != nil {
		return err
	}
	completed, err := r.store.ReadCompleted()
	if err != nil {
		return err
	}

	fields, err := r.store.ReadFields()
	if err != nil {
		return err
	}
	byID := make(map[string]*schemas.Field, len(fields))
	for i := range fields {
		byID[fields[i].ID] = &fields[i]
	}

	asked, reviewed := 0, 0
	for _, skip := range skips {
		if skip.ID == "" {
			continue
		}
		if _, done := answered[skip.ID]; done {
			continue
		}
		if _, done := completed[skip.ID]; done {
			continue
		}

		field, ok := byID[skip.ID]
		if !ok {
			field = &schemas.Field{ID: skip.ID, Question: skip.Question, Kind: schemas.KindText}
		}
		asked++

		values, ok, err := r.prompter.AskField(ctx, field)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("Prompt failed.", zap.String("field_id", skip.ID), zap.Error(err))
			continue
		}
		if !ok || len(values) == 0 {
			continue
		}

		var answer any
		if field.AllowsMultiple {
			answer = values
		} else {
			answer = strings.Join(values, ", ")
		}
		completed[skip.ID] = schemas.ReviewedAnswer{Question: field.DisplayLabel(), Answer: answer}
		reviewed++

		if r.cache != nil && field.Question != "" {
			if s, isString := answer.(string); isString {
				if err := r.cache.Put(ctx, field.Question, s); err != nil {
					r.logger.Warn("Failed to cache reviewed answer.", zap.Error(err))
				}
			}
		}
	}

	if reviewed > 0 {
		if err := r.store.WriteCompleted(completed); err != nil {
			return err
		}
	}
	r.logger.Info("Review pass finished.",
		zap.Int("asked", asked), zap.Int("reviewed", reviewed))
	return nil
}
