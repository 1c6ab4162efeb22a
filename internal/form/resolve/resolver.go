// -- internal/form/resolve/resolver.go --

// Package resolve turns discovered fields into concrete answers by
// consulting ranked sources: the in-run ledger, the cross-run answer
// cache, the candidate profile, the inference collaborator, and finally
// the human. A curated personal-preference gate short-circuits questions
// the candidate must answer themselves.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/form/ledger"
	"github.com/xkilldash9x/formpilot-cli/internal/profile"
)

// QuestionCache is the persistent cross-run answer source, keyed by
// question text.
type QuestionCache interface {
	Get(ctx context.Context, question string) (string, bool, error)
}

// Sources bundles the ranked answer sources. Ledger is mandatory; every
// other source is optional and simply skipped when nil.
type Sources struct {
	Ledger   *ledger.Ledger
	Cache    QuestionCache
	Profile  *schemas.Profile
	LLM      schemas.LLMClient
	Prompter schemas.Prompter
}

// Resolver evaluates the fixed source order per field, short-circuiting
// on the first success.
type Resolver struct {
	src    Sources
	logger *zap.Logger
}

// New constructs a resolver over the given sources.
func New(src Sources, logger *zap.Logger) *Resolver {
	if src.Ledger == nil {
		src.Ledger = ledger.New()
	}
	return &Resolver{src: src, logger: logger.Named("resolver")}
}

// Ledger exposes the accumulated answers and skips.
func (r *Resolver) Ledger() *ledger.Ledger { return r.src.Ledger }

// ResolveAll runs Resolve over every field, recording outcomes in the
// ledger. A single field's failure never aborts the loop; only context
// cancellation does.
func (r *Resolver) ResolveAll(ctx context.Context, fields []schemas.Field) error {
	for i := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := &fields[i]
		answer, skip := r.Resolve(ctx, field)
		if skip != nil {
			r.src.Ledger.RecordSkip(*skip)
			r.logger.Info("Field skipped.",
				zap.String("field_id", field.ID),
				zap.String("reason", string(skip.Reason)))
			continue
		}
		r.src.Ledger.RecordAnswer(field.ID, answer)
		r.logger.Debug("Field resolved.",
			zap.String("field_id", field.ID),
			zap.String("source", string(answer.Source)))
	}
	return nil
}

// Resolve produces an answer for one field, or a skip record explaining
// which stage failed.
func (r *Resolver) Resolve(ctx context.Context, field *schemas.Field) (schemas.Answer, *schemas.SkipRecord) {
	if field.ID == "" {
		return schemas.Answer{}, &schemas.SkipRecord{
			ID:       field.DisplayLabel(),
			Question: field.Question,
			Reason:   schemas.ReasonMetadataMissing,
		}
	}

	skip := func(reason schemas.SkipReason) *schemas.SkipRecord {
		return &schemas.SkipRecord{ID: field.ID, Question: field.Question, Reason: reason}
	}

	// 1. Previously resolved in this or a prior pass.
	if answer, ok := r.src.Ledger.Answer(field.ID); ok {
		return schemas.Answer{Value: answer.Value, Source: schemas.SourceCached}, nil
	}

	// 2. Hard policy gate. Runs before any evidence lookup and cannot be
	// overridden by a confident match.
	if IsPersonalPreference(field.Question) {
		return schemas.Answer{}, skip(schemas.ReasonPersonalPreference)
	}

	// File fields resolve to the resume document; there is nothing to
	// infer.
	if field.Kind == schemas.KindFile {
		if r.src.Profile != nil && r.src.Profile.ResumePath != "" {
			return schemas.Answer{Value: r.src.Profile.ResumePath, Source: schemas.SourceProfile}, nil
		}
		return schemas.Answer{}, skip(schemas.ReasonNotFound)
	}

	// failure tracks the most specific stage failure for the final skip
	// reason: a produced-but-invalid value beats plain not-found, and
	// ambiguity beats both.
	failure := schemas.ReasonNotFound

	// 1b. Cross-run cache, keyed by question text.
	if r.src.Cache != nil && field.Question != "" {
		if raw, found, err := r.src.Cache.Get(ctx, field.Question); err != nil {
			r.logger.Warn("Answer cache lookup failed.", zap.Error(err))
		} else if found {
			if answer, outcome := r.fit(field, raw, schemas.SourceCached); outcome == MatchFound {
				return answer, nil
			} else if outcome == MatchAmbiguous {
				failure = schemas.ReasonAmbiguous
			}
		}
	}

	// 3. Known profile attribute.
	if r.src.Profile != nil {
		if raw, ok := profile.Lookup(r.src.Profile, field.Question); ok {
			answer, outcome := r.fit(field, raw, schemas.SourceProfile)
			switch outcome {
			case MatchFound:
				return answer, nil
			case MatchAmbiguous:
				failure = schemas.ReasonAmbiguous
			case MatchNone:
				failure = schemas.ReasonNoValidOption
			}
		}
	}

	// 4. Language-model inference under the strict value-or-sentinel
	// contract.
	if r.src.LLM != nil && field.Question != "" {
		raw, err := r.src.LLM.Infer(ctx, r.buildPrompt(field))
		if err != nil {
			r.logger.Warn("Inference failed.", zap.String("field_id", field.ID), zap.Error(err))
		} else if usable := sanitizeInference(raw); usable != "" {
			answer, outcome := r.fit(field, usable, schemas.SourceInferred)
			switch outcome {
			case MatchFound:
				return answer, nil
			case MatchAmbiguous:
				failure = schemas.ReasonAmbiguous
			case MatchNone:
				failure = schemas.ReasonNoValidOption
			}
		}
	}

	// 5. Interactive human prompt, last.
	if r.src.Prompter != nil {
		values, ok, err := r.src.Prompter.AskField(ctx, field)
		if err != nil {
			r.logger.Warn("Prompt failed.", zap.String("field_id", field.ID), zap.Error(err))
			return schemas.Answer{}, skip(failure)
		}
		if !ok {
			return schemas.Answer{}, skip(schemas.ReasonUserSkipped)
		}
		if !field.AllowsMultiple && len(values) > 1 {
			// Several choices for a single-valued field is not resolvable.
			return schemas.Answer{}, skip(schemas.ReasonAmbiguous)
		}
		if len(values) > 0 {
			raw := strings.Join(values, ", ")
			answer, outcome := r.fit(field, raw, schemas.SourceUser)
			if outcome == MatchFound {
				return answer, nil
			}
			if outcome == MatchAmbiguous {
				return schemas.Answer{}, skip(schemas.ReasonAmbiguous)
			}
			return schemas.Answer{}, skip(schemas.ReasonNoValidOption)
		}
	}

	return schemas.Answer{}, skip(failure)
}

// fit validates a raw candidate value against the field's shape. For
// optioned fields the value must map onto the closed option set; the
// stored answer is always the canonical label. Free-text fields accept
// the value as-is.
func (r *Resolver) fit(field *schemas.Field, raw string, source schemas.AnswerSource) (schemas.Answer, MatchResult) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return schemas.Answer{}, MatchNone
	}

	if len(field.Options) == 0 {
		return schemas.Answer{Value: raw, Source: source}, MatchFound
	}

	// Boolean-ish values canonicalize to the display labels yes/no
	// widgets carry before matching.
	if canonical, ok := CanonicalYesNo(raw); ok {
		raw = canonical
	}

	if field.AllowsMultiple {
		matched, _ := MatchOptions(field, SplitMulti(raw))
		if len(matched) == 0 {
			return schemas.Answer{}, MatchNone
		}
		labels := make([]string, 0, len(matched))
		for _, opt := range matched {
			labels = append(labels, opt.Label)
		}
		return schemas.Answer{Value: labels, Source: source}, MatchFound
	}

	opt, outcome := MatchOption(field, raw)
	if outcome != MatchFound {
		return schemas.Answer{}, outcome
	}
	return schemas.Answer{Value: opt.Label, Source: source}, MatchFound
}

// sanitizeInference enforces the inference contract: a single-line
// literal value, or nothing. The sentinel, empty output and obviously
// chatty responses all collapse to no-answer.
func sanitizeInference(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, schemas.UnknownSentinel) {
		return ""
	}
	if strings.ContainsAny(raw, "\n\r") {
		return ""
	}
	// A value this long is an explanation, not an answer.
	if len(raw) > 300 {
		return ""
	}
	return raw
}

// promptResumeLimit bounds the evidence block so prompts stay inside the
// model's context comfortably.
const promptResumeLimit = 6000

// buildPrompt renders the field and available evidence for the model.
func (r *Resolver) buildPrompt(field *schemas.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form question: %s\n", field.DisplayLabel())

	if len(field.Options) > 0 {
		b.WriteString("Allowed options (reply with one label verbatim):\n")
		for _, opt := range field.Options {
			fmt.Fprintf(&b, "- %s\n", opt.Label)
		}
	}
	if field.AllowsMultiple {
		b.WriteString("Several options may apply; reply with a comma-separated list of labels.\n")
	}

	if p := r.src.Profile; p != nil {
		b.WriteString("\nCandidate facts:\n")
		writeFact(&b, "Name", p.FullName)
		writeFact(&b, "Email", p.Email)
		writeFact(&b, "Phone", p.Phone)
		writeFact(&b, "Location", p.Location)
		writeFact(&b, "Title", p.CurrentTitle)
		writeFact(&b, "Company", p.CurrentCompany)
		if p.ExperienceYears > 0 {
			fmt.Fprintf(&b, "- Experience: %g years\n", p.ExperienceYears)
		}
		if len(p.Skills) > 0 {
			writeFact(&b, "Skills", strings.Join(p.Skills, ", "))
		}

		if resume := strings.TrimSpace(p.ResumeText); resume != "" {
			if len(resume) > promptResumeLimit {
				resume = resume[:promptResumeLimit]
			}
			b.WriteString("\nResume:\n")
			b.WriteString(resume)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeFact(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}
