// -- internal/runner/runner.go --

// Package runner wires the pipeline stages together: navigate, click
// through the apply gate, discover the form, resolve answers, write
// them into the page, and persist the artifacts of the run.
package runner

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"github.com/xkilldash9x/formpilot-cli/internal/form/discover"
	"github.com/xkilldash9x/formpilot-cli/internal/form/fill"
	"github.com/xkilldash9x/formpilot-cli/internal/form/ledger"
	"github.com/xkilldash9x/formpilot-cli/internal/form/normalize"
	"github.com/xkilldash9x/formpilot-cli/internal/form/resolve"
)

const (
	screenshotBefore = "before.png"
	screenshotAfter  = "after.png"
)

// Runner executes pipeline operations against one page session.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	session  schemas.PageSession
	store    *ledger.Store
	cache    *ledger.Cache
	resolver *resolve.Resolver
	prompter schemas.Prompter
	profile  *schemas.Profile
}

// Options carries the collaborators for New. Session may be nil for
// operations that work purely on stored artifacts.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Session  schemas.PageSession
	Store    *ledger.Store
	Cache    *ledger.Cache
	Resolver *resolve.Resolver
	Prompter schemas.Prompter
	Profile  *schemas.Profile
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      opts.Config,
		logger:   logger,
		session:  opts.Session,
		store:    opts.Store,
		cache:    opts.Cache,
		resolver: opts.Resolver,
		prompter: opts.Prompter,
		profile:  opts.Profile,
	}
}

// Extract navigates to the form and writes the discovered field schema
// to the artifact store.
func (r *Runner) Extract(ctx context.Context, url string) ([]schemas.Field, error) {
	if err := r.session.Navigate(ctx, url); err != nil {
		return nil, err
	}

	d := discover.New(r.session, r.cfg.Discovery, r.logger)
	clicks, err := d.ClickApply(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply pre-pass failed: %w", err)
	}
	if clicks > 0 {
		r.logger.Info("Apply gate cleared.", zap.Int("clicks", clicks))
	}

	fields, err := d.DiscoverAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("field discovery failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fillable fields found at %s", url)
	}
	r.logger.Info("Form schema extracted.", zap.Int("fields", len(fields)))

	if err := r.store.WriteFields(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ImportFields reads an externally produced field-list document,
// normalizes it into the canonical schema, and persists it as the
// stored schema, replacing any previous one. The file may use any of
// the field-list shapes the normalizer understands.
func (r *Runner) ImportFields(path string) ([]schemas.Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field list: %w", err)
	}
	fields, err := normalize.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	if err := r.store.WriteFields(fields); err != nil {
		return nil, err
	}
	r.logger.Info("Field schema imported.",
		zap.String("path", path), zap.Int("fields", len(fields)))
	return fields, nil
}

// Answer resolves every stored field without a browser and persists
// the answer and skip artifacts.
func (r *Runner) Answer(ctx context.Context) error {
	fields, err := r.store.ReadFields()
	if err != nil {
		return err
	}
	if err := r.resolveAndPersist(ctx, fields); err != nil {
		return err
	}
	led := r.resolver.Ledger()
	r.logger.Info("Resolution complete.",
		zap.Int("answered", len(led.Answers())), zap.Int("skipped", len(led.Skips())))
	return nil
}

// Fill runs the whole pipeline: extract, resolve, write into the page,
// then optionally submit.
func (r *Runner) Fill(ctx context.Context, url string) error {
	fields, err := r.Extract(ctx, url)
	if err != nil {
		return err
	}
	if err := r.resolveAndPersist(ctx, fields); err != nil {
		return err
	}

	r.captureScreenshot(ctx, screenshotBefore)

	executor := fill.New(r.session, r.cfg.Fill, r.logger)
	result, err := executor.FillAll(ctx, fields, r.resolver.Ledger().Answers())
	if err != nil {
		return err
	}
	r.logger.Info("Fill pass complete.",
		zap.Int("filled", len(result.Filled)), zap.Int("failed", len(result.Failed)))

	if err := r.uploadResumeIfPending(ctx, fields, result); err != nil {
		r.logger.Warn("Resume upload failed.", zap.Error(err))
	}

	if r.cfg.Fill.SubmitEnabled {
		if err := r.submit(ctx); err != nil {
			return err
		}
	}
	r.captureScreenshot(ctx, screenshotAfter)
	return nil
}

// resolveAndPersist seeds the ledger with prior answers, resolves the
// fields, and writes the artifacts. Fresh user answers also feed the
// cross-run cache so the next application skips the prompt.
func (r *Runner) resolveAndPersist(ctx context.Context, fields []schemas.Field) error {
	if prior, err := r.store.ReadAnswers(); err == nil && len(prior) > 0 {
		r.resolver.Ledger().Seed(prior, schemas.SourceCached)
	}
	if completed, err := r.store.ReadCompleted(); err == nil && len(completed) > 0 {
		r.resolver.Ledger().Seed(ledger.UnwrapPrior(completed), schemas.SourceCached)
	}

	if err := r.resolver.ResolveAll(ctx, fields); err != nil {
		return err
	}

	led := r.resolver.Ledger()
	if err := r.store.WriteAnswers(led.Answers()); err != nil {
		return err
	}
	if err := r.store.WriteSkipped(ledger.DedupSkips(led.Skips())); err != nil {
		return err
	}

	if r.cache != nil {
		r.persistUserAnswers(ctx, fields)
	}
	return nil
}

func (r *Runner) persistUserAnswers(ctx context.Context, fields []schemas.Field) {
	led := r.resolver.Ledger()
	for _, field := range fields {
		answer, ok := led.Answer(field.ID)
		if !ok || answer.Source != schemas.SourceUser || field.Question == "" {
			continue
		}
		if err := r.cache.Put(ctx, field.Question, answer.AsString()); err != nil {
			r.logger.Warn("Failed to cache answer.",
				zap.String("field_id", field.ID), zap.Error(err))
		}
	}
}

// uploadResumeIfPending attaches the profile resume when the form has
// a file field the fill pass did not satisfy, or an upload affordance
// discovery never classified as a field.
func (r *Runner) uploadResumeIfPending(ctx context.Context, fields []schemas.Field, result fill.Result) error {
	if r.profile == nil || r.profile.ResumePath == "" {
		return nil
	}

	filled := make(map[string]bool, len(result.Filled))
	for _, id := range result.Filled {
		filled[id] = true
	}
	executor := fill.New(r.session, r.cfg.Fill, r.logger)
	for i := range fields {
		f := &fields[i]
		if f.Kind != schemas.KindFile || filled[f.ID] {
			continue
		}
		if _, failed := result.Failed[f.ID]; !failed {
			// Skipped during resolution; still worth one upload attempt.
			r.logger.Info("Attaching resume to unanswered file field.", zap.String("field_id", f.ID))
		}
		return executor.Upload(ctx, f, []string{r.profile.ResumePath})
	}
	return nil
}

func (r *Runner) captureScreenshot(ctx context.Context, name string) {
	png, err := r.session.Screenshot(ctx)
	if err != nil {
		r.logger.Warn("Screenshot failed.", zap.String("name", name), zap.Error(err))
		return
	}
	if err := r.store.WriteScreenshot(name, png); err != nil {
		r.logger.Warn("Failed to store screenshot.", zap.String("name", name), zap.Error(err))
	}
}
