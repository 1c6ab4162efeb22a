// -- cmd/app.go --
package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser"
	"github.com/xkilldash9x/formpilot-cli/internal/form/ledger"
	"github.com/xkilldash9x/formpilot-cli/internal/form/resolve"
	"github.com/xkilldash9x/formpilot-cli/internal/llmclient"
	"github.com/xkilldash9x/formpilot-cli/internal/observability"
	"github.com/xkilldash9x/formpilot-cli/internal/profile"
	"github.com/xkilldash9x/formpilot-cli/internal/runner"
	"github.com/xkilldash9x/formpilot-cli/internal/userprompt"
)

const shutdownTimeout = 15 * time.Second

// app owns the assembled collaborators of one CLI invocation and knows
// how to tear them down in reverse order.
type app struct {
	logger  *zap.Logger
	runner  *runner.Runner
	manager *browser.Manager
	session *browser.Session
	cache   *ledger.Cache
}

// newApp builds the runner and its collaborators from the loaded
// configuration. The browser stack is only launched when the command
// actually drives a page; answer and complete work on stored artifacts.
func newApp(ctx context.Context, withBrowser bool) (*app, error) {
	logger := observability.GetLogger()
	a := &app{logger: logger}

	store, err := ledger.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	if cfg.Artifacts.CachePath != "" {
		cache, err := ledger.OpenCache(cfg.Artifacts.CachePath)
		if err != nil {
			logger.Warn("Answer cache unavailable; continuing without it.", zap.Error(err))
		} else {
			a.cache = cache
		}
	}

	var prof *schemas.Profile
	if cfg.Profile.Path != "" {
		prof, err = profile.Load(cfg.Profile.Path, cfg.Profile.ResumePath)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
	} else {
		logger.Warn("No profile configured; only cached and interactive answers are available.")
	}

	var llm schemas.LLMClient
	if cfg.LLM.APIKey != "" {
		llm, err = llmclient.NewClient(cfg.LLM, logger)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
	} else {
		logger.Warn("No LLM API key configured; inference stage disabled.")
	}

	prompter := userprompt.NewConsole()

	sources := resolve.Sources{Profile: prof, LLM: llm, Prompter: prompter}
	if a.cache != nil {
		sources.Cache = a.cache
	}
	resolver := resolve.New(sources, logger)

	var session schemas.PageSession
	if withBrowser {
		manager, err := browser.NewManager(ctx, cfg.Browser, logger)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.manager = manager

		s, err := manager.NewSession()
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.session = s
		session = s
	}

	a.runner = runner.New(runner.Options{
		Config:   cfg,
		Logger:   logger,
		Session:  session,
		Store:    store,
		Cache:    a.cache,
		Resolver: resolver,
		Prompter: prompter,
		Profile:  prof,
	})
	return a, nil
}

// close tears everything down. It takes a fresh deadline so shutdown
// still completes after the command context was cancelled.
func (a *app) close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if a.session != nil {
		if err := a.session.Close(shutdownCtx); err != nil {
			a.logger.Warn("Session close failed.", zap.Error(err))
		}
	}
	if a.manager != nil {
		if err := a.manager.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Browser shutdown failed.", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Answer cache close failed.", zap.Error(err))
		}
	}
}
