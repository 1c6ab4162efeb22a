// -- internal/browser/manager_test.go --
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

func TestBuildAllocatorOptions(t *testing.T) {
	m := &Manager{
		logger: zap.NewNop(),
		cfg: config.BrowserConfig{
			Headless:     true,
			WindowWidth:  1440,
			WindowHeight: 900,
		},
	}

	opts := m.buildAllocatorOptions()

	// All defaults are carried, then overridden and extended. The
	// options are opaque funcs, so the count is the observable part:
	// enable-automation override, headless, blink features, extensions,
	// gpu, window size, user agent, plus the linux container flags.
	assert.GreaterOrEqual(t, len(opts), len(chromedp.DefaultExecAllocatorOptions)+7)

	m.cfg.ExecPath = "/usr/bin/chromium"
	assert.Equal(t, len(opts)+1, len(m.buildAllocatorOptions()))
}
