// -- internal/llmclient/factory.go --
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// ProviderGemini is the only wired provider today; the factory exists so
// adding another stays a local change.
const ProviderGemini = "gemini"

// NewClient creates the configured inference collaborator.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q, supported: [%s]", cfg.Provider, ProviderGemini)
	}
}
