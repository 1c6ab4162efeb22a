// -- internal/llmclient/gemini_client.go --

// Package llmclient implements the language-model inference collaborator.
// The contract is deliberately narrow: given a prompt, return the literal
// answer value or the UNKNOWN sentinel. Everything else (prompt
// construction, option constraints, response validation) lives with the
// resolver.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// systemInstruction pins the model to the value-or-sentinel contract. Any
// response that strays from it is treated as no-answer by the caller.
const systemInstruction = `You answer job application form questions on behalf of a candidate, using only the evidence provided in the prompt.
Reply with ONLY the literal answer value. No explanations, no punctuation around the value, no markdown.
When options are listed, reply with exactly one of the option labels, verbatim.
If the evidence does not determine the answer, reply with exactly: ` + schemas.UnknownSentinel

// GeminiClient talks to the Google Gemini generateContent endpoint over
// plain HTTP. It implements schemas.LLMClient.
type GeminiClient struct {
	apiKey       string
	endpoint     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetryWait time.Duration
	logger       *zap.Logger
}

var _ schemas.LLMClient = (*GeminiClient)(nil)

// -- Gemini API Request/Response Structures --

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequestPayload struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
}

type geminiResponsePayload struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiClient initializes the client from configuration.
func NewGeminiClient(cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(
			"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent",
			cfg.Model)
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}

	return &GeminiClient{
		apiKey:       cfg.APIKey,
		endpoint:     endpoint,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter:      rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		maxRetryWait: cfg.MaxRetryWait,
		logger:       logger.Named("llm_client.gemini"),
	}, nil
}

// Infer sends the prompt and returns the model's answer value. Transient
// API failures are retried with exponential backoff; rate limiting is
// enforced client-side before every attempt.
func (c *GeminiClient) Infer(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequestPayload{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		SystemInstruction: &geminiSystemInstruction{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0,
			MaxOutputTokens: 256,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetryWait
	b.MaxInterval = 30 * time.Second

	var answer string
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.apiKey)

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during inference request, retrying.", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var response geminiResponsePayload
		if err := json.Unmarshal(respBody, &response); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(response.Candidates) == 0 {
			return backoff.Permanent(fmt.Errorf("gemini API returned no candidates"))
		}

		candidate := response.Candidates[0]
		if len(candidate.Content.Parts) == 0 {
			if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "BLOCKLIST" {
				return backoff.Permanent(fmt.Errorf("gemini API blocked the request (reason: %s)", candidate.FinishReason))
			}
			return fmt.Errorf("gemini API returned empty content parts (reason: %s)", candidate.FinishReason)
		}

		c.logger.Debug("Inference complete.",
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_tokens", response.UsageMetadata.PromptTokenCount),
			zap.Int("completion_tokens", response.UsageMetadata.CandidatesTokenCount),
		)

		answer = strings.TrimSpace(candidate.Content.Parts[0].Text)
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return answer, nil
}

func (c *GeminiClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Gemini API returned error status.",
		zap.Int("status", statusCode),
		zap.ByteString("response", body))
	err := fmt.Errorf("gemini API error: status %d", statusCode)

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
