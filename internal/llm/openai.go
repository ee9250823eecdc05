package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TokenUsage reports billable token counts for a single completion.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
}

// Add accumulates another usage report into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Prompt += other.Prompt
	u.Completion += other.Completion
	u.Total += other.Total
}

// Client is the boundary to the chat-completion provider. Each stage of the
// triage pipeline sends one system+user prompt pair and expects structured
// (JSON) text back; the encoding is the caller's concern.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, TokenUsage, error)
}

// ModelError wraps a provider or transport failure while invoking the model.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model invocation failed (%s): %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Config controls the OpenAI-backed client. The zero value is completed
// with defaults by NewOpenAIClient.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Verbose     bool
}

const (
	defaultModel   = "gpt-4"
	defaultTimeout = 60 * time.Second
)

// OpenAIClient calls the OpenAI chat completion API. Temperature defaults
// to 0 so that triage output is as deterministic as the provider allows.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	verbose     bool
	logger      *zap.Logger
}

// NewOpenAIClient constructs an OpenAI-backed LLM client. A missing API key
// falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIClient(cfg Config, logger *zap.Logger) *OpenAIClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		verbose:     cfg.Verbose,
		logger:      logger,
	}
}

// Complete sends one system+user prompt pair and returns the assistant text
// plus token usage from the provider's accounting. Every call carries its
// own timeout; a timed-out call surfaces as a ModelError so the orchestrator
// takes the safety-fallback path.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, TokenUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The API treats temperature 0 as "unset" because of omitempty, so send
	// the smallest positive float instead.
	temp := float32(c.temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	if c.verbose {
		c.logger.Debug("model request", zap.String("model", c.model), zap.String("system", system), zap.String("user", user))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temp,
	})
	if err != nil {
		return "", TokenUsage{}, &ModelError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", TokenUsage{}, &ModelError{Op: "chat completion", Err: fmt.Errorf("response contained no choices")}
	}

	usage := TokenUsage{
		Prompt:     resp.Usage.PromptTokens,
		Completion: resp.Usage.CompletionTokens,
		Total:      resp.Usage.TotalTokens,
	}
	content := resp.Choices[0].Message.Content
	if c.verbose {
		c.logger.Debug("model response", zap.String("content", content), zap.Int("tokens", usage.Total))
	}
	return content, usage, nil
}
