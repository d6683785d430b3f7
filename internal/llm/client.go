// Package llm wraps the OpenAI chat-completion API behind a small Completer
// interface. Each call is bounded by a timeout and retried once with a linear
// backoff before the error is surfaced to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatguus/chatguus-backend/internal/config"
	"github.com/chatguus/chatguus-backend/internal/observability"
)

// Roles accepted in Message.Role.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ErrEmptyCompletion is returned when the API answers without any content.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call. Zero Temperature and MaxTokens fall
// back to the client defaults.
type Request struct {
	Messages         []Message
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
}

// Completer produces the assistant text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// chatAPI is the subset of *openai.Client used here.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client implements Completer against the OpenAI API.
type Client struct {
	api         chatAPI
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration

	attempts int
	backoff  time.Duration
}

// NewClient builds a client from configuration. It returns nil when no API
// key is configured so callers can fall back to template replies.
func NewClient(cfg config.OpenAIConfig) *Client {
	if !cfg.Enabled() {
		return nil
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	log.Info().Str("model", cfg.Model).Msg("llm client initialized")
	return newClient(openai.NewClientWithConfig(oc), cfg)
}

func newClient(api chatAPI, cfg config.OpenAIConfig) *Client {
	return &Client{
		api:         api,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		attempts:    2,
		backoff:     500 * time.Millisecond,
	}
}

// Complete sends req and returns the trimmed content of the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, span := otel.Tracer("llm").Start(ctx, "Complete",
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
			attribute.Int("llm.messages", len(req.Messages)),
		),
	)
	defer span.End()

	creq := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         toOpenAI(req.Messages),
		Temperature:      c.temperature,
		MaxTokens:        c.maxTokens,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	if req.Temperature > 0 {
		creq.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = req.MaxTokens
	}

	var lastErr error
retry:
	for attempt := 1; attempt <= c.attempts; attempt++ {
		out, err := c.once(ctx, creq)
		if err == nil {
			observability.LLMRequestsTotal.WithLabelValues("success").Inc()
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == c.attempts {
			break
		}
		log.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("llm completion failed, retrying")
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}

	outcome := "error"
	if errors.Is(lastErr, context.DeadlineExceeded) {
		outcome = "timeout"
	}
	observability.LLMRequestsTotal.WithLabelValues(outcome).Inc()
	span.RecordError(lastErr)
	return "", lastErr
}

func (c *Client) once(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	log.Ctx(ctx).Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("llm completion generated")
	return content, nil
}

func toOpenAI(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
