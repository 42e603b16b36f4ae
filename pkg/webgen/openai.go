package webgen

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultOpenAIModel = openai.GPT4o

// OpenAIOption configures the OpenAI-backed generator.
type OpenAIOption func(*openaiGenerator)

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *openaiGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithOpenAIMaxTokens overrides the output token bound.
func WithOpenAIMaxTokens(n int) OpenAIOption {
	return func(g *openaiGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithOpenAIRateLimit sets the outgoing requests-per-second limit.
func WithOpenAIRateLimit(rps float64) OpenAIOption {
	return func(g *openaiGenerator) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type openaiGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	limiter   *rate.Limiter
}

// NewOpenAI creates a generator backed by the OpenAI chat completions API.
func NewOpenAI(apiKey string, opts ...OpenAIOption) Generator {
	g := &openaiGenerator{
		client:    openai.NewClient(apiKey),
		model:     defaultOpenAIModel,
		maxTokens: defaultMaxTokens,
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *openaiGenerator) InMockMode() bool { return false }

func (g *openaiGenerator) GenerateWebsite(ctx context.Context, biz BusinessInfo, tmpl Template) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "webgen: rate limit wait")
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(biz, tmpl)},
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "webgen: generate %q (%s)", biz.Name, tmpl.Name)
	}
	if len(resp.Choices) == 0 {
		return "", eris.Errorf("webgen: empty completion for %q (%s)", biz.Name, tmpl.Name)
	}

	zap.L().Debug("website generated",
		zap.String("business", biz.Name),
		zap.String("template", tmpl.Name),
		zap.String("model", g.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return ExtractHTML(resp.Choices[0].Message.Content), nil
}
