package webgen

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultMaxTokens      = 8192
)

// AnthropicOption configures the Anthropic-backed generator.
type AnthropicOption func(*anthropicGenerator)

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(g *anthropicGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithAnthropicMaxTokens overrides the output token bound.
func WithAnthropicMaxTokens(n int64) AnthropicOption {
	return func(g *anthropicGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithAnthropicRateLimit sets the outgoing requests-per-second limit.
func WithAnthropicRateLimit(rps float64) AnthropicOption {
	return func(g *anthropicGenerator) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type anthropicGenerator struct {
	client    sdk.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// NewAnthropic creates a generator backed by the Anthropic messages API.
// Callers that have no API key should construct a mock generator instead;
// see NewMock.
func NewAnthropic(apiKey string, opts ...AnthropicOption) Generator {
	g := &anthropicGenerator{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultAnthropicModel,
		maxTokens: defaultMaxTokens,
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *anthropicGenerator) InMockMode() bool { return false }

func (g *anthropicGenerator) GenerateWebsite(ctx context.Context, biz BusinessInfo, tmpl Template) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "webgen: rate limit wait")
	}

	prompt := BuildPrompt(biz, tmpl)
	start := time.Now()

	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "webgen: generate %q (%s)", biz.Name, tmpl.Name)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", eris.Errorf("webgen: empty completion for %q (%s)", biz.Name, tmpl.Name)
	}

	zap.L().Debug("website generated",
		zap.String("business", biz.Name),
		zap.String("template", tmpl.Name),
		zap.String("model", g.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return ExtractHTML(text), nil
}
