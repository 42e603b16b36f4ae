package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/config"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/hosting"
	"github.com/jpmusenge/local-biz-agent/pkg/places"
	"github.com/jpmusenge/local-biz-agent/pkg/webgen"
)

// openStore connects to the configured database and runs migrations.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// placesClient builds the places adapter. A missing API key selects the
// mock client.
func placesClient(cfg *config.Config) places.Client {
	if cfg.Places.Key == "" {
		zap.L().Info("no places API key configured; using mock client")
		return places.NewMock()
	}

	opts := []places.Option{
		places.WithRateLimit(cfg.Places.RateLimit),
	}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	if cfg.Places.DetailDelayMS > 0 {
		opts = append(opts, places.WithDetailDelay(time.Duration(cfg.Places.DetailDelayMS)*time.Millisecond))
	}
	return places.NewClient(cfg.Places.Key, opts...)
}

// generator builds the AI adapter for the configured provider. A missing
// key selects the mock generator.
func generator(cfg *config.Config) (webgen.Generator, error) {
	switch cfg.AI.Provider {
	case "anthropic", "":
		if cfg.AI.Anthropic.Key == "" {
			zap.L().Info("no Anthropic API key configured; using mock generator")
			return webgen.NewMock(), nil
		}
		return webgen.NewAnthropic(cfg.AI.Anthropic.Key,
			webgen.WithAnthropicModel(cfg.AI.Anthropic.Model),
			webgen.WithAnthropicMaxTokens(cfg.AI.Anthropic.MaxTokens),
			webgen.WithAnthropicRateLimit(cfg.AI.RateLimit),
		), nil
	case "openai":
		if cfg.AI.OpenAI.Key == "" {
			zap.L().Info("no OpenAI API key configured; using mock generator")
			return webgen.NewMock(), nil
		}
		return webgen.NewOpenAI(cfg.AI.OpenAI.Key,
			webgen.WithOpenAIModel(cfg.AI.OpenAI.Model),
			webgen.WithOpenAIMaxTokens(cfg.AI.OpenAI.MaxTokens),
			webgen.WithOpenAIRateLimit(cfg.AI.RateLimit),
		), nil
	default:
		return nil, eris.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
}

// hostingClient builds the hosting adapter. A missing token selects the
// mock client.
func hostingClient(cfg *config.Config) hosting.Client {
	if cfg.Hosting.Token == "" {
		zap.L().Info("no hosting token configured; using mock client")
		return hosting.NewMock()
	}

	opts := []hosting.Option{
		hosting.WithRateLimit(cfg.Hosting.RateLimit),
	}
	if cfg.Hosting.BaseURL != "" {
		opts = append(opts, hosting.WithBaseURL(cfg.Hosting.BaseURL))
	}
	if cfg.Hosting.PollIntervalSecs > 0 {
		opts = append(opts, hosting.WithPollInterval(time.Duration(cfg.Hosting.PollIntervalSecs)*time.Second))
	}
	if cfg.Hosting.PollTimeoutSecs > 0 {
		opts = append(opts, hosting.WithPollTimeout(time.Duration(cfg.Hosting.PollTimeoutSecs)*time.Second))
	}
	if cfg.Hosting.TeamID != "" {
		opts = append(opts, hosting.WithTeamID(cfg.Hosting.TeamID))
	}
	return hosting.NewClient(cfg.Hosting.Token, opts...)
}
