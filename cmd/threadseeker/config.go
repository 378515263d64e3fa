// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/threadseeker/internal/ai"
	"github.com/pdiddy/threadseeker/internal/cache"
	"github.com/pdiddy/threadseeker/internal/engine"
	"github.com/pdiddy/threadseeker/internal/intent"
	"github.com/pdiddy/threadseeker/internal/querygen"
	"github.com/pdiddy/threadseeker/internal/ranking"
	"github.com/pdiddy/threadseeker/internal/secrets"
	"github.com/pdiddy/threadseeker/internal/sources"
	"github.com/pdiddy/threadseeker/internal/synth"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// setDefaults registers scalar defaults so environment variables such as
// THREADSEEKER_CACHE_BACKEND resolve even without a config file.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	defaults := map[string]any{
		"engine.max_query_length":        d.Engine.MaxQueryLength,
		"engine.trending_per_source":     d.Engine.TrendingPerSource,
		"engine.policy_file":             d.Engine.PolicyFile,
		"sources.timeout":                d.Sources.Timeout,
		"sources.user_agent":             d.Sources.UserAgent,
		"sources.limit":                  d.Sources.Limit,
		"sources.fetch_timeout":          d.Sources.FetchTimeout,
		"sources.enable_github":          d.Sources.EnableGitHub,
		"sources.enable_huggingface":     d.Sources.EnableHuggingFace,
		"sources.enable_reddit":          d.Sources.EnableReddit,
		"sources.github_token":           d.Sources.GitHubToken,
		"sources.requests_per_minute":    d.Sources.RequestsPerMinute,
		"sources.reddit_comment_threads": d.Sources.RedditCommentThreads,
		"ai.max_generated_query_length":  d.AI.MaxGeneratedQueryLength,
		"ai.synthesis_top_n":             d.AI.SynthesisTopN,
		"cache.backend":                  string(d.Cache.Backend),
		"cache.ttl":                      d.Cache.TTL,
		"cache.trending_ttl":             d.Cache.TrendingTTL,
		"cache.key_prefix":               d.Cache.KeyPrefix,
		"cache.redis_addr":               d.Cache.RedisAddr,
		"cache.redis_password":           d.Cache.RedisPassword,
		"cache.redis_db":                 d.Cache.RedisDB,
		"cache.sqlite_path":              d.Cache.SQLitePath,
		"server.addr":                    d.Server.Addr,
		"server.mode":                    d.Server.Mode,
		"server.allowed_origins":         d.Server.AllowedOrigins,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig resolves the full configuration: defaults, config file,
// environment, flags, then credentials from .secrets/ and the provider
// environment variables.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = defaultProviders()
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

// defaultProviders is Groq as primary and Gemini as backup, keyed from the
// conventional environment variables when set.
func defaultProviders() []types.ProviderConfig {
	return []types.ProviderConfig{
		{Kind: types.ProviderGroq, APIKey: os.Getenv("GROQ_API_KEY")},
		{Kind: types.ProviderGemini, APIKey: os.Getenv("GEMINI_API_KEY")},
	}
}

// app holds an engine and the resources to release with it.
type app struct {
	engine  *engine.Engine
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// buildApp wires every component from cfg. Providers that cannot be built,
// typically for a missing API key, are skipped with a warning; the
// rule-based tiers keep the pipeline working without any.
func buildApp(ctx context.Context, cfg types.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	weights := intent.DefaultWeights().Merge(cfg.Engine.IntentWeights)
	classifier, err := intent.New(nil, weights)
	if err != nil {
		return nil, err
	}

	var policy *ranking.Policy
	if cfg.Engine.PolicyFile != "" {
		p, err := ranking.LoadPolicy(cfg.Engine.PolicyFile)
		if err != nil {
			return nil, err
		}
		policy = &p
	}

	var providers []ai.Timed
	for _, pc := range cfg.AI.Providers {
		pc = ai.WithDefaults(pc)
		p, err := ai.NewProvider(ctx, pc)
		if err != nil {
			logger.Warn("skipping ai provider", "provider", pc.Name, "error", err)
			continue
		}
		if c, ok := p.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
		providers = append(providers, ai.Timed{Provider: p, Timeout: pc.Timeout})
	}

	c, err := cache.OpenOrDisable(cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, c)

	a.engine = engine.New(engine.Deps{
		Classifier: classifier,
		Generator: querygen.New(providers, querygen.Options{
			MaxLength: cfg.AI.MaxGeneratedQueryLength,
			Logger:    logger,
		}),
		Synthesizer: synth.New(providers, synth.Options{
			TopN:   cfg.AI.SynthesisTopN,
			Logger: logger,
		}),
		Adapters: sources.New(cfg.Sources, logger),
		Cache:    c,
	}, engine.Options{
		MaxQueryLength:    cfg.Engine.MaxQueryLength,
		Limit:             cfg.Sources.Limit,
		FetchTimeout:      cfg.Sources.FetchTimeout,
		CacheTTL:          cfg.Cache.TTL,
		TrendingTTL:       cfg.Cache.TrendingTTL,
		TrendingPerSource: cfg.Engine.TrendingPerSource,
		Policy:            policy,
		Logger:            logger,
	})
	return a, nil
}

// newApp loads configuration and builds the app for a command.
func newApp(ctx context.Context) (*app, types.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, types.Config{}, err
	}
	a, err := buildApp(ctx, cfg, slog.Default())
	if err != nil {
		return nil, types.Config{}, err
	}
	return a, cfg, nil
}
