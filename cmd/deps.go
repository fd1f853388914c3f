package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/openai"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/matching"
	"github.com/spigell/resume-screener/internal/secrets"
	"github.com/spigell/resume-screener/internal/store"
)

func openStore(ctx context.Context, cfg *StoreConfig, log *zap.Logger) (store.Store, error) {
	opts := store.Options{Driver: cfg.Driver, Path: cfg.Path}

	if store.NormalizeDriver(cfg.Driver) == store.DriverPostgres {
		dsn, err := secrets.Load(secrets.Source{Name: "database dsn", Value: cfg.DSN, Env: "DATABASE_URL"})
		if err != nil {
			return nil, err
		}
		opts.DSN = dsn
		log.Info("using postgres store")
	} else {
		log.Info("using csv store", zap.String("path", cfg.Path))
	}

	return store.Open(ctx, opts, log)
}

// newRater builds the oracle rater. A missing API key is logged rather than
// fatal: the service still accepts uploads and every rating fails per record.
func newRater(ctx context.Context, cfg *OracleConfig, log *zap.Logger) (ai.Rater, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = "openai"
	}

	apiKey, keyErr := secrets.Load(secrets.Source{
		Name:  "oracle api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "LLM_API_KEY",
	})
	if keyErr != nil {
		log.Warn("oracle api key is not available; matching will report errors", zap.Error(keyErr))
	}

	raterLogger := logger.WithCommonFields(log, provider, cfg.Model)

	var generator ai.Generator
	switch provider {
	case "openai", "groq":
		generator = openai.New(openai.Options{
			URL:       cfg.APIURL,
			APIKey:    apiKey,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			MaxTokens: cfg.MaxTokens,
		}, log)
	case "gemini":
		if keyErr != nil {
			return ai.NewOracleRater(nil, raterLogger, cfg.MaxLogLength), nil
		}
		g, err := gemini.NewGenerator(ctx, gemini.Options{
			APIKey:     apiKey,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: cfg.MaxRetries,
		}, log)
		if err != nil {
			return nil, err
		}
		generator = g
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}

	return ai.NewOracleRater(generator, raterLogger, cfg.MaxLogLength), nil
}

func newMatcher(ctx context.Context, cfg *OracleConfig, log *zap.Logger) (*matching.Matcher, error) {
	rater, err := newRater(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating oracle rater: %w", err)
	}
	return matching.New(rater, log), nil
}
