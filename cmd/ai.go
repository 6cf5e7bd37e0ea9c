package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/ai/gemini"
	"github.com/spigell/ai-hr/internal/ai/openrouter"
	"github.com/spigell/ai-hr/internal/logger"
	"github.com/spigell/ai-hr/internal/secrets"
)

const (
	providerGemini     = "gemini"
	providerOpenRouter = "openrouter"
)

// newCompleter builds the configured provider. singleAttempt disables
// provider-side retries; the interview and evaluation paths never retry.
func newCompleter(ctx context.Context, cfg *AIConfig, log *zap.Logger, singleAttempt bool) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		genLogger := logger.WithCommonFields(log, providerGemini, cfg.Gemini.Model).With(
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		)

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}
		generator.SetMaxLogLength(cfg.Gemini.MaxLogLength)

		if singleAttempt {
			return generator.SingleAttempt(), nil
		}
		return generator, nil

	case providerOpenRouter:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: cfg.OpenRouter.APIKey,
			File:  cfg.OpenRouter.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openrouter.api-key-file, OPENROUTER_API_KEY_FILE or OPENROUTER_API_KEY)", err)
		}

		client, err := openrouter.New(apiKey, cfg.OpenRouter.BaseURL, cfg.OpenRouter.Model,
			logger.WithCommonFields(log, providerOpenRouter, cfg.OpenRouter.Model))
		if err != nil {
			return nil, err
		}
		client.SetMaxLogLength(cfg.OpenRouter.MaxLogLength)
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// mustCompleter is newCompleter for command entry points: configuration
// problems are fatal.
func mustCompleter(ctx context.Context, cfg *AIConfig, log *zap.Logger, singleAttempt bool) ai.Completer {
	completer, err := newCompleter(ctx, cfg, log, singleAttempt)
	if err != nil {
		log.Fatal("creating ai provider",
			zap.Error(err),
			zap.String("provider", cfg.Provider),
			zap.String("hint", "check the ai section of the configuration file"),
		)
	}
	return completer
}
