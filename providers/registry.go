package providers

import (
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/config"
	"github.com/ai-visibility/backend/visibility"
)

// NewRegistry binds a provider to every platform. chatgpt and searchgpt use
// the OpenAI API when a key is configured; everything else is simulated.
func NewRegistry(cfg config.OpenAIConfig, logger *zap.Logger) (*visibility.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("providers")

	var openAIBacked visibility.TextProvider = Simulated{}
	if cfg.APIKey != "" {
		openAIBacked = NewOpenAI(cfg)
		logger.Info("OpenAI provider enabled", zap.String("model", cfg.Model))
	} else {
		logger.Warn("no OpenAI API key configured, chatgpt and searchgpt answers are simulated")
	}

	registry := visibility.NewRegistry()
	if err := registry.Register(Instrument(openAIBacked, logger), visibility.ChatGPT, visibility.SearchGPT); err != nil {
		return nil, err
	}
	if err := registry.Register(Instrument(Simulated{}, logger), visibility.Claude, visibility.Perplexity, visibility.ArcSearch); err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}
