package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/logger"
)

// setup creates the logger and loads the configuration for a command.
func setup(command string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ai-hr",
		zap.String("version", version),
		zap.String("command", command),
	)

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func redacted(config *Config) *Config {
	c := *config
	ai := *config.AI
	gem := *config.AI.Gemini
	or := *config.AI.OpenRouter
	if gem.APIKey != "" {
		gem.APIKey = "***"
	}
	if or.APIKey != "" {
		or.APIKey = "***"
	}
	ai.Gemini, ai.OpenRouter = &gem, &or
	c.AI = &ai
	return &c
}
