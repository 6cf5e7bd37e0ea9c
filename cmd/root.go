package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ai-hr"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	Interview  *InterviewConfig  `mapstructure:"interview"`
	Evaluation *EvaluationConfig `mapstructure:"evaluation"`
	Screening  *ScreeningConfig  `mapstructure:"screening"`
	Questions  *QuestionsConfig  `mapstructure:"questions"`
	OutputDir  string            `mapstructure:"output-dir"`
}

type AIConfig struct {
	Provider   string            `mapstructure:"provider"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	OpenRouter *OpenRouterConfig `mapstructure:"openrouter"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OpenRouterConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	BaseURL      string `mapstructure:"base-url"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type InterviewConfig struct {
	Vacancy       string        `mapstructure:"vacancy"`
	QuestionsFile string        `mapstructure:"questions-file"`
	InlineScoring bool          `mapstructure:"inline-scoring"`
	CallTimeout   time.Duration `mapstructure:"call-timeout"`
	Evaluate      bool          `mapstructure:"evaluate"`
	Summary       bool          `mapstructure:"summary"`
}

type EvaluationConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type ScreeningConfig struct {
	ResumesDir  string `mapstructure:"resumes-dir"`
	VacancyFile string `mapstructure:"vacancy-file"`
	Concurrency int    `mapstructure:"concurrency"`
}

type QuestionsConfig struct {
	VacancyFile string `mapstructure:"vacancy-file"`
	ResumeFile  string `mapstructure:"resume-file"`
	PerCategory int    `mapstructure:"per-category"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ai-hr screens résumés, drafts interview questions and runs LLM-driven interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key":          "GEMINI_API_KEY",
		"ai.gemini.api-key-file":     "GEMINI_API_KEY_FILE",
		"ai.openrouter.api-key":      "OPENROUTER_API_KEY",
		"ai.openrouter.api-key-file": "OPENROUTER_API_KEY_FILE",
		"ai.provider":                "AI_HR_PROVIDER",
		"output-dir":                 "AI_HR_OUTPUT_DIR",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("ai.provider", providerGemini)
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("interview.call-timeout", "60s")
	viper.SetDefault("interview.evaluate", true)
	viper.SetDefault("interview.summary", true)
	viper.SetDefault("evaluation.concurrency", 1)
	viper.SetDefault("screening.concurrency", 1)
	viper.SetDefault("questions.per-category", 3)
	viper.SetDefault("output-dir", ".")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ai-hr.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "directory for result files")
	rootCmd.PersistentFlags().String("provider", "", "ai provider: gemini or openrouter")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("output-dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))
}

func initConfig() {
	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// We can't proceed if the given config is missing or broken.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.AI.OpenRouter == nil {
		config.AI.OpenRouter = &OpenRouterConfig{}
	}
	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.Evaluation == nil {
		config.Evaluation = &EvaluationConfig{}
	}
	if config.Screening == nil {
		config.Screening = &ScreeningConfig{}
	}
	if config.Questions == nil {
		config.Questions = &QuestionsConfig{}
	}

	return config, nil
}
