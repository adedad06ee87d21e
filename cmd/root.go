package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zigzig/talent-matcher/internal/api"
)

const (
	app       = "talent-matcher"
	envPrefix = "TALENT_MATCHER"
)

type Config struct {
	Storage  *StorageConfig  `mapstructure:"storage"`
	AI       *AIConfig       `mapstructure:"ai"`
	Matching *MatchingConfig `mapstructure:"matching"`
	HTTP     *api.Config     `mapstructure:"http"`
	Rematch  *RematchConfig  `mapstructure:"rematch"`
}

type StorageConfig struct {
	// Driver is memory or postgres. Postgres also needs Redis for matches and cache.
	Driver      string `mapstructure:"driver"`
	SeedFile    string `mapstructure:"seed-file"`
	DatabaseURL string `mapstructure:"database-url"`
	RedisURL    string `mapstructure:"redis-url"`
	Migrate     bool   `mapstructure:"migrate"`
}

type AIConfig struct {
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max-tokens"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`

	// Models are tried in order, written as provider:model.
	ScoringModels    []string      `mapstructure:"scoring-models"`
	ExtractionModels []string      `mapstructure:"extraction-models"`
	Groq             *GroqConfig   `mapstructure:"groq"`
	Gemini           *GeminiConfig `mapstructure:"gemini"`
}

type GroqConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type MatchingConfig struct {
	BatchSize  int           `mapstructure:"batch-size"`
	BatchDelay time.Duration `mapstructure:"batch-delay"`
	MinScore   float64       `mapstructure:"min-score"`

	// Scorer is llm or heuristic.
	Scorer       string   `mapstructure:"scorer"`
	ExcludeUsers []string `mapstructure:"exclude-users"`
}

type RematchConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Spec       string `mapstructure:"spec"`
	RunOnStart bool   `mapstructure:"run-on-start"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "talent-matcher scores published portfolios against job postings and serves the recruiter API",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.seed-file", "")
	v.SetDefault("storage.database-url", "")
	v.SetDefault("storage.redis-url", "")
	v.SetDefault("storage.migrate", true)

	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.max-tokens", 1500)
	v.SetDefault("ai.requests-per-second", 2)
	v.SetDefault("ai.scoring-models", []string{"groq:llama-3.3-70b-versatile", "groq:llama-3.1-8b-instant"})
	v.SetDefault("ai.extraction-models", []string{"groq:llama-3.3-70b-versatile", "groq:llama-3.1-8b-instant"})
	v.SetDefault("ai.groq.api-key", "")
	v.SetDefault("ai.groq.api-key-file", "")
	v.SetDefault("ai.groq.base-url", "")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.max-retries", 3)

	v.SetDefault("matching.batch-size", 10)
	v.SetDefault("matching.batch-delay", "500ms")
	v.SetDefault("matching.min-score", 20)
	v.SetDefault("matching.scorer", scorerLLM)
	v.SetDefault("matching.exclude-users", []string{})

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allow-origins", []string{})
	v.SetDefault("http.compute-timeout", "10m")

	v.SetDefault("rematch.enabled", false)
	v.SetDefault("rematch.spec", "@every 6h")
	v.SetDefault("rematch.run-on-start", false)
}

func initConfig() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for key, env := range map[string]string{
		"ai.groq.api-key":      "GROQ_API_KEY",
		"ai.gemini.api-key":    "GEMINI_API_KEY",
		"storage.database-url": "DATABASE_URL",
		"storage.redis-url":    "REDIS_URL",
	} {
		if err := viper.BindEnv(key, envPrefix+"_"+envKey(key), env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults and environment are enough.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
