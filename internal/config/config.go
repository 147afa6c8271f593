package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendFile    = "file"
	BackendBolt    = "bolt"
	BackendRedis   = "redis"
	BackendMongoDB = "mongodb"
	BackendMemory  = "memory"
)

// Config holds all pipeline configuration
type Config struct {
	// Input and output
	InputFile   string
	OutputDir   string
	ErrorLog    string
	MetricsFile string
	Workbook    bool

	// Classifier
	Provider          string
	Model             string
	GoogleAIStudioKey string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	BatchSize         int
	MaxAttempts       int
	MaxOutputTokens   int
	RetryBackoff      time.Duration

	// Checkpoint
	CheckpointBackend string
	CheckpointPath    string
	RedisURL          string
	RedisKey          string
	MongoURI          string
	MongoDatabase     string

	// Publishing and serving
	DatabaseURL string
	ThemesTable string
	HTTPAddress string
}

// LoadConfig loads configuration from defaults, an optional config file and
// environment variables. configFile overrides the config file search.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"InputFile":         "INPUT_FILE",
		"OutputDir":         "OUTPUT_DIR",
		"ErrorLog":          "ERROR_LOG",
		"MetricsFile":       "METRICS_FILE",
		"Workbook":          "WRITE_WORKBOOK",
		"Provider":          "CLASSIFIER_PROVIDER",
		"Model":             "CLASSIFIER_MODEL",
		"GoogleAIStudioKey": "GOOGLE_AI_STUDIO_KEY",
		"OpenAIAPIKey":      "OPENAI_API_KEY",
		"AnthropicAPIKey":   "ANTHROPIC_API_KEY",
		"BatchSize":         "BATCH_SIZE",
		"MaxAttempts":       "MAX_RETRIES",
		"MaxOutputTokens":   "MAX_OUTPUT_TOKENS",
		"RetryBackoff":      "RETRY_BACKOFF",
		"CheckpointBackend": "CHECKPOINT_BACKEND",
		"CheckpointPath":    "CHECKPOINT_PATH",
		"RedisURL":          "REDIS_URL",
		"RedisKey":          "REDIS_KEY",
		"MongoURI":          "MONGO_URI",
		"MongoDatabase":     "MONGO_DATABASE",
		"DatabaseURL":       "DATABASE_URL",
		"ThemesTable":       "THEMES_TABLE",
		"HTTPAddress":       "HTTP_ADDRESS",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fika_config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.fika")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().Msgf("Config loaded: InputFile=%s, OutputDir=%s, Provider=%s, CheckpointBackend=%s",
		config.InputFile, config.OutputDir, config.Provider, config.CheckpointBackend)

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("InputFile", "text/categories.txt")
	v.SetDefault("OutputDir", "text")
	v.SetDefault("Workbook", true)

	v.SetDefault("Provider", ProviderGemini)
	v.SetDefault("BatchSize", 10)
	v.SetDefault("MaxAttempts", 3)
	v.SetDefault("MaxOutputTokens", 1024)
	v.SetDefault("RetryBackoff", "0s")

	v.SetDefault("CheckpointBackend", BackendFile)
	v.SetDefault("RedisKey", "fika:ai_assignments")
	v.SetDefault("MongoDatabase", "fika")

	v.SetDefault("ThemesTable", "themes")
	v.SetDefault("HTTPAddress", ":8082")
}

// validateConfig checks values that are wrong regardless of the command being run
func validateConfig(config *Config) error {
	var problems []string

	switch config.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		problems = append(problems, fmt.Sprintf("unknown CLASSIFIER_PROVIDER %q", config.Provider))
	}

	switch config.CheckpointBackend {
	case BackendFile, BackendBolt, BackendRedis, BackendMongoDB, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown CHECKPOINT_BACKEND %q", config.CheckpointBackend))
	}

	if config.BatchSize <= 0 {
		problems = append(problems, "BATCH_SIZE must be positive")
	}
	if config.MaxAttempts <= 0 {
		problems = append(problems, "MAX_RETRIES must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireClassifier reports the credential missing for the configured provider.
func (c *Config) RequireClassifier() error {
	var missingVars []string

	switch c.Provider {
	case ProviderGemini:
		if c.GoogleAIStudioKey == "" {
			missingVars = append(missingVars, "GOOGLE_AI_STUDIO_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missingVars = append(missingVars, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	}

	return missing(missingVars)
}

// RequireCheckpoint reports the connection settings missing for the configured backend.
func (c *Config) RequireCheckpoint() error {
	var missingVars []string

	switch c.CheckpointBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			missingVars = append(missingVars, "REDIS_URL")
		}
	case BackendMongoDB:
		if c.MongoURI == "" {
			missingVars = append(missingVars, "MONGO_URI")
		}
	}

	return missing(missingVars)
}

// RequirePublish reports whether the database URL is missing.
func (c *Config) RequirePublish() error {
	if c.DatabaseURL == "" {
		return missing([]string{"DATABASE_URL"})
	}
	return nil
}

// ErrorLogPath is ERROR_LOG or classify_errors.log inside the output directory.
func (c *Config) ErrorLogPath() string {
	if c.ErrorLog != "" {
		return c.ErrorLog
	}
	return filepath.Join(c.OutputDir, artifacts.ErrorLogFileName)
}

func missing(vars []string) error {
	if len(vars) == 0 {
		return nil
	}
	return fmt.Errorf("missing required environment variables: %s", strings.Join(vars, ", "))
}
