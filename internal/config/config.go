// Package config provides configuration loading, defaulting, and validation
// for the bot. Values come from a YAML file overlaid with BOT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines all application configuration parameters.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Intent    IntentConfig    `mapstructure:"intent"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the optional operator chat that
// mirrors every generated image. BotInfo is filled in at startup from GetMe.
type TelegramConfig struct {
	Token          string `mapstructure:"token" validate:"required"`
	OperatorChatID int64  `mapstructure:"operator_chat_id"`

	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds the generation API credentials and model selection.
// BaseURL is optional and routes calls through a proxy endpoint.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"  validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"    validate:"required"`
}

// IntentConfig carries the edit-phrase prefixes recognized by the intent
// classifier. The matching itself lives in the intent package.
type IntentConfig struct {
	EditPrefixes []string `mapstructure:"edit_prefixes" validate:"min=1,dive,required"`
}

// MessagesConfig holds every user-visible message string.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"           validate:"required"`
	Help            string `mapstructure:"help"              validate:"required"`
	Generating      string `mapstructure:"generating"        validate:"required"`
	PromptTooShort  string `mapstructure:"prompt_too_short"  validate:"required"`
	NoImageToEdit   string `mapstructure:"no_image_to_edit"  validate:"required"`
	GenerationError string `mapstructure:"generation_error"  validate:"required"`
	NoImagePayload  string `mapstructure:"no_image_payload"  validate:"required"`
	DeliveryError   string `mapstructure:"delivery_error"    validate:"required"`
	PhotoCaption    string `mapstructure:"photo_caption"     validate:"required"`
	OperatorCaption string `mapstructure:"operator_caption"  validate:"required"`
	VariationPrompt string `mapstructure:"variation_prompt"  validate:"required"`
	Unauthorized    string `mapstructure:"unauthorized"      validate:"required"`
	StatsHeader     string `mapstructure:"stats_header"      validate:"required"`
	StatsEmpty      string `mapstructure:"stats_empty"       validate:"required"`
	StatsError      string `mapstructure:"stats_error"       validate:"required"`
}

// DatabaseConfig holds the SQLite path for the generation audit log.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LoadConfig reads configuration from the given YAML file (which may be
// absent), overlays BOT_* environment variables, applies defaults, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets usually arrive via the environment only; bind them so
	// Unmarshal sees them even when the config file omits the keys.
	for _, key := range []string{
		"telegram.token",
		"telegram.operator_chat_id",
		"gemini.api_key",
		"gemini.base_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %q: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus environment variables
		// must be enough to run.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(errors.Unwrap(err)) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
