package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mignatov/zenpicbot/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
telegram:
  token: "123:abc"
gemini:
  api_key: "sk-test"
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logger.Level != config.DefaultLogLevel {
		t.Errorf("Logger.Level = %q, want default %q", cfg.Logger.Level, config.DefaultLogLevel)
	}
	if cfg.Gemini.Model != config.DefaultGeminiModel {
		t.Errorf("Gemini.Model = %q, want default %q", cfg.Gemini.Model, config.DefaultGeminiModel)
	}
	if cfg.Database.Path != config.DefaultDBPath {
		t.Errorf("Database.Path = %q, want default %q", cfg.Database.Path, config.DefaultDBPath)
	}
	if len(cfg.Intent.EditPrefixes) == 0 {
		t.Error("Intent.EditPrefixes is empty, want defaults")
	}
	if cfg.Messages.PromptTooShort == "" {
		t.Error("Messages.PromptTooShort is empty, want default text")
	}
	if cfg.Telegram.OperatorChatID != 0 {
		t.Errorf("Telegram.OperatorChatID = %d, want 0 (unset)", cfg.Telegram.OperatorChatID)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logger:
  level: debug
  json: false
telegram:
  token: "123:abc"
  operator_chat_id: 99887766
gemini:
  api_key: "sk-test"
  base_url: "https://zenmux.ai/api/vertex-ai"
  model: "google/gemini-3-pro-image-preview-free"
intent:
  edit_prefixes: ["edit:", "измени"]
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.JSON {
		t.Errorf("logger config = %+v, want level=debug json=false", cfg.Logger)
	}
	if cfg.Telegram.OperatorChatID != 99887766 {
		t.Errorf("OperatorChatID = %d, want 99887766", cfg.Telegram.OperatorChatID)
	}
	if cfg.Gemini.BaseURL != "https://zenmux.ai/api/vertex-ai" {
		t.Errorf("BaseURL = %q", cfg.Gemini.BaseURL)
	}
	if len(cfg.Intent.EditPrefixes) != 2 || cfg.Intent.EditPrefixes[0] != "edit:" {
		t.Errorf("EditPrefixes = %v", cfg.Intent.EditPrefixes)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing telegram token",
			content: `
gemini:
  api_key: "sk-test"
`,
		},
		{
			name: "missing gemini api key",
			content: `
telegram:
  token: "123:abc"
`,
		},
		{
			name: "invalid log level",
			content: `
logger:
  level: verbose
telegram:
  token: "123:abc"
gemini:
  api_key: "sk-test"
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tc.content)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("LoadConfig() succeeded, want validation error")
			}
		})
	}
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	// No t.Parallel: t.Setenv forbids it.
	t.Setenv("BOT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("BOT_GEMINI_API_KEY", "sk-env")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() with absent file error = %v", err)
	}
	if cfg.Gemini.APIKey != "sk-env" {
		t.Errorf("Gemini.APIKey = %q, want value from environment", cfg.Gemini.APIKey)
	}
}
