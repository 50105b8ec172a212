package handlers

import (
	"log/slog"

	"github.com/mignatov/zenpicbot/internal/config"
	"github.com/mignatov/zenpicbot/internal/database"
	"github.com/mignatov/zenpicbot/internal/gemini"
	"github.com/mignatov/zenpicbot/internal/intent"
	"github.com/mignatov/zenpicbot/internal/memory"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	GeminiClient gemini.Client
	Images       memory.ImageStore
	Intent       *intent.Classifier
}
