// Package tasks implements scheduled tasks for the zenpicbot Telegram bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/mignatov/zenpicbot/internal/config"
	"github.com/mignatov/zenpicbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
// It provides access to logging, the audit store, the Telegram client,
// and configuration.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	TgBot  *tgbot.Bot
	Config *config.Config
}
