package tasks

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/mignatov/zenpicbot/internal/bot/handlers"
)

// reportWindow is how far back the daily report looks.
const reportWindow = 24 * time.Hour

// newDailyReportTask creates the scheduled task function that sends a daily
// generation summary to the operator chat.
func newDailyReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_report")

	return func(ctx context.Context) error {
		operatorID := deps.Config.Telegram.OperatorChatID
		if operatorID == 0 {
			log.InfoContext(ctx, "No operator chat configured, skipping daily report")
			return nil
		}

		since := time.Now().UTC().Add(-reportWindow)
		counts, err := deps.Store.CountByStatus(ctx, since)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load generation counts for daily report", "error", err)
			return fmt.Errorf("daily report aggregation failed: %w", err)
		}

		if len(counts) == 0 {
			log.InfoContext(ctx, "No generations in the reporting window, skipping daily report")
			return nil
		}

		text := handlers.FormatStats(deps.Config.Messages.StatsHeader, deps.Config.Messages.StatsEmpty, counts)
		if _, err := deps.TgBot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: operatorID, Text: text}); err != nil {
			log.ErrorContext(ctx, "Failed to send daily report", "error", err, "operator_chat_id", operatorID)
			return fmt.Errorf("daily report delivery failed: %w", err)
		}

		log.InfoContext(ctx, "Daily report sent", "operator_chat_id", operatorID, "statuses", len(counts))
		return nil
	}
}
