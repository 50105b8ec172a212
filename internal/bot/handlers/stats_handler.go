package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mignatov/zenpicbot/internal/database"
)

// NewStatsHandler returns a handler for the operator-only /stats command.
// It reports generation counts by status from the audit log.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	h := statsHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Handle(ctx, b, update)
	}
}

// statsHandler processes the /stats command using injected dependencies.
type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, m messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /stats command", "chat_id", chatID, "user_id", update.Message.From.ID)

	counts, err := h.deps.Store.CountByStatus(ctx, time.Time{})
	if err != nil {
		log.ErrorContext(ctx, "Failed to load generation statistics", "error", err)
		if _, sendErr := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.deps.Config.Messages.StatsError}); sendErr != nil {
			log.ErrorContext(ctx, "Failed to send stats error message", "error", sendErr, "chat_id", chatID)
		}
		return
	}

	text := FormatStats(h.deps.Config.Messages.StatsHeader, h.deps.Config.Messages.StatsEmpty, counts)
	if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send stats message", "error", err, "chat_id", chatID)
	}
}

// FormatStats renders status counts into a plain-text report. It returns the
// empty-report message when there are no counts.
func FormatStats(header, empty string, counts []database.StatusCount) string {
	if len(counts) == 0 {
		return empty
	}

	var sb strings.Builder
	sb.WriteString(header)
	for _, c := range counts {
		sb.WriteString(fmt.Sprintf("\n%s: %d", c.Status, c.Count))
	}
	return sb.String()
}
