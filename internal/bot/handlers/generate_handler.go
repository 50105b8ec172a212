package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mignatov/zenpicbot/internal/database"
	"github.com/mignatov/zenpicbot/internal/gemini"
	"github.com/mignatov/zenpicbot/internal/intent"
)

// minPromptRunes is the minimum length of a usable text prompt, counted in
// runes so short Cyrillic prompts are measured correctly.
const minPromptRunes = 3

// messenger is the subset of the Telegram client used for delivering
// messages. *bot.Bot satisfies it.
type messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
}

// downloadFunc fetches the bytes and MIME type of a Telegram file.
type downloadFunc func(ctx context.Context, fileID string) (data []byte, mimeType string, err error)

// NewGenerateHandler returns the default handler: every non-command message
// is treated as an image-generation request. Text messages produce a fresh
// image or an edit of the chat's last one; photo messages produce a variation
// of the attached photo.
func NewGenerateHandler(deps HandlerDeps) bot.HandlerFunc {
	h := generateHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Handle(ctx, b, update, func(dlCtx context.Context, fileID string) ([]byte, string, error) {
			return DownloadPhoto(dlCtx, b, deps.Config.Telegram.Token, fileID)
		})
	}
}

// generateHandler processes generation requests using injected dependencies.
type generateHandler struct {
	deps HandlerDeps
}

func (h generateHandler) Handle(ctx context.Context, m messenger, update *models.Update, download downloadFunc) {
	log := h.deps.Logger.With("handler", "generate")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}

	if len(msg.Photo) > 0 {
		h.handlePhoto(ctx, m, msg, download)
		return
	}
	h.handleText(ctx, m, msg)
}

// handleText runs the text path: validate the prompt, classify the intent,
// and run the generation pipeline in the selected mode.
func (h generateHandler) handleText(ctx context.Context, m messenger, msg *models.Message) {
	log := h.deps.Logger.With("handler", "generate")
	chatID := msg.Chat.ID

	prompt := strings.TrimSpace(msg.Text)
	if utf8.RuneCountInString(prompt) < minPromptRunes {
		log.InfoContext(ctx, "Rejecting too-short prompt", "chat_id", chatID, "prompt_runes", utf8.RuneCountInString(prompt))
		if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.deps.Config.Messages.PromptTooShort}); err != nil {
			log.ErrorContext(ctx, "Failed to send short-prompt message", "error", err, "chat_id", chatID)
		}
		return
	}

	lastImage, hasPrior := h.deps.Images.Get(chatID)
	outcome := h.deps.Intent.Classify(prompt, hasPrior)
	log.InfoContext(ctx, "Classified generation request", "chat_id", chatID, "outcome", outcome.String())

	switch outcome {
	case intent.EditRequestedButNoImage:
		if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.deps.Config.Messages.NoImageToEdit}); err != nil {
			log.ErrorContext(ctx, "Failed to send no-image-to-edit message", "error", err, "chat_id", chatID)
		}
		return

	case intent.EditLastImage:
		mimeType := http.DetectContentType(lastImage)
		h.runPipeline(ctx, m, msg, prompt, database.ModeImage, func(genCtx context.Context) ([]byte, error) {
			return h.deps.GeminiClient.GenerateFromImage(genCtx, prompt, lastImage, mimeType)
		})

	default:
		h.runPipeline(ctx, m, msg, prompt, database.ModeText, func(genCtx context.Context) ([]byte, error) {
			return h.deps.GeminiClient.GenerateFromText(genCtx, prompt)
		})
	}
}

// handlePhoto runs the photo path: the attached photo becomes the reference
// image, and the caption (or the default variation prompt) drives the edit.
// A caption that is present but below the minimum prompt length is rejected
// like any other prompt; only a fully absent caption gets the default.
func (h generateHandler) handlePhoto(ctx context.Context, m messenger, msg *models.Message, download downloadFunc) {
	log := h.deps.Logger.With("handler", "generate")
	chatID := msg.Chat.ID

	prompt := strings.TrimSpace(msg.Caption)
	if prompt == "" {
		prompt = h.deps.Config.Messages.VariationPrompt
	} else if utf8.RuneCountInString(prompt) < minPromptRunes {
		log.InfoContext(ctx, "Rejecting too-short caption", "chat_id", chatID, "prompt_runes", utf8.RuneCountInString(prompt))
		if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.deps.Config.Messages.PromptTooShort}); err != nil {
			log.ErrorContext(ctx, "Failed to send short-prompt message", "error", err, "chat_id", chatID)
		}
		return
	}

	best := BestPhoto(msg.Photo)
	log.DebugContext(ctx, "Selected best quality photo", "file_id", best.FileID, "width", best.Width, "height", best.Height)

	data, mimeType, err := download(ctx, best.FileID)
	if err != nil {
		log.ErrorContext(ctx, "Photo download failed", "error", err, "chat_id", chatID, "file_id", best.FileID)
		text := fmt.Sprintf(h.deps.Config.Messages.GenerationError, err)
		if _, sendErr := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); sendErr != nil {
			log.ErrorContext(ctx, "Failed to send download error message", "error", sendErr, "chat_id", chatID)
		}
		return
	}

	h.runPipeline(ctx, m, msg, prompt, database.ModeImage, func(genCtx context.Context) ([]byte, error) {
		return h.deps.GeminiClient.GenerateFromImage(genCtx, prompt, data, mimeType)
	})
}

// runPipeline performs one generation attempt end to end: placeholder, a
// single gateway call, memory update, delivery, placeholder cleanup, operator
// mirror, audit record. Nothing is ever retried.
func (h generateHandler) runPipeline(ctx context.Context, m messenger, msg *models.Message, prompt, mode string, generate func(context.Context) ([]byte, error)) {
	log := h.deps.Logger.With("handler", "generate")
	chatID := msg.Chat.ID
	userID := msg.From.ID
	startTime := time.Now()

	placeholder, err := m.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf(h.deps.Config.Messages.Generating, prompt),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send placeholder message", "error", err, "chat_id", chatID)
		placeholder = nil
	}

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	image, genErr := generate(genCtx)
	cancel()

	if genErr != nil {
		log.ErrorContext(ctx, "Image generation failed", "error", genErr, "chat_id", chatID, "mode", mode)

		failText := fmt.Sprintf(h.deps.Config.Messages.GenerationError, genErr)
		if errors.Is(genErr, gemini.ErrNoImage) {
			failText = h.deps.Config.Messages.NoImagePayload
		}
		h.replacePlaceholder(ctx, m, chatID, placeholder, failText)
		h.recordGeneration(ctx, chatID, userID, prompt, mode, database.StatusGenerationFailed, genErr, time.Since(startTime))
		return
	}

	// Remember the result before delivery: the chat's last image must be
	// editable even when sending it to the chat fails.
	h.deps.Images.Put(chatID, image)

	sendCtx, cancelSend := context.WithTimeout(ctx, sendMessageTimeout)
	_, sendErr := m.SendPhoto(sendCtx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "image.png", Data: bytes.NewReader(image)},
		Caption: fmt.Sprintf(h.deps.Config.Messages.PhotoCaption, prompt),
	})
	cancelSend()

	if sendErr != nil {
		log.ErrorContext(ctx, "Failed to deliver generated image", "error", sendErr, "chat_id", chatID)
		h.replacePlaceholder(ctx, m, chatID, placeholder, fmt.Sprintf(h.deps.Config.Messages.DeliveryError, sendErr))
		h.recordGeneration(ctx, chatID, userID, prompt, mode, database.StatusDeliveryFailed, sendErr, time.Since(startTime))
		return
	}

	log.InfoContext(ctx, "Delivered generated image", "chat_id", chatID, "mode", mode, "image_size", len(image))

	if placeholder != nil {
		if _, err := m.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: placeholder.ID}); err != nil {
			log.WarnContext(ctx, "Failed to delete placeholder message", "error", err, "chat_id", chatID, "message_id", placeholder.ID)
		}
	}

	h.notifyOperator(ctx, m, chatID, prompt, image)
	h.recordGeneration(ctx, chatID, userID, prompt, mode, database.StatusOK, nil, time.Since(startTime))
}

// replacePlaceholder rewrites the placeholder with the outcome text, falling
// back to a fresh message when there is no placeholder or the edit fails.
func (h generateHandler) replacePlaceholder(ctx context.Context, m messenger, chatID int64, placeholder *models.Message, text string) {
	log := h.deps.Logger.With("handler", "generate")

	if placeholder != nil {
		_, err := m.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: placeholder.ID,
			Text:      text,
		})
		if err == nil {
			return
		}
		log.WarnContext(ctx, "Failed to edit placeholder message, sending new one", "error", err, "chat_id", chatID)
	}

	if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send outcome message", "error", err, "chat_id", chatID)
	}
}

// notifyOperator mirrors a successfully delivered image to the operator chat.
// A mirror failure never affects the user-facing outcome.
func (h generateHandler) notifyOperator(ctx context.Context, m messenger, chatID int64, prompt string, image []byte) {
	operatorID := h.deps.Config.Telegram.OperatorChatID
	if operatorID == 0 {
		return
	}

	log := h.deps.Logger.With("handler", "generate")
	_, err := m.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  operatorID,
		Photo:   &models.InputFileUpload{Filename: "image.png", Data: bytes.NewReader(image)},
		Caption: fmt.Sprintf(h.deps.Config.Messages.OperatorCaption, prompt),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to mirror image to operator chat", "error", err, "operator_chat_id", operatorID)
	}
}

// recordGeneration writes a best-effort audit record. Failures are logged
// and never surface to the user.
func (h generateHandler) recordGeneration(ctx context.Context, chatID, userID int64, prompt, mode, status string, cause error, duration time.Duration) {
	if h.deps.Store == nil {
		return
	}
	log := h.deps.Logger.With("handler", "generate")

	gen := &database.Generation{
		ChatID:     chatID,
		UserID:     userID,
		Prompt:     prompt,
		Mode:       mode,
		Status:     status,
		DurationMS: duration.Milliseconds(),
	}
	if cause != nil {
		gen.Error = sql.NullString{String: cause.Error(), Valid: true}
	}

	dbCtx, cancel := context.WithTimeout(ctx, auditSaveTimeout)
	defer cancel()
	if err := h.deps.Store.SaveGeneration(dbCtx, gen); err != nil {
		log.ErrorContext(ctx, "Failed to save generation audit record", "error", err, "chat_id", chatID)
	}
}
