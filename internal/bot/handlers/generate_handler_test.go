package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mignatov/zenpicbot/internal/config"
	"github.com/mignatov/zenpicbot/internal/gemini"
	"github.com/mignatov/zenpicbot/internal/intent"
	"github.com/mignatov/zenpicbot/internal/memory"
)

type sentPhoto struct {
	chatID  int64
	caption string
}

// fakeMessenger records delivery attempts instead of calling Telegram.
type fakeMessenger struct {
	messages []string
	photos   []sentPhoto
	edits    []string
	deletes  []int

	messageErr error
	photoErr   error
	nextID     int
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	if f.messageErr != nil {
		return nil, f.messageErr
	}
	f.nextID++
	f.messages = append(f.messages, p.Text)
	return &models.Message{ID: f.nextID, Chat: models.Chat{ID: p.ChatID.(int64)}}, nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.photos = append(f.photos, sentPhoto{chatID: p.ChatID.(int64), caption: p.Caption})
	if f.photoErr != nil {
		return nil, f.photoErr
	}
	f.nextID++
	return &models.Message{ID: f.nextID, Chat: models.Chat{ID: p.ChatID.(int64)}}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.edits = append(f.edits, p.Text)
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, p *bot.DeleteMessageParams) (bool, error) {
	f.deletes = append(f.deletes, p.MessageID)
	return true, nil
}

// fakeGemini records generation calls and returns a canned result or error.
type fakeGemini struct {
	textCalls  int
	imageCalls int
	lastPrompt string
	lastImage  []byte
	lastMime   string
	result     []byte
	err        error
}

func (f *fakeGemini) GenerateFromText(_ context.Context, prompt string) ([]byte, error) {
	f.textCalls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGemini) GenerateFromImage(_ context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	f.lastImage = image
	f.lastMime = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

const (
	testChatID     = int64(42)
	testOperatorID = int64(999)
)

func newTestHandler(gem *fakeGemini) (generateHandler, memory.ImageStore) {
	images := memory.NewImageStore()
	deps := HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Telegram: config.TelegramConfig{Token: "123:abc", OperatorChatID: testOperatorID},
			Messages: config.MessagesConfig{
				Generating:      "generating: %s",
				PromptTooShort:  "too short",
				NoImageToEdit:   "nothing to edit yet",
				GenerationError: "generation failed: %s",
				NoImagePayload:  "no image in response",
				DeliveryError:   "delivery failed: %s",
				PhotoCaption:    "result: %s",
				OperatorCaption: "mirror: %s",
				VariationPrompt: "make an artistic variation",
			},
		},
		GeminiClient: gem,
		Images:       images,
		Intent:       intent.NewClassifier([]string{"отредактируй", "измени"}),
	}
	return generateHandler{deps}, images
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Chat: models.Chat{ID: testChatID},
			From: &models.User{ID: 7},
			Text: text,
		},
	}
}

func photoUpdate(caption string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:      10,
			Chat:    models.Chat{ID: testChatID},
			From:    &models.User{ID: 7},
			Caption: caption,
			Photo: []models.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 800, Height: 800},
			},
		},
	}
}

func failingDownload(t *testing.T) downloadFunc {
	t.Helper()
	return func(context.Context, string) ([]byte, string, error) {
		t.Fatal("download must not be called for text messages")
		return nil, "", nil
	}
}

func TestGenerateRejectsShortPrompt(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("img")}
	h, _ := newTestHandler(gem)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("ок"), failingDownload(t))

	if gem.textCalls+gem.imageCalls != 0 {
		t.Errorf("gateway calls = %d, want 0", gem.textCalls+gem.imageCalls)
	}
	if len(m.messages) != 1 || m.messages[0] != "too short" {
		t.Errorf("messages = %v, want single short-prompt notice", m.messages)
	}
	if len(m.photos) != 0 {
		t.Errorf("photos = %v, want none", m.photos)
	}
}

func TestGenerateEditWithoutPriorImage(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("img")}
	h, _ := newTestHandler(gem)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("Отредактируй: сделай в стиле аниме"), failingDownload(t))

	if gem.textCalls+gem.imageCalls != 0 {
		t.Errorf("gateway calls = %d, want 0", gem.textCalls+gem.imageCalls)
	}
	if len(m.messages) != 1 || m.messages[0] != "nothing to edit yet" {
		t.Errorf("messages = %v, want single no-image notice", m.messages)
	}
}

func TestGenerateFreshSuccess(t *testing.T) {
	t.Parallel()

	generated := []byte("IMG1")
	gem := &fakeGemini{result: generated}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("кот-бариста в неоновом городе"), failingDownload(t))

	if gem.textCalls != 1 || gem.imageCalls != 0 {
		t.Fatalf("gateway calls = text %d image %d, want one text call", gem.textCalls, gem.imageCalls)
	}
	if gem.lastPrompt != "кот-бариста в неоновом городе" {
		t.Errorf("prompt = %q", gem.lastPrompt)
	}

	stored, ok := images.Get(testChatID)
	if !ok || !bytes.Equal(stored, generated) {
		t.Errorf("stored image = %q ok=%v, want generated bytes", stored, ok)
	}

	if len(m.messages) != 1 || m.messages[0] != "generating: кот-бариста в неоновом городе" {
		t.Errorf("messages = %v, want placeholder only", m.messages)
	}
	if len(m.deletes) != 1 {
		t.Errorf("deletes = %v, want placeholder removed", m.deletes)
	}

	if len(m.photos) != 2 {
		t.Fatalf("photos = %v, want chat delivery plus operator mirror", m.photos)
	}
	if m.photos[0].chatID != testChatID || m.photos[0].caption != "result: кот-бариста в неоновом городе" {
		t.Errorf("chat delivery = %+v", m.photos[0])
	}
	if m.photos[1].chatID != testOperatorID || m.photos[1].caption != "mirror: кот-бариста в неоновом городе" {
		t.Errorf("operator mirror = %+v", m.photos[1])
	}
}

func TestGenerateEditUsesStoredImage(t *testing.T) {
	t.Parallel()

	prior := []byte("PRIOR")
	edited := []byte("EDITED")
	gem := &fakeGemini{result: edited}
	h, images := newTestHandler(gem)
	images.Put(testChatID, prior)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("отредактируй: добавь шляпу"), failingDownload(t))

	if gem.imageCalls != 1 || gem.textCalls != 0 {
		t.Fatalf("gateway calls = text %d image %d, want one image call", gem.textCalls, gem.imageCalls)
	}
	if !bytes.Equal(gem.lastImage, prior) {
		t.Errorf("reference image = %q, want prior stored image", gem.lastImage)
	}
	if gem.lastMime == "" {
		t.Error("reference MIME type is empty")
	}

	stored, _ := images.Get(testChatID)
	if !bytes.Equal(stored, edited) {
		t.Errorf("stored image = %q, want edited result", stored)
	}
}

func TestGenerateGatewayFailure(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{err: errors.New("api unavailable")}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("домик в лесу на рассвете"), failingDownload(t))

	if _, ok := images.Get(testChatID); ok {
		t.Error("image stored despite generation failure")
	}
	if len(m.photos) != 0 {
		t.Errorf("photos = %v, want none", m.photos)
	}
	want := fmt.Sprintf("generation failed: %s", gem.err)
	if len(m.edits) != 1 || m.edits[0] != want {
		t.Errorf("edits = %v, want placeholder rewritten to %q", m.edits, want)
	}
	if len(m.deletes) != 0 {
		t.Errorf("deletes = %v, want placeholder kept as the outcome message", m.deletes)
	}
}

func TestGenerateNoImagePayload(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{err: fmt.Errorf("wrapped: %w", gemini.ErrNoImage)}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("нарисуй что-нибудь"), failingDownload(t))

	if _, ok := images.Get(testChatID); ok {
		t.Error("image stored despite empty payload")
	}
	if len(m.edits) != 1 || m.edits[0] != "no image in response" {
		t.Errorf("edits = %v, want the no-payload notice", m.edits)
	}
}

func TestGenerateDeliveryFailure(t *testing.T) {
	t.Parallel()

	generated := []byte("IMG1")
	gem := &fakeGemini{result: generated}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{photoErr: errors.New("chat not found")}

	h.Handle(context.Background(), m, textUpdate("кот в сапогах"), failingDownload(t))

	stored, ok := images.Get(testChatID)
	if !ok || !bytes.Equal(stored, generated) {
		t.Error("image not stored; memory must update even when delivery fails")
	}
	if len(m.photos) != 1 {
		t.Errorf("photo attempts = %d, want 1 (no operator mirror after delivery failure)", len(m.photos))
	}
	want := fmt.Sprintf("delivery failed: %s", m.photoErr)
	if len(m.edits) != 1 || m.edits[0] != want {
		t.Errorf("edits = %v, want %q", m.edits, want)
	}
}

func TestGeneratePhotoWithCaption(t *testing.T) {
	t.Parallel()

	uploaded := []byte("UPLOADED")
	gem := &fakeGemini{result: []byte("IMG1")}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	var downloadedID string
	download := func(_ context.Context, fileID string) ([]byte, string, error) {
		downloadedID = fileID
		return uploaded, "image/jpeg", nil
	}

	h.Handle(context.Background(), m, photoUpdate("сделай в стиле ван гога"), download)

	if downloadedID != "large" {
		t.Errorf("downloaded file = %q, want the highest resolution variant", downloadedID)
	}
	if gem.imageCalls != 1 {
		t.Fatalf("image calls = %d, want 1", gem.imageCalls)
	}
	if gem.lastPrompt != "сделай в стиле ван гога" || !bytes.Equal(gem.lastImage, uploaded) || gem.lastMime != "image/jpeg" {
		t.Errorf("gateway call = prompt %q mime %q", gem.lastPrompt, gem.lastMime)
	}
	if stored, ok := images.Get(testChatID); !ok || !bytes.Equal(stored, gem.result) {
		t.Errorf("stored image = %q ok=%v, want generated result", stored, ok)
	}
}

func TestGeneratePhotoWithoutCaptionUsesDefaultPrompt(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("IMG1")}
	h, _ := newTestHandler(gem)
	m := &fakeMessenger{}

	download := func(context.Context, string) ([]byte, string, error) {
		return []byte("UPLOADED"), "image/png", nil
	}

	h.Handle(context.Background(), m, photoUpdate(""), download)

	if gem.lastPrompt != "make an artistic variation" {
		t.Errorf("prompt = %q, want the default variation prompt", gem.lastPrompt)
	}
}

func TestGeneratePhotoWithShortCaptionRejected(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("IMG1")}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	download := func(context.Context, string) ([]byte, string, error) {
		t.Fatal("download must not be called for a rejected caption")
		return nil, "", nil
	}

	h.Handle(context.Background(), m, photoUpdate("ок"), download)

	if gem.textCalls+gem.imageCalls != 0 {
		t.Errorf("gateway calls = %d, want 0", gem.textCalls+gem.imageCalls)
	}
	if len(m.messages) != 1 || m.messages[0] != "too short" {
		t.Errorf("messages = %v, want single short-prompt notice", m.messages)
	}
	if _, ok := images.Get(testChatID); ok {
		t.Error("image stored despite rejected caption")
	}
}

func TestGenerateMirrorsToOperatorInOwnChat(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("IMG1")}
	h, _ := newTestHandler(gem)
	h.deps.Config.Telegram.OperatorChatID = testChatID
	m := &fakeMessenger{}

	h.Handle(context.Background(), m, textUpdate("кот в сапогах"), failingDownload(t))

	if len(m.photos) != 2 {
		t.Fatalf("photo sends = %d, want chat delivery plus operator mirror", len(m.photos))
	}
	if m.photos[1].chatID != testChatID || m.photos[1].caption != "mirror: кот в сапогах" {
		t.Errorf("operator mirror = %+v, want copy in the operator's own chat", m.photos[1])
	}
}

func TestGeneratePhotoDownloadFailure(t *testing.T) {
	t.Parallel()

	gem := &fakeGemini{result: []byte("IMG1")}
	h, images := newTestHandler(gem)
	m := &fakeMessenger{}

	downloadErr := errors.New("file expired")
	download := func(context.Context, string) ([]byte, string, error) {
		return nil, "", downloadErr
	}

	h.Handle(context.Background(), m, photoUpdate("вариация"), download)

	if gem.textCalls+gem.imageCalls != 0 {
		t.Errorf("gateway calls = %d, want 0", gem.textCalls+gem.imageCalls)
	}
	if _, ok := images.Get(testChatID); ok {
		t.Error("image stored despite download failure")
	}
	want := fmt.Sprintf("generation failed: %s", downloadErr)
	if len(m.messages) != 1 || m.messages[0] != want {
		t.Errorf("messages = %v, want %q", m.messages, want)
	}
}
