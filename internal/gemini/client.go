// Package gemini implements the image-generation gateway backed by Google's
// Gemini API. It turns prompts (optionally conditioned on a reference image)
// into raw image bytes.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/mignatov/zenpicbot/internal/config"
)

// Client defines the generation operations used by the bot handlers.
type Client interface {
	// GenerateFromText produces an image from a text prompt alone.
	GenerateFromText(ctx context.Context, prompt string) ([]byte, error)

	// GenerateFromImage produces an image from a text prompt conditioned on
	// a reference image.
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error)
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	modelName   string
}

// NewClient creates the Gemini client once per process. The API key is
// required; an optional base URL routes requests through a proxy endpoint
// (e.g. Zenmux) instead of the default Gemini API host.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: "v1",
		}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		modelName:   cfg.Model,
	}, nil
}

func (c *sdkClient) GenerateFromText(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	c.log.DebugContext(ctx, "Generating image from text", "prompt_length", len(prompt))

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	return c.generate(ctx, contents)
}

func (c *sdkClient) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("reference image bytes are required")
	}
	if mimeType == "" {
		return nil, fmt.Errorf("reference image MIME type is required")
	}

	c.log.DebugContext(ctx, "Generating image from reference image",
		"prompt_length", len(prompt), "image_size", len(image), "mime_type", mimeType)

	// Reference image first, then the instruction, matching the order the
	// image models expect.
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	return c.generate(ctx, contents)
}

// generate performs exactly one model call and routes the response through
// the codec. Failures are never retried; the first error is reported upward.
func (c *sdkClient) generate(ctx context.Context, contents []*genai.Content) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return nil, fmt.Errorf("generation API call failed: %w", err)
	}

	image, err := imageFromResponse(resp)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini response carried no image payload", "error", err)
		return nil, err
	}

	return image, nil
}
