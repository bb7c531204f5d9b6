// Package openai provides image generation (DALL·E / gpt-image) and image
// captioning (vision chat models) backed by the OpenAI API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/aura/pkg/provider/image"
)

const (
	defaultImageModel   = "dall-e-3"
	defaultCaptionModel = "gpt-4o-mini"

	captionPrompt = "Describe this image in two or three clear sentences."
)

var (
	_ image.Generator = (*Generator)(nil)
	_ image.Captioner = (*Captioner)(nil)
)

// Option configures either client.
type Option func(*config)

type config struct {
	baseURL string
	model   string
	prompt  string
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithModel selects the image or vision model.
func WithModel(m string) Option {
	return func(c *config) { c.model = m }
}

// WithPrompt replaces the instruction sent alongside the image to the
// captioning model.
func WithPrompt(p string) Option {
	return func(c *config) { c.prompt = p }
}

func newClient(apiKey string, cfg *config) oai.Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	return oai.NewClient(reqOpts...)
}

// ── Generator ────────────────────────────────────────────────────────────────

// Generator implements image.Generator with the images endpoint.
type Generator struct {
	client oai.Client
	model  string
}

// NewGenerator creates a Generator. The model defaults to dall-e-3.
func NewGenerator(apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai image: apiKey must not be empty")
	}
	cfg := &config{model: defaultImageModel}
	for _, o := range opts {
		o(cfg)
	}
	return &Generator{client: newClient(apiKey, cfg), model: cfg.model}, nil
}

// Generate implements image.Generator. One 1024x1024 image is requested.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("openai image: prompt must not be empty")
	}
	resp, err := g.client.Images.Generate(ctx, oai.ImageGenerateParams{
		Prompt: prompt,
		Model:  oai.ImageModel(g.model),
		N:      oai.Int(1),
		Size:   oai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("openai image: generate: %w", err)
	}
	for _, d := range resp.Data {
		if d.URL != "" {
			return d.URL, nil
		}
	}
	return "", fmt.Errorf("openai image: %w", image.ErrNoImage)
}

// ── Captioner ────────────────────────────────────────────────────────────────

// Captioner implements image.Captioner with a vision-capable chat model.
type Captioner struct {
	client oai.Client
	model  string
	prompt string
}

// NewCaptioner creates a Captioner. The model defaults to gpt-4o-mini.
func NewCaptioner(apiKey string, opts ...Option) (*Captioner, error) {
	if apiKey == "" {
		return nil, errors.New("openai caption: apiKey must not be empty")
	}
	cfg := &config{model: defaultCaptionModel, prompt: captionPrompt}
	for _, o := range opts {
		o(cfg)
	}
	return &Captioner{client: newClient(apiKey, cfg), model: cfg.model, prompt: cfg.prompt}, nil
}

// Describe implements image.Captioner. Local paths are inlined as base64 data
// URLs; http(s) sources are passed by reference.
func (c *Captioner) Describe(ctx context.Context, source string) (string, error) {
	imageURL, err := imageURLFor(source)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.TextContentPart(c.prompt),
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai caption: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai caption: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// imageURLFor returns source unchanged when it is a URL and a data URL with
// the file's contents otherwise.
func imageURLFor(source string) (string, error) {
	if source == "" {
		return "", errors.New("openai caption: source must not be empty")
	}
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return source, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("openai caption: read %q: %w", source, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(source)))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
