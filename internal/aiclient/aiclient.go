// Package aiclient wraps the OpenAI-compatible chat completions API
// behind the scoring oracle contract used by the ranking package.
package aiclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	systemPrompt = "You are a viral video analyst. Respond with JSON only, matching the requested schema exactly."
)

// ErrEmptyCompletion is returned when the provider answers with no
// usable choice.
var ErrEmptyCompletion = errors.New("aiclient: model returned no content")

// Config selects the provider endpoint and model.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client calls a chat completions endpoint and returns raw JSON
// responses. It satisfies ranking.Oracle.
type Client struct {
	api   openai.Client
	model string
	log   *logrus.Logger
}

// New builds a Client. BaseURL is optional and allows pointing at any
// OpenAI-compatible gateway.
func New(cfg Config, log *logrus.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClient(opts...), model: model, log: log}
}

// Complete sends prompt to the model constrained by schema and returns
// the raw JSON body of the first choice. imagePaths are attached as
// base64 data-URL image parts, making the request multimodal. When the
// provider rejects the structured-output request, it retries once in
// plain json_object mode and extracts the first JSON object from the
// reply.
func (c *Client) Complete(ctx context.Context, prompt string, imagePaths []string, schema map[string]any) ([]byte, error) {
	user, err := c.userMessage(prompt, imagePaths)
	if err != nil {
		return nil, err
	}

	raw, err := c.complete(ctx, user, openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "viral_clips",
				Schema: schema,
				Strict: openai.Bool(true),
			},
		},
	})
	if err == nil {
		return raw, nil
	}

	c.log.WithError(err).Warn("Structured output request failed, retrying in json_object mode")
	raw, retryErr := c.complete(ctx, user, openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
	})
	if retryErr != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if obj := extractFirstJSONObject(string(raw)); obj != "" {
		return []byte(obj), nil
	}
	return raw, nil
}

// userMessage builds the user turn: a plain text message, or text
// plus inline image parts when frames are attached.
func (c *Client) userMessage(prompt string, imagePaths []string) (openai.ChatCompletionMessageParamUnion, error) {
	if len(imagePaths) == 0 {
		return openai.UserMessage(prompt), nil
	}
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(prompt)}
	for _, p := range imagePaths {
		b, err := os.ReadFile(p)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("read frame %s: %w", p, err)
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", imageMIME(p), base64.StdEncoding.EncodeToString(b))
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}))
	}
	return openai.UserMessage(parts), nil
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func (c *Client) complete(ctx context.Context, user openai.ChatCompletionMessageParamUnion, format openai.ChatCompletionNewParamsResponseFormatUnion) ([]byte, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			user,
		},
		Model:          c.model,
		Temperature:    openai.Float(0.2),
		ResponseFormat: format,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyCompletion
	}
	return []byte(content), nil
}

// extractFirstJSONObject trims any prose the model wrapped around its
// JSON answer.
func extractFirstJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
