package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lehuagavin/genslides/internal/media/download"
	"github.com/lehuagavin/genslides/internal/media/images"
)

const (
	geminiBaseURL     = "https://generativelanguage.googleapis.com"
	geminiModel       = "gemini-3-pro-image-preview"
	geminiTimeout     = 60 * time.Second
	nanoBananaBaseURL = "https://api.mmw.ink"
	nanoBananaModel   = "[A]gemini-3-pro-image-preview"
	nanoBananaSize    = "2K"
	nanoBananaTimeout = 300 * time.Second

	// maxTextURLs bounds how many links found in a text reply are tried.
	maxTextURLs = 6

	maxResponseSize = 64 * 1024 * 1024
)

var textURLPattern = regexp.MustCompile(`https?://[^\s)]+`)

// GenAIOptions configures an engine speaking the Generative Language wire format.
type GenAIOptions struct {
	Name      string
	APIKey    string
	BaseURL   string
	Model     string
	ImageSize string // optional imageConfig.imageSize
	Timeout   time.Duration

	// BearerFallback retries a rejected call once with Authorization: Bearer.
	BearerFallback bool
	// TextURLFallback downloads images linked from text parts when no inline image is returned.
	TextURLFallback bool

	HTTPClient *http.Client
	Limiter    Limiter
	Downloader *download.Downloader
	Logger     *slog.Logger
}

// GenAIEngine calls models/{model}:generateContent.
type GenAIEngine struct {
	opts GenAIOptions
	http *http.Client
}

// NewGemini returns the Google Gemini engine.
func NewGemini(apiKey, model string, limiter Limiter, logger *slog.Logger) *GenAIEngine {
	return NewGenAI(GenAIOptions{
		Name:    EngineGemini,
		APIKey:  apiKey,
		BaseURL: geminiBaseURL,
		Model:   model,
		Timeout: geminiTimeout,
		Limiter: limiter,
		Logger:  logger,
	})
}

// NewNanoBanana returns the Nano Banana engine: the GenAI format behind a
// third-party gateway, which may want either auth style and may answer with links.
func NewNanoBanana(apiKey, baseURL, model, imageSize string, limiter Limiter, logger *slog.Logger) *GenAIEngine {
	if baseURL == "" {
		baseURL = nanoBananaBaseURL
	}
	if model == "" {
		model = nanoBananaModel
	}
	imageSize = strings.ToUpper(strings.TrimSpace(imageSize))
	if imageSize == "" {
		imageSize = nanoBananaSize
	}
	return NewGenAI(GenAIOptions{
		Name:            EngineNanoBanana,
		APIKey:          apiKey,
		BaseURL:         baseURL,
		Model:           model,
		ImageSize:       imageSize,
		Timeout:         nanoBananaTimeout,
		BearerFallback:  true,
		TextURLFallback: true,
		Limiter:         limiter,
		Logger:          logger,
	})
}

// NewGenAI creates an engine from options, filling defaults.
func NewGenAI(opts GenAIOptions) *GenAIEngine {
	if opts.Name == "" {
		opts.Name = EngineGemini
	}
	if opts.BaseURL == "" {
		opts.BaseURL = geminiBaseURL
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.Model == "" {
		opts.Model = geminiModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = geminiTimeout
	}
	if opts.Limiter == nil {
		opts.Limiter = noLimit{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Downloader == nil {
		opts.Downloader = download.NewDownloader(client, opts.Logger)
	}
	return &GenAIEngine{opts: opts, http: client}
}

// Name implements Engine.
func (e *GenAIEngine) Name() string { return e.opts.Name }

// Available implements Engine.
func (e *GenAIEngine) Available() bool { return e.opts.APIKey != "" }

// GenerateStyleImages implements Engine.
func (e *GenAIEngine) GenerateStyleImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	if !e.Available() {
		return nil, wrapError(e.opts.Name, "style", ErrNotConfigured)
	}
	full := StylePrompt(prompt)
	out, err := generateMany(ctx, e.opts.Logger, e.opts.Name, count, func(ctx context.Context) ([]byte, error) {
		return e.generate(ctx, full, nil)
	})
	return out, wrapError(e.opts.Name, "style", err)
}

// GenerateSlideImage implements Engine.
func (e *GenAIEngine) GenerateSlideImage(ctx context.Context, content string, styleImage []byte, stylePrompt string) ([]byte, error) {
	if !e.Available() {
		return nil, wrapError(e.opts.Name, "slide", ErrNotConfigured)
	}
	out, err := e.generate(ctx, SlidePrompt(content, stylePrompt), styleImage)
	return out, wrapError(e.opts.Name, "slide", err)
}

type genaiRequest struct {
	Contents         []genaiContent        `json:"contents"`
	GenerationConfig genaiGenerationConfig `json:"generationConfig"`
}

type genaiContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []genaiPart `json:"parts"`
}

type genaiPart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *genaiInline `json:"inline_data,omitempty"`
}

type genaiInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genaiGenerationConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	ImageConfig        *genaiImageConfig `json:"imageConfig,omitempty"`
}

type genaiImageConfig struct {
	ImageSize string `json:"imageSize,omitempty"`
}

// The REST API answers in camelCase; some gateways echo snake_case.
type genaiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text            string             `json:"text"`
				InlineData      *genaiInlineAnswer `json:"inlineData"`
				InlineDataSnake *genaiInlineAnswer `json:"inline_data"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type genaiInlineAnswer struct {
	MimeType      string `json:"mimeType"`
	MimeTypeSnake string `json:"mime_type"`
	Data          string `json:"data"`
}

func (e *GenAIEngine) buildRequest(prompt string, reference []byte) ([]byte, error) {
	parts := []genaiPart{{Text: prompt}}
	if len(reference) > 0 {
		parts = append(parts, genaiPart{InlineData: &genaiInline{
			MimeType: http.DetectContentType(reference),
			Data:     base64.StdEncoding.EncodeToString(reference),
		}})
	}
	body := genaiRequest{
		Contents: []genaiContent{{Role: "user", Parts: parts}},
		GenerationConfig: genaiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if e.opts.ImageSize != "" {
		body.GenerationConfig.ImageConfig = &genaiImageConfig{ImageSize: e.opts.ImageSize}
	}
	return json.Marshal(body)
}

func (e *GenAIEngine) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", e.opts.BaseURL, url.PathEscape(e.opts.Model))
}

// generate performs one call, including auth fallback, and returns JPEG bytes.
func (e *GenAIEngine) generate(ctx context.Context, prompt string, reference []byte) ([]byte, error) {
	payload, err := e.buildRequest(prompt, reference)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	body, err := e.call(ctx, payload, false)
	if err != nil && e.opts.BearerFallback && ctx.Err() == nil {
		e.opts.Logger.Warn("api key auth failed, retrying with bearer token",
			"engine", e.opts.Name,
			"error", err,
		)
		body, err = e.call(ctx, payload, true)
	}
	if err != nil {
		return nil, err
	}

	raw, err := e.extractImage(ctx, body)
	if err != nil {
		return nil, err
	}
	return images.ToJPEG(raw)
}

func (e *GenAIEngine) call(ctx context.Context, payload []byte, bearer bool) ([]byte, error) {
	if err := e.opts.Limiter.Wait(ctx, e.opts.Name); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+e.opts.APIKey)
	} else {
		req.Header.Set("x-goog-api-key", e.opts.APIKey)
	}

	e.opts.Logger.Debug("genai request", "engine", e.opts.Name, "model", e.opts.Model, "bearer", bearer)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp.StatusCode, body)
	}
	return body, nil
}

// extractImage returns the first inline image, or downloads one linked from the
// text parts when that fallback is enabled.
func (e *GenAIEngine) extractImage(ctx context.Context, body []byte) ([]byte, error) {
	var resp genaiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrGenerationFailed, err)
	}

	var texts []string
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			inline := part.InlineData
			if inline == nil {
				inline = part.InlineDataSnake
			}
			if inline != nil && inline.Data != "" {
				data, err := base64.StdEncoding.DecodeString(inline.Data)
				if err != nil {
					return nil, fmt.Errorf("%w: decode inline image: %w", ErrGenerationFailed, err)
				}
				return data, nil
			}
			if strings.TrimSpace(part.Text) != "" {
				texts = append(texts, part.Text)
			}
		}
	}

	if !e.opts.TextURLFallback {
		return nil, ErrNoImage
	}
	urls := linkedURLs(strings.Join(texts, "\n"))
	if len(urls) == 0 {
		return nil, ErrNoImage
	}

	e.opts.Logger.Info("trying to download image from url in response", "engine", e.opts.Name, "urls", len(urls))
	res, err := e.opts.Downloader.FetchFirst(ctx, urls, maxTextURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	return res.Data, nil
}

// linkedURLs returns the distinct http(s) links in text, in order of appearance.
func linkedURLs(text string) []string {
	matches := textURLPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
