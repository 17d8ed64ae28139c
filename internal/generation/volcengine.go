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
	"strings"
	"time"

	"github.com/lehuagavin/genslides/internal/media/download"
	"github.com/lehuagavin/genslides/internal/media/images"
)

const (
	arkBaseURL = "https://ark.cn-beijing.volces.com"
	arkModel   = "doubao-seedream-4-5-251128"
	// 16:9; the model requires at least 3686400 pixels.
	arkSize    = "2560x1440"
	arkTimeout = 60 * time.Second
)

// VolcengineOptions configures the Ark image engine.
type VolcengineOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Limiter    Limiter
	Downloader *download.Downloader
	Logger     *slog.Logger
}

// VolcengineEngine calls the Ark images/generations endpoint.
//
// Ark only accepts a reference image by public URL, so slide generation sends
// the style through the prompt alone.
type VolcengineEngine struct {
	opts VolcengineOptions
	http *http.Client
}

// NewVolcengine creates the Ark engine, filling defaults.
func NewVolcengine(opts VolcengineOptions) *VolcengineEngine {
	if opts.BaseURL == "" {
		opts.BaseURL = arkBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Model == "" {
		opts.Model = arkModel
	}
	if opts.Limiter == nil {
		opts.Limiter = noLimit{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: arkTimeout}
	}
	if opts.Downloader == nil {
		opts.Downloader = download.NewDownloader(client, opts.Logger)
	}
	return &VolcengineEngine{opts: opts, http: client}
}

// Name implements Engine.
func (e *VolcengineEngine) Name() string { return EngineVolcengine }

// Available implements Engine.
func (e *VolcengineEngine) Available() bool { return e.opts.APIKey != "" }

// GenerateStyleImages implements Engine.
func (e *VolcengineEngine) GenerateStyleImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	if !e.Available() {
		return nil, wrapError(EngineVolcengine, "style", ErrNotConfigured)
	}
	full := StylePrompt(prompt)
	out, err := generateMany(ctx, e.opts.Logger, EngineVolcengine, count, func(ctx context.Context) ([]byte, error) {
		return e.generate(ctx, full)
	})
	return out, wrapError(EngineVolcengine, "style", err)
}

// GenerateSlideImage implements Engine. styleImage is not sent.
func (e *VolcengineEngine) GenerateSlideImage(ctx context.Context, content string, _ []byte, stylePrompt string) ([]byte, error) {
	if !e.Available() {
		return nil, wrapError(EngineVolcengine, "slide", ErrNotConfigured)
	}
	out, err := e.generate(ctx, DescribedSlidePrompt(content, stylePrompt))
	return out, wrapError(EngineVolcengine, "slide", err)
}

type arkRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Watermark      bool   `json:"watermark"`
}

type arkResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *VolcengineEngine) generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(arkRequest{
		Model:          e.opts.Model,
		Prompt:         prompt,
		Size:           arkSize,
		ResponseFormat: "b64_json",
		Watermark:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	body, err := e.call(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp arkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrGenerationFailed, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstream, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoImage
	}

	var raw []byte
	switch first := resp.Data[0]; {
	case first.B64JSON != "":
		raw, err = base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: decode image: %w", ErrGenerationFailed, err)
		}
	case first.URL != "":
		res, err := e.opts.Downloader.Fetch(ctx, first.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: download image: %w", ErrUpstream, err)
		}
		raw = res.Data
	default:
		return nil, ErrNoImage
	}

	return images.ToJPEG(raw)
}

func (e *VolcengineEngine) call(ctx context.Context, payload []byte) ([]byte, error) {
	if err := e.opts.Limiter.Wait(ctx, EngineVolcengine); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, arkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.opts.BaseURL+"/api/v3/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.opts.APIKey)

	e.opts.Logger.Debug("ark request", "model", e.opts.Model)

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
