package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "mistralai/mistral-small-3.2-24b-instruct:free"

	chatCompletionsPath = "/chat/completions"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds one call. Zero leaves it to the transport.
	Timeout time.Duration
	// Referer and Title are OpenRouter's optional attribution headers.
	Referer string
	Title   string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a chat-completions client for OpenRouter-compatible APIs.
type Client interface {
	// ChatCompletion sends one request and returns choices[0].message.content,
	// or "" when the reply carries no choices.
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// UpstreamError is returned for any non-2xx provider response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openrouter http %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENROUTER_API_KEY")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &client{
		log:        log.With("client", "openrouter"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		referer:    strings.TrimSpace(cfg.Referer),
		title:      strings.TrimSpace(cfg.Title),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Model() string { return c.model }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "openrouter.chat_completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(messages)),
	)

	start := time.Now()
	resp, raw, err := c.doOnce(ctx, http.MethodPost, chatCompletionsPath, chatRequest{Model: c.model, Messages: messages})
	status := statusFromRespErr(resp, err)
	if m := observability.Current(); m != nil {
		m.ObserveLLMRequest(c.model, chatCompletionsPath, status, time.Since(start))
	}
	span.SetAttributes(attribute.String("http.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return "", fmt.Errorf("openrouter decode error: %w", err)
	}
	if len(out.Choices) == 0 {
		c.log.Warn("chat completion returned no choices", "model", c.model)
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("openrouter request: %w", err)
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, fmt.Errorf("openrouter read body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func statusFromRespErr(resp *http.Response, err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return strconv.Itoa(ue.StatusCode)
	}
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if err != nil {
		return "error"
	}
	return "0"
}
