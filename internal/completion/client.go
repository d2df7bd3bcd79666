// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/switchboard/internal/chatlog"
	"github.com/jeranaias/switchboard/internal/config"
	"github.com/jeranaias/switchboard/internal/prompt"
)

// MaxResponseSize caps how much of a response body is read.
const MaxResponseSize = 10 * 1024 * 1024

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTransport marks failures to send a request or read its response.
	ErrTransport = errors.New("transport failure")

	// ErrProtocol marks responses that do not have the expected shape.
	ErrProtocol = errors.New("malformed response")

	// ErrMissingContent is returned when choices[0].message.content is not a string.
	ErrMissingContent = fmt.Errorf("%w: missing content", ErrProtocol)
)

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return "API request failed: " + e.Message
}

// Is reports APIError as a protocol error.
func (e *APIError) Is(target error) bool {
	return target == ErrProtocol
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// REQUEST / RESPONSE
// =============================================================================

// ChatRequest is the outbound body. Sampling fields are nil unless the
// endpoint sets them.
type ChatRequest struct {
	Model             string           `json:"model"`
	Messages          []prompt.Message `json:"messages"`
	MaxTokens         *uint32          `json:"max_tokens,omitempty"`
	Temperature       *float32         `json:"temperature,omitempty"`
	TopP              *float32         `json:"top_p,omitempty"`
	TopK              *uint32          `json:"top_k,omitempty"`
	MinP              *float32         `json:"min_p,omitempty"`
	RepetitionPenalty *float32         `json:"repetition_penalty,omitempty"`
}

// NewChatRequest assembles a request from a built prompt. A set field that
// does not parse is sent with its default value.
func NewChatRequest(endpoint config.Endpoint, messages []prompt.Message) ChatRequest {
	req := ChatRequest{
		Model:    endpoint.ModelID,
		Messages: messages,
	}
	if endpoint.MaxTokens != nil {
		v := endpoint.GetMaxTokens()
		req.MaxTokens = &v
	}
	if endpoint.Temperature != nil {
		v := endpoint.GetTemperature()
		req.Temperature = &v
	}
	if endpoint.TopP != nil {
		v := endpoint.GetTopP()
		req.TopP = &v
	}
	if endpoint.TopK != nil {
		v := endpoint.GetTopK()
		req.TopK = &v
	}
	if endpoint.MinP != nil {
		v := endpoint.GetMinP()
		req.MinP = &v
	}
	if endpoint.RepetitionPenalty != nil {
		v := endpoint.GetRepetitionPenalty()
		req.RepetitionPenalty = &v
	}
	return req
}

// Response is a parsed completion. Usage and timing fields are nil when the
// provider did not report them.
type Response struct {
	Text string

	CompletionTokens *int
	PromptTokens     *int
	PredictedMS      *float64
	PromptMS         *float64
}

type rawResponse struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage `json:"content"`
			Reasoning json.RawMessage `json:"reasoning"`
		} `json:"message"`
	} `json:"choices"`
	Usage   json.RawMessage `json:"usage"`
	Timings json.RawMessage `json:"timings"`
}

type rawUsage struct {
	CompletionTokens *int `json:"completion_tokens"`
	PromptTokens     *int `json:"prompt_tokens"`
}

type rawTimings struct {
	PredictedMS *float64 `json:"predicted_ms"`
	PromptMS    *float64 `json:"prompt_ms"`
}

// ParseResponse extracts the completion text and any usage data from a
// successful response body.
func ParseResponse(body []byte) (*Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if len(raw.Choices) == 0 {
		return nil, ErrMissingContent
	}

	msg := raw.Choices[0].Message
	var content *string
	if len(msg.Content) == 0 || json.Unmarshal(msg.Content, &content) != nil || content == nil {
		return nil, ErrMissingContent
	}

	resp := &Response{Text: strings.TrimSpace(*content)}

	var reasoning *string
	if len(msg.Reasoning) > 0 && json.Unmarshal(msg.Reasoning, &reasoning) == nil && reasoning != nil {
		resp.Text = chatlog.WrapThinking(*reasoning, *content)
	}

	// Usage and timings are informational; a malformed block is ignored.
	var usage rawUsage
	if len(raw.Usage) > 0 && json.Unmarshal(raw.Usage, &usage) == nil {
		resp.CompletionTokens = usage.CompletionTokens
		resp.PromptTokens = usage.PromptTokens
	}
	var timings rawTimings
	if len(raw.Timings) > 0 && json.Unmarshal(raw.Timings, &timings) == nil {
		resp.PredictedMS = timings.PredictedMS
		resp.PromptMS = timings.PromptMS
	}

	return resp, nil
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts prompts to chat completion endpoints. It holds no per-call
// state and may be shared.
type Client struct {
	httpClient *http.Client
	referer    string
	title      string
	limits     prompt.Limits
	logger     *slog.Logger
}

// NewClient returns a client with default headers, budget limits and no
// request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		referer:    config.DefaultReferer,
		title:      config.DefaultTitle,
		limits:     prompt.DefaultLimits(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithHTTPClient sets the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout bounds each request. Zero disables the timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithIdentity sets the HTTP-Referer and X-Title headers.
func (c *Client) WithIdentity(referer, title string) *Client {
	c.referer = referer
	c.title = title
	return c
}

// WithLimits sets the budget constants used when building prompts.
func (c *Client) WithLimits(limits prompt.Limits) *Client {
	c.limits = limits
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Limits returns the configured budget constants.
func (c *Client) Limits() prompt.Limits {
	return c.limits
}

// KeyFingerprint returns a short SHA-256 fingerprint of key for logs.
func KeyFingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// Send builds a prompt from turns and performs one completion request.
func (c *Client) Send(ctx context.Context, turns []chatlog.Turn, regenerating bool, endpoint config.Endpoint, systemMessage string) (*Response, error) {
	built := prompt.Build(turns, prompt.Options{
		SystemMessage: systemMessage,
		Budget:        prompt.ResolveBudget(endpoint, c.limits),
		Regenerating:  regenerating,
		CharsPerToken: c.limits.CharsPerToken,
	})
	c.logger.Debug("prompt built",
		"messages", len(built.Messages),
		"turns", built.IncludedTurns,
		"system_tokens", built.SystemTokens,
		"history_tokens", built.HistoryTokens)

	return c.Do(ctx, endpoint, NewChatRequest(endpoint, built.Messages))
}

// Do posts a prepared request to the endpoint.
func (c *Client) Do(ctx context.Context, endpoint config.Endpoint, reqBody ChatRequest) (*Response, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(endpoint.Endpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	c.setHeaders(req, endpoint.APIKey)

	start := time.Now()
	c.logger.Info("completion request",
		"url", url,
		"model", reqBody.Model,
		"key_fingerprint", KeyFingerprint(endpoint.APIKey))

	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.logger.Warn("completion request failed", "error", err)
		return nil, fmt.Errorf("%w: error sending request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.Info("completion response",
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond))

	body, readErr := readResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if readErr != nil {
			return nil, fmt.Errorf("%w: API request failed and couldn't read error response: %w", ErrTransport, readErr)
		}
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, readErr)
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		return nil, err
	}
	if parsed.CompletionTokens != nil || parsed.PredictedMS != nil {
		c.logger.Debug("completion usage",
			"completion_tokens", intOrZero(parsed.CompletionTokens),
			"prompt_tokens", intOrZero(parsed.PromptTokens),
			"predicted_ms", floatOrZero(parsed.PredictedMS),
			"prompt_ms", floatOrZero(parsed.PromptMS))
	}
	return parsed, nil
}

func (c *Client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}

// readResponse reads the body through a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse prefers the provider's {error:{message}} text and falls
// back to the raw body.
func handleErrorResponse(status int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{Status: status, Message: apiErr.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
