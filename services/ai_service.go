package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"therapii_server/models"
)

const (
	aiRequestTimeout   = 90 * time.Second
	defaultChatModel   = "gpt-4o-mini"
	defaultMaxTokens   = 800
	maxTokensCeiling   = 2000
	defaultTemperature = 0.7
	temperatureCeiling = 2.0
)

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionInput carries a chat completion request. Pointer fields
// distinguish "absent" from zero so defaults apply only when unset.
type ChatCompletionInput struct {
	Messages        []ChatMessage `json:"messages"`
	Model           string        `json:"model"`
	MaxOutputTokens *int          `json:"maxOutputTokens"`
	Temperature     *float64      `json:"temperature"`
}

// ChatUsage mirrors the upstream token accounting block.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResult is the trimmed first completion plus metadata.
type ChatCompletionResult struct {
	Text  string     `json:"text"`
	ID    string     `json:"id"`
	Model string     `json:"model"`
	Usage *ChatUsage `json:"usage"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *ChatUsage `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// AIService proxies chat completion requests to the OpenAI API with
// server-side credentials. It holds no per-request state.
type AIService struct {
	Settings *SettingsService

	// HTTPClient is overridable in tests; defaults to a 90s-timeout client.
	HTTPClient *http.Client
}

func (s *AIService) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: aiRequestTimeout}
}

// GenerateChatCompletion validates and clamps the request, forwards it
// upstream and returns the first completion's text.
func (s *AIService) GenerateChatCompletion(ctx context.Context, callerID string, input ChatCompletionInput) (*ChatCompletionResult, error) {
	if callerID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "You must be signed in to contact the AI companion.")
	}

	apiKey := s.Settings.ResolveOpenAIKey(ctx)
	if apiKey == "" {
		return nil, models.NewError(models.CodeFailedPrecondition,
			"AI companion not configured. Please ask an admin to configure the OpenAI API key in Admin Settings.")
	}

	messages, err := validateMessages(input.Messages)
	if err != nil {
		return nil, err
	}

	payload := chatRequest{
		Model:       defaultChatModel,
		Messages:    messages,
		MaxTokens:   clampMaxTokens(input.MaxOutputTokens),
		Temperature: clampTemperature(input.Temperature),
	}
	if model := strings.TrimSpace(input.Model); model != "" {
		payload.Model = model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := s.Settings.ResolveOpenAIBaseURL() + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewError(models.CodeUnknown, "OpenAI returned an unreadable response.")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatusError(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, models.NewError(models.CodeUnknown, "OpenAI returned an unreadable response.")
	}

	text := ""
	if len(parsed.Choices) > 0 {
		text = strings.TrimSpace(parsed.Choices[0].Message.Content)
	}
	if text == "" {
		return nil, models.NewError(models.CodeUnknown, "OpenAI did not return any message content.")
	}

	model := parsed.Model
	if model == "" {
		model = payload.Model
	}
	return &ChatCompletionResult{
		Text:  text,
		ID:    parsed.ID,
		Model: model,
		Usage: parsed.Usage,
	}, nil
}

func validateMessages(raw []ChatMessage) ([]ChatMessage, error) {
	if len(raw) == 0 {
		return nil, models.NewError(models.CodeInvalidArgument, "Expected a non-empty messages array.")
	}
	messages := make([]ChatMessage, 0, len(raw))
	for i, entry := range raw {
		role := strings.TrimSpace(entry.Role)
		if role == "" {
			return nil, models.NewError(models.CodeInvalidArgument, "messages[%d].role must be a non-empty string", i)
		}
		if strings.TrimSpace(entry.Content) == "" {
			return nil, models.NewError(models.CodeInvalidArgument, "messages[%d].content must be a non-empty string", i)
		}
		messages = append(messages, ChatMessage{Role: role, Content: entry.Content})
	}
	return messages, nil
}

func clampMaxTokens(requested *int) int {
	if requested == nil {
		return defaultMaxTokens
	}
	n := *requested
	if n < 1 {
		return 1
	}
	if n > maxTokensCeiling {
		return maxTokensCeiling
	}
	return n
}

func clampTemperature(requested *float64) float64 {
	if requested == nil {
		return defaultTemperature
	}
	t := *requested
	if t < 0 {
		return 0
	}
	if t > temperatureCeiling {
		return temperatureCeiling
	}
	return t
}

// classifyStatusError maps upstream HTTP failures: 5xx means try again
// later, anything else means the request or configuration is wrong.
func classifyStatusError(status int, body []byte) error {
	message := "OpenAI request failed."
	var parsed chatErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if m := strings.TrimSpace(parsed.Error.Message); m != "" {
			message = m
		} else if m := strings.TrimSpace(parsed.Message); m != "" {
			message = m
		}
	} else if m := strings.TrimSpace(string(body)); m != "" {
		message = m
	}

	code := models.CodeFailedPrecondition
	if status >= 500 {
		code = models.CodeUnavailable
	}
	return models.NewError(code, "%s", message)
}

// classifyTransportError translates network-level failures into retryable
// messages for the caller.
func classifyTransportError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.NewError(models.CodeUnavailable,
			"The server could not reach OpenAI. Ensure outbound networking is available and retry.")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewError(models.CodeUnavailable,
			"The OpenAI request timed out before it could finish. Please try again.")
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return models.NewError(models.CodeUnavailable,
			"The connection to OpenAI was interrupted. Please try again in a moment.")
	}

	return models.NewError(models.CodeInternal, "The AI companion is currently unavailable. Please try again.")
}
