// Package bot provides the HealthConnect assistant: a stateless proxy that
// answers patient questions through the OpenRouter chat-completions API,
// grounded on the current hospital directory. No conversation state is kept
// server-side.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/hospital"
)

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel    = "mistralai/mistral-7b-instruct:free"

	// Answers are capped hard; the assistant is a pointer to the right
	// hospital, not a consultation.
	maxAnswerTokens = 100
)

// HospitalDirectory supplies the live listings the assistant grounds its
// answers on.
type HospitalDirectory interface {
	ListAll(ctx context.Context) ([]*hospital.Hospital, error)
}

// Assistant proxies questions to the model provider.
type Assistant struct {
	hospitals HospitalDirectory
	apiKey    string
	model     string
	endpoint  string
	client    *http.Client
	logger    zerolog.Logger
}

// Option customizes an Assistant.
type Option func(*Assistant)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Assistant) { a.client = c }
}

// WithEndpoint overrides the provider URL, mainly for tests.
func WithEndpoint(url string) Option {
	return func(a *Assistant) { a.endpoint = url }
}

func NewAssistant(hospitals HospitalDirectory, apiKey, model string, logger zerolog.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		hospitals: hospitals,
		apiKey:    apiKey,
		model:     model,
		endpoint:  defaultEndpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.With().Str("component", "bot").Logger(),
	}
	if a.model == "" {
		a.model = defaultModel
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends one question to the provider with the hospital directory as
// context and returns the trimmed answer.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("assistant is not configured")
	}

	hospitals, err := a.hospitals.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("load hospital context: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(hospitals)},
			{Role: "user", Content: question},
		},
		MaxTokens: maxAnswerTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Warn().Int("status", resp.StatusCode).Msg("provider error")
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no answer")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func systemPrompt(hospitals []*hospital.Hospital) string {
	var b strings.Builder
	b.WriteString("You are the HealthConnect assistant. Answer briefly using only the hospital data below. ")
	b.WriteString("If the data cannot answer the question, say so and suggest contacting the hospital directly.\n\n")
	for _, h := range hospitals {
		fmt.Fprintf(&b, "- %s (%s): %d of %d beds available, %d ICU, %d emergency. Facilities: %s.\n",
			h.Name, h.City, h.AvailableBeds, h.TotalBeds, h.ICUBeds, h.EmergencyBeds,
			strings.Join(h.Facilities, ", "))
	}
	return b.String()
}

// -- HTTP handler --

type Handler struct {
	assistant *Assistant
}

func NewHandler(a *Assistant) *Handler {
	return &Handler{assistant: a}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/bot/ask", h.Ask)
}

func (h *Handler) Ask(c echo.Context) error {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	answer, err := h.assistant.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}
