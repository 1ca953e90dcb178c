// Package ai реализует клиент внешнего сервиса генерации решений.
//
// Провайдер скрыт за одной операцией GenerateSolution: текст задания
// отправляется в chat-completions endpoint, ответ модели возвращается
// как текст решения. Повторных попыток нет: временные сбои оставлены
// на усмотрение вызывающего.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/solvem8/backend/internal/config"
)

const systemPrompt = "You are an expert tutor. Solve the assignment below " +
	"step by step, showing your reasoning, and give clear final answers."

// Client общается с chat-completions API провайдера.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New создаёт клиент по настройкам из конфига.
func New(cfg config.AI) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.TimeoutAI},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// GenerateSolution отправляет текст задания модели и возвращает решение.
func (c *Client) GenerateSolution(ctx context.Context, text string) (string, error) {
	const op = "ai.GenerateSolution"

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, detail)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", op)
	}
	return parsed.Choices[0].Message.Content, nil
}
