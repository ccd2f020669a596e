package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"planchat/internal/config"
	"planchat/internal/models"
	"planchat/pkg/logger"
)

// FallbackReply is appended to the conversation whenever a reply cannot
// be generated. Callers always get a reply-shaped string back; failure is
// communicated through its content, never as an error.
const FallbackReply = "Sorry, I couldn't come up with a reply right now."

// historyWindow bounds how much of the conversation is sent upstream.
const historyWindow = 20

// Client talks to a chat-completions style HTTP endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(cfg config.AIConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete returns a short reply to the conversation so far. Every
// failure mode resolves to FallbackReply: missing credential, transport
// error, non-2xx status, unreadable body, empty choices.
func (c *Client) Complete(ctx context.Context, history []models.Message, roomTitle string) string {
	if c.apiKey == "" {
		logger.Debug("AI reply skipped: no API key configured")
		return FallbackReply
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf(
					"You are a helpful assistant in the chat room %q. Reply briefly to the conversation.",
					roomTitle,
				),
			},
		},
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, msg := range history[start:] {
		if msg.Type == models.MessageTypeSystem {
			continue
		}
		req.Messages = append(req.Messages, chatMessage{
			Role:    "user",
			Content: fmt.Sprintf("%s: %s", msg.SenderName, msg.Text),
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		logger.Error("Failed to encode AI request: %v", err)
		return FallbackReply
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build AI request: %v", err)
		return FallbackReply
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("AI request failed: %v", err)
		return FallbackReply
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("AI request returned status %d", resp.StatusCode)
		return FallbackReply
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		logger.Error("Failed to decode AI response: %v", err)
		return FallbackReply
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return FallbackReply
	}

	return parsed.Choices[0].Message.Content
}
