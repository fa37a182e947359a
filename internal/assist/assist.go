// Package assist drafts teacher responses with an OpenAI-compatible model.
// Drafts are suggestions only; they go through the normal respond flow
// before anything is stored.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doubtdesk/doubtdesk/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Suggestion holds a drafted reply and the status the model recommends
// after sending it.
type Suggestion struct {
	Draft           string            `json:"draft"`
	SuggestedStatus model.DoubtStatus `json:"suggested_status"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new assist client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable and the configured model usable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("assist endpoint: %w", err)
	}
	return nil
}

// DraftResponse asks the model for a reply to the doubt, feeding it any
// earlier teacher responses so the draft continues the thread instead of
// restarting it.
func (c *Client) DraftResponse(ctx context.Context, detail model.DoubtDetail) (*Suggestion, error) {
	chatMsgs := append(
		[]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildDraftSystemPrompt(detail.Doubt)},
		},
		threadMessages(detail)...,
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMsgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("assist API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("assist returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("assist response", "raw", raw)
	return parseSuggestion(raw)
}

// threadMessages maps the doubt and its stored responses onto chat roles:
// the student's doubt is the user turn, earlier teacher replies are
// assistant turns. Responses are stored newest first, so they are walked
// backwards.
func threadMessages(detail model.DoubtDetail) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: detail.Doubt.Text},
	}
	for i := len(detail.Responses) - 1; i >= 0; i-- {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: detail.Responses[i].Text,
		})
	}
	return msgs
}

func parseSuggestion(raw string) (*Suggestion, error) {
	var sg Suggestion
	if err := json.Unmarshal([]byte(raw), &sg); err != nil {
		return nil, fmt.Errorf("parse assist response: %w (raw: %s)", err, raw)
	}
	// Anything outside the known statuses keeps the thread open.
	if _, ok := model.ParseDoubtStatus(string(sg.SuggestedStatus)); !ok {
		sg.SuggestedStatus = model.StatusInProgress
	}
	return &sg, nil
}

func buildDraftSystemPrompt(d model.Doubt) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced school teacher drafting a reply to a student's doubt.\n\n")
	sb.WriteString("SUBJECT: " + d.Subject + "\n")
	sb.WriteString("STUDENT: " + d.StudentName + "\n\n")
	sb.WriteString("DOUBT:\n" + d.Text + "\n\n")

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Explain the underlying concept before giving the answer.\n")
	sb.WriteString("- Be encouraging and address the student by name.\n")
	sb.WriteString("- Keep the reply under 200 words.\n")
	sb.WriteString("- If the reply fully settles the doubt, suggest the status \"Resolved\"; ")
	sb.WriteString("if the student will likely need to come back, suggest \"In Progress\".\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"draft": "<the reply>", "suggested_status": "In Progress" or "Resolved"}`)
	sb.WriteString("\n")

	return sb.String()
}
