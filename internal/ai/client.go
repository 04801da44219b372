// Package ai calls the vision model that produces coaching feedback for a
// trade from its chart screenshot and note.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/simonexlue/tradelens/internal/config"
)

// Result is the structured coaching output.
type Result struct {
	WhatHappened string   `json:"what_happened"`
	WhyResult    string   `json:"why_result"`
	Tips         []string `json:"tips"`
}

// Request carries the screenshot plus whatever trade context exists.
type Request struct {
	ImageBytes []byte
	MimeType   string
	Note       string
	Metadata   map[string]any
}

// Analyzer is the AI-provider boundary.
type Analyzer interface {
	AnalyzeTrade(ctx context.Context, req Request) (Result, error)
}

const systemPrompt = `You are a trading coach analyzing futures/indices trades from chart screenshots.

Your job:
1) Explain in simple language what happened in the trade.
2) Explain why the trade worked or failed, based on structure, trend, liquidity, and timing.
3) Give 2-3 actionable tips the trader can apply next time.

Rules:
- Be specific to the chart (EMAs, structure, key levels).
- Do not give financial advice or signal services.
- Keep the tone coaching-focused, not judgmental.`

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.APIKey),
		model: cfg.Model,
	}
}

// Model reports the configured model identifier, recorded on each analysis.
func (c *Client) Model() string {
	return c.model
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) AnalyzeTrade(ctx context.Context, req Request) (Result, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MimeType, base64.StdEncoding.EncodeToString(req.ImageBytes))

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
					{"type": "text", "text": buildUserPrompt(req.Note, req.Metadata)},
				},
			},
		},
		"response_format": map[string]any{"type": "json_object"},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return Result{}, fmt.Errorf("ai: request failed: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return Result{}, fmt.Errorf("ai: provider error: %s", out.Error.Message)
		}
		return Result{}, fmt.Errorf("ai: provider error: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return Result{}, errors.New("ai: empty provider response")
	}

	return decodeResult(out.Choices[0].Message.Content)
}

func buildUserPrompt(note string, metadata map[string]any) string {
	noteText := strings.TrimSpace(note)
	if noteText == "" {
		noteText = "No note provided."
	}

	var sb strings.Builder
	sb.WriteString("User's trade note:\n")
	sb.WriteString(noteText)
	sb.WriteString("\n")
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err == nil {
			sb.WriteString("\nTrade metadata:\n")
			sb.Write(raw)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(`
Using the chart image + this note, analyze the trade.
Return ONLY JSON in this shape:

{
  "what_happened": "one concise but detailed paragraph",
  "why_result": "one concise but detailed paragraph explaining why it worked or failed",
  "tips": [
    "short actionable tip 1",
    "short actionable tip 2",
    "short actionable tip 3"
  ]
}
`)
	return sb.String()
}

// decodeResult parses the model output, stripping the markdown code fences
// some models wrap JSON in, and rejects responses missing required fields.
func decodeResult(content string) (Result, error) {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var res Result
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return Result{}, fmt.Errorf("ai: malformed analysis payload: %w", err)
	}
	if res.WhatHappened == "" || res.WhyResult == "" || len(res.Tips) == 0 {
		return Result{}, errors.New("ai: analysis payload missing required fields")
	}
	return res, nil
}
