package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const anthropicVersion = "2023-06-01"

// Anthropic messages API client. System prompts travel in a top-level field
// rather than the messages array.
type anthropicClient struct {
	baseClient
}

func NewAnthropicClient(model string, config Config) (Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic client requires an api key")
	}
	return &anthropicClient{
		baseClient: newBaseClient(model, config, baseClientOpts{
			defaultBaseURL: "https://api.anthropic.com/v1",
			logComponent:   "anthropic",
		}),
	}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var system string
	messages := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		messages = append(messages, m)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	antReq := map[string]any{
		"model":      c.model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if system != "" {
		antReq["system"] = system
	}
	if req.Temperature > 0 {
		antReq["temperature"] = req.Temperature
	}

	body, err := json.Marshal(antReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/messages"
	c.logger.Debug("POST %s model=%s", endpoint, c.model)

	resp, err := c.doPost(ctx, endpoint, body, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readResponseBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("anthropic error status=%d", resp.StatusCode)
		return nil, httpStatusError(resp.StatusCode, respBody)
	}

	var antResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &antResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var content string
	for _, block := range antResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, errors.New("no text content in response")
	}

	return &CompletionResponse{
		Content:    content,
		StopReason: antResp.StopReason,
		Usage: TokenUsage{
			PromptTokens:     antResp.Usage.InputTokens,
			CompletionTokens: antResp.Usage.OutputTokens,
			TotalTokens:      antResp.Usage.InputTokens + antResp.Usage.OutputTokens,
		},
		ModelInfo: c.modelInfo,
	}, nil
}
