package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Azure OpenAI client. Requests go to the deployment-scoped chat completions
// route under the resource endpoint; the model name only labels responses.
type azureClient struct {
	baseClient
	endpoint   string
	apiVersion string
	deployment string
}

func NewAzureClient(model string, config Config) (Client, error) {
	switch {
	case config.Endpoint == "":
		return nil, errors.New("azure client requires an endpoint")
	case config.APIKey == "":
		return nil, errors.New("azure client requires an api key")
	case config.APIVersion == "":
		return nil, errors.New("azure client requires an api version")
	case config.Deployment == "":
		return nil, errors.New("azure client requires a deployment name")
	}
	return &azureClient{
		baseClient: newBaseClient(model, config, baseClientOpts{
			logComponent: "azure",
		}),
		endpoint:   strings.TrimRight(config.Endpoint, "/"),
		apiVersion: config.APIVersion,
		deployment: config.Deployment,
	}, nil
}

func (c *azureClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	azReq := map[string]any{
		"messages": req.Messages,
		"stream":   false,
	}
	if req.Temperature > 0 {
		azReq["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		azReq["max_tokens"] = req.MaxTokens
	}

	body, err := json.Marshal(azReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
	c.logger.Debug("POST %s deployment=%s", endpoint, c.deployment)

	resp, err := c.doPost(ctx, endpoint, body, map[string]string{
		"api-key": c.apiKey,
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
		c.logger.Warn("azure error status=%d deployment=%s", resp.StatusCode, c.deployment)
		return nil, httpStatusError(resp.StatusCode, respBody)
	}

	var azResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &azResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(azResp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	return &CompletionResponse{
		Content:    azResp.Choices[0].Message.Content,
		StopReason: azResp.Choices[0].FinishReason,
		Usage: TokenUsage{
			PromptTokens:     azResp.Usage.PromptTokens,
			CompletionTokens: azResp.Usage.CompletionTokens,
			TotalTokens:      azResp.Usage.TotalTokens,
		},
		ModelInfo: c.modelInfo,
	}, nil
}
