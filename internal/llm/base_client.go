package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"huntctl/internal/logging"
)

const defaultHTTPTimeout = 120 * time.Second

// baseClient carries the pieces shared by every provider client: the HTTP
// client, the resolved base URL, default headers and a component logger.
type baseClient struct {
	model      string
	baseURL    string
	apiKey     string
	headers    map[string]string
	httpClient *http.Client
	logger     logging.Logger
	modelInfo  map[string]any
}

type baseClientOpts struct {
	defaultBaseURL string
	logComponent   string
}

func newBaseClient(model string, config Config, opts baseClientOpts) baseClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = opts.defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return baseClient{
		model:      model,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		headers:    config.Headers,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.Component(opts.logComponent),
		modelInfo:  config.ModelInfo,
	}
}

func (c *baseClient) Model() string {
	return c.model
}

// doPost issues a JSON POST with the client's default headers applied first,
// so per-config headers can override them.
func (c *baseClient) doPost(ctx context.Context, endpoint string, body []byte, defaults map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range defaults {
		req.Header.Set(k, v)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return c.httpClient.Do(req)
}

func readResponseBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 32<<20))
}

func httpStatusError(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Errorf("upstream returned HTTP %d: %s", status, msg)
}
