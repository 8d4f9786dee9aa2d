package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bike-curation/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements TextClient against an Ollama-compatible
// generate endpoint. The model is instructed to return a single JSON
// object; whatever text comes back is handed to the repair ladder
// untouched.
type HTTPClient struct {
	endpoint    string
	model       string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a text-normalization client for the given
// endpoint and model.
func NewHTTPClient(endpoint, model string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		model:       model,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateRequest is the Ollama generate API request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// generateResponse is the Ollama generate API response body.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Normalize asks the model to structure one raw listing. Retries with
// exponential backoff on transport errors, 429 and 5xx.
func (c *HTTPClient) Normalize(ctx context.Context, cand *domain.Candidate) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(cand),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		var gen generateResponse
		if err := json.Unmarshal(respBody, &gen); err != nil {
			return "", fmt.Errorf("unmarshal response: %w", err)
		}
		return gen.Response, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// buildPrompt renders one candidate into the normalization instruction.
func buildPrompt(cand *domain.Candidate) string {
	var b strings.Builder
	b.WriteString("Extract structured bike listing data as a single JSON object with keys ")
	b.WriteString(`"brand", "model", "year", "size", "components" (each component an object with "raw"), "grade" (A, B or C), "category" (MTB, GRAVEL, ROAD, EMTB or KIDS) and "confidence" (0 to 1).`)
	b.WriteString("\n\nListing:\n")
	fmt.Fprintf(&b, "Title: %s\n", cand.Title)
	if cand.Brand != "" {
		fmt.Fprintf(&b, "Brand hint: %s\n", cand.Brand)
	}
	if cand.Model != "" {
		fmt.Fprintf(&b, "Model hint: %s\n", cand.Model)
	}
	fmt.Fprintf(&b, "Price: %.2f %s\n", cand.Price, cand.Currency)
	if cand.Year != nil {
		fmt.Fprintf(&b, "Year hint: %d\n", *cand.Year)
	}
	if cand.Category != nil {
		fmt.Fprintf(&b, "Source category: %s\n", *cand.Category)
	}
	return b.String()
}

var _ TextClient = (*HTTPClient)(nil)
