package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qapulse/qapulse/internal/models"
)

const resultsPath = "/api/v1/results"

// ResultsClient pushes CI run results to a qapulse server.
type ResultsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewResultsClient constructs a client targeting baseURL.
func NewResultsClient(baseURL string, timeout time.Duration) *ResultsClient {
	return &ResultsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PushRun posts payload to the results endpoint and returns the stored run summary.
func (c *ResultsClient) PushRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error) {
	if c == nil {
		return models.IngestResult{}, fmt.Errorf("results client not initialised")
	}
	if c.baseURL == "" {
		return models.IngestResult{}, fmt.Errorf("results API base URL not configured")
	}

	var result models.IngestResult
	if err := c.postJSON(ctx, c.baseURL+resultsPath, payload, &result); err != nil {
		return models.IngestResult{}, fmt.Errorf("push results: %w", err)
	}
	return result, nil
}

func (c *ResultsClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %s: %s %s", resp.Status, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
