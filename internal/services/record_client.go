// internal/services/record_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RecordClient writes product records to the storefront REST API.
type RecordClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// RecordAPIError is a non-2xx answer from the record API.
type RecordAPIError struct {
	StatusCode int
	Body       string
}

func (e *RecordAPIError) Error() string {
	return fmt.Sprintf("record API returned %d: %s", e.StatusCode, e.Body)
}

func (e *RecordAPIError) Is(target error) bool {
	return target == ErrRecordExists && e.StatusCode == http.StatusConflict
}

func NewRecordClient(baseURL, apiKey string, timeout time.Duration) *RecordClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RecordClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RecordClient) CreateProduct(ctx context.Context, chainID int64, owner string, payload ProductRecordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode product record: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/%d/%s/products", c.baseURL, chainID, url.PathEscape(owner))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build record request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("record request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RecordAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
