// Package client talks to the correlation config admin gateway over its
// HTTP/JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

const (
	correlationPath = "/api/devops/v0/config/correlation"
	healthPath      = "/v1/health"

	notifyWarningHeader = "X-Notify-Warning"

	defaultTimeout = 30 * time.Second
)

// ConfigClient is what corrctl commands need from the gateway.
type ConfigClient interface {
	GetConfigs(ctx context.Context) ([]model.CorrelationConfig, error)
	UpdateConfigs(ctx context.Context, configs []model.CorrelationConfig) (*UpdateResponse, error)
	Health(ctx context.Context) error
}

// UpdateResponse is the outcome of a successful update. NotifyWarning is
// non-empty when the server committed the change but could not announce it.
type UpdateResponse struct {
	Configs       []model.CorrelationConfig
	NotifyWarning string
}

// HTTPClient implements ConfigClient using the gateway HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// GetConfigs fetches every correlation config.
func (c *HTTPClient) GetConfigs(ctx context.Context) ([]model.CorrelationConfig, error) {
	var list model.ConfigList
	if _, err := c.doJSON(ctx, http.MethodGet, correlationPath, nil, &list); err != nil {
		return nil, err
	}
	return list.Components, nil
}

// GetAll is GetConfigs under the name used by snapshot sources.
func (c *HTTPClient) GetAll(ctx context.Context) ([]model.CorrelationConfig, error) {
	return c.GetConfigs(ctx)
}

// UpdateConfigs submits configs as one atomic update.
func (c *HTTPClient) UpdateConfigs(ctx context.Context, configs []model.CorrelationConfig) (*UpdateResponse, error) {
	var list model.ConfigList
	hdr, err := c.doJSON(ctx, http.MethodPut, correlationPath, model.ConfigList{Components: configs}, &list)
	if err != nil {
		return nil, err
	}
	return &UpdateResponse{
		Configs:       list.Components,
		NotifyWarning: hdr.Get(notifyWarningHeader),
	}, nil
}

// Health returns nil when the server and its store are up.
func (c *HTTPClient) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, healthPath, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server reports status %q", resp.Status)
	}
	return nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       *model.ErrorBody
	Raw        string
}

func (e *APIError) Error() string {
	if e.Body != nil {
		msg := fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body.Description))
		if e.Body.MoreInfo != "" {
			msg += " (" + e.Body.MoreInfo + ")"
		}
		return msg
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Raw)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) (http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var eb model.ErrorBody
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Code != 0 {
			return resp.Header, &APIError{StatusCode: resp.StatusCode, Body: &eb}
		}
		return resp.Header, &APIError{StatusCode: resp.StatusCode, Raw: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.Header, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.Header, nil
}
