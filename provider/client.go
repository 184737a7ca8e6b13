// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// headerAPIKey carries the provider credential on every request.
	headerAPIKey = "X-C3-API-KEY"

	// launchOrigin is required by the provider on control-plane calls.
	launchOrigin = "https://launch.comput3.ai"

	// maxResponseBytes bounds response body reads: 16 MB. This exists
	// solely to prevent a pathological response from exhausting memory;
	// legitimate API responses are orders of magnitude smaller.
	maxResponseBytes int64 = 16 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the provider API endpoint, e.g.
	// "https://api.comput3.ai/api/v0".
	BaseURL string
	// APIKey authenticates every request via the X-C3-API-KEY header.
	APIKey string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Per-request deadlines come from the caller's context.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client talks to the Comput3 API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("provider: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("provider: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("provider: APIKey is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Launch provisions one workload of the given type with a paid lease
// ending at expires. The provider sometimes omits request-determined
// fields from its response; those are filled in from the request so
// the returned Workload is always complete.
func (c *Client) Launch(ctx context.Context, workloadType string, expires time.Time) (Workload, error) {
	request := map[string]any{
		"type":    workloadType,
		"expires": expires.Unix(),
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/launch", request)
	if err != nil {
		return Workload{}, fmt.Errorf("provider: launch of %s failed: %w", workloadType, err)
	}

	var workload Workload
	if err := json.Unmarshal(body, &workload); err != nil {
		return Workload{}, fmt.Errorf("provider: failed to parse launch response: %w", err)
	}
	if workload.ID == "" || workload.Hostname == "" {
		return Workload{}, fmt.Errorf("provider: launch response missing workload id or node: %s", body)
	}
	if workload.Type == "" {
		workload.Type = workloadType
	}
	if workload.Expires == 0 {
		workload.Expires = expires.Unix()
	}
	return workload, nil
}

// Stop halts the workload and releases its node. The receipt reports
// when the provider stopped it and any credit refunded for unused
// lease time.
func (c *Client) Stop(ctx context.Context, workloadID string) (StopReceipt, error) {
	request := map[string]any{"workload": workloadID}
	body, err := c.doRequest(ctx, http.MethodPost, "/stop", request)
	if err != nil {
		return StopReceipt{}, fmt.Errorf("provider: stop of %s failed: %w", workloadID, err)
	}

	var receipt StopReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return StopReceipt{}, fmt.Errorf("provider: failed to parse stop response: %w", err)
	}
	return receipt, nil
}

// RunningWorkloads lists the workloads the provider currently reports
// as running for this account.
func (c *Client) RunningWorkloads(ctx context.Context) ([]Workload, error) {
	request := map[string]any{"running": true}
	body, err := c.doRequest(ctx, http.MethodPost, "/workloads", request)
	if err != nil {
		return nil, fmt.Errorf("provider: workload listing failed: %w", err)
	}

	var workloads []Workload
	if err := json.Unmarshal(body, &workloads); err != nil {
		return nil, fmt.Errorf("provider: failed to parse workload listing: %w", err)
	}
	return workloads, nil
}

// CheckHealth probes the node's root endpoint. It returns nil when the
// node answers 200 within the context deadline; any transport failure
// or other status is a failed check. Bare hostnames are probed over
// https.
func (c *Client) CheckHealth(ctx context.Context, hostname string) error {
	healthURL := hostname
	if !strings.Contains(hostname, "://") {
		healthURL = "https://" + hostname
	}
	healthURL = strings.TrimRight(healthURL, "/") + "/"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fmt.Errorf("provider: failed to create health request for %s: %w", hostname, err)
	}
	request.Header.Set(headerAPIKey, c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("provider: health check of %s failed: %w", hostname, err)
	}
	defer response.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: health check of %s failed: %w", hostname,
			&APIError{StatusCode: response.StatusCode, Message: http.StatusText(response.StatusCode)})
	}
	return nil
}

// doRequest performs one control-plane request and returns the raw
// body of a 2xx response. Non-2xx responses are returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	requestURL := c.baseURL + path

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set(headerAPIKey, c.apiKey)
	request.Header.Set("Origin", launchOrigin)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("provider request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	return nil, newAPIError(response.StatusCode, responseBody)
}
