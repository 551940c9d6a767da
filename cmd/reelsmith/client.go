package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"reelsmith/internal/api"
)

// apiClient is a thin typed client for the daemon HTTP API.
type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPIClient(addr, token string) *apiClient {
	return &apiClient{
		baseURL: "http://" + strings.TrimPrefix(addr, "http://"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wrapConnectError(err, c.baseURL)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapConnectError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `reelsmith daemon run` or reelsmithd", base)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func (c *apiClient) status(ctx context.Context) (api.StatusResponse, error) {
	var resp api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

func (c *apiClient) health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp)
	return resp, err
}

func (c *apiClient) addTopic(ctx context.Context, topic string) (api.QueueItem, error) {
	var item api.QueueItem
	err := c.do(ctx, http.MethodPost, "/api/queue", api.AddTopicRequest{Topic: topic}, &item)
	return item, err
}

func (c *apiClient) listQueue(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	path := "/api/queue"
	if len(statuses) > 0 {
		params := make([]string, 0, len(statuses))
		for _, status := range statuses {
			params = append(params, "status="+status)
		}
		path += "?" + strings.Join(params, "&")
	}
	var resp api.QueueListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Items, err
}

func (c *apiClient) getItem(ctx context.Context, id int64) (api.QueueItem, error) {
	var item api.QueueItem
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/queue/%d", id), nil, &item)
	return item, err
}

func (c *apiClient) removeItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/queue/%d", id), nil, nil)
}

func (c *apiClient) retry(ctx context.Context, ids []int64) (int64, error) {
	var resp api.CountResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/retry", api.RetryRequest{IDs: ids}, &resp)
	return resp.Count, err
}

func (c *apiClient) reset(ctx context.Context) (int64, error) {
	var resp api.CountResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/reset", nil, &resp)
	return resp.Count, err
}

func (c *apiClient) clear(ctx context.Context, scope string) (int64, error) {
	path := "/api/queue/clear"
	if scope != "" {
		path += "?scope=" + scope
	}
	var resp api.CountResponse
	err := c.do(ctx, http.MethodPost, path, nil, &resp)
	return resp.Count, err
}

func (c *apiClient) testNotification(ctx context.Context) (api.NotificationTestResponse, error) {
	var resp api.NotificationTestResponse
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, &resp)
	return resp, err
}
