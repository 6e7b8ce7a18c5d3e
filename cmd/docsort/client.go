package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"docsort/internal/api"
)

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(addr, token string) *apiClient {
	base := strings.TrimSpace(addr)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &apiClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `docsortd`", base)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func (c *apiClient) status() (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(http.MethodGet, "/api/status", nil, &out)
	return out, err
}

func (c *apiClient) rows(status, docType string) ([]api.RowView, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if docType != "" {
		query.Set("type", docType)
	}
	path := "/api/rows"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out api.RowListResponse
	err := c.do(http.MethodGet, path, nil, &out)
	return out.Rows, err
}

func (c *apiClient) resolve(rowID string, req api.ResolveRequest) error {
	return c.do(http.MethodPost, "/api/rows/"+url.PathEscape(rowID)+"/resolve", req, nil)
}

func (c *apiClient) check(rowID string, checked bool) error {
	return c.do(http.MethodPost, "/api/rows/"+url.PathEscape(rowID)+"/check", api.CheckRequest{Checked: checked}, nil)
}

func (c *apiClient) checkAll(checked bool) (int, error) {
	var out api.CheckAllResponse
	err := c.do(http.MethodPost, "/api/rows/check-all", api.CheckRequest{Checked: checked}, &out)
	return out.Changed, err
}

func (c *apiClient) deposit() (int, error) {
	var out api.DepositResponse
	err := c.do(http.MethodPost, "/api/deposit", struct{}{}, &out)
	return out.Deposited, err
}

func (c *apiClient) history(event string, limit int) ([]api.HistoryEntry, error) {
	query := url.Values{}
	if event != "" {
		query.Set("event", event)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/history"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out api.HistoryResponse
	err := c.do(http.MethodGet, path, nil, &out)
	return out.Entries, err
}

func (c *apiClient) settings() (api.SettingsPayload, error) {
	var out api.SettingsPayload
	err := c.do(http.MethodGet, "/api/settings", nil, &out)
	return out, err
}

func (c *apiClient) updateSettings(payload api.SettingsPayload) (api.SettingsPayload, error) {
	var out api.SettingsPayload
	err := c.do(http.MethodPut, "/api/settings", payload, &out)
	return out, err
}
