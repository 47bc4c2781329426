// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to the compile service over HTTP.
type apiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response from the service, body included so the
// operator sees the server's explanation (e.g. the known pack ids).
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

func (c *apiClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *apiClient) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health")
	return err
}

func (c *apiClient) listPacks(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/packs")
}

func (c *apiClient) compile(ctx context.Context, packID string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/v1/packs/"+packID+"/compile")
}

func (c *apiClient) latestRun(ctx context.Context, packID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/packs/"+packID+"/runs/latest")
}

func (c *apiClient) report(ctx context.Context, packID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/packs/"+packID+"/report.md")
}

// indentJSON pretty-prints a JSON payload, passing it through untouched when
// it does not parse.
func indentJSON(data []byte) string {
	var buf strings.Builder
	var obj any
	if err := json.Unmarshal(data, &obj); err != nil {
		return string(data)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return string(data)
	}
	return strings.TrimRight(buf.String(), "\n")
}
