// Package aaps talks to the regulator's data API: token exchange and dataset download.
package aaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const tokenPath = "api-token-auth/"

// Dataset is the tabular payload of one remote dataset.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type tokenResponse struct {
	Token  string   `json:"token"`
	Detail string   `json:"detail"`
	Errors []string `json:"non_field_errors"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL, "/")
}

// Authenticate exchanges a username and password for an API token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	logger := zerolog.Ctx(ctx)

	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Msg("token request failed")
		return "", err
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil && status < 300 {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if status >= 300 {
		reason := token.Detail
		if reason == "" {
			reason = strings.Join(token.Errors, "; ")
		}
		if reason == "" {
			reason = http.StatusText(status)
		}
		return "", &domain.AuthError{Status: status, Reason: reason}
	}
	if token.Token == "" {
		return "", &domain.AuthError{Status: status, Reason: "no token in response"}
	}

	logger.Info().Str("user", username).Msg("token issued")
	return token.Token, nil
}

// FetchDataset downloads the dataset at path. Unauthorized responses are AuthErrors.
func (c *Client) FetchDataset(ctx context.Context, token, path string) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &domain.AuthError{Status: status, Reason: "token rejected"}
	case status >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, status)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", path, err)
	}
	for i, row := range ds.Rows {
		if len(row) != len(ds.Columns) {
			return nil, fmt.Errorf("dataset %s row %d has %d cells, expected %d", path, i, len(row), len(ds.Columns))
		}
	}
	return &ds, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
