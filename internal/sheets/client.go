// Package sheets reads reference tabs from a Google spreadsheet through the
// v4 values API. It exposes only the narrow grid-fetch interface the rest of
// the system consumes; everything else about the spreadsheet stays upstream.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oref-labs/placement-api/pkg/config"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Source is the read contract for one spreadsheet: the full cell grid of a
// named tab, header row included.
type Source interface {
	Values(ctx context.Context, tab string) ([][]string, error)
}

// Client fetches tab values from a single spreadsheet document.
type Client struct {
	spreadsheetID string
	baseURL       string
	client        *http.Client
	tokens        *tokenSource
}

// NewClient builds a Client from configuration; it fails when credential
// material cannot be loaded (fatal at session start).
func NewClient(cfg config.SheetsConfig) (*Client, error) {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	return &Client{
		spreadsheetID: cfg.SpreadsheetID,
		baseURL:       defaultBaseURL,
		client:        httpClient,
		tokens:        newTokenSource(creds, httpClient),
	}, nil
}

// Values returns the cell grid of the named tab. Missing tabs and transport
// failures come back as errors; the caller decides how to degrade.
func (c *Client) Values(ctx context.Context, tab string) ([][]string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorize sheets request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(tab))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build values request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tab %q: %w", tab, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read tab %q: %w", tab, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tab %q returned %d: %s", tab, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse tab %q: %w", tab, err)
	}
	return payload.Values, nil
}
