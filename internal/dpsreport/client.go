// Package dpsreport downloads Elite Insights reports that were uploaded to
// dps.report, so a raid can be processed from its permalinks.
package dpsreport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL is the public dps.report endpoint.
const DefaultBaseURL = "https://dps.report"

// Client is a minimal dps.report client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Permalink extracts the permalink from a full report URL. A bare permalink
// is returned unchanged.
func Permalink(s string) string {
	s = strings.TrimSpace(s)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Path
	}
	s = strings.Trim(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// GetJSON streams the Elite Insights JSON of one report into w.
func (c *Client) GetJSON(ctx context.Context, permalink string, w io.Writer) error {
	params := url.Values{"permalink": {Permalink(permalink)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getJson?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dps.report: GET %s: %w", permalink, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("dps.report: %s: HTTP %d: %s", permalink, resp.StatusCode, errorMessage(body))
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("dps.report: read %s: %w", permalink, err)
	}
	return nil
}

// errorMessage returns the "error" field of a JSON error body, or a snippet
// of the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return snippet
}
