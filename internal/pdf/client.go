// Package pdf calls the external HTML-to-PDF rasterization service. The
// engine renders HTML; turning it into a PDF is an external collaborator.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matthewbaird/rentroll/internal/metrics"
)

// Client posts rendered HTML to a rasterizer endpoint and returns the PDF
// bytes.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given service URL. An empty URL
// disables PDF output; Enabled reports the state.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a rasterizer is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Render rasterizes HTML into a PDF.
func (c *Client) Render(ctx context.Context, html string) ([]byte, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("pdf service not configured")
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pdf service returned %d: %s", resp.StatusCode, body)
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	metrics.PDFRenderDuration.Observe(time.Since(start).Seconds())
	return out, nil
}
