// Package search provides the web-context source backing the legal,
// financial and feasibility assistant modes. It scrapes the DuckDuckGo
// HTML endpoint; any failure degrades to an empty result so the chat
// pipeline never blocks on the web.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL is the DuckDuckGo HTML search endpoint.
	DefaultURL = "https://html.duckduckgo.com/html/"

	maxResults   = 3
	fetchTimeout = 8 * time.Second
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

var (
	snippetRe = regexp.MustCompile(`(?s)<a[^>]*class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
)

// Client fetches search snippets for a chat question.
type Client struct {
	URL    string
	client *http.Client
	logger *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		URL:    DefaultURL,
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// Search returns up to three numbered snippets for the query, biased to
// current Brazilian sources. An empty string means the web is unavailable.
func (c *Client) Search(ctx context.Context, query string) string {
	q := fmt.Sprintf("%s brasil regras dados atualizados 2025", query)

	form := url.Values{"q": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("web search failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("web search failed", zap.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	return extractSnippets(string(body))
}

func extractSnippets(html string) string {
	matches := snippetRe.FindAllStringSubmatch(html, maxResults)
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	for i, m := range matches {
		text := strings.TrimSpace(tagRe.ReplaceAllString(m[1], ""))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return b.String()
}
