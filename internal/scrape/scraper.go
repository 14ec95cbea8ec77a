// Package scrape fetches web pages and reduces them to plain text for
// chunking and embedding.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxPageSize = 10 << 20 // 10MB

// Scraper fetches a page and extracts its visible text.
type Scraper struct {
	client *http.Client
}

// New creates a Scraper with the given per-request timeout.
// timeout <= 0 defaults to 30s.
func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

// Text fetches url and returns the document's text content with markup
// stripped and whitespace collapsed. An unreachable page or a non-2xx
// status is an error; a page with no text yields "".
func (s *Scraper) Text(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "pitwall/1.0 (+https://github.com/pitwall-ai/pitwall)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	return ExtractText(io.LimitReader(resp.Body, maxPageSize))
}

// ExtractText tokenizes HTML and collects text nodes, skipping script,
// style, and noscript elements. Runs of whitespace collapse to one space.
func ExtractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var sb strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return "", fmt.Errorf("parsing HTML: %w", err)
			}
			return collapseWhitespace(sb.String()), nil

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func isSkippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
