package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// duckDuckGoSearchProvider scrapes DuckDuckGo's HTML results page — there is
// no keyless JSON API — as the unauthenticated fallback when no Brave API
// key is configured.
type duckDuckGoSearchProvider struct {
	maxResults int // 0 = no cap beyond the per-query count
	client     *http.Client
}

func newDuckDuckGoSearchProvider(maxResults int) *duckDuckGoSearchProvider {
	return &duckDuckGoSearchProvider{
		maxResults: maxResults,
		client:     &http.Client{Timeout: time.Duration(searchTimeoutSeconds) * time.Second},
	}
}

func (p *duckDuckGoSearchProvider) Name() string { return "duckduckgo" }

func (p *duckDuckGoSearchProvider) Search(ctx context.Context, params searchParams) ([]searchResult, error) {
	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(params.Query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", webSearchUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	count := params.Count
	if p.maxResults > 0 && count > p.maxResults {
		count = p.maxResults
	}
	return extractDDGResults(string(body), count)
}

var (
	ddgLinkRe    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`<a class="result__snippet[^"]*".*?>([\s\S]*?)</a>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// extractDDGResults scrapes result links and snippets out of a DuckDuckGo
// HTML results page and unwraps its tracking-redirect URLs back to the
// real destination.
func extractDDGResults(html string, count int) ([]searchResult, error) {
	linkMatches := ddgLinkRe.FindAllStringSubmatch(html, count+5)
	if len(linkMatches) == 0 {
		return nil, nil
	}

	snippetMatches := ddgSnippetRe.FindAllStringSubmatch(html, count+5)

	var results []searchResult
	for i := 0; i < len(linkMatches) && i < count; i++ {
		title := strings.TrimSpace(htmlTagRe.ReplaceAllString(linkMatches[i][2], ""))
		rawURL := unwrapDDGRedirect(linkMatches[i][1])

		desc := ""
		if i < len(snippetMatches) {
			desc = strings.TrimSpace(htmlTagRe.ReplaceAllString(snippetMatches[i][1], ""))
		}

		results = append(results, searchResult{
			Title:       title,
			URL:         rawURL,
			Description: desc,
		})
	}

	return results, nil
}

// unwrapDDGRedirect extracts the real destination URL from DuckDuckGo's
// "/l/?uddg=<encoded-url>&..." tracking-redirect links.
func unwrapDDGRedirect(rawURL string) string {
	if !strings.Contains(rawURL, "uddg=") {
		return rawURL
	}
	u, err := url.QueryUnescape(rawURL)
	if err != nil {
		return rawURL
	}
	idx := strings.Index(u, "uddg=")
	if idx == -1 {
		return rawURL
	}
	extracted := u[idx+len("uddg="):]
	if ampIdx := strings.Index(extracted, "&"); ampIdx != -1 {
		extracted = extracted[:ampIdx]
	}
	return extracted
}
