package tools

import "testing"

func TestUnwrapDDGRedirect_ExtractsRealURL(t *testing.T) {
	raw := "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=abc123"
	got := unwrapDDGRedirect(raw)
	want := "https://example.com/page"
	if got != want {
		t.Errorf("unwrapDDGRedirect() = %q, want %q", got, want)
	}
}

func TestUnwrapDDGRedirect_PassesThroughPlainURL(t *testing.T) {
	raw := "https://example.com/page"
	if got := unwrapDDGRedirect(raw); got != raw {
		t.Errorf("unwrapDDGRedirect() = %q, want unchanged %q", got, raw)
	}
}

func TestExtractDDGResults_ParsesLinksAndSnippets(t *testing.T) {
	html := `<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
	<a class="result__snippet" href="#">Go is an open source language.</a>`

	results, err := extractDDGResults(html, 5)
	if err != nil {
		t.Fatalf("extractDDGResults() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("extractDDGResults() got %d results, want 1", len(results))
	}
	if results[0].Title != "The Go Programming Language" {
		t.Errorf("extractDDGResults() title = %q", results[0].Title)
	}
	if results[0].URL != "https://go.dev/" {
		t.Errorf("extractDDGResults() url = %q", results[0].URL)
	}
	if results[0].Description != "Go is an open source language." {
		t.Errorf("extractDDGResults() description = %q", results[0].Description)
	}
}

func TestExtractDDGResults_NoMatchesReturnsNil(t *testing.T) {
	results, err := extractDDGResults("<html><body>no results here</body></html>", 5)
	if err != nil {
		t.Fatalf("extractDDGResults() error = %v", err)
	}
	if results != nil {
		t.Errorf("extractDDGResults() = %v, want nil", results)
	}
}
