package tools

import (
	"strings"
	"testing"
)

func TestNormalizeFreshness_Shortcuts(t *testing.T) {
	for _, v := range []string{"pd", "pw", "pm", "py", "PD"} {
		if got := normalizeFreshness(v); got == "" {
			t.Errorf("normalizeFreshness(%q) = %q, want a shortcut", v, got)
		}
	}
}

func TestNormalizeFreshness_ValidRange(t *testing.T) {
	got := normalizeFreshness("2024-01-01to2024-02-01")
	if got != "2024-01-01to2024-02-01" {
		t.Errorf("normalizeFreshness() = %q, want range passthrough", got)
	}
}

func TestNormalizeFreshness_RejectsInvertedRange(t *testing.T) {
	if got := normalizeFreshness("2024-02-01to2024-01-01"); got != "" {
		t.Errorf("normalizeFreshness() = %q, want empty for inverted range", got)
	}
}

func TestNormalizeFreshness_RejectsGarbage(t *testing.T) {
	for _, v := range []string{"", "yesterday", "2024-01-01", "lastweek"} {
		if got := normalizeFreshness(v); got != "" {
			t.Errorf("normalizeFreshness(%q) = %q, want empty", v, got)
		}
	}
}

func TestBuildSearchCacheKey_DistinguishesParams(t *testing.T) {
	a := buildSearchCacheKey(searchParams{Query: "go", Count: 5})
	b := buildSearchCacheKey(searchParams{Query: "go", Count: 5, Country: "DE"})
	if a == b {
		t.Error("buildSearchCacheKey() should differ when Country differs")
	}
}

func TestFormatSearchResults_EmptyResults(t *testing.T) {
	got := formatSearchResults("golang", nil, "brave")
	want := "No results found for: golang"
	if got != want {
		t.Errorf("formatSearchResults() = %q, want %q", got, want)
	}
}

func TestFormatSearchResults_IncludesTitleURLAndDescription(t *testing.T) {
	results := []searchResult{{Title: "Go", URL: "https://go.dev", Description: "The Go language"}}
	got := formatSearchResults("golang", results, "brave")
	for _, want := range []string{"via brave", "1. Go", "https://go.dev", "The Go language"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatSearchResults() missing %q in: %s", want, got)
		}
	}
}
