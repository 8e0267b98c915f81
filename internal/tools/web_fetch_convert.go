package tools

import (
	"encoding/json"
	"regexp"
	"strings"
)

// extractJSON pretty-prints a JSON response body. Falls back to the raw
// bytes if the body isn't actually valid JSON despite its content type.
func extractJSON(body []byte) (string, string) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err == nil {
		formatted, _ := json.MarshalIndent(data, "", "  ")
		return string(formatted), "json"
	}
	return string(body), "raw"
}

var (
	reScript  = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle   = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reComment = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reNav     = regexp.MustCompile(`(?is)<nav[\s\S]*?</nav>`)
	reFooter  = regexp.MustCompile(`(?is)<footer[\s\S]*?</footer>`)
	reHeader  = regexp.MustCompile(`(?is)<header[\s\S]*?</header>`)
	reTag     = regexp.MustCompile(`<[^>]+>`)
	reMultiNL = regexp.MustCompile(`\n{3,}`)
	reMultiSP = regexp.MustCompile(`[ \t]{2,}`)

	reH1        = regexp.MustCompile(`(?i)<h1[^>]*>([\s\S]*?)</h1>`)
	reH2        = regexp.MustCompile(`(?i)<h2[^>]*>([\s\S]*?)</h2>`)
	reH3        = regexp.MustCompile(`(?i)<h3[^>]*>([\s\S]*?)</h3>`)
	reH4        = regexp.MustCompile(`(?i)<h4[^>]*>([\s\S]*?)</h4>`)
	reH5        = regexp.MustCompile(`(?i)<h5[^>]*>([\s\S]*?)</h5>`)
	reH6        = regexp.MustCompile(`(?i)<h6[^>]*>([\s\S]*?)</h6>`)
	reParagraph = regexp.MustCompile(`(?i)<p[^>]*>([\s\S]*?)</p>`)
	reBreak     = regexp.MustCompile(`(?i)<br\s*/?>`)
	reListItem  = regexp.MustCompile(`(?i)<li[^>]*>([\s\S]*?)</li>`)
	reAnchor    = regexp.MustCompile(`(?i)<a[^>]*href="([^"]*)"[^>]*>([\s\S]*?)</a>`)
	rePre       = regexp.MustCompile(`(?is)<pre[^>]*>([\s\S]*?)</pre>`)
	reCode      = regexp.MustCompile(`(?i)<code[^>]*>([\s\S]*?)</code>`)
	reStrong    = regexp.MustCompile(`(?i)<(?:strong|b)[^>]*>([\s\S]*?)</(?:strong|b)>`)
	reEm        = regexp.MustCompile(`(?i)<(?:em|i)[^>]*>([\s\S]*?)</(?:em|i)>`)
	reBlockq    = regexp.MustCompile(`(?is)<blockquote[^>]*>([\s\S]*?)</blockquote>`)
	reImg       = regexp.MustCompile(`(?i)<img[^>]*alt="([^"]*)"[^>]*/?>`)
)

// stripChrome removes page chrome that's never worth keeping in extracted
// content: scripts, stylesheets, comments, nav and footer landmarks, and (for
// the text path only) header landmarks. htmlToMarkdown keeps <header> since a
// masthead sometimes carries the only heading on thin pages.
func stripChrome(html string, stripLandmarks bool) string {
	s := reScript.ReplaceAllString(html, "")
	s = reStyle.ReplaceAllString(s, "")
	s = reComment.ReplaceAllString(s, "")
	s = reNav.ReplaceAllString(s, "")
	s = reFooter.ReplaceAllString(s, "")
	if stripLandmarks {
		s = reHeader.ReplaceAllString(s, "")
	}
	return s
}

// finishExtraction runs the shared tail of both extraction modes: decode
// entities, strip any tag regex missed, and collapse runs of blank
// lines/spaces left behind by the structural substitutions above.
func finishExtraction(s string) string {
	s = reTag.ReplaceAllString(s, "")
	s = decodeHTMLEntities(s)
	s = reMultiSP.ReplaceAllString(s, " ")
	s = reMultiNL.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// htmlToMarkdown converts HTML to a markdown-like format. Not a full
// Readability implementation, but covers the structural elements a typical
// article or docs page uses.
func htmlToMarkdown(html string) string {
	s := stripChrome(html, false)

	s = reH1.ReplaceAllString(s, "\n# $1\n")
	s = reH2.ReplaceAllString(s, "\n## $1\n")
	s = reH3.ReplaceAllString(s, "\n### $1\n")
	s = reH4.ReplaceAllString(s, "\n#### $1\n")
	s = reH5.ReplaceAllString(s, "\n##### $1\n")
	s = reH6.ReplaceAllString(s, "\n###### $1\n")

	// Pre/code blocks before stripping other tags, so their contents survive.
	s = rePre.ReplaceAllString(s, "\n```\n$1\n```\n")
	s = reCode.ReplaceAllString(s, "`$1`")

	s = reBlockq.ReplaceAllStringFunc(s, quoteBlockquote)

	s = reAnchor.ReplaceAllString(s, "[$2]($1)")
	s = reImg.ReplaceAllString(s, "![$1]")
	s = reStrong.ReplaceAllString(s, "**$1**")
	s = reEm.ReplaceAllString(s, "*$1*")

	s = reParagraph.ReplaceAllString(s, "\n$1\n")
	s = reBreak.ReplaceAllString(s, "\n")
	s = reListItem.ReplaceAllString(s, "\n- $1")

	return finishExtraction(s)
}

// quoteBlockquote prefixes every line of a <blockquote> body with "> ",
// markdown's own blockquote syntax.
func quoteBlockquote(match string) string {
	inner := reBlockq.FindStringSubmatch(match)
	if len(inner) < 2 {
		return match
	}
	lines := strings.Split(strings.TrimSpace(inner[1]), "\n")
	quoted := make([]string, len(lines))
	for i, l := range lines {
		quoted[i] = "> " + strings.TrimSpace(l)
	}
	return "\n" + strings.Join(quoted, "\n") + "\n"
}

// htmlToText extracts plain, unformatted text from HTML content.
func htmlToText(html string) string {
	s := stripChrome(html, true)

	s = reParagraph.ReplaceAllString(s, "\n$1\n")
	s = reBreak.ReplaceAllString(s, "\n")
	s = reListItem.ReplaceAllString(s, "\n- $1")

	s = finishExtraction(s)

	lines := strings.Split(s, "\n")
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			clean = append(clean, line)
		}
	}
	return strings.Join(clean, "\n")
}

// markdownToText strips markdown formatting back down to plain text, used
// when a text/markdown response is requested in "text" extract mode.
func markdownToText(md string) string {
	s := regexp.MustCompile(`(?m)^#{1,6}\s+`).ReplaceAllString(md, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = regexp.MustCompile("`[^`]+`").ReplaceAllStringFunc(s, func(m string) string {
		return strings.Trim(m, "`")
	})
	s = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`).ReplaceAllString(s, "$1")
	s = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(s, "$1")
	s = reMultiNL.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// decodeHTMLEntities handles the small set of named HTML entities that
// actually show up in ordinary web content.
func decodeHTMLEntities(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
		"&nbsp;", " ",
		"&mdash;", "—",
		"&ndash;", "–",
		"&laquo;", "«",
		"&raquo;", "»",
		"&bull;", "•",
		"&hellip;", "...",
		"&copy;", "(c)",
		"&reg;", "(R)",
		"&trade;", "(TM)",
	)
	return replacer.Replace(s)
}
