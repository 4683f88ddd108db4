package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Pages larger than this are cut off before parsing; study material beyond
// a few megabytes of markup is not worth summarizing anyway.
const maxFetchBytes = 4 << 20

const truncationMarker = "\n\n[content truncated]"

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true, "br": true,
	"header": true, "footer": true, "main": true, "table": true,
}

func fetchPageText(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "studyhall/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	text, err := htmlToText(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return text, nil
}

// htmlToText walks the parsed document and collects visible text, inserting
// line breaks at block boundaries so paragraph structure survives for the
// summarizer's sentence splitting.
func htmlToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return b.String(), nil
}

// cleanText normalizes whitespace and strips control characters so the text
// is safe to hand to the model, truncating at maxChars on a word boundary.
func cleanText(s string, maxChars int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	var spaceRun, newlineRun int
	for _, r := range s {
		switch {
		case r == '\n':
			newlineRun++
			spaceRun = 0
			if newlineRun <= 2 {
				b.WriteRune(r)
			}
		case r == ' ' || r == '\t':
			spaceRun++
			if spaceRun == 1 {
				b.WriteByte(' ')
			}
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			// dropped
		default:
			spaceRun, newlineRun = 0, 0
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if maxChars > 0 && len(out) > maxChars {
		cut := out[:maxChars]
		if idx := strings.LastIndexAny(cut, " \n"); idx > maxChars/2 {
			cut = cut[:idx]
		}
		out = strings.TrimSpace(cut) + truncationMarker
	}
	return out
}
