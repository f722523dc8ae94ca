package fetch

import (
	"encoding/json"
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageNoise is removed from every page before looking for content.
const pageNoise = "nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .popup"

// blockElements get a trailing newline so list items and paragraphs stay apart.
const blockElements = "li, p, h1, h2, h3, h4, div"

// ExtractJobText returns the job description in html. JobPosting structured data is
// preferred; otherwise the platform's content and noise selectors are applied.
func ExtractJobText(html string, platform Platform) (string, error) {
	text, _, err := extractJob(html, platform)
	return text, err
}

func extractJob(html string, platform Platform) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if description := jobPostingDescription(doc); description != "" {
		if text, err := htmlText(description); err == nil && text != "" {
			return text, true, nil
		}
	}

	return mainText(doc, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)), false, nil
}

// ExtractMainText returns the text of the first element matching contentSelectors,
// or of the body when none match, after removing page chrome and noiseSelectors.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return mainText(doc, contentSelectors, noiseSelectors), nil
}

func mainText(doc *goquery.Document, contentSelectors, noiseSelectors []string) string {
	doc.Find(pageNoise).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	return selectionText(content)
}

// htmlText converts an HTML fragment to plain text. Some boards entity-encode the
// markup inside JSON-LD, so it is decoded first.
func htmlText(fragment string) (string, error) {
	if strings.Contains(fragment, "&lt;") {
		fragment = stdhtml.UnescapeString(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	return selectionText(doc.Selection), nil
}

func selectionText(s *goquery.Selection) string {
	s.Find(blockElements).Each(func(_ int, el *goquery.Selection) {
		el.AppendHtml("\n")
	})
	return cleanWhitespace(s.Text())
}

// jobPostingDescription returns the description of the first schema.org JobPosting
// found in the page's JSON-LD blocks.
func jobPostingDescription(doc *goquery.Document) string {
	var description string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			return true
		}
		description = findJobPosting(node)
		return description == ""
	})
	return description
}

// findJobPosting walks arrays and @graph containers looking for a JobPosting.
func findJobPosting(node any) string {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if d := findJobPosting(item); d != "" {
				return d
			}
		}
	case map[string]any:
		if isJobPostingType(v["@type"]) {
			if d, ok := v["description"].(string); ok && strings.TrimSpace(d) != "" {
				return d
			}
		}
		if graph, ok := v["@graph"]; ok {
			return findJobPosting(graph)
		}
	}
	return ""
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// JobPostingSelectors returns selectors for job pages on unknown platforms.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// cleanWhitespace collapses runs of spaces, trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
