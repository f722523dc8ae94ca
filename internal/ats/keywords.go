package ats

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// NormalizeKeywords lowercases and trims keywords, dropping blanks and duplicates.
// Order of first appearance is kept.
func NormalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(keywords))
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		normalized = append(normalized, kw)
	}
	return normalized
}

// MatchKeywords splits keywords into those found in the resume corpus and those missing.
// Matching is case-insensitive substring containment of the trimmed keyword, so a
// blank keyword always matches.
func MatchKeywords(doc *types.ResumeDocument, keywords []string) types.KeywordMatches {
	corpus := keywordCorpus(doc)
	matches := types.KeywordMatches{
		Matched: []string{},
		Missing: []string{},
	}
	for _, kw := range keywords {
		if strings.Contains(corpus, strings.ToLower(strings.TrimSpace(kw))) {
			matches.Matched = append(matches.Matched, kw)
		} else {
			matches.Missing = append(matches.Missing, kw)
		}
	}
	return matches
}

// keywordCorpus joins summary, bullets and skill items into one lowercase string.
func keywordCorpus(doc *types.ResumeDocument) string {
	var sb strings.Builder
	sb.WriteString(doc.Summary)
	for _, bullet := range doc.AllBullets() {
		sb.WriteString(" ")
		sb.WriteString(bullet)
	}
	for _, item := range doc.AllSkillItems() {
		sb.WriteString(" ")
		sb.WriteString(item)
	}
	return strings.ToLower(sb.String())
}
