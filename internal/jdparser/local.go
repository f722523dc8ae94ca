package jdparser

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultLimit is the number of keywords returned when the caller does not set one.
const DefaultLimit = 20

// minTokenRunes is the shortest token kept unless it is a known short skill.
const minTokenRunes = 3

// stopWords filters common English and job-posting filler.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
	"experience": true, "years": true, "year": true, "including": true,
	"requirements": true, "responsibilities": true, "qualifications": true,
	"preferred": true, "required": true, "plus": true, "strong": true,
	"skills": true, "ability": true, "knowledge": true, "understanding": true,
	"working": true, "across": true, "other": true, "must": true, "should": true,
	"help": true, "build": true, "building": true, "company": true, "candidate": true,
	"opportunity": true, "benefits": true, "salary": true, "equal": true,
	"employer": true, "within": true, "e.g": true, "i.e": true,
	"any": true, "one": true, "two": true, "etc": true, "like": true, "least": true,
	"environment": true, "fast": true, "paced": true, "looking": true, "based": true,
	"them": true, "nice": true, "hiring": true, "familiarity": true, "and/or": true,
	"hands": true, "on": true, "is": true, "to": true, "of": true, "in": true, "or": true, "as": true,
	"we": true, "us": true, "need": true, "needs": true, "needed": true, "want": true, "wants": true,
	"seeking": true, "seek": true, "ideal": true, "ideally": true, "responsible": true, "ensure": true,
	"make": true, "great": true, "love": true, "would": true, "may": true, "someone": true, "person": true,
	"apply": true, "offer": true, "day": true, "days": true, "very": true, "some": true, "every": true,
}

// shortSkills are tokens below minTokenRunes that are still meaningful.
var shortSkills = map[string]bool{
	"go": true, "c": true, "c#": true, "f#": true,
	"ai": true, "ml": true, "ci": true, "cd": true, "ui": true, "ux": true,
	"qa": true, "js": true, "ts": true, "db": true, "os": true,
}

// skillAliases groups spelling variants of one skill so their mentions are counted
// together. The keyword itself keeps the job description's own spelling.
var skillAliases = map[string]string{
	"golang":     "go",
	"k8s":        "kubernetes",
	"js":         "javascript",
	"ts":         "typescript",
	"reactjs":    "react",
	"react.js":   "react",
	"vuejs":      "vue",
	"vue.js":     "vue",
	"nodejs":     "node.js",
	"node":       "node.js",
	"postgres":   "postgresql",
	"psql":       "postgresql",
	"py":         "python",
	"gcp":        "google cloud",
	"tf":         "terraform",
	"cicd":       "ci/cd",
	"ml":         "machine learning",
	"ai":         "artificial intelligence",
	"mongo":      "mongodb",
	"dotnet":     ".net",
	"restful":    "rest",
	"rest apis":  "rest api",
}

// phrases are multi-word skills matched on consecutive words before filtering.
var phrases = map[string]bool{
	"machine learning":       true,
	"distributed systems":    true,
	"system design":          true,
	"data engineering":       true,
	"data pipelines":         true,
	"event driven":           true,
	"infrastructure as code": true,
	"google cloud":           true,
	"unit testing":           true,
	"site reliability":       true,
	"rest api":               true,
	"rest apis":              true,
}

// maxPhraseWords is the longest entry in phrases.
const maxPhraseWords = 3

// skillKey is the grouping key of a lowercase keyword.
func skillKey(keyword string) string {
	if key, ok := skillAliases[keyword]; ok {
		return key
	}
	return keyword
}

// spellingCounter counts keyword mentions per skill and remembers the first spelling seen.
type spellingCounter struct {
	counts   map[string]int
	first    map[string]int
	spelling map[string]string
}

func newSpellingCounter() *spellingCounter {
	return &spellingCounter{
		counts:   make(map[string]int),
		first:    make(map[string]int),
		spelling: make(map[string]string),
	}
}

func (c *spellingCounter) add(keyword string) {
	key := skillKey(keyword)
	if _, seen := c.first[key]; !seen {
		c.first[key] = len(c.first)
		c.spelling[key] = keyword
	}
	c.counts[key]++
}

// inOrder returns one spelling per skill in first-appearance order.
func (c *spellingCounter) inOrder() []string {
	keys := make([]string, len(c.first))
	for key, pos := range c.first {
		keys[pos] = key
	}
	return c.spellings(keys)
}

// ranked returns one spelling per skill, most mentioned first, ties by first appearance.
func (c *spellingCounter) ranked() []string {
	keys := make([]string, 0, len(c.counts))
	for key := range c.counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if c.counts[a] != c.counts[b] {
			return c.counts[a] > c.counts[b]
		}
		return c.first[a] < c.first[b]
	})
	return c.spellings(keys)
}

func (c *spellingCounter) spellings(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = c.spelling[key]
	}
	return out
}

// MergeSpellings lowercases and trims keywords, drops blanks and keeps the first
// spelling of each skill, so "Golang" and "Go" collapse into whichever came first.
func MergeSpellings(keywords []string) []string {
	c := newSpellingCounter()
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			c.add(kw)
		}
	}
	return c.inOrder()
}

// ExtractLocal pulls ranked keywords out of a job description without any network call.
// Keywords are lowercase and spelled as in the text; spelling variants of one skill
// are counted together under the first spelling. They are ordered by frequency, then
// by first appearance, and capped at limit (DefaultLimit when limit <= 0).
func ExtractLocal(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	c := newSpellingCounter()
	words := tokenize(strings.ToLower(text))
	for i := 0; i < len(words); i++ {
		if phrase, n := matchPhrase(words[i:]); n > 0 {
			c.add(phrase)
			i += n - 1
			continue
		}
		if keep(words[i]) {
			c.add(words[i])
		}
	}

	keywords := c.ranked()
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// matchPhrase returns the longest known phrase at the start of words and its word count.
func matchPhrase(words []string) (string, int) {
	for n := maxPhraseWords; n >= 2; n-- {
		if len(words) < n {
			continue
		}
		candidate := strings.Join(words[:n], " ")
		if phrases[candidate] {
			return candidate, n
		}
	}
	return "", 0
}

// keep reports whether a single word is worth ranking.
func keep(w string) bool {
	if stopWords[w] || isNumeric(w) {
		return false
	}
	return len([]rune(w)) >= minTokenRunes || shortSkills[w]
}

// tokenize splits lowercase text into words. Tech spellings like "c++", "c#",
// "node.js" and "ci/cd" survive because + # . / are word characters.
func tokenize(text string) []string {
	var words []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(strings.TrimLeft(word.String(), "/"), "./")
		word.Reset()
		if w != "" {
			words = append(words, w)
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '/' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '.' && r != '+' {
			return false
		}
	}
	return true
}
