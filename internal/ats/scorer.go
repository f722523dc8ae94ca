package ats

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// keywordsDefaultScore is returned when no job-description keywords are supplied.
	keywordsDefaultScore = 75
	// minSummaryChars is the shortest summary that counts as present.
	minSummaryChars = 50
)

// structureRule is one fixed penalty applied when a required field is missing or weak.
type structureRule struct {
	Name    string
	Penalty int
	Missing func(doc *types.ResumeDocument) bool
}

//nolint:gochecknoglobals // Scoring configuration constants
var structureRules = []structureRule{
	{Name: "NAME_MISSING", Penalty: 15, Missing: func(d *types.ResumeDocument) bool { return d.PersonalInfo.Name == "" }},
	{Name: "EMAIL_MISSING", Penalty: 10, Missing: func(d *types.ResumeDocument) bool { return d.PersonalInfo.Email == "" }},
	{Name: "PHONE_MISSING", Penalty: 5, Missing: func(d *types.ResumeDocument) bool { return d.PersonalInfo.Phone == "" }},
	{Name: "SUMMARY_WEAK", Penalty: 15, Missing: func(d *types.ResumeDocument) bool { return charCount(d.Summary) < minSummaryChars }},
	{Name: "NO_EXPERIENCE", Penalty: 25, Missing: func(d *types.ResumeDocument) bool { return len(d.Experience) == 0 }},
	{Name: "NO_EDUCATION", Penalty: 10, Missing: func(d *types.ResumeDocument) bool { return len(d.Education) == 0 }},
	{Name: "NO_SKILLS", Penalty: 10, Missing: func(d *types.ResumeDocument) bool { return len(d.Skills) == 0 }},
}

// Scorer computes ATS scores for resume documents. It holds no per-document state,
// so one Scorer may be shared between goroutines.
type Scorer struct {
	policy *compiledPolicy
}

// NewScorer compiles a policy into a scorer.
func NewScorer(policy Policy) (*Scorer, error) {
	compiled, err := policy.compile()
	if err != nil {
		return nil, err
	}
	return &Scorer{policy: compiled}, nil
}

// NewDefaultScorer returns a scorer for DefaultPolicy.
func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultPolicy())
	if err != nil {
		panic("default ATS policy does not compile: " + err.Error())
	}
	return s
}

// Weights returns the category weights in effect.
func (s *Scorer) Weights() Weights {
	return s.policy.weights
}

// Score runs a full scoring pass. The returned report has a zero ScoredAt; callers stamp it.
func (s *Scorer) Score(doc *types.ResumeDocument, jobKeywords []string) types.Report {
	breakdown := s.Breakdown(doc, jobKeywords)

	report := types.Report{
		Score:          Overall(breakdown, s.policy.weights),
		Breakdown:      breakdown,
		SectionSignals: Signals(doc),
	}
	// Duplicates still count toward Keywords; the report lists each keyword once.
	if keywords := NormalizeKeywords(jobKeywords); len(keywords) > 0 {
		matches := MatchKeywords(doc, keywords)
		report.JobKeywords = keywords
		report.KeywordMatches = &matches
	}
	return report
}

// Breakdown computes all five category scores.
func (s *Scorer) Breakdown(doc *types.ResumeDocument, jobKeywords []string) types.ScoreBreakdown {
	return types.ScoreBreakdown{
		Structure:    s.Structure(doc),
		Keywords:     s.Keywords(doc, jobKeywords),
		Content:      s.Content(doc),
		Readability:  s.Readability(doc),
		Completeness: s.Completeness(doc),
	}
}

// Structure starts at 100 and subtracts a fixed penalty per missing required field.
func (s *Scorer) Structure(doc *types.ResumeDocument) (score int) {
	score = 100

	for _, rule := range structureRules {
		if rule.Missing(doc) {
			score -= rule.Penalty
		}
	}

	return floor(score)
}

// Keywords is the rounded percentage of job keywords found in the summary, bullets and skills.
// Every supplied keyword counts, duplicates included. With no keywords it returns a fixed default.
func (s *Scorer) Keywords(doc *types.ResumeDocument, jobKeywords []string) int {
	if len(jobKeywords) == 0 {
		return keywordsDefaultScore
	}

	matches := MatchKeywords(doc, jobKeywords)
	return roundRatio(100*len(matches.Matched), len(jobKeywords))
}

// Content penalizes bullets that lack a leading action verb or a quantified result.
func (s *Scorer) Content(doc *types.ResumeDocument) (score int) {
	score = 100

	bullets := doc.AllBullets()
	n := len(bullets)

	verbs, metrics := 0, 0
	for _, bullet := range bullets {
		if s.startsWithActionVerb(bullet) {
			verbs++
		}
		if s.hasMetric(bullet) {
			metrics++
		}
	}

	// Rates are compared with integer cross-multiplication; an empty list is rate 0.
	if 2*verbs < n || n == 0 {
		score -= 20
	}
	if 10*verbs < 3*n || n == 0 {
		score -= 10
	}
	if 5*metrics < 2*n || n == 0 {
		score -= 15
	}
	if 5*metrics < n || n == 0 {
		score -= 10
	}

	return floor(score)
}

// Readability penalizes summaries outside 100-500 characters and bullets outside 30-150
// characters on average.
func (s *Scorer) Readability(doc *types.ResumeDocument) (score int) {
	score = 100

	summaryLen := charCount(doc.Summary)
	// Independent checks; the thresholds never let both fire.
	if summaryLen > 500 {
		score -= 10
	}
	if summaryLen < 100 {
		score -= 10
	}

	bullets := doc.AllBullets()
	total := 0
	for _, bullet := range bullets {
		total += charCount(bullet)
	}
	n := len(bullets)
	// mean > 150 and mean < 30 without dividing; no bullets means a mean of 0.
	if n > 0 && total > 150*n {
		score -= 15
	}
	if total < 30*n || n == 0 {
		score -= 10
	}

	return floor(score)
}

// Completeness is the rounded share of seven presence checks that pass.
func (s *Scorer) Completeness(doc *types.ResumeDocument) int {
	checks := []bool{
		doc.PersonalInfo.Name != "" && doc.PersonalInfo.Email != "",
		charCount(doc.Summary) >= minSummaryChars,
		len(doc.Experience) > 0,
		len(doc.Education) > 0,
		len(doc.Skills) > 0,
		len(doc.Certifications) > 0,
		len(doc.Projects) > 0,
	}

	satisfied := 0
	for _, ok := range checks {
		if ok {
			satisfied++
		}
	}
	return roundRatio(100*satisfied, len(checks))
}

func (s *Scorer) startsWithActionVerb(bullet string) bool {
	return s.policy.actionVerb.MatchString(strings.TrimSpace(bullet))
}

func (s *Scorer) hasMetric(bullet string) bool {
	for _, re := range s.policy.metrics {
		if re.MatchString(bullet) {
			return true
		}
	}
	return false
}

// charCount measures text length in Unicode code points.
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

func floor(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
