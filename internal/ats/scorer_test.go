package ats

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSummary = "Backend engineer with eight years of experience building distributed systems in Go and Python. " +
	"Focused on reliability, observability and cost-efficient cloud infrastructure on Kubernetes, " +
	"with a track record of mentoring engineers and shipping customer-facing APIs."

// strongDocument returns a resume that satisfies every rule of the default policy.
func strongDocument() *types.ResumeDocument {
	return &types.ResumeDocument{
		PersonalInfo: types.PersonalInfo{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Phone: "+1 555 0100",
		},
		Summary: testSummary,
		Experience: []types.ExperienceEntry{
			{
				Company:  "Acme",
				Position: "Senior Engineer",
				Bullets: []string{
					"Led migration of billing services to Go, cutting p99 latency by 40%",
					"Built an ingestion pipeline processing 2M events per day for analytics",
					"Reduced cloud spend by $120000 annually through rightsizing",
					"Managed a team of 6 engineers supporting 50000 users across regions",
				},
			},
			{
				Company:  "Globex",
				Position: "Engineer",
				Bullets: []string{
					"Designed a caching layer that served 10K requests per second reliably",
					"Implemented CI pipelines that cut release time by 30% for all teams",
					"Launched a self-service portal adopted by 300 customers in one quarter",
					"Improved onboarding docs, raising contributor retention by 25%",
				},
			},
		},
		Education: []types.EducationEntry{{School: "State University", Degree: "BSc", Field: "Computer Science"}},
		Skills: []types.SkillGroup{
			{Category: "Languages", Items: []string{"Go", "Python", "SQL", "Bash", "TypeScript"}},
			{Category: "Platforms", Items: []string{"Kubernetes", "PostgreSQL", "Kafka", "AWS", "Terraform"}},
		},
		Certifications: []json.RawMessage{json.RawMessage(`{"name":"CKA"}`)},
		Projects:       []json.RawMessage{json.RawMessage(`{"name":"resume-builder"}`)},
	}
}

func TestStructure(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name     string
		mutate   func(d *types.ResumeDocument)
		expected int
	}{
		{"Complete document", func(_ *types.ResumeDocument) {}, 100},
		{"Missing name", func(d *types.ResumeDocument) { d.PersonalInfo.Name = "" }, 85},
		{"Missing email", func(d *types.ResumeDocument) { d.PersonalInfo.Email = "" }, 90},
		{"Missing phone", func(d *types.ResumeDocument) { d.PersonalInfo.Phone = "" }, 95},
		{"Summary under 50 chars", func(d *types.ResumeDocument) { d.Summary = strings.Repeat("x", 49) }, 85},
		{"Summary exactly 50 chars", func(d *types.ResumeDocument) { d.Summary = strings.Repeat("x", 50) }, 100},
		{"No experience", func(d *types.ResumeDocument) { d.Experience = nil }, 75},
		{"No education", func(d *types.ResumeDocument) { d.Education = nil }, 90},
		{"No skills", func(d *types.ResumeDocument) { d.Skills = nil }, 90},
		{"Contact block missing", func(d *types.ResumeDocument) { d.PersonalInfo = types.PersonalInfo{} }, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strongDocument()
			tt.mutate(doc)
			assert.Equal(t, tt.expected, s.Structure(doc))
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	s := NewDefaultScorer()
	doc := &types.ResumeDocument{}

	b := s.Breakdown(doc, nil)

	// Every structure penalty fires: 100-15-10-5-15-25-10-10.
	assert.Equal(t, 10, b.Structure)
	assert.Equal(t, 75, b.Keywords)
	assert.Equal(t, 45, b.Content)
	assert.Equal(t, 80, b.Readability)
	assert.Equal(t, 0, b.Completeness)
	assert.Equal(t, 46, Overall(b, DefaultWeights()))

	withJD := s.Score(doc, []string{"go", "kubernetes"})
	assert.Equal(t, 0, withJD.Breakdown.Keywords)
	assert.Equal(t, 24, withJD.Score)
	assert.Less(t, withJD.Score, 30)
}

func TestKeywords(t *testing.T) {
	s := NewDefaultScorer()
	doc := strongDocument()

	tests := []struct {
		name     string
		keywords []string
		expected int
	}{
		{"No keywords returns default", nil, 75},
		{"Empty list returns default", []string{}, 75},
		{"Blank keywords match trivially", []string{"  ", ""}, 100},
		{"Blank keyword still counts", []string{"", "cobol"}, 50},
		{"All keywords present", []string{"go", "kubernetes", "postgresql"}, 100},
		{"Case-insensitive match", []string{"KUBERNETES", "Terraform"}, 100},
		{"Match in bullet text", []string{"ingestion pipeline"}, 100},
		{"Match in summary", []string{"observability"}, 100},
		{"One of three", []string{"go", "rust", "elixir"}, 33},
		{"Two of three", []string{"go", "kafka", "elixir"}, 67},
		{"None present", []string{"cobol", "fortran"}, 0},
		{"Every duplicate counts", []string{"go", "GO", "rust"}, 67},
		{"Duplicate misses count", []string{"go", "rust", "Rust"}, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Keywords(doc, tt.keywords))
		})
	}
}

func TestContent(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name     string
		bullets  []string
		expected int
	}{
		{
			name: "All bullets strong",
			bullets: []string{
				"Led a team of 5 engineers and grew revenue 20%",
				"Built a service handling 3M requests",
			},
			expected: 100,
		},
		{
			name:     "No bullets counts as rate zero",
			bullets:  nil,
			expected: 45,
		},
		{
			name: "Leading whitespace and case ignored",
			bullets: []string{
				"   LED platform work that saved $5000",
				"  optimized queries by 35%",
			},
			expected: 100,
		},
		{
			name: "One verb and one metric in four",
			bullets: []string{
				"Led the rollout to 40% of regions",
				"Worked on internal tooling",
				"Responsible for on-call",
				"Helped with documentation",
			},
			expected: 55,
		},
		{
			name: "Verb must start the bullet",
			bullets: []string{
				"Was asked to lead migration, cutting costs by 10%",
				"Team led by me grew to 12 employees",
			},
			// no verb rate (-30), metrics present in both
			expected: 70,
		},
		{
			name: "Verb prefix of longer word does not count",
			bullets: []string{
				"Ledger reconciliation for 50 customers",
				"Builder pattern used in 3 services",
			},
			// "50 customers" is a metric, "3 services" is not: rate 0.5
			expected: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &types.ResumeDocument{
				Experience: []types.ExperienceEntry{{Company: "Acme", Bullets: tt.bullets}},
			}
			assert.Equal(t, tt.expected, s.Content(doc))
		})
	}
}

func TestContent_MonotonicInMissingVerbs(t *testing.T) {
	s := NewDefaultScorer()

	previous := 101
	for withVerb := 10; withVerb >= 0; withVerb-- {
		bullets := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			if i < withVerb {
				bullets = append(bullets, "Delivered a feature used by 100 users")
			} else {
				bullets = append(bullets, "Feature work used by 100 users")
			}
		}
		doc := &types.ResumeDocument{Experience: []types.ExperienceEntry{{Bullets: bullets}}}

		score := s.Content(doc)
		assert.LessOrEqual(t, score, previous, "content score rose when verb count dropped to %d", withVerb)
		previous = score
	}
	assert.Equal(t, 70, previous)
}

func TestReadability(t *testing.T) {
	s := NewDefaultScorer()
	okBullet := strings.Repeat("b", 80)

	tests := []struct {
		name     string
		summary  string
		bullets  []string
		expected int
	}{
		{"Balanced", strings.Repeat("s", 300), []string{okBullet}, 100},
		{"Summary too long", strings.Repeat("s", 501), []string{okBullet}, 90},
		{"Summary exactly 500", strings.Repeat("s", 500), []string{okBullet}, 100},
		{"Summary too short", strings.Repeat("s", 99), []string{okBullet}, 90},
		{"Summary exactly 100", strings.Repeat("s", 100), []string{okBullet}, 100},
		{"Bullets too long", strings.Repeat("s", 300), []string{strings.Repeat("b", 151)}, 85},
		{"Bullets too short", strings.Repeat("s", 300), []string{strings.Repeat("b", 29)}, 90},
		{"Mean is averaged", strings.Repeat("s", 300), []string{strings.Repeat("b", 20), strings.Repeat("b", 40)}, 100},
		{"No bullets", strings.Repeat("s", 300), nil, 90},
		{"Multibyte runes counted once", strings.Repeat("é", 100), []string{okBullet}, 100},
		{"Worst case", "", []string{strings.Repeat("b", 200)}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &types.ResumeDocument{
				Summary:    tt.summary,
				Experience: []types.ExperienceEntry{{Bullets: tt.bullets}},
			}
			assert.Equal(t, tt.expected, s.Readability(doc))
		})
	}
}

func TestCompleteness(t *testing.T) {
	s := NewDefaultScorer()

	assert.Equal(t, 100, s.Completeness(strongDocument()))
	assert.Equal(t, 0, s.Completeness(&types.ResumeDocument{}))

	onlyContact := &types.ResumeDocument{PersonalInfo: types.PersonalInfo{Name: "A", Email: "a@b.c"}}
	assert.Equal(t, 14, s.Completeness(onlyContact))

	nameOnly := &types.ResumeDocument{PersonalInfo: types.PersonalInfo{Name: "A"}}
	assert.Equal(t, 0, s.Completeness(nameOnly))

	noExtras := strongDocument()
	noExtras.Certifications = nil
	noExtras.Projects = nil
	// 5 of 7 = 71.4
	assert.Equal(t, 71, s.Completeness(noExtras))
}

func TestScore_StrongDocument(t *testing.T) {
	s := NewDefaultScorer()

	report := s.Score(strongDocument(), nil)

	assert.Equal(t, types.ScoreBreakdown{
		Structure:    100,
		Keywords:     75,
		Content:      100,
		Readability:  100,
		Completeness: 100,
	}, report.Breakdown)
	// 92.5 rounds half up
	assert.Equal(t, 93, report.Score)
	assert.Nil(t, report.KeywordMatches)
	assert.Empty(t, report.JobKeywords)
	require.Len(t, report.SectionSignals, 4)
	for _, sig := range report.SectionSignals {
		assert.Equal(t, types.SignalStrong, sig.Status, sig.SectionID)
	}
}

func TestScore_ReportsKeywordMatches(t *testing.T) {
	s := NewDefaultScorer()

	report := s.Score(strongDocument(), []string{" Go ", "Rust", "kafka"})

	assert.Equal(t, []string{"go", "rust", "kafka"}, report.JobKeywords)
	require.NotNil(t, report.KeywordMatches)
	assert.Equal(t, []string{"go", "kafka"}, report.KeywordMatches.Matched)
	assert.Equal(t, []string{"rust"}, report.KeywordMatches.Missing)
	assert.Equal(t, 67, report.Breakdown.Keywords)
}

func TestScore_DuplicateKeywordsCountButListOnce(t *testing.T) {
	s := NewDefaultScorer()

	report := s.Score(strongDocument(), []string{"go", "GO", "rust"})

	assert.Equal(t, 67, report.Breakdown.Keywords)
	assert.Equal(t, []string{"go", "rust"}, report.JobKeywords)
	require.NotNil(t, report.KeywordMatches)
	assert.Equal(t, []string{"go"}, report.KeywordMatches.Matched)
	assert.Equal(t, []string{"rust"}, report.KeywordMatches.Missing)
}

func TestScore_Deterministic(t *testing.T) {
	s := NewDefaultScorer()
	doc := strongDocument()
	keywords := []string{"go", "terraform", "graphql"}

	first := s.Score(doc, keywords)
	second := s.Score(doc, keywords)

	assert.Equal(t, first, second)
}

func TestScore_DoesNotMutateDocument(t *testing.T) {
	s := NewDefaultScorer()
	doc := strongDocument()
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	s.Score(doc, []string{"Go"})

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
