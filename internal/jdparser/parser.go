// Package jdparser extracts ATS keywords from job descriptions.
//
// Extraction prefers an LLM when one is configured and falls back to a local
// frequency-ranked tokenizer whenever the LLM is missing, fails, or returns nothing.
package jdparser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
)

// Keyword sources reported in a Result.
const (
	SourceLLM   = "llm"
	SourceLocal = "local"
)

// maxDescriptionRunes caps the text sent to the LLM.
const maxDescriptionRunes = 20000

// Result is an extracted keyword list and where it came from.
type Result struct {
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// Parser extracts keywords from job descriptions.
type Parser struct {
	client llm.Client
	logger *slog.Logger
}

// NewParser returns a parser. A nil client means local extraction only.
func NewParser(client llm.Client, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{client: client, logger: logger}
}

// Parse extracts up to limit keywords from text (DefaultLimit when limit <= 0).
// Only empty input is an error; LLM failures fall back to local extraction.
func (p *Parser) Parse(ctx context.Context, text string, limit int) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &InputError{Message: "job description is empty"}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	if p.client != nil {
		keywords, err := p.extractWithLLM(ctx, text, limit)
		switch {
		case err != nil:
			p.logger.Warn("LLM keyword extraction failed, using local extraction", slog.Any("error", err))
		case len(keywords) == 0:
			p.logger.Warn("LLM returned no keywords, using local extraction")
		default:
			return &Result{Keywords: keywords, Source: SourceLLM}, nil
		}
	}

	return &Result{Keywords: ExtractLocal(text, limit), Source: SourceLocal}, nil
}

type llmKeywords struct {
	Keywords []string `json:"keywords"`
}

func (p *Parser) extractWithLLM(ctx context.Context, text string, limit int) ([]string, error) {
	if runes := []rune(text); len(runes) > maxDescriptionRunes {
		text = string(runes[:maxDescriptionRunes])
	}

	prompt, err := prompts.Render("jdparser.json", "extract-keywords", map[string]string{
		"JobDescription": text,
		"Limit":          strconv.Itoa(limit),
	})
	if err != nil {
		return nil, p.extractionError(StagePrompt, err)
	}

	responseText, err := p.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, p.extractionError(StageGenerate, err)
	}

	var parsed llmKeywords
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &parsed); err != nil {
		return nil, p.extractionError(StageDecode, fmt.Errorf("failed to unmarshal keywords: %w", err))
	}

	keywords := MergeSpellings(parsed.Keywords)
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords, nil
}

func (p *Parser) extractionError(stage string, err error) error {
	return &ExtractionError{Stage: stage, Model: p.client.Model(), Err: err}
}
