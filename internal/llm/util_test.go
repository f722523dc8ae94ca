package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain object", `{"keywords": ["go"]}`, `{"keywords": ["go"]}`},
		{"JSON fence", "```json\n{\"keywords\": [\"go\"]}\n```", `{"keywords": ["go"]}`},
		{"Bare fence", "```\n{\"keywords\": []}\n```", `{"keywords": []}`},
		{"Preamble", "Here are the keywords:\n{\"keywords\": [\"sql\"]}", `{"keywords": ["sql"]}`},
		{"Trailing prose", "{\"keywords\": [\"sql\"]}\n\nLet me know if you need more.", `{"keywords": ["sql"]}`},
		{"Array", "Keywords:\n[\"go\", \"grpc\"]", `["go", "grpc"]`},
		{"Nested", `Result: {"a": {"b": ["c"]}}`, `{"a": {"b": ["c"]}}`},
		{"Braces inside strings", `{"note": "use {braces} and ]"}`, `{"note": "use {braces} and ]"}`},
		{"Escaped quotes", `Result: {"q": "say \"hi\""}`, `{"q": "say \"hi\""}`},
		{"Bracketed prose first", `Keywords [final]: {"keywords": ["go"]}`, `{"keywords": ["go"]}`},
		{"No JSON", "  no json here \n", "no json here"},
		{"Unterminated", "{unterminated", "{unterminated"},
		{"Fenced prose", "```text\nnothing useful\n```", "nothing useful"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestBalancedLen(t *testing.T) {
	assert.Equal(t, 2, balancedLen("{}"))
	assert.Equal(t, 9, balancedLen(`["a","b"] tail`))
	assert.Equal(t, 0, balancedLen(`{"open": true`))
	assert.Equal(t, 8, balancedLen(`{"}": 1} x`))
}
