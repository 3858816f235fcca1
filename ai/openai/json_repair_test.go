package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "valid JSON unchanged", input: `{"a": 1, "b": [1, 2]}`, expected: `{"a": 1, "b": [1, 2]}`},
		{name: "missing quote after brace", input: `{axioms": []}`, expected: `{"axioms": []}`},
		{name: "missing quote after comma", input: `{"a": 1, fullText": "x"}`, expected: `{"a": 1, "fullText": "x"}`},
		{name: "missing quote after newline", input: "{\n  term\": \"x\"}", expected: "{\n  \"term\": \"x\"}"},
		{name: "trailing comma in array", input: `["a", "b",]`, expected: `["a", "b"]`},
		{name: "trailing comma in object", input: "{\"a\": 1,\n}", expected: "{\"a\": 1\n}"},
		{name: "literals untouched", input: `[true, false, null]`, expected: `[true, false, null]`},
		{name: "strings untouched", input: `{"s": "x, y\": {z, ]"}`, expected: `{"s": "x, y\": {z, ]"}`},
		{name: "unicode preserved", input: `{"t": "كتاب",}`, expected: `{"t": "كتاب"}`},
		{name: "empty", input: ``, expected: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repairJSON(tt.input))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("  {\"a\":1}  "))
}
