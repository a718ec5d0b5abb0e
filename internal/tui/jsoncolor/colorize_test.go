package jsoncolor

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestColorize_ValidJSON(t *testing.T) {
	input := []byte(`{"id":"REQ-1a2b3c4d","status":"pending","attempts":42,"read":true,"tags":["a","b"],"collectorId":null}`)
	result := Colorize(input)

	// Should contain pretty-printed structure
	assert.Contains(t, result, "status")
	assert.Contains(t, result, "REQ-1a2b3c4d")
	assert.Contains(t, result, "42")
	assert.Contains(t, result, "true")
	assert.Contains(t, result, "null")
	// Should be multi-line (indented)
	assert.Contains(t, result, "\n", "expected multi-line output")
}

func TestColorize_InvalidJSON(t *testing.T) {
	input := []byte(`not json at all`)
	result := Colorize(input)
	assert.Equal(t, "not json at all", result)
}

func TestColorize_EmptyObject(t *testing.T) {
	result := Colorize([]byte(`{}`))
	assert.Contains(t, result, "{")
	assert.Contains(t, result, "}")
}

func TestColorize_NestedJSON(t *testing.T) {
	input := []byte(`{"outer":{"inner":"value"}}`)
	result := Colorize(input)
	assert.Contains(t, result, "outer")
	assert.Contains(t, result, "inner")
	assert.Contains(t, result, "value")
}

func TestColorize_EscapedStrings(t *testing.T) {
	input := []byte(`{"msg":"hello \"world\""}`)
	result := Colorize(input)
	assert.Contains(t, result, `hello \"world\"`)
}

func TestColorize_Numbers(t *testing.T) {
	input := []byte(`{"int":42,"float":3.14,"neg":-1,"exp":1e10}`)
	result := Colorize(input)
	assert.Contains(t, result, "42")
	assert.Contains(t, result, "3.14")
	assert.Contains(t, result, "-1")
	assert.Contains(t, result, "1e10")
}

func TestColorize_BooleanAndNull(t *testing.T) {
	input := []byte(`{"t":true,"f":false,"n":null}`)
	result := Colorize(input)
	assert.Contains(t, result, "true")
	assert.Contains(t, result, "false")
	assert.Contains(t, result, "null")
}

func TestFindStringEnd(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		expected int
	}{
		{"simple", `"hello"`, 0, 6},
		{"escaped quote", `"he\"llo"`, 0, 8},
		{"escaped backslash", `"he\\"`, 0, 5},
		{"empty string", `""`, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findStringEnd(tt.input, tt.pos)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestColorize_PlainThemeKeepsLayout(t *testing.T) {
	plain := lipgloss.NewStyle()
	th := Theme{Key: plain, String: plain, Number: plain, Bool: plain, Null: plain, Punctuation: plain}

	got := th.Colorize([]byte(`{"requestId":"REQ-1","collectorId":"COL-7","ok":false}`))

	want := "{\n  \"requestId\": \"REQ-1\",\n  \"collectorId\": \"COL-7\",\n  \"ok\": false\n}"
	assert.Equal(t, want, got)
}

func TestIsKey(t *testing.T) {
	assert.True(t, isKey(": 1"))
	assert.True(t, isKey(" \t:"))
	assert.False(t, isKey(", "))
	assert.False(t, isKey(""))
}
