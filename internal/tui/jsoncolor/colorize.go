// Package jsoncolor pretty-prints JSON payloads with syntax coloring for
// terminal output.
package jsoncolor

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the style for each kind of JSON token.
type Theme struct {
	Key         lipgloss.Style
	String      lipgloss.Style
	Number      lipgloss.Style
	Bool        lipgloss.Style
	Null        lipgloss.Style
	Punctuation lipgloss.Style
}

// DefaultTheme adapts to light and dark terminals.
func DefaultTheme() Theme {
	return Theme{
		Key:         lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#7aa2f7"}),
		String:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#9ece6a"}),
		Number:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#e0af68"}),
		Bool:        lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9333ea", Dark: "#bb9af7"}),
		Null:        lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f7768e"}),
		Punctuation: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#565f89"}),
	}
}

// Colorize pretty-prints data using the default theme.
func Colorize(data []byte) string {
	return DefaultTheme().Colorize(data)
}

// Colorize pretty-prints data with two-space indentation and colors each token.
// Invalid JSON is returned unchanged.
func (th Theme) Colorize(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	raw := buf.String()

	var out strings.Builder
	for i := 0; i < len(raw); {
		ch := raw[i]
		switch {
		case ch == '"':
			end := findStringEnd(raw, i)
			str := raw[i : end+1]
			if isKey(raw[end+1:]) {
				out.WriteString(th.Key.Render(str))
			} else {
				out.WriteString(th.String.Render(str))
			}
			i = end + 1

		case ch == '-' || (ch >= '0' && ch <= '9'):
			end := i + 1
			for end < len(raw) && isNumberByte(raw[end]) {
				end++
			}
			out.WriteString(th.Number.Render(raw[i:end]))
			i = end

		case strings.HasPrefix(raw[i:], "true"):
			out.WriteString(th.Bool.Render("true"))
			i += len("true")

		case strings.HasPrefix(raw[i:], "false"):
			out.WriteString(th.Bool.Render("false"))
			i += len("false")

		case strings.HasPrefix(raw[i:], "null"):
			out.WriteString(th.Null.Render("null"))
			i += len("null")

		case strings.IndexByte("{}[]:,", ch) >= 0:
			out.WriteString(th.Punctuation.Render(string(ch)))
			i++

		default:
			out.WriteByte(ch)
			i++
		}
	}

	return out.String()
}

// isKey reports whether the text following a string token starts with a colon.
func isKey(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	return rest != "" && rest[0] == ':'
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.' || b == 'e' || b == 'E' || b == '+' || b == '-'
}

// findStringEnd returns the index of the closing quote for a JSON string starting at pos.
func findStringEnd(s string, pos int) int {
	for i := pos + 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++ // skip escaped character
			continue
		}
		if s[i] == '"' {
			return i
		}
	}
	return len(s) - 1
}
