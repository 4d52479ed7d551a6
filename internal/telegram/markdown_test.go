package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessageShort(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
}

func TestSplitMessageRespectsLimitAndKeepsText(t *testing.T) {
	text := strings.Repeat("слово ", 2000)
	parts := SplitMessage(text, 4096)
	assert.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 4096)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplitMessagePrefersParagraphs(t *testing.T) {
	text := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 50)
	parts := SplitMessage(text, 100)
	assert.Equal(t, []string{strings.Repeat("a", 70) + "\n\n", strings.Repeat("b", 50)}, parts)
}

func TestFixMarkdown(t *testing.T) {
	assert.Equal(t, "```go\nx\n```", FixMarkdown("```go\nx"))
	assert.Equal(t, "use `x`", FixMarkdown("use `x"))
	assert.Equal(t, "```\n`a\n```", FixMarkdown("```\n`a\n```"))
	assert.Equal(t, "plain", FixMarkdown("plain"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `snake\_case \*bold\* \[x\]`, EscapeMarkdown("snake_case *bold* [x]"))
}
