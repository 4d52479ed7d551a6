package telegram

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage splits text into chunks of at most maxLen runes, preferring
// to break after a blank line, then after a newline, when one falls in the
// second half of the chunk.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > maxLen {
		chunk := string(runes[:maxLen])
		splitAt := maxLen
		if i := strings.LastIndex(chunk, "\n\n"); i >= 0 && utf8.RuneCountInString(chunk[:i]) > maxLen/2 {
			splitAt = utf8.RuneCountInString(chunk[:i]) + 2
		} else if i := strings.LastIndex(chunk, "\n"); i >= 0 && utf8.RuneCountInString(chunk[:i]) > maxLen/2 {
			splitAt = utf8.RuneCountInString(chunk[:i]) + 1
		}
		parts = append(parts, string(runes[:splitAt]))
		runes = runes[splitAt:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// FixMarkdown closes an unterminated code block and unterminated inline code
// so a reply still renders in Telegram's legacy Markdown mode.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}

	var sb strings.Builder
	sb.Grow(len(text) + 1)
	inBlock, inInline := false, false
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], "```") {
			if inInline {
				sb.WriteByte('`')
				inInline = false
			}
			inBlock = !inBlock
			sb.WriteString("```")
			i += 2
			continue
		}
		if !inBlock && text[i] == '`' {
			inInline = !inInline
		}
		sb.WriteByte(text[i])
	}
	if inInline {
		sb.WriteByte('`')
	}
	return sb.String()
}

var legacyMarkdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user-supplied text for legacy Markdown messages.
func EscapeMarkdown(text string) string {
	return legacyMarkdownEscaper.Replace(text)
}
