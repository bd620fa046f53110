package usecases

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"project_geminibot/internal/entities"
)

// MaxReplyLength is Telegram's per-message limit, in UTF-16 code units of the
// text left after entity parsing.
const MaxReplyLength = 4096

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the three characters Telegram's HTML parse mode requires.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatReply truncates text to MaxReplyLength and renders it for the given
// channel markup. Escaping and bold rewriting never lengthen the visible text,
// so the limit holds after the platform parses the markup. Text is escaped
// before bold rewriting so the only tags in an HTML reply are the ones added here.
func FormatReply(text string, markup entities.Markup) string {
	text = Truncate(text, MaxReplyLength)
	switch markup {
	case entities.MarkupHTML:
		return FormatHTML(text)
	case entities.MarkupWhatsApp:
		return FormatWhatsApp(text)
	default:
		return PlainText(text)
	}
}

// FormatHTML turns **X** into <b>X</b> after escaping.
func FormatHTML(text string) string {
	return boldPattern.ReplaceAllString(EscapeHTML(text), "<b>$1</b>")
}

// FormatWhatsApp turns **X** into WhatsApp's *X*.
func FormatWhatsApp(text string) string {
	return boldPattern.ReplaceAllString(text, "*$1*")
}

// PlainText drops bold markers.
func PlainText(text string) string {
	return boldPattern.ReplaceAllString(text, "$1")
}

// Truncate cuts s to at most max UTF-16 code units, marking the cut with "...".
// Cuts fall on rune boundaries.
func Truncate(s string, max int) string {
	if utf16Len(s) <= max {
		return s
	}
	const ellipsis = "..."
	budget := max - len(ellipsis)
	n := 0
	for i, r := range s {
		w := runeUnits(r)
		if n+w > budget {
			return s[:i] + ellipsis
		}
		n += w
	}
	return s
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if w := utf16.RuneLen(r); w > 0 {
		return w
	}
	return 1
}
