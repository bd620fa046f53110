package usecases

import (
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"project_geminibot/internal/entities"
)

func TestFormatHTMLBold(t *testing.T) {
	require.Equal(t, "<b>bold</b> and plain", FormatReply("**bold** and plain", entities.MarkupHTML))
	require.Equal(t, "<b>a</b> then <b>b</b>", FormatReply("**a** then **b**", entities.MarkupHTML))
}

func TestFormatHTMLEscapesBeforeBold(t *testing.T) {
	got := FormatReply(`**1 < 2** & "x" <script>`, entities.MarkupHTML)
	require.Equal(t, `<b>1 &lt; 2</b> &amp; "x" &lt;script&gt;`, got)
}

func TestFormatHTMLLeavesUnpairedMarkers(t *testing.T) {
	require.Equal(t, "**open only", FormatReply("**open only", entities.MarkupHTML))
}

func TestFormatWhatsAppAndPlain(t *testing.T) {
	require.Equal(t, "*bold* <raw>", FormatReply("**bold** <raw>", entities.MarkupWhatsApp))
	require.Equal(t, "bold text", FormatReply("**bold** text", entities.MarkupPlain))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))

	long := strings.Repeat("é", MaxReplyLength+10)
	got := FormatReply(long, entities.MarkupPlain)
	require.Equal(t, MaxReplyLength, utf8.RuneCountInString(got))
	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasSuffix(got, "..."))
}

func utf16Units(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func TestTruncateCountsUTF16Units(t *testing.T) {
	emoji := strings.Repeat("😀", 3000)
	got := FormatReply(emoji, entities.MarkupHTML)
	require.LessOrEqual(t, utf16Units(got), MaxReplyLength)
	require.Equal(t, strings.Repeat("😀", 2046)+"...", got)
	require.True(t, utf8.ValidString(got))
}

func TestTruncateHappensBeforeEscaping(t *testing.T) {
	raw := strings.Repeat("<", MaxReplyLength)
	got := FormatReply(raw, entities.MarkupHTML)
	require.Equal(t, strings.Repeat("&lt;", MaxReplyLength), got)

	got = FormatReply(raw+"<", entities.MarkupHTML)
	require.Equal(t, strings.Repeat("&lt;", MaxReplyLength-3)+"...", got)
}
