package usecases

import (
	"strings"

	"project_geminibot/internal/entities"
)

const (
	weatherPrefix   = "weather in"
	newsCommand     = "latest news"
	translatePrefix = "translate"
	translateSep    = " to "

	InvalidTranslateNotice = "Invalid translation request. Use: translate <text> to <language code>, e.g. translate hello to fr"
	MissingCityNotice      = "Please tell me which city, e.g. weather in Paris"
)

// FAQTable maps a normalized phrase to its canned answer. Read-only once built.
type FAQTable map[string]string

// NewFAQTable normalizes every key of raw so lookups are case and whitespace insensitive.
func NewFAQTable(raw map[string]string) FAQTable {
	t := make(FAQTable, len(raw))
	for phrase, answer := range raw {
		key := Normalize(phrase)
		if key == "" {
			continue
		}
		t[key] = answer
	}
	return t
}

// Lookup returns the answer for text, if any.
func (t FAQTable) Lookup(text string) (string, bool) {
	answer, ok := t[Normalize(text)]
	return answer, ok
}

// Denylist holds lowercased keywords matched as substrings.
type Denylist []string

func NewDenylist(keywords []string) Denylist {
	d := make(Denylist, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			d = append(d, k)
		}
	}
	return d
}

// IsBlocked reports whether text contains any denylisted keyword, ignoring case.
func IsBlocked(text string, deny Denylist) bool {
	lower := strings.ToLower(text)
	for _, kw := range deny {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Normalize lowercases text, trims it and collapses inner whitespace runs.
func Normalize(text string) string {
	return strings.ToLower(compact(text))
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Classify picks the handling path for a text message. First match wins:
// FAQ, weather, news, translate, denylist, generic.
func Classify(text string, faq FAQTable, deny Denylist) entities.Intent {
	clean := compact(text)
	normalized := strings.ToLower(clean)

	if answer, ok := faq[normalized]; ok {
		return entities.Intent{Kind: entities.IntentFAQ, Answer: answer}
	}

	if rest, ok := cutPrefixFold(clean, weatherPrefix); ok && startsWord(rest) {
		city := strings.TrimSpace(rest)
		if city == "" {
			return entities.Intent{Kind: entities.IntentGeneric, Text: text, Notice: MissingCityNotice}
		}
		return entities.Intent{Kind: entities.IntentWeather, City: city}
	}

	if normalized == newsCommand {
		return entities.Intent{Kind: entities.IntentNews}
	}

	if rest, ok := cutPrefixFold(clean, translatePrefix); ok && startsWord(rest) {
		return classifyTranslate(text, rest)
	}

	if IsBlocked(text, deny) {
		return entities.Intent{Kind: entities.IntentBlocked}
	}

	return entities.Intent{Kind: entities.IntentGeneric, Text: text}
}

func classifyTranslate(raw, rest string) entities.Intent {
	invalid := entities.Intent{Kind: entities.IntentGeneric, Text: raw, Notice: InvalidTranslateNotice}

	parts := splitFold(" "+strings.TrimSpace(rest), translateSep)
	if len(parts) != 2 {
		return invalid
	}
	source := strings.TrimSpace(parts[0])
	lang := strings.ToLower(strings.TrimSpace(parts[1]))
	if source == "" || lang == "" {
		return invalid
	}
	return entities.Intent{Kind: entities.IntentTranslate, Text: source, TargetLang: lang}
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// startsWord rejects "translated ..." or "weather inside" as prefix matches.
func startsWord(rest string) bool {
	return rest == "" || rest[0] == ' '
}

// splitFold splits s around every case-insensitive occurrence of the ASCII
// separator sep. Offsets always refer to s itself.
func splitFold(s, sep string) []string {
	var parts []string
	start := 0
	for i := 0; i+len(sep) <= len(s); {
		if strings.EqualFold(s[i:i+len(sep)], sep) {
			parts = append(parts, s[start:i])
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	return append(parts, s[start:])
}
