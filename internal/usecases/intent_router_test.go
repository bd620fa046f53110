package usecases

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"project_geminibot/internal/entities"
)

func testFAQ() FAQTable {
	return NewFAQTable(map[string]string{
		"What is your name": "I am a bot.",
		"  help ":           "Ask me anything.",
	})
}

func testDeny() Denylist {
	return NewDenylist([]string{"Violence", " porn ", ""})
}

func TestClassifyFAQIgnoresCaseAndWhitespace(t *testing.T) {
	for _, text := range []string{"what is your name", "WHAT IS YOUR NAME", "  What   is\tyour name  ", "Help"} {
		intent := Classify(text, testFAQ(), testDeny())
		require.Equal(t, entities.IntentFAQ, intent.Kind, text)
	}
	require.Equal(t, "I am a bot.", Classify("what is YOUR name", testFAQ(), nil).Answer)
}

func TestClassifyWeather(t *testing.T) {
	cases := map[string]string{
		"weather in Paris":        "Paris",
		"Weather In   Tokyo":      "Tokyo",
		"weather in New York ":    "New York",
		"WEATHER IN são paulo":    "são paulo",
		"  weather   in   Rome  ": "Rome",
	}
	for text, city := range cases {
		intent := Classify(text, testFAQ(), testDeny())
		require.Equal(t, entities.IntentWeather, intent.Kind, text)
		require.Equal(t, city, intent.City, text)
	}
}

func TestClassifyWeatherWithoutCity(t *testing.T) {
	intent := Classify("weather in", testFAQ(), testDeny())
	require.Equal(t, entities.IntentGeneric, intent.Kind)
	require.Equal(t, MissingCityNotice, intent.Notice)
}

func TestClassifyWeatherNeedsWordBoundary(t *testing.T) {
	intent := Classify("weather inside the house", testFAQ(), testDeny())
	require.Equal(t, entities.IntentGeneric, intent.Kind)
	require.Empty(t, intent.Notice)
}

func TestClassifyNews(t *testing.T) {
	require.Equal(t, entities.IntentNews, Classify("Latest  News", testFAQ(), testDeny()).Kind)
	require.Equal(t, entities.IntentGeneric, Classify("latest news please", testFAQ(), testDeny()).Kind)
}

func TestClassifyTranslate(t *testing.T) {
	intent := Classify("translate hello to fr", testFAQ(), testDeny())
	require.Equal(t, entities.IntentTranslate, intent.Kind)
	require.Equal(t, "hello", intent.Text)
	require.Equal(t, "fr", intent.TargetLang)

	intent = Classify("Translate Good Morning TO ES", testFAQ(), testDeny())
	require.Equal(t, entities.IntentTranslate, intent.Kind)
	require.Equal(t, "Good Morning", intent.Text)
	require.Equal(t, "es", intent.TargetLang)
}

func TestClassifyTranslateKeepsUnicodeText(t *testing.T) {
	cases := []struct {
		text, source, lang string
	}{
		{"translate ȺȺȺȺȺȺȺȺ to fr", "ȺȺȺȺȺȺȺȺ", "fr"},
		{"translate İİİİİİ to fr", "İİİİİİ", "fr"},
		{"translate \u212a\u212a\u212a\u212a hello TO fr", "\u212a\u212a\u212a\u212a hello", "fr"},
		{"translate Straße ist groß to EN", "Straße ist groß", "en"},
	}
	for _, tc := range cases {
		var intent entities.Intent
		require.NotPanics(t, func() { intent = Classify(tc.text, testFAQ(), testDeny()) }, tc.text)
		require.Equal(t, entities.IntentTranslate, intent.Kind, tc.text)
		require.Equal(t, tc.source, intent.Text, tc.text)
		require.True(t, utf8.ValidString(intent.Text), tc.text)
		require.Equal(t, tc.lang, intent.TargetLang, tc.text)
	}
}

func TestClassifyMalformedTranslate(t *testing.T) {
	for _, text := range []string{
		"translate hello",
		"translate",
		"translate to fr",
		"translate hello to",
		"translate go to school to fr",
	} {
		intent := Classify(text, testFAQ(), testDeny())
		require.Equal(t, entities.IntentGeneric, intent.Kind, text)
		require.Equal(t, InvalidTranslateNotice, intent.Notice, text)
	}
}

func TestClassifyBlockedOnlyOnGenericPath(t *testing.T) {
	require.Equal(t, entities.IntentBlocked, Classify("tell me about VIOLENCE", testFAQ(), testDeny()).Kind)

	// Earlier rules win even when a keyword is present.
	intent := Classify("translate violence to fr", testFAQ(), testDeny())
	require.Equal(t, entities.IntentTranslate, intent.Kind)
}

func TestClassifyGeneric(t *testing.T) {
	intent := Classify("Tell me a joke", testFAQ(), testDeny())
	require.Equal(t, entities.IntentGeneric, intent.Kind)
	require.Equal(t, "Tell me a joke", intent.Text)
	require.Empty(t, intent.Notice)
}

func TestIsBlocked(t *testing.T) {
	deny := testDeny()
	require.True(t, IsBlocked("some Porn here", deny))
	require.True(t, IsBlocked("nonviolence", deny))
	require.False(t, IsBlocked("hello world", deny))
	require.False(t, IsBlocked("anything", nil))
}

func TestNewFAQTableSkipsEmptyKeys(t *testing.T) {
	faq := NewFAQTable(map[string]string{"   ": "nothing", "Hi There": "hello"})
	require.Len(t, faq, 1)
	answer, ok := faq.Lookup("hi   there")
	require.True(t, ok)
	require.Equal(t, "hello", answer)
}
