package entities

type IntentKind string

const (
	IntentFAQ       IntentKind = "faq"
	IntentWeather   IntentKind = "weather"
	IntentNews      IntentKind = "news"
	IntentTranslate IntentKind = "translate"
	IntentBlocked   IntentKind = "blocked"
	IntentGeneric   IntentKind = "generic"

	// Kinds recorded for events that never reach the text router.
	IntentStart       IntentKind = "start"
	IntentDocument    IntentKind = "document"
	IntentImage       IntentKind = "image"
	IntentUnsupported IntentKind = "unsupported"
	IntentThrottled   IntentKind = "throttled"
	IntentInternal    IntentKind = "internal_error"
)

// Intent is the classified purpose of an inbound text message.
// Only the fields relevant to Kind are set.
type Intent struct {
	Kind IntentKind

	Answer     string // faq
	City       string // weather
	Text       string // translate source, generic prompt
	TargetLang string // translate

	// Notice is a fixed reply for a Generic intent that must not reach the model.
	Notice string
}
