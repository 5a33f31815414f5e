// Package i18n renders wire error payloads as user-facing messages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localizable is implemented by wire.SessionError and wire.NetworkError
type Localizable interface {
	MessageKey() string
	MessageArgs() []any
}

// DefaultTag is used when nothing better matches
var DefaultTag = language.English

var supported = []language.Tag{language.English, language.German}

var messages = map[language.Tag]map[string]string{
	language.English: {
		"session.maximum_sessions_reached": "Too many open sessions. Close one and try again.",
		"session.no_such_session":          "This session no longer exists.",
		"session.unauthenticated":          "You need to sign in first.",
		"network.rate_limited":             "You are sending messages too fast. Slow down.",
		"network.invalid_message":          "The server could not understand that message.",
		"network.socket":                   "Connection problem: %s",
	},
	language.German: {
		"session.maximum_sessions_reached": "Zu viele offene Sitzungen. Schließe eine und versuche es erneut.",
		"session.no_such_session":          "Diese Sitzung existiert nicht mehr.",
		"session.unauthenticated":          "Du musst dich zuerst anmelden.",
		"network.rate_limited":             "Du sendest zu schnell Nachrichten. Bitte langsamer.",
		"network.invalid_message":          "Der Server konnte die Nachricht nicht verstehen.",
		"network.socket":                   "Verbindungsproblem: %s",
	},
}

var (
	builder = mustBuild()
	matcher = language.NewMatcher(supported)
)

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultTag))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Languages returns the supported tags, default first
func Languages() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match picks the closest supported tag
func Match(tags ...language.Tag) language.Tag {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultTag
	}
	return supported[idx]
}

// Localize renders l in the closest supported language to tag
func Localize(tag language.Tag, l Localizable) string {
	p := message.NewPrinter(Match(tag), message.Catalog(builder))
	return p.Sprintf(l.MessageKey(), l.MessageArgs()...)
}

// LocalizeAccept renders l for an Accept-Language header value.
// An empty or malformed header falls back to DefaultTag.
func LocalizeAccept(acceptLanguage string, l Localizable) string {
	tag := DefaultTag
	if accept := strings.TrimSpace(acceptLanguage); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			tag = Match(tags...)
		}
	}
	return Localize(tag, l)
}

// ParseTag resolves a language name such as "de" or "en-US" to a supported tag
func ParseTag(s string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return DefaultTag, false
	}
	return Match(tag), true
}
