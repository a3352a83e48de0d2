package httpserver

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"listing_editor/internal/domain"
)

var supportedTags = []language.Tag{
	language.English,
	language.Vietnamese,
}

var tagMatcher = language.NewMatcher(supportedTags)

// selectLocale picks the display locale: ?lang= first, then Accept-Language,
// then English.
func selectLocale(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("lang")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return localeOf(tag)
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			matched, _, _ := tagMatcher.Match(tags...)
			return localeOf(matched)
		}
	}
	return domain.LocaleEN
}

func localeOf(tag language.Tag) string {
	if base, _ := tag.Base(); base.String() == domain.LocaleVI {
		return domain.LocaleVI
	}
	return domain.LocaleEN
}
