package pipeline

import (
	"listing_editor/internal/domain"
)

// IsBilingual reports whether v is a bilingual record: a domain.Bilingual, or a map
// holding exactly the two locale keys with string values.
func IsBilingual(v any) bool {
	switch t := v.(type) {
	case domain.Bilingual, *domain.Bilingual:
		return true
	case map[string]any:
		if len(t) != len(domain.Locales) {
			return false
		}
		for _, l := range domain.Locales {
			if _, ok := t[l].(string); !ok {
				return false
			}
		}
		return true
	case map[string]string:
		if len(t) != len(domain.Locales) {
			return false
		}
		for _, l := range domain.Locales {
			if _, ok := t[l]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

// hasLocaleKey reports a partially bilingual map: at least one locale key present.
func hasLocaleKey(m map[string]any) bool {
	for _, l := range domain.Locales {
		if _, ok := m[l]; ok {
			return true
		}
	}
	return false
}

// Wrap coerces v into a Bilingual value. Strings are copied to both locales,
// (partially) bilingual records get missing locales defaulted to "", and anything
// else yields both locales empty.
func Wrap(v any) domain.Bilingual {
	b, _ := wrap(v)
	return b
}

// wrap also reports whether v had a recognisable shape; nil counts as recognisable.
func wrap(v any) (domain.Bilingual, bool) {
	switch t := v.(type) {
	case nil:
		return domain.Bilingual{}, true
	case string:
		return domain.Same(t), true
	case domain.Bilingual:
		return t, true
	case *domain.Bilingual:
		if t == nil {
			return domain.Bilingual{}, true
		}
		return *t, true
	case map[string]string:
		return domain.Bilingual{EN: t[domain.LocaleEN], VI: t[domain.LocaleVI]}, true
	case map[string]any:
		if !hasLocaleKey(t) {
			return domain.Bilingual{}, false
		}
		en, _ := t[domain.LocaleEN].(string)
		vi, _ := t[domain.LocaleVI].(string)
		return domain.Bilingual{EN: en, VI: vi}, true
	case domain.State:
		return wrap(map[string]any(t))
	}
	return domain.Bilingual{}, false
}
