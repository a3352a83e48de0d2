package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Locale keys carried by every Bilingual value.
const (
	LocaleEN = "en"
	LocaleVI = "vi"
)

var Locales = []string{LocaleEN, LocaleVI}

// Bilingual is a two-locale text record used for every user-facing string.
type Bilingual struct {
	EN string `json:"en"`
	VI string `json:"vi"`
}

// Same returns a Bilingual with s in both locales.
func Same(s string) Bilingual { return Bilingual{EN: s, VI: s} }

func (b Bilingual) IsEmpty() bool {
	return strings.TrimSpace(b.EN) == "" && strings.TrimSpace(b.VI) == ""
}

// Get returns the slot for locale; unknown locales read as EN.
func (b Bilingual) Get(locale string) string {
	if locale == LocaleVI {
		return b.VI
	}
	return b.EN
}

// First returns EN, or VI when EN is blank.
func (b Bilingual) First() string {
	if strings.TrimSpace(b.EN) != "" {
		return b.EN
	}
	return b.VI
}

// Has reports whether s equals either locale.
func (b Bilingual) Has(s string) bool {
	return s != "" && (b.EN == s || b.VI == s)
}

// UnmarshalJSON accepts an object with locale keys, a bare string (copied to both
// locales) or anything else (both empty). It never fails, so documents written by
// older schemas still decode.
func (b *Bilingual) UnmarshalJSON(data []byte) error {
	*b = Bilingual{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*b = Same(s)
		}
	case '{':
		var m map[string]any
		if err := json.Unmarshal(data, &m); err == nil {
			en, _ := m[LocaleEN].(string)
			vi, _ := m[LocaleVI].(string)
			*b = Bilingual{EN: en, VI: vi}
		}
	}
	return nil
}
