package pipeline

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"listing_editor/internal/domain"
)

// ToNumber coerces v into a finite float64; anything unparsable becomes 0.
func ToNumber(v any) float64 {
	f, _ := number(v)
	return f
}

// number reports ok=false when v carried something that is not a number. Absent
// values and empty strings are ok (they are simply 0).
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, true
		}
		return domain.ParseNumber(t)
	case json.Number:
		return domain.ParseNumber(t.String())
	case domain.Number:
		return finite(float64(t))
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case bool:
		// booleans are not quantities
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// text reads a scalar as a trimmed string ("" for absent or structured values).
func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case map[string]any, []any, domain.Bilingual:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func boolean(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "off", "no":
			return false, true
		case "on", "yes":
			return true, true
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// items normalises list-shaped input; a lone non-empty string is a one-element list.
func items(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []domain.Bilingual:
		out := make([]any, len(t))
		for i, b := range t {
			out[i] = b
		}
		return out, true
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, true
		}
		return []any{t}, true
	}
	return nil, false
}

var urlKeys = []string{"url", "src", "href", "path"}

// urlOf accepts a bare URL string or an object exposing one under a URL-ish key.
func urlOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, k := range urlKeys {
			if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case map[string]string:
		for _, k := range urlKeys {
			if s := strings.TrimSpace(t[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDate turns date-like input into RFC3339, keeping the written offset so
// the calendar day never shifts. Unparsable strings are kept raw.
func normalizeDate(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case time.Time:
		if t.IsZero() {
			return "", true
		}
		return t.Format(time.RFC3339), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", true
		}
		if d, ok := parseDate(s); ok {
			return d.Format(time.RFC3339), true
		}
		return s, false
	}
	return "", false
}

// DateOnly reduces a stored date to YYYY-MM-DD for date inputs; "" when unknown.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if d, ok := parseDate(s); ok {
		return d.Format("2006-01-02")
	}
	if len(s) >= 10 {
		if d, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}
