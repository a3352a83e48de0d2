package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is a quantity field of the canonical payload. It is always finite.
type Number float64

func (n Number) Float() float64 { return float64(n) }

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts JSON numbers and numeric strings; everything else decodes as 0.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			f, _ := ParseNumber(s)
			*n = Number(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*n = Number(f)
	}
	return nil
}

var numberPrefix = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s, the way a lenient form input
// parser would: "85.5" -> 85.5, "12 m2" -> 12, "8,5" -> 8.5, "1,200,000" -> 1200000.
// ok is false (and the value 0) when no finite number can be read.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = normalizeSeparators(s)
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// A single comma with no dot is a decimal comma unless exactly three digits follow it
// ("8,5" vs "8,500"); every other comma is a thousands separator.
func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		i := strings.IndexByte(s, ',')
		digits := 0
		for _, r := range s[i+1:] {
			if r < '0' || r > '9' {
				break
			}
			digits++
		}
		if digits != 3 {
			return s[:i] + "." + s[i+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}
