package pipeline

import (
	"strings"

	"github.com/spf13/cast"

	"listing_editor/internal/domain"
)

// Mode selects which bilingual value of a matched entity Resolve returns.
type Mode int

const (
	ModeName Mode = iota
	ModeSymbol
)

// Resolve maps identifier (an entity id, or an already resolved name or symbol)
// to the display value of the matching entity in coll. Id matches win over
// name/symbol matches. When nothing matches the identifier is taken as a literal
// display value and returned in both locales. A falsy identifier yields an empty
// value.
func Resolve(coll []domain.Entity, identifier any, mode Mode) domain.Bilingual {
	b, _ := resolve(coll, identifier, mode)
	return b
}

// resolve also reports whether an entity matched.
func resolve(coll []domain.Entity, identifier any, mode Mode) (domain.Bilingual, bool) {
	if falsy(identifier) {
		return domain.Bilingual{}, true
	}

	if b, ok := wrap(identifier); ok && !isScalar(identifier) {
		// a bilingual identifier is a value stored by an earlier save
		for _, e := range coll {
			if (b.EN != "" && matches(e, b.EN)) || (b.VI != "" && matches(e, b.VI)) {
				return pick(e, mode), true
			}
		}
		return b, false
	}

	key, err := cast.ToStringE(identifier)
	key = strings.TrimSpace(key)
	if err != nil || key == "" {
		return domain.Bilingual{}, false
	}
	for _, e := range coll {
		if e.ID == key {
			return pick(e, mode), true
		}
	}
	for _, e := range coll {
		if matches(e, key) {
			return pick(e, mode), true
		}
	}
	return domain.Same(key), false
}

func matches(e domain.Entity, s string) bool {
	return e.Name.Has(s) || (e.Symbol != nil && e.Symbol.Has(s))
}

func pick(e domain.Entity, mode Mode) domain.Bilingual {
	if mode == ModeSymbol {
		if e.Symbol == nil {
			return domain.Bilingual{}
		}
		return *e.Symbol
	}
	return e.Name
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case domain.Bilingual:
		return t.IsEmpty()
	case *domain.Bilingual:
		return t == nil || t.IsEmpty()
	}
	if isScalar(v) {
		f, err := cast.ToFloat64E(v)
		return err == nil && f == 0
	}
	return false
}
