package pipeline

import (
	"reflect"
	"strings"

	"listing_editor/internal/domain"
)

var bilingualType = reflect.TypeOf(domain.Bilingual{})

// FillGaps repairs every bilingual value reachable from target whose one locale is
// blank by copying the other locale into it, and returns the repaired value.
// Pointers, maps and slices are repaired in place; a struct passed by value is
// repaired on a copy, so only the returned value carries the fix. Applying it twice
// is the same as applying it once; values blank in both locales stay blank.
func FillGaps(target any) any {
	return fillTree(target)
}

func fillPair(b domain.Bilingual) domain.Bilingual {
	enBlank := strings.TrimSpace(b.EN) == ""
	viBlank := strings.TrimSpace(b.VI) == ""
	switch {
	case enBlank && !viBlank:
		b.EN = b.VI
	case viBlank && !enBlank:
		b.VI = b.EN
	}
	return b
}

func fillValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			fillValue(v.Elem())
		}
	case reflect.Struct:
		if v.Type() == bilingualType {
			if v.CanSet() {
				v.Set(reflect.ValueOf(fillPair(v.Interface().(domain.Bilingual))))
			}
			return
		}
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				fillValue(v.Field(i))
			}
		}
	case reflect.Slice, reflect.Array:
		if !composite(v.Type().Elem()) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			fillValue(v.Index(i))
		}
	case reflect.Interface:
		if v.IsNil() || !v.CanInterface() {
			return
		}
		out := fillTree(v.Interface())
		if v.CanSet() {
			v.Set(reflect.ValueOf(out))
		}
	case reflect.Map:
		if v.IsNil() || !v.CanInterface() {
			return
		}
		if m, ok := v.Interface().(map[string]any); ok {
			fillTree(m)
			return
		}
		if !composite(v.Type().Elem()) {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			// map values are not addressable: repair a copy and store it back
			cp := reflect.New(v.Type().Elem()).Elem()
			cp.Set(iter.Value())
			fillValue(cp)
			v.SetMapIndex(iter.Key(), cp)
		}
	}
}

// composite reports element types worth descending into; slices of strings and
// numbers are skipped.
func composite(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// fillTree handles untyped trees; maps and slices are repaired in place, and the
// (possibly replaced) value is returned for callers holding it by value.
func fillTree(x any) any {
	switch t := x.(type) {
	case map[string]any:
		if IsBilingual(t) {
			b := fillPair(domain.Bilingual{EN: t[domain.LocaleEN].(string), VI: t[domain.LocaleVI].(string)})
			t[domain.LocaleEN], t[domain.LocaleVI] = b.EN, b.VI
			return t
		}
		for k, v := range t {
			t[k] = fillTree(v)
		}
		return t
	case domain.State:
		fillTree(map[string]any(t))
		return t
	case []any:
		for i := range t {
			t[i] = fillTree(t[i])
		}
		return t
	case domain.Bilingual:
		return fillPair(t)
	case nil, string, bool, float64, int, int64:
		return x
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Struct || rv.Kind() == reflect.Array {
		// held by value: repair an addressable copy and hand that back
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		fillValue(cp)
		return cp.Interface()
	}
	fillValue(rv)
	return x
}
