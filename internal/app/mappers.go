package app

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"listing_editor/internal/domain"
)

/********** alias registries (single source of truth) **********/

var entityAliases = map[string][]string{
	"id":        {"id", "_id", "uuid", "documentId", "key"},
	"name_en":   {"name.en", "nameEn", "name_en", "localizedName.en", "title.en", "label.en"},
	"name_vi":   {"name.vi", "nameVi", "name_vi", "localizedName.vi", "title.vi", "label.vi"},
	"name":      {"name", "title", "label"},
	"symbol_en": {"symbol.en", "symbolEn", "symbol_en", "abbreviation.en"},
	"symbol_vi": {"symbol.vi", "symbolVi", "symbol_vi", "abbreviation.vi"},
	"symbol":    {"symbol", "abbreviation", "short"},
	"status":    {"status", "state", "publicationState"},
	"active":    {"active", "isActive", "enabled"},
}

var (
	activeWords   = map[string]bool{"active": true, "published": true, "enabled": true, "live": true, "1": true, "true": true}
	inactiveWords = map[string]bool{"inactive": true, "draft": true, "disabled": true, "archived": true, "hidden": true, "0": true, "false": true}
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupScalar returns the scalar at path as a trimmed string, or "".
func lookupScalar(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case nil, map[string]any, []any:
		return ""
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
}

// firstNonEmptyAlias: first non-empty scalar for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupScalar(m, p); s != "" {
			return s
		}
	}
	return ""
}

// unwrapRecord flattens the {id, attributes: {...}} envelope some CMS versions use.
func unwrapRecord(raw map[string]any) map[string]any {
	attrs, ok := raw["attributes"].(map[string]any)
	if !ok {
		return raw
	}
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		out["id"] = raw["id"]
	}
	return out
}

func bilingualAlias(m map[string]any, enKey, viKey, plainKey string) domain.Bilingual {
	b := domain.Bilingual{
		EN: firstNonEmptyAlias(m, entityAliases, enKey),
		VI: firstNonEmptyAlias(m, entityAliases, viKey),
	}
	if b.IsEmpty() {
		return domain.Same(firstNonEmptyAlias(m, entityAliases, plainKey))
	}
	// one-sided values are mirrored so lookups never render a blank label
	if b.EN == "" {
		b.EN = b.VI
	}
	if b.VI == "" {
		b.VI = b.EN
	}
	return b
}

func normalizeStatus(m map[string]any) string {
	if s := strings.ToLower(firstNonEmptyAlias(m, entityAliases, "status")); s != "" {
		switch {
		case activeWords[s]:
			return domain.StatusActive
		case inactiveWords[s]:
			return domain.StatusInactive
		}
	}
	if s := firstNonEmptyAlias(m, entityAliases, "active"); s != "" {
		if on, err := cast.ToBoolE(s); err == nil && !on {
			return domain.StatusInactive
		}
	}
	return domain.StatusActive
}

/********** entity mapper **********/

// mapEntity reads one loose CMS record. Records without an id or any name are
// rejected.
func mapEntity(collection string, raw map[string]any) (domain.Entity, bool) {
	m := unwrapRecord(raw)
	e := domain.Entity{
		ID:     firstNonEmptyAlias(m, entityAliases, "id"),
		Name:   bilingualAlias(m, "name_en", "name_vi", "name"),
		Status: normalizeStatus(m),
	}
	if sym := bilingualAlias(m, "symbol_en", "symbol_vi", "symbol"); !sym.IsEmpty() {
		e.Symbol = &sym
	}
	if e.ID == "" || e.Name.IsEmpty() {
		log.Debug().
			Str("context", "mapEntity").
			Str("collection", collection).
			Str("id", e.ID).
			Msg("skipping record without id or name")
		return domain.Entity{}, false
	}
	return e, true
}

func mapEntities(collection string, in []map[string]any) []domain.Entity {
	out := make([]domain.Entity, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		e, ok := mapEntity(collection, raw)
		if !ok {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
