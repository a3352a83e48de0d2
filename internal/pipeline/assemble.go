package pipeline

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"listing_editor/internal/domain"
)

const defaultCurrency = "VND"

var (
	richTextOnce   sync.Once
	richTextPolicy *bluemonday.Policy
)

// rich text (description, nearby) comes from an HTML editor
func richTextSanitizer() *bluemonday.Policy {
	richTextOnce.Do(func() {
		richTextPolicy = bluemonday.UGCPolicy()
	})
	return richTextPolicy
}

type assembler struct {
	st   domain.State
	lk   *domain.Lookups
	diag *Diagnostics
}

// Assemble maps flat wizard state onto the canonical nested payload. It never
// fails: malformed fields fall back to empty values, 0 or empty lists and are
// reported in the returned Diagnostics.
func Assemble(st domain.State, lk *domain.Lookups) (domain.Listing, Diagnostics) {
	var d Diagnostics
	a := &assembler{st: st, lk: lk, diag: &d}
	l := domain.Listing{
		Information: domain.Information{
			Project:         a.ref(domain.KeyProject, domain.CollectionProjects, ModeName),
			Zone:            a.ref(domain.KeyZone, domain.CollectionZones, ModeName),
			PropertyType:    a.ref(domain.KeyPropertyType, domain.CollectionPropertyTypes, ModeName),
			TransactionType: strings.ToLower(a.str(domain.KeyTransactionType)),
			Title:           a.text(domain.KeyTitle),
			Address:         a.text(domain.KeyAddress),
			Unit:            a.ref(domain.KeyUnit, domain.CollectionUnits, ModeSymbol),
			UnitSize:        a.num(domain.KeyUnitSize),
			Bedrooms:        a.num(domain.KeyBedrooms),
			Bathrooms:       a.num(domain.KeyBathrooms),
			Floors:          a.num(domain.KeyFloors),
			Latitude:        a.num(domain.KeyLatitude),
			Longitude:       a.num(domain.KeyLongitude),
			Furnishing:      a.ref(domain.KeyFurnishing, domain.CollectionFurnishings, ModeName),
		},
		Description: domain.Description{
			Nearby:    a.richText(domain.KeyNearby),
			Content:   a.richText(domain.KeyDescription),
			Amenities: a.texts(domain.KeyAmenities),
		},
		Utilities: a.utilities(domain.KeyUtilities),
		Media: domain.Media{
			Thumbnail:  a.url(domain.KeyThumbnail),
			Images:     a.urls(domain.KeyImages),
			Videos:     a.urls(domain.KeyVideos),
			FloorPlans: a.urls(domain.KeyFloorPlans),
		},
		Financial: domain.Financial{
			Currency:       a.currency(),
			SalePrice:      a.num(domain.KeySalePrice),
			LeasePrice:     a.num(domain.KeyLeasePrice),
			ContractLength: a.num(domain.KeyContractLength),
			NightlyPrice:   a.num(domain.KeyNightlyPrice),
			CheckIn:        a.str(domain.KeyCheckIn),
			CheckOut:       a.str(domain.KeyCheckOut),
			Deposit:        a.num(domain.KeyDeposit),
			ManagementFee:  a.num(domain.KeyManagementFee),
			AvailableFrom:  a.date(domain.KeyAvailableFrom),
		},
		Management: domain.Management{
			OwnerName:    a.text(domain.KeyOwnerName),
			OwnerPhone:   a.str(domain.KeyOwnerPhone),
			OwnerEmail:   a.str(domain.KeyOwnerEmail),
			ManagerName:  a.text(domain.KeyManagerName),
			ManagerPhone: a.str(domain.KeyManagerPhone),
			Notes:        a.text(domain.KeyNotes),
		},
		Status: domain.Status{
			Availability: a.ref(domain.KeyAvailability, domain.CollectionAvailabilities, ModeName),
			Visibility:   a.visibility(),
			Featured:     a.flag(domain.KeyFeatured),
			PublishedAt:  a.date(domain.KeyPublishedAt),
		},
	}
	return l, d
}

func (a *assembler) warn(key, reason string) { a.diag.add(StageAssemble, key, reason) }

func (a *assembler) text(key string) domain.Bilingual {
	b, ok := wrap(a.st[key])
	if !ok {
		a.warn(key, ReasonShape)
	}
	return trimmed(b)
}

func (a *assembler) richText(key string) domain.Bilingual {
	b := a.text(key)
	return trimmed(domain.Bilingual{EN: cleanRichText(b.EN), VI: cleanRichText(b.VI)})
}

// cleanRichText sanitizes editor HTML. Text without markup is stored unescaped,
// unless unescaping would reintroduce a '<'.
func cleanRichText(s string) string {
	out := richTextSanitizer().Sanitize(s)
	if strings.ContainsRune(out, '<') {
		return out
	}
	if plain := html.UnescapeString(out); !strings.ContainsRune(plain, '<') {
		return plain
	}
	return out
}

func (a *assembler) ref(key, collection string, mode Mode) domain.Bilingual {
	v := a.st[key]
	b, matched := resolve(a.lk.Collection(collection), v, mode)
	if !matched {
		a.warn(key, ReasonUnresolved)
	}
	return trimmed(b)
}

func (a *assembler) num(key string) domain.Number {
	f, ok := number(a.st[key])
	if !ok {
		a.warn(key, ReasonNotNumber)
	}
	return domain.Number(f)
}

func (a *assembler) str(key string) string {
	s, ok := text(a.st[key])
	if !ok {
		a.warn(key, ReasonShape)
	}
	return s
}

func (a *assembler) flag(key string) bool {
	b, ok := boolean(a.st[key])
	if !ok {
		a.warn(key, ReasonShape)
	}
	return b
}

func (a *assembler) date(key string) string {
	s, ok := normalizeDate(a.st[key])
	if !ok {
		a.warn(key, ReasonDate)
	}
	return s
}

func (a *assembler) currency() string {
	c := strings.ToUpper(a.str(domain.KeyCurrency))
	if c == "" {
		return defaultCurrency
	}
	return c
}

func (a *assembler) visibility() string {
	switch strings.ToLower(a.str(domain.KeyVisibility)) {
	case "", "active":
		return domain.StatusActive
	case "inactive":
		return domain.StatusInactive
	}
	a.warn(domain.KeyVisibility, ReasonShape)
	return domain.StatusActive
}

func (a *assembler) list(key string) []any {
	xs, ok := items(a.st[key])
	if !ok {
		a.warn(key, ReasonShape)
	}
	return xs
}

func (a *assembler) texts(key string) []domain.Bilingual {
	out := []domain.Bilingual{}
	for _, it := range a.list(key) {
		b := trimmed(Wrap(it))
		if b.IsEmpty() {
			continue
		}
		out = append(out, b)
	}
	return out
}

// utilities accept a plain or bilingual name, or an object {name, icon}.
func (a *assembler) utilities(key string) []domain.Utility {
	out := []domain.Utility{}
	for _, it := range a.list(key) {
		var u domain.Utility
		if m, ok := it.(map[string]any); ok && !hasLocaleKey(m) {
			u.Name = Wrap(m["name"])
			u.Icon = urlOf(m["icon"])
		} else {
			u.Name = Wrap(it)
		}
		u.Name = trimmed(u.Name)
		if u.Name.IsEmpty() {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (a *assembler) url(key string) string {
	if xs := a.urls(key); len(xs) > 0 {
		return xs[0]
	}
	return ""
}

func (a *assembler) urls(key string) []string {
	out := []string{}
	for _, it := range a.list(key) {
		if u := urlOf(it); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func trimmed(b domain.Bilingual) domain.Bilingual {
	return domain.Bilingual{EN: strings.TrimSpace(b.EN), VI: strings.TrimSpace(b.VI)}
}
