package pipeline

import (
	"strconv"

	"listing_editor/internal/domain"
)

// Rehydrate flattens a persisted listing back into wizard state for edit mode.
// Reference fields become entity ids when the stored display value still matches
// an entity, otherwise the display value itself. Absent fields come back as empty
// strings, empty bilingual values or empty lists.
func Rehydrate(l domain.Listing, lk *domain.Lookups) domain.State {
	in, desc, fin, mgmt, st := l.Information, l.Description, l.Financial, l.Management, l.Status
	return domain.State{
		domain.KeyProject:         unresolve(lk.Collection(domain.CollectionProjects), in.Project, ModeName),
		domain.KeyZone:            unresolve(lk.Collection(domain.CollectionZones), in.Zone, ModeName),
		domain.KeyPropertyType:    unresolve(lk.Collection(domain.CollectionPropertyTypes), in.PropertyType, ModeName),
		domain.KeyTransactionType: in.TransactionType,
		domain.KeyTitle:           in.Title,
		domain.KeyAddress:         in.Address,
		domain.KeyUnit:            unresolve(lk.Collection(domain.CollectionUnits), in.Unit, ModeSymbol),
		domain.KeyUnitSize:        numberText(in.UnitSize),
		domain.KeyBedrooms:        numberText(in.Bedrooms),
		domain.KeyBathrooms:       numberText(in.Bathrooms),
		domain.KeyFloors:          numberText(in.Floors),
		domain.KeyLatitude:        numberText(in.Latitude),
		domain.KeyLongitude:       numberText(in.Longitude),
		domain.KeyFurnishing:      unresolve(lk.Collection(domain.CollectionFurnishings), in.Furnishing, ModeName),

		domain.KeyNearby:      desc.Nearby,
		domain.KeyDescription: desc.Content,
		domain.KeyAmenities:   bilinguals(desc.Amenities),
		domain.KeyUtilities:   utilityItems(l.Utilities),

		domain.KeyThumbnail:  l.Media.Thumbnail,
		domain.KeyImages:     strs(l.Media.Images),
		domain.KeyVideos:     strs(l.Media.Videos),
		domain.KeyFloorPlans: strs(l.Media.FloorPlans),

		domain.KeyCurrency:       fin.Currency,
		domain.KeySalePrice:      numberText(fin.SalePrice),
		domain.KeyLeasePrice:     numberText(fin.LeasePrice),
		domain.KeyContractLength: numberText(fin.ContractLength),
		domain.KeyNightlyPrice:   numberText(fin.NightlyPrice),
		domain.KeyCheckIn:        fin.CheckIn,
		domain.KeyCheckOut:       fin.CheckOut,
		domain.KeyDeposit:        numberText(fin.Deposit),
		domain.KeyManagementFee:  numberText(fin.ManagementFee),
		domain.KeyAvailableFrom:  DateOnly(fin.AvailableFrom),

		domain.KeyOwnerName:    mgmt.OwnerName,
		domain.KeyOwnerPhone:   mgmt.OwnerPhone,
		domain.KeyOwnerEmail:   mgmt.OwnerEmail,
		domain.KeyManagerName:  mgmt.ManagerName,
		domain.KeyManagerPhone: mgmt.ManagerPhone,
		domain.KeyNotes:        mgmt.Notes,

		domain.KeyAvailability: unresolve(lk.Collection(domain.CollectionAvailabilities), st.Availability, ModeName),
		domain.KeyVisibility:   st.Visibility,
		domain.KeyFeatured:     st.Featured,
		domain.KeyPublishedAt:  DateOnly(st.PublishedAt),
	}
}

// unresolve matches a stored display value back to an entity id by name in either
// locale; symbol-mode fields also match on the symbol they were stored as. An
// unmatched value is returned whole so a re-save keeps both locales.
func unresolve(coll []domain.Entity, b domain.Bilingual, mode Mode) any {
	if b.IsEmpty() {
		return ""
	}
	hit := func(v domain.Bilingual) bool {
		return (b.EN != "" && v.Has(b.EN)) || (b.VI != "" && v.Has(b.VI))
	}
	for _, e := range coll {
		if hit(e.Name) {
			return e.ID
		}
		if mode == ModeSymbol && e.Symbol != nil && hit(*e.Symbol) {
			return e.ID
		}
	}
	return b
}

// numberText renders a quantity for a text input; 0 is the coercion default and
// reads back as an empty input.
func numberText(n domain.Number) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func bilinguals(bs []domain.Bilingual) []any {
	out := make([]any, 0, len(bs))
	for _, b := range bs {
		out = append(out, b)
	}
	return out
}

func utilityItems(us []domain.Utility) []any {
	out := make([]any, 0, len(us))
	for _, u := range us {
		m := map[string]any{"name": u.Name}
		if u.Icon != "" {
			m["icon"] = u.Icon
		}
		out = append(out, m)
	}
	return out
}

func strs(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
