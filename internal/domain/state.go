package domain

// State is the flat accumulated wizard state. Values are plain data: strings,
// numbers, bools, []any, map[string]any or Bilingual.
type State map[string]any

// Flat state vocabulary.
const (
	KeyProject         = "project"
	KeyZone            = "zone"
	KeyPropertyType    = "propertyType"
	KeyTransactionType = "transactionType"
	KeyTitle           = "title"
	KeyAddress         = "address"
	KeyUnit            = "unit"
	KeyUnitSize        = "unitSize"
	KeyBedrooms        = "bedrooms"
	KeyBathrooms       = "bathrooms"
	KeyFloors          = "floors"
	KeyLatitude        = "latitude"
	KeyLongitude       = "longitude"
	KeyFurnishing      = "furnishing"

	KeyNearby      = "nearby"
	KeyDescription = "description"
	KeyAmenities   = "amenities"
	KeyUtilities   = "utilities"

	KeyThumbnail  = "thumbnail"
	KeyImages     = "images"
	KeyVideos     = "videos"
	KeyFloorPlans = "floorPlans"

	KeyCurrency       = "currency"
	KeySalePrice      = "salePrice"
	KeyLeasePrice     = "leasePrice"
	KeyContractLength = "contractLength"
	KeyNightlyPrice   = "nightlyPrice"
	KeyCheckIn        = "checkIn"
	KeyCheckOut       = "checkOut"
	KeyDeposit        = "deposit"
	KeyManagementFee  = "managementFee"
	KeyAvailableFrom  = "availableFrom"

	KeyOwnerName    = "ownerName"
	KeyOwnerPhone   = "ownerPhone"
	KeyOwnerEmail   = "ownerEmail"
	KeyManagerName  = "managerName"
	KeyManagerPhone = "managerPhone"
	KeyNotes        = "notes"

	KeyAvailability = "availability"
	KeyVisibility   = "visibility"
	KeyFeatured     = "featured"
	KeyPublishedAt  = "publishedAt"
)

// StepKeys is the slice of the vocabulary each wizard step edits.
var StepKeys = map[int][]string{
	1: {KeyProject, KeyZone, KeyPropertyType, KeyTransactionType, KeyTitle, KeyAddress,
		KeyUnit, KeyUnitSize, KeyBedrooms, KeyBathrooms, KeyFloors, KeyLatitude, KeyLongitude, KeyFurnishing},
	2: {KeyNearby, KeyDescription, KeyAmenities, KeyUtilities},
	3: {KeyThumbnail, KeyImages, KeyVideos, KeyFloorPlans},
	4: {KeyCurrency, KeySalePrice, KeyLeasePrice, KeyContractLength, KeyNightlyPrice, KeyCheckIn,
		KeyCheckOut, KeyDeposit, KeyManagementFee, KeyAvailableFrom, KeyOwnerName, KeyOwnerPhone,
		KeyOwnerEmail, KeyManagerName, KeyManagerPhone, KeyNotes, KeyAvailability, KeyVisibility,
		KeyFeatured, KeyPublishedAt},
}

// Apply returns a new State with patch folded over s. A nil patch value removes the
// key. Neither s nor patch is modified.
func (s State) Apply(patch State) State {
	out := make(State, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Pick returns a new State holding only keys (present ones).
func (s State) Pick(keys ...string) State {
	out := make(State, len(keys))
	for _, k := range keys {
		if v, ok := s[k]; ok {
			out[k] = v
		}
	}
	return out
}
