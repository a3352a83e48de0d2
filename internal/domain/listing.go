package domain

// Listing is the canonical, persistence-ready document assembled from wizard state.
// Every user-facing text is Bilingual, every reference field holds the resolved
// display value (never a raw id) and every list is non-nil.
type Listing struct {
	ID          string      `json:"id,omitempty"`
	Information Information `json:"information"`
	Description Description `json:"description"`
	Utilities   []Utility   `json:"utilities"`
	Media       Media       `json:"media"`
	Financial   Financial   `json:"financial"`
	Management  Management  `json:"management"`
	Status      Status      `json:"status"`
}

// Information holds listing identity and physical attributes.
type Information struct {
	Project         Bilingual `json:"project"`
	Zone            Bilingual `json:"zone"`
	PropertyType    Bilingual `json:"propertyType"`
	TransactionType string    `json:"transactionType"`
	Title           Bilingual `json:"title"`
	Address         Bilingual `json:"address"`
	Unit            Bilingual `json:"unit"`
	UnitSize        Number    `json:"unitSize"`
	Bedrooms        Number    `json:"bedrooms"`
	Bathrooms       Number    `json:"bathrooms"`
	Floors          Number    `json:"floors"`
	Latitude        Number    `json:"latitude"`
	Longitude       Number    `json:"longitude"`
	Furnishing      Bilingual `json:"furnishing"`
}

type Description struct {
	Nearby    Bilingual   `json:"nearby"`
	Content   Bilingual   `json:"content"`
	Amenities []Bilingual `json:"amenities"`
}

type Utility struct {
	Name Bilingual `json:"name"`
	Icon string    `json:"icon,omitempty"`
}

// Media lists are flat URL (or data URI) strings.
type Media struct {
	Thumbnail  string   `json:"thumbnail"`
	Images     []string `json:"images"`
	Videos     []string `json:"videos"`
	FloorPlans []string `json:"floorPlans"`
}

// Financial carries the price fields of every transaction type; which subset is
// meaningful depends on Information.TransactionType.
type Financial struct {
	Currency       string `json:"currency"`
	SalePrice      Number `json:"salePrice"`
	LeasePrice     Number `json:"leasePrice"`
	ContractLength Number `json:"contractLength"`
	NightlyPrice   Number `json:"nightlyPrice"`
	CheckIn        string `json:"checkIn"`
	CheckOut       string `json:"checkOut"`
	Deposit        Number `json:"deposit"`
	ManagementFee  Number `json:"managementFee"`
	AvailableFrom  string `json:"availableFrom"`
}

type Management struct {
	OwnerName    Bilingual `json:"ownerName"`
	OwnerPhone   string    `json:"ownerPhone"`
	OwnerEmail   string    `json:"ownerEmail"`
	ManagerName  Bilingual `json:"managerName"`
	ManagerPhone string    `json:"managerPhone"`
	Notes        Bilingual `json:"notes"`
}

type Status struct {
	Availability Bilingual `json:"availability"`
	Visibility   string    `json:"visibility"`
	Featured     bool      `json:"featured"`
	PublishedAt  string    `json:"publishedAt"`
}

// Transaction types.
const (
	TransactionSale     = "sale"
	TransactionLease    = "lease"
	TransactionHomestay = "homestay"
)

// ListingEvent is emitted after a listing was persisted.
type ListingEvent struct {
	Type      string `json:"type"`
	ListingID string `json:"listingId"`
	At        int64  `json:"at"` // unix millis
}

const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
)
