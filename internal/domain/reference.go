package domain

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Entity is an externally managed reference record (project, zone, unit, ...).
type Entity struct {
	ID     string     `json:"id"`
	Name   Bilingual  `json:"name"`
	Symbol *Bilingual `json:"symbol,omitempty"`
	Status string     `json:"status"`
}

func (e Entity) Active() bool { return e.Status == StatusActive }

// Collection names as used by the CMS and the lookup table.
const (
	CollectionProjects       = "projects"
	CollectionZones          = "zones"
	CollectionPropertyTypes  = "propertyTypes"
	CollectionAvailabilities = "availabilities"
	CollectionUnits          = "units"
	CollectionFurnishings    = "furnishings"
)

var Collections = []string{
	CollectionProjects,
	CollectionZones,
	CollectionPropertyTypes,
	CollectionAvailabilities,
	CollectionUnits,
	CollectionFurnishings,
}

// Lookups is a read-only snapshot of every reference collection. Holders swap the
// whole value on refresh and never mutate a published snapshot.
type Lookups struct {
	Projects       []Entity `json:"projects"`
	Zones          []Entity `json:"zones"`
	PropertyTypes  []Entity `json:"propertyTypes"`
	Availabilities []Entity `json:"availabilities"`
	Units          []Entity `json:"units"`
	Furnishings    []Entity `json:"furnishings"`
}

// Collection returns the named collection, or nil for unknown names or a nil snapshot.
func (l *Lookups) Collection(name string) []Entity {
	if l == nil {
		return nil
	}
	switch name {
	case CollectionProjects:
		return l.Projects
	case CollectionZones:
		return l.Zones
	case CollectionPropertyTypes:
		return l.PropertyTypes
	case CollectionAvailabilities:
		return l.Availabilities
	case CollectionUnits:
		return l.Units
	case CollectionFurnishings:
		return l.Furnishings
	}
	return nil
}

// With returns a copy of l with the named collection replaced.
func (l *Lookups) With(name string, es []Entity) *Lookups {
	var out Lookups
	if l != nil {
		out = *l
	}
	switch name {
	case CollectionProjects:
		out.Projects = es
	case CollectionZones:
		out.Zones = es
	case CollectionPropertyTypes:
		out.PropertyTypes = es
	case CollectionAvailabilities:
		out.Availabilities = es
	case CollectionUnits:
		out.Units = es
	case CollectionFurnishings:
		out.Furnishings = es
	}
	return &out
}

// Active returns a new snapshot holding only Active entities, for creation flows.
func (l *Lookups) Active() *Lookups {
	out := &Lookups{}
	for _, name := range Collections {
		var keep []Entity
		for _, e := range l.Collection(name) {
			if e.Active() {
				keep = append(keep, e)
			}
		}
		if keep == nil {
			keep = []Entity{}
		}
		out = out.With(name, keep)
	}
	return out
}
