// Package items holds the domain types exchanged between the voice pipeline
// and its callers: items recognized from speech, the read-only catalog
// snapshot they are reconciled against, and the known-locations context used
// for location-aware extraction.
package items

// RecognizedItem is one candidate item extracted from a voice command.
// The parser creates it, the reconciliation engine may mutate it, and the
// caller consumes it read-only. It is never persisted by this module.
type RecognizedItem struct {
	// ID is the sequence number assigned by the extraction model (name-only
	// mode). It carries no meaning beyond ordering.
	ID int `json:"id,omitempty"`

	Name string `json:"name"`

	// Location ids are present together or absent together. The parser drops
	// records that carry a partial set.
	ZoneID      *int `json:"zone_id,omitempty"`
	FurnitureID *int `json:"furniture_id,omitempty"`
	DrawerID    *int `json:"drawer_id,omitempty"`

	// IsConventional is set only by reconciliation: true when the name matched
	// an existing catalog entry, false when it should be treated as a new
	// temporary item. Nil before reconciliation runs.
	IsConventional *bool `json:"is_conventional,omitempty"`

	// DBID and DBName identify the matched catalog entry, when any.
	DBID   *int   `json:"db_id,omitempty"`
	DBName string `json:"db_name,omitempty"`

	// LocationInfo is the human-readable combined location of the matched
	// catalog entry.
	LocationInfo string `json:"location_info,omitempty"`
}

// HasFullLocation reports whether all three location ids are set.
func (it *RecognizedItem) HasFullLocation() bool {
	return it.ZoneID != nil && it.FurnitureID != nil && it.DrawerID != nil
}

// HasPartialLocation reports whether some but not all location ids are set.
// Such records are invalid and get dropped by the parser.
func (it *RecognizedItem) HasPartialLocation() bool {
	any := it.ZoneID != nil || it.FurnitureID != nil || it.DrawerID != nil
	return any && !it.HasFullLocation()
}

// CatalogItem is one entry of the caller-supplied catalog snapshot:
// a conventional (non-temporary) inventory item with its location.
type CatalogItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ZoneID      int    `json:"zone_id,omitempty"`
	FurnitureID int    `json:"furniture_id,omitempty"`
	DrawerID    int    `json:"drawer_id,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Zone is a known storage zone.
type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Furniture is a known piece of furniture inside a zone.
type Furniture struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	ZoneID int    `json:"zone_id"`
}

// Drawer is a known drawer or shelf level inside a piece of furniture.
type Drawer struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	FurnitureID int    `json:"furniture_id"`
}

// LocationsContext is the read-only set of known locations offered to the
// extraction model in location-aware mode so it can assign ids.
type LocationsContext struct {
	Zones     []Zone      `json:"zones"`
	Furniture []Furniture `json:"furniture"`
	Drawers   []Drawer    `json:"drawers"`
}
