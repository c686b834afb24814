package model

import "time"

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// BoundsAround returns a square box of the given half-width in degrees
// centred on a point.
func BoundsAround(lat, lon, halfWidth float64) Bounds {
	return Bounds{
		MinLat: lat - halfWidth,
		MinLon: lon - halfWidth,
		MaxLat: lat + halfWidth,
		MaxLon: lon + halfWidth,
	}
}

// Pad expands the box by the given margin in degrees on each side.
func (b Bounds) Pad(margin float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - margin,
		MinLon: b.MinLon - margin,
		MaxLat: b.MaxLat + margin,
		MaxLon: b.MaxLon + margin,
	}
}

// Contains reports whether the point lies inside the box, bounds inclusive.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// SpatialQuery scopes a record store fetch: a bounding box plus a
// half-open date interval [Start, End).
type SpatialQuery struct {
	Bounds Bounds
	Start  time.Time
	End    time.Time
}

// PriceRecord is one row of the joined price-paid / postcode dataset.
// Locality, district and county may be absent in the source data.
type PriceRecord struct {
	Price          int64     `db:"price"`
	DateOfTransfer time.Time `db:"date_of_transfer"`
	Postcode       string    `db:"postcode"`
	PropertyType   string    `db:"property_type"`
	NewBuildFlag   string    `db:"new_build_flag"`
	TenureType     string    `db:"tenure_type"`
	Locality       *string   `db:"locality"`
	TownCity       string    `db:"town_city"`
	District       *string   `db:"district"`
	County         *string   `db:"county"`
	Country        string    `db:"country"`
	Latitude       float64   `db:"latitude"`
	Longitude      float64   `db:"longitude"`
	RowID          int64     `db:"db_id"`
}

// EnrichedRecord is a PriceRecord with the distance to the nearest
// matching point of interest attached, in kilometres.
type EnrichedRecord struct {
	PriceRecord
	DistanceToShop float64
}

// Property type codes used by the price-paid dataset.
const (
	PropertyTypeFlat         = "F"
	PropertyTypeSemiDetached = "S"
	PropertyTypeDetached     = "D"
	PropertyTypeTerraced     = "T"
	PropertyTypeOther        = "O"
)
