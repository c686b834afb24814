package model

// POI is a point of interest from the OpenStreetMap data. Ways are
// reduced to their centroid.
type POI struct {
	ID   int64
	Type string
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// POIFilter selects points of interest by tag and names the attribute
// keys the caller wants back.
type POIFilter struct {
	Tag   string   // OSM tag name, e.g. "shop"
	Value string   // tag value, empty matches any value
	Keys  []string // requested attribute keys, may be empty
}

// POIResult carries the points matching a filter together with the
// requested attribute keys that were absent from the source data.
// Absent keys are a degradation, not a failure.
type POIResult struct {
	Points      []POI
	MissingKeys []string
}
