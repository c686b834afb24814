package core

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"price_service/internal/domain/model"
)

// poiSearchMargin is the fixed padding, in degrees, added to each side
// of the box covering the input points before querying the POI source.
const poiSearchMargin = 0.01

// POISource provides points of interest inside a bounding box.
type POISource interface {
	GetPOIs(ctx context.Context, bounds model.Bounds, filter model.POIFilter) (model.POIResult, error)
}

// ProximityEnricher attaches nearest-POI distances to price records.
type ProximityEnricher struct {
	source POISource
	logger zerolog.Logger
}

func NewProximityEnricher(source POISource, logger zerolog.Logger) *ProximityEnricher {
	return &ProximityEnricher{source: source, logger: logger}
}

// AttachNearest fetches the POIs matching filter inside one padded box
// covering all input points and attaches, per record, the distance in
// kilometres to the closest one. When two POIs are equidistant either
// may be chosen; the attached distance is the true minimum either way.
// An empty POI result fails with ErrNoPOIFound.
func (e *ProximityEnricher) AttachNearest(ctx context.Context, records []model.PriceRecord, filter model.POIFilter) ([]model.EnrichedRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	bounds := coveringBounds(records).Pad(poiSearchMargin)
	result, err := e.source.GetPOIs(ctx, bounds, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points of interest: %w", err)
	}
	if len(result.MissingKeys) > 0 {
		e.logger.Warn().
			Strs("keys", result.MissingKeys).
			Msg("requested keys are not available in the OSM data")
	}
	if len(result.Points) == 0 {
		return nil, fmt.Errorf("%w: tag %q in %+v", model.ErrNoPOIFound, filter.Tag, bounds)
	}

	enriched := make([]model.EnrichedRecord, len(records))
	for i, rec := range records {
		enriched[i] = model.EnrichedRecord{
			PriceRecord:    rec,
			DistanceToShop: nearestDistance(rec.Latitude, rec.Longitude, result.Points),
		}
	}
	return enriched, nil
}

// coveringBounds returns the smallest box containing every record.
func coveringBounds(records []model.PriceRecord) model.Bounds {
	b := model.Bounds{
		MinLat: records[0].Latitude,
		MinLon: records[0].Longitude,
		MaxLat: records[0].Latitude,
		MaxLon: records[0].Longitude,
	}
	for _, rec := range records[1:] {
		b.MinLat = math.Min(b.MinLat, rec.Latitude)
		b.MinLon = math.Min(b.MinLon, rec.Longitude)
		b.MaxLat = math.Max(b.MaxLat, rec.Latitude)
		b.MaxLon = math.Max(b.MaxLon, rec.Longitude)
	}
	return b
}

func nearestDistance(lat, lon float64, points []model.POI) float64 {
	min := haversine(lat, lon, points[0].Lat, points[0].Lon)
	for _, p := range points[1:] {
		if d := haversine(lat, lon, p.Lat, p.Lon); d < min {
			min = d
		}
	}
	return min
}

// haversine returns the great-circle distance between two points in
// kilometres.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
