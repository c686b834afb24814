package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/serjvanilla/go-overpass"

	"price_service/internal/domain/model"
)

// OverpassRepository fetches points of interest from an Overpass API
// endpoint.
type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassRepository(endpoint string, timeout time.Duration) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
	}
}

// GetPOIs returns the nodes and ways inside bounds whose tags match the
// filter. Requested attribute keys absent from every returned element
// are reported in the result rather than treated as an error.
func (r *OverpassRepository) GetPOIs(ctx context.Context, bounds model.Bounds, filter model.POIFilter) (model.POIResult, error) {
	bbox := fmt.Sprintf("%f,%f,%f,%f", bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)

	selector := fmt.Sprintf("[%q]", filter.Tag)
	if filter.Value != "" {
		selector = fmt.Sprintf("[%q=%q]", filter.Tag, filter.Value)
	}

	query := fmt.Sprintf(`
		[out:json];
		(
			node%s(%s);
			way%s(%s);
		);
		out body;
		>;
		out skel qt;
	`, selector, bbox, selector, bbox)

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return model.POIResult{}, fmt.Errorf("failed to execute poi query: %w", err)
	}

	points := convertToPOIs(result)
	return model.POIResult{
		Points:      points,
		MissingKeys: missingKeys(points, filter.Keys),
	}, nil
}

func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	_, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}
	return &result, nil
}

func convertToPOIs(result *overpass.Result) []model.POI {
	var points []model.POI

	for _, node := range result.Nodes {
		points = append(points, model.POI{
			ID:   node.ID,
			Type: string(overpass.ElementTypeNode),
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: node.Tags,
		})
	}

	// Ways are reduced to the centroid of their member nodes.
	for _, way := range result.Ways {
		var lat, lon float64
		count := len(way.Nodes)
		if count == 0 {
			continue
		}
		for _, node := range way.Nodes {
			lat += node.Lat
			lon += node.Lon
		}
		points = append(points, model.POI{
			ID:   way.ID,
			Type: string(overpass.ElementTypeWay),
			Lat:  lat / float64(count),
			Lon:  lon / float64(count),
			Tags: way.Tags,
		})
	}

	return points
}

// missingKeys returns the requested keys that appear on none of the
// returned elements.
func missingKeys(points []model.POI, keys []string) []string {
	var missing []string
	for _, key := range keys {
		found := false
		for _, p := range points {
			if _, ok := p.Tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, key)
		}
	}
	return missing
}
