package core_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_service/internal/core"
	"price_service/internal/domain/model"
)

type fakePriceStore struct {
	records []model.PriceRecord
	err     error
	query   model.SpatialQuery
}

func (f *fakePriceStore) Fetch(_ context.Context, q model.SpatialQuery) ([]model.PriceRecord, error) {
	f.query = q
	return f.records, f.err
}

// detachedSales builds a plausible set of detached-house transactions
// around a centre point, spread over the weeks either side of date.
func detachedSales(n int, lat, lon float64, date time.Time) []model.PriceRecord {
	records := make([]model.PriceRecord, n)
	for i := range records {
		rec := validRecord(int64(i + 1))
		rec.PropertyType = model.PropertyTypeDetached
		rec.Price = 250000 + int64(i)*1500
		rec.Latitude = lat + float64(i%10)*0.002
		rec.Longitude = lon - float64(i%7)*0.003
		rec.DateOfTransfer = date.AddDate(0, 0, (i%20)*7-70)
		records[i] = rec
	}
	return records
}

func testConfig() core.PipelineConfig {
	return core.PipelineConfig{
		TestSize:     0.2,
		TrainingBBox: 0.5,
		Regression:   core.DefaultRegressionConfig(),
		Seed:         42,
	}
}

func nearbyShop(lat, lon float64) *fakePOISource {
	return &fakePOISource{result: model.POIResult{
		Points: []model.POI{{ID: 10, Lat: lat + latDegreesForKm(0.4), Lon: lon, Tags: map[string]string{"shop": "bakery"}}},
	}}
}

func TestPredictPrice_EndToEnd(t *testing.T) {
	const lat, lon = 52.2053, 0.1218
	date := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	store := &fakePriceStore{records: detachedSales(24, lat, lon, date)}

	service := core.NewPredictionService(store, nearbyShop(lat, lon),
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	price, err := service.PredictPrice(context.Background(), lat, lon, date, model.PropertyTypeDetached)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(price))
	assert.False(t, math.IsInf(price, 0))
	assert.Greater(t, price, 0.0)

	// The fetch was scoped to the query point and date.
	assert.True(t, store.query.Bounds.Contains(lat, lon))
	assert.True(t, store.query.Start.Before(date))
	assert.True(t, store.query.End.After(date))
}

func TestPredictPrice_EmptyStore(t *testing.T) {
	store := &fakePriceStore{}
	service := core.NewPredictionService(store, nearbyShop(52.2, 0.12),
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	_, err := service.PredictPrice(context.Background(), 52.2053, 0.1218,
		time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), model.PropertyTypeDetached)
	assert.ErrorIs(t, err, model.ErrNoTrainingData)
}

func TestPredictPrice_FetchFailureAborts(t *testing.T) {
	storeErr := &model.ConnectionError{Err: errors.New("connection refused")}
	store := &fakePriceStore{err: storeErr}
	service := core.NewPredictionService(store, nearbyShop(52.2, 0.12),
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	_, err := service.PredictPrice(context.Background(), 52.2053, 0.1218,
		time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), model.PropertyTypeDetached)

	var connErr *model.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestPredictPrice_InvalidRecordAborts(t *testing.T) {
	const lat, lon = 52.2053, 0.1218
	date := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := detachedSales(24, lat, lon, date)
	records[5].PropertyType = "X"
	store := &fakePriceStore{records: records}

	service := core.NewPredictionService(store, nearbyShop(lat, lon),
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	_, err := service.PredictPrice(context.Background(), lat, lon, date, model.PropertyTypeDetached)

	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "property_type", schemaErr.Column)
}

func TestPredictPrice_NoShopsAborts(t *testing.T) {
	const lat, lon = 52.2053, 0.1218
	date := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	store := &fakePriceStore{records: detachedSales(24, lat, lon, date)}
	noShops := &fakePOISource{result: model.POIResult{}}

	service := core.NewPredictionService(store, noShops,
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	_, err := service.PredictPrice(context.Background(), lat, lon, date, model.PropertyTypeDetached)
	assert.ErrorIs(t, err, model.ErrNoPOIFound)
}

// Predicting a property type absent from the training window fails:
// the categorical mapping is derived per run, and unseen values have
// no defined code.
func TestPredictPrice_UnseenPropertyType(t *testing.T) {
	const lat, lon = 52.2053, 0.1218
	date := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	store := &fakePriceStore{records: detachedSales(24, lat, lon, date)}

	service := core.NewPredictionService(store, nearbyShop(lat, lon),
		core.DefaultPriceSchema(), testConfig(), zerolog.Nop())

	_, err := service.PredictPrice(context.Background(), lat, lon, date, model.PropertyTypeFlat)
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
}

// The same seed yields the same split and therefore the same estimate.
func TestPredictPrice_Deterministic(t *testing.T) {
	const lat, lon = 52.2053, 0.1218
	date := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)

	run := func() float64 {
		store := &fakePriceStore{records: detachedSales(24, lat, lon, date)}
		service := core.NewPredictionService(store, nearbyShop(lat, lon),
			core.DefaultPriceSchema(), testConfig(), zerolog.Nop())
		price, err := service.PredictPrice(context.Background(), lat, lon, date, model.PropertyTypeDetached)
		require.NoError(t, err)
		return price
	}

	assert.Equal(t, run(), run())
}
