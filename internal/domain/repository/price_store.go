package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"price_service/internal/domain/model"
)

// PriceStoreRepository reads the joined price-paid / postcode dataset
// from Postgres.
type PriceStoreRepository struct {
	db *sqlx.DB
}

func NewPriceStoreRepository(connStr string) (*PriceStoreRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, &model.ConnectionError{Err: err}
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &PriceStoreRepository{db: db}, nil
}

func (r *PriceStoreRepository) Close() error { return r.db.Close() }

const fetchQuery = `
	SELECT
		pp.price,
		pp.date_of_transfer,
		pp.postcode,
		pp.property_type,
		pp.new_build_flag,
		pp.tenure_type,
		pp.locality,
		pp.town_city,
		pp.district,
		pp.county,
		pc.country,
		pc.latitude,
		pc.longitude,
		pp.db_id
	FROM pp_data AS pp
	INNER JOIN postcode_data AS pc ON pp.postcode = pc.postcode
	WHERE pc.latitude >= $1 AND pc.latitude <= $2
	  AND pc.longitude >= $3 AND pc.longitude <= $4
	  AND pp.date_of_transfer >= $5 AND pp.date_of_transfer < $6`

// Fetch returns the joined rows whose coordinates fall inside the
// query's bounding box and whose transfer date lies in [Start, End).
func (r *PriceStoreRepository) Fetch(ctx context.Context, q model.SpatialQuery) ([]model.PriceRecord, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if err := r.db.PingContext(ctx); err != nil {
		return nil, &model.ConnectionError{Err: err}
	}

	var records []model.PriceRecord
	err := r.db.SelectContext(ctx, &records, fetchQuery,
		q.Bounds.MinLat, q.Bounds.MaxLat,
		q.Bounds.MinLon, q.Bounds.MaxLon,
		q.Start, q.End,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	return records, nil
}

func validateQuery(q model.SpatialQuery) error {
	b := q.Bounds
	if b.MaxLat < b.MinLat {
		return &model.QueryError{Reason: fmt.Sprintf("north bound %f is below south bound %f", b.MaxLat, b.MinLat)}
	}
	if b.MaxLon < b.MinLon {
		return &model.QueryError{Reason: fmt.Sprintf("east bound %f is west of west bound %f", b.MaxLon, b.MinLon)}
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return &model.QueryError{Reason: "latitude out of range [-90, 90]"}
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return &model.QueryError{Reason: "longitude out of range [-180, 180]"}
	}
	if !q.Start.Before(q.End) {
		return &model.QueryError{Reason: "start date must precede end date"}
	}
	return nil
}
